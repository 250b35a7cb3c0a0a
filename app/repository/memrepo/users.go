package memrepo

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelShop/app/models"
)

// ErrDuplicate mirrors a unique-constraint violation.
var ErrDuplicate = gorm.ErrDuplicatedKey

type userRepo struct{ s *Store }

func (r *userRepo) Create(user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email || u.Username == user.Username {
			return ErrDuplicate
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	stamp(&user.CreatedAt, &user.UpdatedAt, r.s.now())
	stored := *user
	stored.Providers = nil
	r.s.users[user.ID] = stored
	return nil
}

func (r *userRepo) GetByID(id uuid.UUID) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *userRepo) ExistsByUsername(username string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *userRepo) Update(user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	for id, u := range r.s.users {
		if id != user.ID && (u.Email == user.Email || u.Username == user.Username) {
			return ErrDuplicate
		}
	}
	user.UpdatedAt = r.s.now()
	stored := *user
	stored.Providers = nil
	r.s.users[user.ID] = stored
	return nil
}

func (r *userRepo) Search(keyword string, offset, limit int) ([]models.User, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kw := strings.ToLower(strings.TrimSpace(keyword))
	var out []models.User
	for _, u := range r.s.users {
		if kw != "" && !containsAny(kw, u.Username, u.Email, u.FullName) {
			continue
		}
		out = append(out, u)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, offset, limit), int64(len(out)), nil
}

func containsAny(kw string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), kw) {
			return true
		}
	}
	return false
}

type providerRepo struct{ s *Store }

func (r *providerRepo) Create(link *models.AuthProvider) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.providers {
		if p.Provider == link.Provider && (p.ProviderID == link.ProviderID || p.UserID == link.UserID) {
			return ErrDuplicate
		}
	}
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = r.s.now()
	}
	stored := *link
	stored.User = nil
	r.s.providers[link.ID] = stored
	return nil
}

func (r *providerRepo) ExistsByUserAndProvider(userID uuid.UUID, provider models.Provider) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.providers {
		if p.UserID == userID && p.Provider == provider {
			return true, nil
		}
	}
	return false, nil
}

func (r *providerRepo) GetByProviderID(provider models.Provider, providerID string) (*models.AuthProvider, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.providers {
		if p.Provider == provider && p.ProviderID == providerID {
			if u, ok := r.s.users[p.UserID]; ok {
				p.User = &u
			}
			return &p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *providerRepo) ListByUser(userID uuid.UUID) ([]models.AuthProvider, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.AuthProvider
	for _, p := range r.s.providers {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type tokenRepo struct{ s *Store }

func (r *tokenRepo) Create(token *models.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tokens {
		if t.TokenHash == token.TokenHash {
			return ErrDuplicate
		}
	}
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = r.s.now()
	}
	r.s.tokens[token.ID] = *token
	return nil
}

func (r *tokenRepo) GetByHash(hash string) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tokens {
		if t.TokenHash == hash {
			return &t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// GetByHashForUpdate relies on the store-wide transaction lock.
func (r *tokenRepo) GetByHashForUpdate(hash string) (*models.RefreshToken, error) {
	return r.GetByHash(hash)
}

func (r *tokenRepo) Revoke(id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tokens[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.Revoked = true
	r.s.tokens[id] = t
	return nil
}

func (r *tokenRepo) RevokeAllByUser(userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, t := range r.s.tokens {
		if t.UserID == userID && !t.Revoked {
			t.Revoked = true
			r.s.tokens[id] = t
			n++
		}
	}
	return n, nil
}

func (r *tokenRepo) DeleteExpiredAndRevoked(now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, t := range r.s.tokens {
		if t.Revoked || t.ExpiresAt.Before(now) {
			delete(r.s.tokens, id)
			n++
		}
	}
	return n, nil
}
