package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PixelShop/app/models"
	"github.com/ManuelReschke/PixelShop/app/repository/memrepo"
	"github.com/ManuelReschke/PixelShop/internal/pkg/apperr"
	"github.com/ManuelReschke/PixelShop/internal/pkg/otp"
	"github.com/ManuelReschke/PixelShop/internal/pkg/token"
)

const (
	testSecret = "0123456789abcdef0123456789abcdef"
	testCode   = "123456"
)

type fakeOTP struct {
	mu    sync.Mutex
	codes map[string]string
}

func (f *fakeOTP) Send(ctx context.Context, purpose otp.Purpose, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[otp.Key(purpose, email)] = testCode
	return nil
}

func (f *fakeOTP) Verify(ctx context.Context, purpose otp.Purpose, email, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := otp.Key(purpose, email)
	stored, ok := f.codes[key]
	if !ok || stored != code {
		return false, nil
	}
	delete(f.codes, key)
	return true, nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	users []models.User
}

func (n *recordingNotifier) NotifyUserRegistered(ctx context.Context, user models.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.users = append(n.users, user)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.users)
}

type fixture struct {
	svc      *Service
	store    *memrepo.Store
	otp      *fakeOTP
	notifier *recordingNotifier
	tokens   *token.Service
}

func newFixture() *fixture {
	store := memrepo.New()
	codes := &fakeOTP{codes: map[string]string{}}
	notifier := &recordingNotifier{}
	tokens := token.NewService(testSecret, 15*time.Minute, 7*24*time.Hour)
	return &fixture{
		svc:      NewService(store, codes, tokens, notifier),
		store:    store,
		otp:      codes,
		notifier: notifier,
		tokens:   tokens,
	}
}

func (f *fixture) register(t *testing.T, email, username, password string) *Result {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.svc.SendRegistrationOTP(ctx, email))
	res, err := f.svc.Register(ctx, RegisterInput{Email: email, Otp: testCode, Username: username, Password: password})
	require.NoError(t, err)
	return res
}

func assertAppErr(t *testing.T, err error, status int, message string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok, "expected *apperr.Error, got %T: %v", err, err)
	assert.Equal(t, status, appErr.Status)
	assert.Equal(t, message, appErr.Message)
}

func TestRegisterCreatesVerifiedLocalAccount(t *testing.T) {
	f := newFixture()

	res := f.register(t, "  Alice@Example.com ", "alice", "secret123")

	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, int64(900), res.ExpiresIn)
	assert.Equal(t, "alice@example.com", res.User.Email)
	assert.True(t, res.User.Verified)
	assert.Equal(t, models.RoleUser, res.User.Role)
	assert.Equal(t, []models.Provider{models.ProviderLocal}, f.store.ProvidersOf(res.User.ID))
	assert.Len(t, f.store.TokensOf(res.User.ID), 1)
	assert.Equal(t, 1, f.notifier.count())

	claims, err := f.tokens.ParseAccess(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID.String(), claims.Subject)
}

func TestRegisterRejectsBadOTP(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.svc.SendRegistrationOTP(ctx, "bob@example.com"))

	_, err := f.svc.Register(ctx, RegisterInput{Email: "bob@example.com", Otp: "000000", Username: "bob", Password: "secret123"})
	assertAppErr(t, err, http.StatusBadRequest, MsgInvalidOTP)
	assert.Equal(t, 0, f.store.UserCount())

	// a code for another purpose does not count
	f.otp.codes = map[string]string{otp.Key(otp.PurposeResetPassword, "bob@example.com"): testCode}
	_, err = f.svc.Register(ctx, RegisterInput{Email: "bob@example.com", Otp: testCode, Username: "bob", Password: "secret123"})
	assertAppErr(t, err, http.StatusBadRequest, MsgInvalidOTP)
}

func TestRegisterConflicts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.register(t, "alice@example.com", "alice", "secret123")

	err := f.svc.SendRegistrationOTP(ctx, "ALICE@example.com")
	assertAppErr(t, err, http.StatusConflict, MsgLocalAccountExists)

	require.NoError(t, f.otp.Send(ctx, otp.PurposeRegister, "carol@example.com"))
	_, err = f.svc.Register(ctx, RegisterInput{Email: "carol@example.com", Otp: testCode, Username: "alice", Password: "secret123"})
	assertAppErr(t, err, http.StatusConflict, MsgUsernameTaken)
	assert.Equal(t, 1, f.store.UserCount())
	assert.Equal(t, 1, f.notifier.count(), "a failed registration must not notify")
}

func TestRegisterUpgradesOAuthAccount(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	oauth, err := f.svc.OAuthLogin(ctx, OAuthProfile{
		Provider:   models.ProviderGoogle,
		ProviderID: "g-1",
		Email:      "dana@example.com",
		Name:       "Dana Scully",
	})
	require.NoError(t, err)
	assert.True(t, oauth.NeedsPasswordSetup)

	_, err = f.svc.Login(ctx, "dana@example.com", "whatever")
	assertAppErr(t, err, http.StatusBadRequest, MsgSocialAccount)

	require.NoError(t, f.svc.SendRegistrationOTP(ctx, "dana@example.com"))
	res, err := f.svc.Register(ctx, RegisterInput{Email: "dana@example.com", Otp: testCode, Username: "ignored", Password: "secret123", FullName: "Dana K. Scully"})
	require.NoError(t, err)

	assert.Equal(t, oauth.User.ID, res.User.ID)
	assert.Equal(t, "Dana K. Scully", res.User.FullName)
	assert.ElementsMatch(t, []models.Provider{models.ProviderGoogle, models.ProviderLocal}, f.store.ProvidersOf(res.User.ID))
	assert.Equal(t, 1, f.store.UserCount())
	assert.Equal(t, 2, f.notifier.count())

	_, err = f.svc.Login(ctx, "dana@example.com", "secret123")
	require.NoError(t, err)
}

func TestLoginChecksInOrder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.register(t, "erin@example.com", "erin", "secret123")
	repos := f.store.Repositories()

	_, err := f.svc.Login(ctx, "nobody@example.com", "secret123")
	assertAppErr(t, err, http.StatusUnauthorized, MsgInvalidCredentials)

	_, err = f.svc.Login(ctx, "erin@example.com", "wrong")
	assertAppErr(t, err, http.StatusUnauthorized, MsgInvalidCredentials)

	user, err := repos.User.GetByEmail("erin@example.com")
	require.NoError(t, err)
	user.Verified = false
	require.NoError(t, repos.User.Update(user))

	_, err = f.svc.Login(ctx, "erin@example.com", "wrong")
	assertAppErr(t, err, http.StatusUnauthorized, MsgInvalidCredentials)
	_, err = f.svc.Login(ctx, "erin@example.com", "secret123")
	assertAppErr(t, err, http.StatusForbidden, MsgVerifyEmail)

	user.Verified = true
	user.Active = false
	require.NoError(t, repos.User.Update(user))
	_, err = f.svc.Login(ctx, "erin@example.com", "secret123")
	assertAppErr(t, err, http.StatusForbidden, MsgAccountDisabled)

	user.Active = true
	require.NoError(t, repos.User.Update(user))
	res, err := f.svc.Login(ctx, " ERIN@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, res.User.ID)

	stored, err := repos.User.GetByID(user.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestRefreshRotatesTokens(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	first := f.register(t, "fay@example.com", "fay", "secret123")

	second, err := f.svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, first.User.ID, second.User.ID)

	old, err := f.store.Repositories().RefreshToken.GetByHash(token.HashRefresh(first.RefreshToken))
	require.NoError(t, err)
	assert.True(t, old.Revoked)

	third, err := f.svc.Refresh(ctx, second.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, third.AccessToken)
}

func TestRefreshReuseRevokesEverything(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	first := f.register(t, "gus@example.com", "gus", "secret123")
	other, err := f.svc.Login(ctx, "gus@example.com", "secret123")
	require.NoError(t, err)

	rotated, err := f.svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)

	_, err = f.svc.Refresh(ctx, first.RefreshToken)
	assertAppErr(t, err, http.StatusUnauthorized, MsgTokenRevoked)

	for _, rt := range f.store.TokensOf(first.User.ID) {
		assert.True(t, rt.Revoked, "token %s should be revoked after reuse", rt.ID)
	}

	_, err = f.svc.Refresh(ctx, rotated.RefreshToken)
	assertAppErr(t, err, http.StatusUnauthorized, MsgTokenRevoked)
	_, err = f.svc.Refresh(ctx, other.RefreshToken)
	assertAppErr(t, err, http.StatusUnauthorized, MsgTokenRevoked)
}

func TestRefreshFailures(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	res := f.register(t, "hal@example.com", "hal", "secret123")

	_, err := f.svc.Refresh(ctx, "garbage")
	assertAppErr(t, err, http.StatusUnauthorized, MsgTokenInvalid)

	_, err = f.svc.Refresh(ctx, res.AccessToken)
	assertAppErr(t, err, http.StatusUnauthorized, MsgTokenInvalid)

	unknown, _, err := f.tokens.IssueRefresh(res.User.ID)
	require.NoError(t, err)
	_, err = f.svc.Refresh(ctx, unknown)
	assertAppErr(t, err, http.StatusUnauthorized, MsgTokenMissing)

	stale := token.NewService(testSecret, time.Minute, -time.Minute)
	expired, exp, err := stale.IssueRefresh(res.User.ID)
	require.NoError(t, err)
	require.NoError(t, f.store.Repositories().RefreshToken.Create(&models.RefreshToken{
		UserID:    res.User.ID,
		TokenHash: token.HashRefresh(expired),
		ExpiresAt: exp,
	}))
	_, err = f.svc.Refresh(ctx, expired)
	assertAppErr(t, err, http.StatusUnauthorized, MsgTokenInvalid)

	lapsed, _, err := f.tokens.IssueRefresh(res.User.ID)
	require.NoError(t, err)
	require.NoError(t, f.store.Repositories().RefreshToken.Create(&models.RefreshToken{
		UserID:    res.User.ID,
		TokenHash: token.HashRefresh(lapsed),
		ExpiresAt: time.Now().Add(-time.Minute),
	}))
	_, err = f.svc.Refresh(ctx, lapsed)
	assertAppErr(t, err, http.StatusUnauthorized, MsgTokenExpired)
}

func TestExpiredRevokedTokenDoesNotRevokeSessions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	res := f.register(t, "hugo@example.com", "hugo", "secret123")

	stale := token.NewService(testSecret, time.Minute, -time.Minute)
	old, exp, err := stale.IssueRefresh(res.User.ID)
	require.NoError(t, err)
	require.NoError(t, f.store.Repositories().RefreshToken.Create(&models.RefreshToken{
		UserID:    res.User.ID,
		TokenHash: token.HashRefresh(old),
		ExpiresAt: exp,
		Revoked:   true,
	}))

	_, err = f.svc.Refresh(ctx, old)
	assertAppErr(t, err, http.StatusUnauthorized, MsgTokenInvalid)

	next, err := f.svc.Refresh(ctx, res.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, next.User.ID)
}

func TestLoginWithoutAnyLink(t *testing.T) {
	f := newFixture()
	u := &models.User{Email: "orphan@example.com", Username: "orphan", Active: true, Verified: true}
	require.NoError(t, u.SetPassword("secret123"))
	require.NoError(t, f.store.Repositories().User.Create(u))

	_, err := f.svc.Login(context.Background(), "orphan@example.com", "secret123")
	assertAppErr(t, err, http.StatusUnauthorized, MsgInvalidCredentials)
}

func TestLogoutIsIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	res := f.register(t, "ivy@example.com", "ivy", "secret123")

	require.NoError(t, f.svc.Logout(ctx, res.RefreshToken))
	require.NoError(t, f.svc.Logout(ctx, res.RefreshToken))
	require.NoError(t, f.svc.Logout(ctx, "not-a-token"))
	require.NoError(t, f.svc.Logout(ctx, ""))

	_, err := f.svc.Refresh(ctx, res.RefreshToken)
	assertAppErr(t, err, http.StatusUnauthorized, MsgTokenRevoked)
}

func TestResetPassword(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	err := f.svc.SendResetPasswordOTP(ctx, "nobody@example.com")
	assertAppErr(t, err, http.StatusNotFound, MsgEmailNotFound)

	f.register(t, "jan@example.com", "jan", "secret123")
	require.NoError(t, f.svc.SendResetPasswordOTP(ctx, "jan@example.com"))

	_, err = f.svc.ResetPassword(ctx, ResetPasswordInput{Email: "jan@example.com", Otp: "999999", Password: "newpass1"})
	assertAppErr(t, err, http.StatusBadRequest, MsgInvalidOTP)

	_, err = f.svc.ResetPassword(ctx, ResetPasswordInput{Email: "jan@example.com", Otp: testCode, Password: "newpass1"})
	require.NoError(t, err)
	assert.Equal(t, 1, f.notifier.count(), "existing local accounts are not re-announced")

	_, err = f.svc.Login(ctx, "jan@example.com", "secret123")
	assertAppErr(t, err, http.StatusUnauthorized, MsgInvalidCredentials)
	_, err = f.svc.Login(ctx, "jan@example.com", "newpass1")
	require.NoError(t, err)

	// the code was consumed
	_, err = f.svc.ResetPassword(ctx, ResetPasswordInput{Email: "jan@example.com", Otp: testCode, Password: "again123"})
	assertAppErr(t, err, http.StatusBadRequest, MsgInvalidOTP)
}

func TestResetPasswordAddsLocalLink(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	oauth, err := f.svc.OAuthLogin(ctx, OAuthProfile{Provider: models.ProviderGitHub, ProviderID: "42", Email: "kim@example.com", Name: "Kim"})
	require.NoError(t, err)

	require.NoError(t, f.svc.SendResetPasswordOTP(ctx, "kim@example.com"))
	_, err = f.svc.ResetPassword(ctx, ResetPasswordInput{Email: "kim@example.com", Otp: testCode, Password: "secret123"})
	require.NoError(t, err)

	assert.ElementsMatch(t, []models.Provider{models.ProviderGitHub, models.ProviderLocal}, f.store.ProvidersOf(oauth.User.ID))
	assert.Equal(t, 2, f.notifier.count())
}

func TestOAuthLogin(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	profile := OAuthProfile{
		Provider:   models.ProviderGoogle,
		ProviderID: "sub-1",
		Email:      "Leo@Example.com",
		Name:       "Léo Ñúñez",
		AvatarURL:  "https://img.example.com/leo.png",
	}

	first, err := f.svc.OAuthLogin(ctx, profile)
	require.NoError(t, err)
	assert.Equal(t, "leonunez", first.User.Username)
	assert.Equal(t, "leo@example.com", first.User.Email)
	assert.Equal(t, profile.AvatarURL, first.User.AvatarURL)
	assert.True(t, first.NeedsPasswordSetup)
	assert.Equal(t, models.ProviderGoogle, first.Provider)
	assert.Equal(t, 1, f.notifier.count())

	again, err := f.svc.OAuthLogin(ctx, profile)
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, again.User.ID)
	assert.Equal(t, 1, f.store.UserCount())
	assert.Equal(t, 1, f.notifier.count())

	// same email from a second provider links to the same account
	gh, err := f.svc.OAuthLogin(ctx, OAuthProfile{Provider: models.ProviderGitHub, ProviderID: "7", Email: "leo@example.com"})
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, gh.User.ID)
	assert.ElementsMatch(t, []models.Provider{models.ProviderGoogle, models.ProviderGitHub}, f.store.ProvidersOf(first.User.ID))

	// a clashing username gets a numeric suffix
	other, err := f.svc.OAuthLogin(ctx, OAuthProfile{Provider: models.ProviderGoogle, ProviderID: "sub-2", Email: "leo2@example.com", Name: "Leo Nunez"})
	require.NoError(t, err)
	assert.Equal(t, "leonunez1", other.User.Username)
}

func TestOAuthLoginLinksLocalAccount(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	local := f.register(t, "mia@example.com", "mia", "secret123")

	res, err := f.svc.OAuthLogin(ctx, OAuthProfile{Provider: models.ProviderGitHub, ProviderID: "99", Email: "mia@example.com", Name: "Mia", AvatarURL: "https://a/b.png"})
	require.NoError(t, err)
	assert.Equal(t, local.User.ID, res.User.ID)
	assert.False(t, res.NeedsPasswordSetup)
	assert.Equal(t, "Mia", res.User.FullName)
	assert.Equal(t, "https://a/b.png", res.User.AvatarURL)
	assert.Equal(t, 1, f.notifier.count())
}

func TestOAuthLoginFillsBlankProfileFields(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	local := f.register(t, "rex@example.com", "rex", "secret123")

	repos := f.store.Repositories()
	user, err := repos.User.GetByID(local.User.ID)
	require.NoError(t, err)
	user.FullName = "   "
	user.AvatarURL = " "
	require.NoError(t, repos.User.Update(user))

	res, err := f.svc.OAuthLogin(ctx, OAuthProfile{Provider: models.ProviderGoogle, ProviderID: "rex-1", Email: "rex@example.com", Name: "Rex Park", AvatarURL: "https://a/rex.png"})
	require.NoError(t, err)
	assert.Equal(t, "Rex Park", res.User.FullName)
	assert.Equal(t, "https://a/rex.png", res.User.AvatarURL)

	res, err = f.svc.OAuthLogin(ctx, OAuthProfile{Provider: models.ProviderGoogle, ProviderID: "rex-1", Email: "rex@example.com", Name: "Someone Else"})
	require.NoError(t, err)
	assert.Equal(t, "Rex Park", res.User.FullName)
}

func TestOAuthLoginRequiresEmail(t *testing.T) {
	f := newFixture()
	_, err := f.svc.OAuthLogin(context.Background(), OAuthProfile{Provider: models.ProviderGitHub, ProviderID: "1", Email: "  "})
	assertAppErr(t, err, http.StatusBadRequest, MsgOAuthEmailMissing)
	assert.Equal(t, 0, f.store.UserCount())
}

func TestSetupPassword(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	oauth, err := f.svc.OAuthLogin(ctx, OAuthProfile{Provider: models.ProviderGoogle, ProviderID: "s", Email: "ned@example.com", Name: "Ned"})
	require.NoError(t, err)

	_, err = f.svc.SetupPassword(ctx, oauth.User.ID, "secret123")
	require.NoError(t, err)
	_, err = f.svc.SetupPassword(ctx, oauth.User.ID, "other123")
	assertAppErr(t, err, http.StatusConflict, MsgPasswordAlreadySet)

	_, err = f.svc.Login(ctx, "ned@example.com", "secret123")
	require.NoError(t, err)

	_, err = f.svc.SetupPassword(ctx, uuid.New(), "secret123")
	assertAppErr(t, err, http.StatusNotFound, MsgUserNotFound)
}

func TestMe(t *testing.T) {
	f := newFixture()
	res := f.register(t, "oli@example.com", "oli", "secret123")

	me, err := f.svc.Me(context.Background(), res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "oli", me.Username)

	_, err = f.svc.Me(context.Background(), uuid.New())
	assertAppErr(t, err, http.StatusNotFound, MsgUserNotFound)
}

func TestConcurrentRefreshSingleWinner(t *testing.T) {
	f := newFixture()
	res := f.register(t, "pat@example.com", "pat", "secret123")

	var wg sync.WaitGroup
	results := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Refresh(context.Background(), res.RefreshToken)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		assert.Equal(t, http.StatusUnauthorized, apperr.StatusOf(err), fmt.Sprint(err))
	}
	assert.Equal(t, 1, wins)
}
