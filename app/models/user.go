package models

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type User struct {
	ID             uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	Email          string     `gorm:"uniqueIndex;type:varchar(200)" json:"email"`
	Username       string     `gorm:"uniqueIndex;type:varchar(30)" json:"username"`
	FullName       string     `gorm:"type:varchar(100);default:null" json:"full_name"`
	AvatarURL      string     `gorm:"type:varchar(500);default:null" json:"avatar_url"`
	AvatarPublicID string     `gorm:"type:varchar(255);default:null" json:"-"`
	PasswordHash   *string    `gorm:"type:varchar(255);default:null" json:"-"`
	Role           Role       `gorm:"type:varchar(20);default:'USER'" json:"role"`
	Verified       bool       `gorm:"default:false" json:"verified"`
	Active         bool       `gorm:"default:true" json:"active"`
	LastLoginAt    *time.Time `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Providers []AuthProvider `gorm:"foreignKey:UserID" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// UserDTO is the public representation of a user returned by the API.
type UserDTO struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FullName  string    `json:"fullName"`
	AvatarURL string    `json:"avatarUrl"`
	Role      Role      `json:"role"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) DTO() UserDTO {
	return UserDTO{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FullName:  u.FullName,
		AvatarURL: u.AvatarURL,
		Role:      u.Role,
		Verified:  u.Verified,
		CreatedAt: u.CreatedAt,
	}
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// SetPassword hashes and sets a new password for the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.PasswordHash = &hashedPassword
	return nil
}

// CheckPassword verifies the password against the stored hash. Users without a
// local credential never match.
func (u *User) CheckPassword(password string) bool {
	if u.PasswordHash == nil || *u.PasswordHash == "" {
		return false
	}
	return CheckPasswordHash(password, *u.PasswordHash)
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// MarkLogin records the time of the latest successful login
func (u *User) MarkLogin(now time.Time) {
	u.LastLoginAt = &now
}
