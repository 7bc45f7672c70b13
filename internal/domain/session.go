package domain

import (
	"errors"
	"time"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// UserStatus mirrors the backend account status.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusInactive  UserStatus = "INACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is the authenticated principal.
type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Phone     string     `json:"phone,omitempty"`
	Status    UserStatus `json:"status,omitempty"`
	Roles     []UserRole `json:"roles"`
	CreatedAt time.Time  `json:"createdAt,omitempty"`
}

// FullName joins first and last name.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// HasRole reports whether the user holds role. RoleUnknown never matches.
func (u *User) HasRole(role Role) bool {
	if u == nil || role == RoleUnknown {
		return false
	}
	for _, r := range u.Roles {
		if r.Name == role {
			return true
		}
	}
	return false
}

// Credentials are sent verbatim to the backend login endpoint.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is the backend login payload.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user"`
}

// Session is the client's view of who is signed in.
type Session struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// IsAuthenticated holds iff both a token and a user are present.
func (s Session) IsAuthenticated() bool {
	return s.Token != "" && s.User != nil
}

func (s Session) IsAdmin() bool {
	return s.User.HasRole(RoleAdmin)
}

func (s Session) IsStudent() bool {
	return s.User.HasRole(RoleStudent)
}

type UpdateProfileInput struct {
	FirstName *string `json:"firstName,omitempty" validate:"omitempty,notblank,max=100"`
	LastName  *string `json:"lastName,omitempty" validate:"omitempty,notblank,max=100"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,e164"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,nefield=CurrentPassword"`
}
