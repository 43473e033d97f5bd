package helpers

import (
	"github.com/google/uuid"
)

const (
	roleAdmin    = "admin"
	roleProvider = "provider"
	roleCustomer = "customer"
	roleGuest    = "guest"
)

type EnhancedClaims struct {
	*CustomClaims
	Role        string `json:"role"`
	UserID      string `json:"id"`
	Email       string `json:"email,omitempty"`
	Fullname    string `json:"fullname,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	City        string `json:"city,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// Helper methods for role checking
func (ec *EnhancedClaims) IsAdmin() bool {
	return ec.Role == roleAdmin
}

func (ec *EnhancedClaims) IsProvider() bool {
	return ec.Role == roleProvider
}

func (ec *EnhancedClaims) IsCustomer() bool {
	return ec.Role == roleCustomer
}

func (ec *EnhancedClaims) HasRole(role string) bool {
	return ec.Role == role
}

func (ec *EnhancedClaims) IsOwner(userID string) bool {
	return ec.UserID == userID
}

func (ec *EnhancedClaims) GetSafeRole() string {
	if ec.Role == "" {
		return roleGuest
	}
	return ec.Role
}

// ID parses the subject; uuid.Nil when it is malformed.
func (ec *EnhancedClaims) ID() uuid.UUID {
	id, err := uuid.Parse(ec.UserID)
	if err != nil {
		return uuid.Nil
	}
	return id
}
