package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleCustomer = "customer"
	RoleProvider = "provider"
	RoleAdmin    = "admin"
	RoleGuest    = "guest"
)

type User struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Email       string    `db:"email" json:"email"`
	FullName    string    `db:"fullname" json:"fullname"`
	PhoneNumber string    `db:"phone_number" json:"phone_number"`
	City        string    `db:"city" json:"city"`
	Role        string    `db:"role" json:"role"`
	AvatarURL   string    `db:"avatar_url" json:"avatar_url"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type SignupForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// MagicLinkForm requests a passwordless sign-in e-mail.
type MagicLinkForm struct {
	Email string `json:"email" validate:"required,email"`
}

// AccountForm completes a profile after the first sign-in. Admin is never
// self-assigned.
type AccountForm struct {
	FullName    string `json:"full_name" validate:"required"`
	PhoneNumber string `json:"phone_number" validate:"required,numeric,min=10,max=15"`
	City        string `json:"city" validate:"required"`
	Role        string `json:"role" validate:"required,oneof=customer provider"`
}

var accountMessages = map[string]string{
	"FullName":    "Please enter your full name",
	"PhoneNumber": "Please enter a phone number of 10 to 15 digits",
	"City":        "Please enter your city",
	"Role":        "Role must be customer or provider",
}

func (f *AccountForm) Validate() error {
	if err := Validate.Struct(f); err != nil {
		return FormError(err, accountMessages)
	}
	return nil
}

// AuthMetadata is what GoTrue keeps in user_metadata.
func (f *AccountForm) AuthMetadata() map[string]interface{} {
	return map[string]interface{}{
		"fullName":    f.FullName,
		"phoneNumber": f.PhoneNumber,
		"city":        f.City,
		"role":        f.Role,
	}
}
