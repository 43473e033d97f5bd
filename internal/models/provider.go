package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

type Provider struct {
	ID                      uuid.UUID          `db:"id" json:"id"`
	FullName                string             `db:"full_name" json:"full_name"`
	Phone                   string             `db:"phone" json:"phone"`
	City                    string             `db:"city" json:"city"`
	BusinessName            string             `db:"business_name" json:"business_name"`
	BusinessEmail           string             `db:"business_email" json:"business_email"`
	YearsExperience         int                `db:"years_experience" json:"years_experience"`
	Bio                     string             `db:"bio" json:"bio"`
	Skills                  []string           `db:"skills" json:"skills"`
	Verified                bool               `db:"verified" json:"verified"`
	VerificationStatus      VerificationStatus `db:"verification_status" json:"verification_status"`
	VerificationRequestedAt *time.Time         `db:"verification_requested_at" json:"verification_requested_at"`
	RejectionReason         *string            `db:"rejection_reason" json:"rejection_reason"`
	IDURL                   *string            `db:"id_url" json:"id_url"`
	ProfilePictureURL       *string            `db:"profile_picture_url" json:"profile_picture_url"`
	OnboardingStep          int                `db:"onboarding_step" json:"onboarding_step"`
	CreatedAt               time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time          `db:"updated_at" json:"updated_at"`
}

// EffectiveStatus folds the verified flag and the stored status into the
// state shown to the provider. A missing row reads as pending.
func (p *Provider) EffectiveStatus() VerificationStatus {
	if p == nil {
		return VerificationPending
	}
	if p.Verified {
		return VerificationApproved
	}
	if p.VerificationStatus == VerificationRejected {
		return VerificationRejected
	}
	return VerificationPending
}

// CanTransitionVerification lists the moves the verification workflow allows.
// Approved is terminal.
func CanTransitionVerification(from, to VerificationStatus) bool {
	switch from {
	case VerificationPending:
		return to == VerificationPending || to == VerificationApproved || to == VerificationRejected
	case VerificationRejected:
		return to == VerificationPending
	}
	return false
}

func (p *Provider) HasBasicInfo() bool {
	return strings.TrimSpace(p.BusinessName) != "" && strings.Contains(p.BusinessEmail, "@")
}

func (p *Provider) HasSkills() bool {
	return len(p.Skills) > 0
}

func (p *Provider) HasIDDocument() bool {
	return p.IDURL != nil && *p.IDURL != ""
}

func (p *Provider) HasSkill(name string) bool {
	for _, s := range p.Skills {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

type BasicInfoForm struct {
	YearsExperience int    `json:"years_experience" validate:"min=0,max=50"`
	BusinessName    string `json:"business_name" validate:"required"`
	BusinessEmail   string `json:"business_email" validate:"required,email"`
}

var basicInfoMessages = map[string]string{
	"BusinessName":    "Please enter your business name",
	"BusinessEmail":   "Please enter a valid business email",
	"YearsExperience": "Years of experience must be between 0 and 50",
}

func (f *BasicInfoForm) Validate() error {
	f.BusinessName = strings.TrimSpace(f.BusinessName)
	f.BusinessEmail = strings.TrimSpace(f.BusinessEmail)
	if err := Validate.Struct(f); err != nil {
		return FormError(err, basicInfoMessages)
	}
	return nil
}

func (f *BasicInfoForm) Fields() map[string]interface{} {
	return map[string]interface{}{
		"business_name":    f.BusinessName,
		"business_email":   f.BusinessEmail,
		"years_experience": f.YearsExperience,
	}
}

type SkillsForm struct {
	Skills []string `json:"skills"`
}

type ProfileForm struct {
	FullName        string `json:"full_name" validate:"required"`
	Phone           string `json:"phone" validate:"omitempty,numeric,min=10,max=15"`
	BusinessName    string `json:"business_name" validate:"required"`
	BusinessEmail   string `json:"business_email" validate:"required,email"`
	YearsExperience int    `json:"years_experience" validate:"min=0,max=50"`
	Bio             string `json:"bio" validate:"max=2000"`
}

var profileMessages = map[string]string{
	"FullName":        "Please enter your full name",
	"Phone":           "Please enter a phone number of 10 to 15 digits",
	"BusinessName":    "Please enter your business name",
	"BusinessEmail":   "Please enter a valid business email",
	"YearsExperience": "Years of experience must be between 0 and 50",
	"Bio":             "Bio must be at most 2000 characters",
}

func (f *ProfileForm) Validate() error {
	f.FullName = strings.TrimSpace(f.FullName)
	f.BusinessName = strings.TrimSpace(f.BusinessName)
	f.BusinessEmail = strings.TrimSpace(f.BusinessEmail)
	if err := Validate.Struct(f); err != nil {
		return FormError(err, profileMessages)
	}
	return nil
}

func (f *ProfileForm) Fields() map[string]interface{} {
	return map[string]interface{}{
		"full_name":        f.FullName,
		"phone":            f.Phone,
		"business_name":    f.BusinessName,
		"business_email":   f.BusinessEmail,
		"years_experience": f.YearsExperience,
		"bio":              f.Bio,
	}
}
