package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"

	"dialaservice/internal/helpers"
	"dialaservice/internal/models"
	"dialaservice/internal/realtime"
)

const weakPasswordMessage = "Password must be at least 8 characters and include upper and lower case letters, a number and one of @$!%*?&"

// Where the client goes once the account form is saved.
const (
	NextProviderOnboard = "/provider/onboard"
	NextCustomerHome    = "/customer"
)

type UserService struct {
	userRepo     models.UserRepo
	providerRepo models.ProviderRepo
	broker       realtime.Broker
	logger       *slog.Logger
}

func NewUserService(userRepo models.UserRepo, providerRepo models.ProviderRepo, broker realtime.Broker, logger *slog.Logger) *UserService {
	return &UserService{
		userRepo:     userRepo,
		providerRepo: providerRepo,
		broker:       broker,
		logger:       logger,
	}
}

func (us *UserService) CreateUser(ctx context.Context, form *models.SignupForm) (*types.SignupResponse, error) {
	form.Email = strings.TrimSpace(form.Email)
	if err := models.Validate.Struct(form); err != nil {
		return nil, models.FormError(err, map[string]string{
			"Email":    "Please enter a valid email",
			"Password": weakPasswordMessage,
		})
	}
	if !helpers.IsPasswordStrong(form.Password) {
		return nil, models.NewValidationError("Password", weakPasswordMessage)
	}
	return us.userRepo.CreateUser(ctx, form.Email, form.Password)
}

func (us *UserService) AuthenticateUser(ctx context.Context, email, password string) (*types.TokenResponse, error) {
	if err := models.Validate.Var(email, "required,email"); err != nil {
		return nil, models.NewValidationError("Email", "Please enter a valid email")
	}
	if err := models.Validate.Var(password, "required"); err != nil {
		return nil, models.NewValidationError("Password", "Please enter your password")
	}
	response, err := us.userRepo.AuthenticateUser(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	return response, nil
}

func (us *UserService) SendMagicLink(ctx context.Context, form *models.MagicLinkForm) error {
	form.Email = strings.TrimSpace(form.Email)
	if err := models.Validate.Struct(form); err != nil {
		return models.NewValidationError("Email", "Please enter a valid email")
	}
	return us.userRepo.SendMagicLink(ctx, form.Email)
}

func (us *UserService) RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("refresh token is required")
	}
	response, err := us.userRepo.RefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}
	return response, nil
}

// Logout revokes the session upstream. Failures are logged and swallowed so
// the caller can always clear its cookies.
func (us *UserService) Logout(ctx context.Context, accessToken string) {
	if err := us.userRepo.Logout(ctx, accessToken); err != nil {
		us.logger.Warn("Sign out failed", "error", err)
	}
}

func (us *UserService) GetUser(ctx context.Context, id uuid.UUID, accessToken string) (*models.User, error) {
	res, err := us.userRepo.GetUser(ctx, id, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return res, nil
}

var updatableUserFields = map[string]bool{
	"fullname":     true,
	"phone_number": true,
	"city":         true,
	"avatar_url":   true,
}

func (us *UserService) UpdateUser(ctx context.Context, fields map[string]interface{}, id uuid.UUID, accessToken string) (*models.User, error) {
	update := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		if !updatableUserFields[k] {
			return nil, models.NewValidationError(k, fmt.Sprintf("%s cannot be updated", k))
		}
		update[k] = v
	}
	if len(update) == 0 {
		return nil, models.NewValidationError("", "No fields to update")
	}
	update["updated_at"] = time.Now().UTC()

	updatedUser, err := us.userRepo.UpdateUser(ctx, update, id, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	realtime.Emit(ctx, us.broker, us.logger, models.ProfileTable, realtime.Update, updatedUser)
	return updatedUser, nil
}

func (us *UserService) DeleteUser(ctx context.Context, id uuid.UUID, accessToken string) error {
	if err := us.userRepo.DeleteUser(ctx, id, accessToken); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// CompleteAccount saves the account form: auth metadata first, then the
// profile row, then the provider row for new providers. It returns the
// profile and the view the client should open next.
func (us *UserService) CompleteAccount(ctx context.Context, id uuid.UUID, email string, form *models.AccountForm, accessToken string) (*models.User, string, error) {
	form.FullName = strings.TrimSpace(form.FullName)
	form.City = strings.TrimSpace(form.City)
	if err := form.Validate(); err != nil {
		return nil, "", err
	}

	if err := us.userRepo.UpdateAuthMetadata(ctx, accessToken, form.AuthMetadata()); err != nil {
		return nil, "", err
	}

	profile, err := us.userRepo.UpsertProfile(ctx, &models.User{
		ID:          id,
		Email:       email,
		FullName:    form.FullName,
		PhoneNumber: form.PhoneNumber,
		City:        form.City,
		Role:        form.Role,
		UpdatedAt:   time.Now().UTC(),
	}, accessToken)
	if err != nil {
		return nil, "", err
	}
	realtime.Emit(ctx, us.broker, us.logger, models.ProfileTable, realtime.Update, profile)

	if form.Role != models.RoleProvider {
		return profile, NextCustomerHome, nil
	}

	_, err = us.providerRepo.GetProvider(ctx, id, accessToken)
	switch {
	case err == nil:
		return profile, NextProviderOnboard, nil
	case !errors.Is(err, models.ErrNotFound):
		return nil, "", err
	}

	provider, err := us.providerRepo.CreateProvider(ctx, &models.Provider{
		ID:       id,
		FullName: form.FullName,
		Phone:    form.PhoneNumber,
		City:     form.City,
	}, accessToken)
	if err != nil {
		return nil, "", err
	}
	us.logger.Info("Provider row created", "provider_id", id)
	realtime.Emit(ctx, us.broker, us.logger, models.ProvidersTable, realtime.Insert, provider)
	return profile, NextProviderOnboard, nil
}
