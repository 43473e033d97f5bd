package models

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"
)

const profileColumns = "id,email,fullname,phone_number,city,role,avatar_url,created_at,updated_at"

type UserRepo interface {
	CreateUser(ctx context.Context, email, password string) (*types.SignupResponse, error)
	AuthenticateUser(ctx context.Context, email, password string) (*types.TokenResponse, error)
	SendMagicLink(ctx context.Context, email string) error
	RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error)
	Logout(ctx context.Context, accessToken string) error
	UpdateAuthMetadata(ctx context.Context, accessToken string, data map[string]interface{}) error
	GetUser(ctx context.Context, id uuid.UUID, accessToken string) (*User, error)
	UpsertProfile(ctx context.Context, user *User, accessToken string) (*User, error)
	UpdateUser(ctx context.Context, fields map[string]interface{}, id uuid.UUID, accessToken string) (*User, error)
	DeleteUser(ctx context.Context, id uuid.UUID, accessToken string) error
}

func (su *SupabaseRepo) CreateUser(ctx context.Context, email, password string) (*types.SignupResponse, error) {
	res, err := su.supabaseClient.Auth.Signup(types.SignupRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		errMsg := strings.ToLower(err.Error())
		switch {
		case strings.Contains(errMsg, "already registered"):
			return nil, fmt.Errorf("email already in use: %w", ErrConflict)
		case strings.Contains(errMsg, "unique constraint"):
			return nil, fmt.Errorf("user already exists: %w", ErrConflict)
		case strings.Contains(errMsg, "null value in column"):
			return nil, fmt.Errorf("required field is missing")
		case strings.Contains(errMsg, "invalid input syntax"):
			return nil, fmt.Errorf("invalid input format")
		}
		return nil, fmt.Errorf("failed to create user")
	}
	return res, nil
}

func (su *SupabaseRepo) AuthenticateUser(ctx context.Context, email, password string) (*types.TokenResponse, error) {
	resp, err := su.supabaseClient.Auth.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate user: %w", err)
	}
	return resp, nil
}

func (su *SupabaseRepo) SendMagicLink(ctx context.Context, email string) error {
	err := su.supabaseClient.Auth.OTP(types.OTPRequest{
		Email:      email,
		CreateUser: true,
	})
	if err != nil {
		return fmt.Errorf("failed to send magic link: %w", err)
	}
	return nil
}

func (su *SupabaseRepo) RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	resp, err := su.supabaseClient.Auth.RefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	return resp, nil
}

func (su *SupabaseRepo) Logout(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	if err := su.supabaseClient.Auth.WithToken(accessToken).Logout(); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return nil
}

func (su *SupabaseRepo) UpdateAuthMetadata(ctx context.Context, accessToken string, data map[string]interface{}) error {
	_, err := su.supabaseClient.Auth.WithToken(accessToken).UpdateUser(types.UpdateUserRequest{
		Data: data,
	})
	if err != nil {
		return fmt.Errorf("failed to update user metadata: %w", err)
	}
	return nil
}

func (su *SupabaseRepo) GetUser(ctx context.Context, id uuid.UUID, accessToken string) (*User, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("invalid UUID")
	}

	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, err
	}

	raw, _, err := client.From(ProfileTable).
		Select(profileColumns, "", false).
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	// Supabase returns an array even for single results
	users, err := decodeRows[User](raw)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if len(users) > 1 {
		return nil, fmt.Errorf("multiple users found for ID %s", id)
	}
	return &users[0], nil
}

func (su *SupabaseRepo) UpsertProfile(ctx context.Context, user *User, accessToken string) (*User, error) {
	if user.ID == uuid.Nil {
		return nil, fmt.Errorf("invalid UUID")
	}
	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, err
	}

	row := map[string]interface{}{
		"id":           user.ID,
		"email":        user.Email,
		"fullname":     user.FullName,
		"phone_number": user.PhoneNumber,
		"city":         user.City,
		"role":         user.Role,
		"updated_at":   user.UpdatedAt,
	}
	raw, _, err := client.From(ProfileTable).Upsert(row, "id", "", "").Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	return firstRow[User](raw)
}

func (su *SupabaseRepo) UpdateUser(ctx context.Context, fields map[string]interface{}, id uuid.UUID, accessToken string) (*User, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("invalid UUID")
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}

	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, err
	}

	raw, _, err := client.From(ProfileTable).
		Update(fields, "", "exact").
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	user, err := firstRow[User](raw)
	if err != nil {
		return nil, fmt.Errorf("no user found to update: %w", err)
	}
	return user, nil
}

func (su *SupabaseRepo) DeleteUser(ctx context.Context, id uuid.UUID, accessToken string) error {
	if id == uuid.Nil {
		return fmt.Errorf("no valid UUID provided")
	}
	client, err := su.clientFor(accessToken)
	if err != nil {
		return err
	}

	raw, _, err := client.From(ProfileTable).Delete("", "exact").Eq("id", id.String()).Execute()
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if _, err := firstRow[User](raw); err != nil {
		return fmt.Errorf("no user found to delete: %w", err)
	}
	return nil
}
