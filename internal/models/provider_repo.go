package models

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
	storage_go "github.com/supabase-community/storage-go"
)

type ProviderRepo interface {
	CreateProvider(ctx context.Context, provider *Provider, accessToken string) (*Provider, error)
	GetProvider(ctx context.Context, id uuid.UUID, accessToken string) (*Provider, error)
	UpdateProvider(ctx context.Context, id uuid.UUID, fields map[string]interface{}, accessToken string) (*Provider, error)
	ListProvidersByStatus(ctx context.Context, status VerificationStatus, accessToken string) ([]*Provider, error)
}

// DocumentStore keeps uploaded identity documents.
type DocumentStore interface {
	UploadIDDocument(ctx context.Context, path, contentType string, data []byte, accessToken string) (string, error)
}

func (su *SupabaseRepo) CreateProvider(ctx context.Context, provider *Provider, accessToken string) (*Provider, error) {
	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, err
	}

	skills := provider.Skills
	if skills == nil {
		skills = []string{}
	}
	row := map[string]interface{}{
		"id":                  provider.ID,
		"full_name":           provider.FullName,
		"phone":               provider.Phone,
		"city":                provider.City,
		"skills":              skills,
		"verified":            false,
		"verification_status": VerificationPending,
		"onboarding_step":     0,
	}

	raw, _, err := client.From(ProvidersTable).Upsert(row, "id", "", "").Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}
	return firstRow[Provider](raw)
}

func (su *SupabaseRepo) GetProvider(ctx context.Context, id uuid.UUID, accessToken string) (*Provider, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("invalid provider ID")
	}
	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, err
	}

	raw, _, err := client.From(ProvidersTable).Select("*", "", false).Eq("id", id.String()).Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}
	provider, err := firstRow[Provider](raw)
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", id, err)
	}
	return provider, nil
}

func (su *SupabaseRepo) UpdateProvider(ctx context.Context, id uuid.UUID, fields map[string]interface{}, accessToken string) (*Provider, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("invalid provider ID")
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}
	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, err
	}

	raw, _, err := client.From(ProvidersTable).Update(fields, "", "exact").Eq("id", id.String()).Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to update provider: %w", err)
	}
	provider, err := firstRow[Provider](raw)
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", id, err)
	}
	return provider, nil
}

func (su *SupabaseRepo) ListProvidersByStatus(ctx context.Context, status VerificationStatus, accessToken string) ([]*Provider, error) {
	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, err
	}

	raw, _, err := client.From(ProvidersTable).
		Select("*", "exact", false).
		Eq("verification_status", string(status)).
		Order("verification_requested_at", &postgrest.OrderOpts{Ascending: true}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}

	rows, err := decodeRows[Provider](raw)
	if err != nil {
		return nil, err
	}
	providers := make([]*Provider, 0, len(rows))
	for i := range rows {
		providers = append(providers, &rows[i])
	}
	return providers, nil
}

// UploadIDDocument overwrites the object at path in the ID bucket and returns
// its public URL.
func (su *SupabaseRepo) UploadIDDocument(ctx context.Context, path, contentType string, data []byte, accessToken string) (string, error) {
	client, err := su.clientFor(accessToken)
	if err != nil {
		return "", err
	}

	cacheControl := "3600"
	upsert := true
	_, err = client.Storage.UploadFile(su.idBucket, path, bytes.NewReader(data), storage_go.FileOptions{
		CacheControl: &cacheControl,
		ContentType:  &contentType,
		Upsert:       &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload ID document: %w", err)
	}

	return client.Storage.GetPublicUrl(su.idBucket, path).SignedURL, nil
}
