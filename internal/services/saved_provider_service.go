package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"dialaservice/internal/models"
)

type SavedProviderService struct {
	savedRepo    models.SavedProviderRepo
	providerRepo models.ProviderRepo
}

func NewSavedProviderService(savedRepo models.SavedProviderRepo, providerRepo models.ProviderRepo) *SavedProviderService {
	return &SavedProviderService{
		savedRepo:    savedRepo,
		providerRepo: providerRepo,
	}
}

// SaveProvider bookmarks a provider for the customer. Only existing providers
// can be saved.
func (ss *SavedProviderService) SaveProvider(ctx context.Context, customerID, providerID uuid.UUID, accessToken string) ([]models.SavedProvider, error) {
	if customerID == uuid.Nil {
		return nil, fmt.Errorf("invalid customer ID")
	}
	if _, err := ss.providerRepo.GetProvider(ctx, providerID, accessToken); err != nil {
		return nil, err
	}
	saved, err := ss.savedRepo.SaveProvider(ctx, customerID.String(), providerID.String())
	if err != nil {
		return nil, err
	}
	return sortedSaved(saved), nil
}

func (ss *SavedProviderService) UnsaveProvider(ctx context.Context, customerID, providerID uuid.UUID) error {
	if customerID == uuid.Nil {
		return fmt.Errorf("invalid customer ID")
	}
	return ss.savedRepo.UnsaveProvider(ctx, customerID.String(), providerID.String())
}

func (ss *SavedProviderService) SavedProviders(ctx context.Context, customerID uuid.UUID) ([]models.SavedProvider, error) {
	if customerID == uuid.Nil {
		return nil, fmt.Errorf("invalid customer ID")
	}
	saved, err := ss.savedRepo.GetSavedProviders(ctx, customerID.String())
	if err != nil {
		return nil, err
	}
	return sortedSaved(saved), nil
}

// sortedSaved lists the saved providers newest first.
func sortedSaved(saved *models.SavedProviders) []models.SavedProvider {
	out := make([]models.SavedProvider, 0, len(saved.Providers))
	for _, p := range saved.Providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].AddedAt.After(out[j].AddedAt)
	})
	return out
}
