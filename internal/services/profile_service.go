package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"dialaservice/internal/helpers"
	"dialaservice/internal/models"
	"dialaservice/internal/realtime"
)

type ImageUploader interface {
	UploadImage(ctx context.Context, data []byte, folder, publicID string) (string, error)
}

type SkillSelection struct {
	Catalogue []models.Skill `json:"catalogue"`
	Selected  []string       `json:"selected"`
}

type ProfileService struct {
	providerRepo models.ProviderRepo
	skillRepo    models.SkillRepo
	images       ImageUploader
	broker       realtime.Broker
	logger       *slog.Logger
}

func NewProfileService(providerRepo models.ProviderRepo, skillRepo models.SkillRepo, images ImageUploader, broker realtime.Broker, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		providerRepo: providerRepo,
		skillRepo:    skillRepo,
		images:       images,
		broker:       broker,
		logger:       logger,
	}
}

func (ps *ProfileService) GetProfile(ctx context.Context, id uuid.UUID, accessToken string) (*models.Provider, error) {
	return ps.providerRepo.GetProvider(ctx, id, accessToken)
}

func (ps *ProfileService) update(ctx context.Context, id uuid.UUID, fields map[string]interface{}, accessToken string) (*models.Provider, error) {
	fields["updated_at"] = time.Now().UTC()
	p, err := ps.providerRepo.UpdateProvider(ctx, id, fields, accessToken)
	if err != nil {
		return nil, err
	}
	realtime.Emit(ctx, ps.broker, ps.logger, models.ProvidersTable, realtime.Update, p)
	return p, nil
}

func (ps *ProfileService) UpdateProfile(ctx context.Context, id uuid.UUID, form *models.ProfileForm, accessToken string) (*models.Provider, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	return ps.update(ctx, id, form.Fields(), accessToken)
}

func (ps *ProfileService) UploadPicture(ctx context.Context, id uuid.UUID, file io.Reader, accessToken string) (*models.Provider, error) {
	data, _, err := readUploadedImage(file)
	if err != nil {
		return nil, err
	}
	url, err := ps.images.UploadImage(ctx, data, helpers.ProfilePictureFolder, fmt.Sprintf("profile-%s", id))
	if err != nil {
		return nil, err
	}
	ps.logger.Info("Profile picture uploaded", "provider_id", id, "size", len(data))
	return ps.update(ctx, id, map[string]interface{}{"profile_picture_url": url}, accessToken)
}

func (ps *ProfileService) Catalogue(ctx context.Context, accessToken string) ([]models.Skill, error) {
	return ps.skillRepo.ListSkills(ctx, accessToken)
}

func (ps *ProfileService) Skills(ctx context.Context, id uuid.UUID, accessToken string) (*SkillSelection, error) {
	p, err := ps.providerRepo.GetProvider(ctx, id, accessToken)
	if err != nil {
		return nil, err
	}
	catalogue, err := ps.skillRepo.ListSkills(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	selected := p.Skills
	if selected == nil {
		selected = []string{}
	}
	return &SkillSelection{Catalogue: catalogue, Selected: selected}, nil
}

func (ps *ProfileService) UpdateSkills(ctx context.Context, id uuid.UUID, form *models.SkillsForm, accessToken string) (*models.Provider, error) {
	skills, err := normalizeSkills(ctx, ps.skillRepo, form.Skills, accessToken)
	if err != nil {
		return nil, err
	}
	return ps.update(ctx, id, map[string]interface{}{"skills": skills}, accessToken)
}
