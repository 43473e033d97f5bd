package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"dialaservice/internal/helpers"
	"dialaservice/internal/models"
	"dialaservice/internal/realtime"
)

const (
	NextProviderDashboard = "/provider/dashboard"
	NextProviderPending   = "/provider/pending"
	NextHome              = "/"
)

const (
	StepBasicInfo      = "basic-info"
	StepSkills         = "skills"
	StepIDVerification = "id-verification"
)

type Step struct {
	Key   string `json:"key"`
	Title string `json:"title"`
}

var OnboardingSteps = []Step{
	{Key: StepBasicInfo, Title: "Basic Information"},
	{Key: StepSkills, Title: "Skills & Experience"},
	{Key: StepIDVerification, Title: "ID Verification"},
}

// Wizard is a linear walk over a fixed list of steps.
type Wizard struct {
	Steps   []Step
	Current int
}

func NewWizard(steps []Step, current int) *Wizard {
	w := &Wizard{Steps: steps}
	if current >= 0 && current < len(steps) {
		w.Current = current
	}
	return w
}

// Next moves forward one step. It reports true when called on the last step,
// which means the wizard is finished and Current is unchanged.
func (w *Wizard) Next() bool {
	if w.Current >= len(w.Steps)-1 {
		return true
	}
	w.Current++
	return false
}

// Back moves to the previous step. It is a no-op on the first step.
func (w *Wizard) Back() {
	if w.Current > 0 {
		w.Current--
	}
}

func (w *Wizard) GoTo(i int) error {
	if i < 0 || i >= len(w.Steps) {
		return models.NewValidationError("step", fmt.Sprintf("step must be between 0 and %d", len(w.Steps)-1))
	}
	w.Current = i
	return nil
}

func (w *Wizard) IndexOf(key string) int {
	for i, s := range w.Steps {
		if s.Key == key {
			return i
		}
	}
	return -1
}

type OnboardingState struct {
	Steps     []Step           `json:"steps"`
	Current   int              `json:"current"`
	StepKey   string           `json:"step"`
	Completed map[string]bool  `json:"completed"`
	Provider  *models.Provider `json:"provider"`
}

type OnboardingService struct {
	providerRepo models.ProviderRepo
	skillRepo    models.SkillRepo
	documents    models.DocumentStore
	broker       realtime.Broker
	logger       *slog.Logger
	now          func() time.Time
}

func NewOnboardingService(providerRepo models.ProviderRepo, skillRepo models.SkillRepo, documents models.DocumentStore, broker realtime.Broker, logger *slog.Logger) *OnboardingService {
	return &OnboardingService{
		providerRepo: providerRepo,
		skillRepo:    skillRepo,
		documents:    documents,
		broker:       broker,
		logger:       logger,
		now:          time.Now,
	}
}

func stateFor(p *models.Provider) *OnboardingState {
	w := NewWizard(OnboardingSteps, p.OnboardingStep)
	return &OnboardingState{
		Steps:   w.Steps,
		Current: w.Current,
		StepKey: w.Steps[w.Current].Key,
		Completed: map[string]bool{
			StepBasicInfo:      p.HasBasicInfo(),
			StepSkills:         p.HasSkills(),
			StepIDVerification: p.HasIDDocument(),
		},
		Provider: p,
	}
}

func (ob *OnboardingService) State(ctx context.Context, id uuid.UUID, accessToken string) (*OnboardingState, error) {
	p, err := ob.providerRepo.GetProvider(ctx, id, accessToken)
	if err != nil {
		return nil, err
	}
	return stateFor(p), nil
}

// save writes fields and, when advance is set, moves the wizard past step.
func (ob *OnboardingService) save(ctx context.Context, id uuid.UUID, step string, advance bool, fields map[string]interface{}, accessToken string) (*OnboardingState, error) {
	if advance {
		w := NewWizard(OnboardingSteps, 0)
		if err := w.GoTo(w.IndexOf(step)); err != nil {
			return nil, err
		}
		w.Next()
		fields["onboarding_step"] = w.Current
	}
	fields["updated_at"] = ob.now().UTC()

	p, err := ob.providerRepo.UpdateProvider(ctx, id, fields, accessToken)
	if err != nil {
		return nil, err
	}
	realtime.Emit(ctx, ob.broker, ob.logger, models.ProvidersTable, realtime.Update, p)
	return stateFor(p), nil
}

func (ob *OnboardingService) SaveBasicInfo(ctx context.Context, id uuid.UUID, form *models.BasicInfoForm, accessToken string) (*OnboardingState, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	return ob.save(ctx, id, StepBasicInfo, true, form.Fields(), accessToken)
}

func (ob *OnboardingService) SaveSkills(ctx context.Context, id uuid.UUID, form *models.SkillsForm, accessToken string) (*OnboardingState, error) {
	skills, err := normalizeSkills(ctx, ob.skillRepo, form.Skills, accessToken)
	if err != nil {
		return nil, err
	}
	return ob.save(ctx, id, StepSkills, true, map[string]interface{}{"skills": skills}, accessToken)
}

// UploadIDDocument stores the provider's identity document and puts the
// account (back) into the pending review queue.
func (ob *OnboardingService) UploadIDDocument(ctx context.Context, id uuid.UUID, file io.Reader, accessToken string) (*OnboardingState, error) {
	p, err := ob.providerRepo.GetProvider(ctx, id, accessToken)
	if err != nil {
		return nil, err
	}
	if !models.CanTransitionVerification(p.EffectiveStatus(), models.VerificationPending) {
		return nil, fmt.Errorf("provider is already approved: %w", models.ErrInvalidTransition)
	}

	data, contentType, err := readUploadedImage(file)
	if err != nil {
		return nil, err
	}

	url, err := ob.documents.UploadIDDocument(ctx, fmt.Sprintf("id-%s.jpg", id), contentType, data, accessToken)
	if err != nil {
		return nil, err
	}
	ob.logger.Info("ID document uploaded", "provider_id", id, "content_type", contentType, "size", len(data))

	return ob.save(ctx, id, StepIDVerification, false, map[string]interface{}{
		"id_url":                    url,
		"verified":                  false,
		"verification_status":       models.VerificationPending,
		"verification_requested_at": ob.now().UTC(),
		"rejection_reason":          nil,
	}, accessToken)
}

func (ob *OnboardingService) Back(ctx context.Context, id uuid.UUID, accessToken string) (*OnboardingState, error) {
	p, err := ob.providerRepo.GetProvider(ctx, id, accessToken)
	if err != nil {
		return nil, err
	}
	w := NewWizard(OnboardingSteps, p.OnboardingStep)
	w.Back()
	if w.Current == p.OnboardingStep {
		return stateFor(p), nil
	}
	return ob.save(ctx, id, "", false, map[string]interface{}{"onboarding_step": w.Current}, accessToken)
}

func (ob *OnboardingService) GoTo(ctx context.Context, id uuid.UUID, step int, accessToken string) (*OnboardingState, error) {
	w := NewWizard(OnboardingSteps, 0)
	if err := w.GoTo(step); err != nil {
		return nil, err
	}
	return ob.save(ctx, id, "", false, map[string]interface{}{"onboarding_step": w.Current}, accessToken)
}

// Complete decides where a provider lands after the last step.
func (ob *OnboardingService) Complete(ctx context.Context, id uuid.UUID, accessToken string) (*models.Provider, string, error) {
	p, err := ob.providerRepo.GetProvider(ctx, id, accessToken)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, NextHome, fmt.Errorf("provider profile not found: %w", err)
		}
		return nil, NextHome, err
	}
	if p.Verified {
		return p, NextProviderDashboard, nil
	}
	return p, NextProviderPending, nil
}

func readUploadedImage(file io.Reader) ([]byte, string, error) {
	data, contentType, err := helpers.ReadImage(file, helpers.MaxImageSize)
	switch {
	case errors.Is(err, helpers.ErrNotImage):
		return nil, "", models.NewValidationError("file", "Please upload an image file")
	case errors.Is(err, helpers.ErrFileTooLarge):
		return nil, "", models.NewValidationError("file", "File size must be less than 5MB")
	case err != nil:
		return nil, "", err
	}
	return data, contentType, nil
}

func normalizeSkills(ctx context.Context, repo models.SkillRepo, selected []string, accessToken string) ([]string, error) {
	if len(selected) == 0 {
		return nil, models.NewValidationError("Skills", "Please select at least one skill")
	}
	catalogue, err := repo.ListSkills(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	return models.NormalizeSkills(selected, catalogue)
}
