package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"dialaservice/internal/models"
	"dialaservice/internal/notify"
	"dialaservice/internal/realtime"
)

const (
	ApprovedMessage          = "Provider approved and email sent successfully"
	RejectedMessage          = "Provider rejected and email notification sent"
	ApprovedEmailFailMessage = "Provider approved, but the notification email could not be sent"
	RejectedEmailFailMessage = "Provider rejected, but the notification email could not be sent"
)

// ReviewOutcome is the result of an admin decision. EmailSent is false when
// the status changed but the notification could not be delivered.
type ReviewOutcome struct {
	Provider  *models.Provider `json:"provider"`
	EmailSent bool             `json:"email_sent"`
	Message   string           `json:"-"`
}

type AdminService struct {
	providerRepo models.ProviderRepo
	userRepo     models.UserRepo
	mailer       notify.Mailer
	appURL       string
	broker       realtime.Broker
	logger       *slog.Logger
}

func NewAdminService(providerRepo models.ProviderRepo, userRepo models.UserRepo, mailer notify.Mailer, appURL string, broker realtime.Broker, logger *slog.Logger) *AdminService {
	return &AdminService{
		providerRepo: providerRepo,
		userRepo:     userRepo,
		mailer:       mailer,
		appURL:       appURL,
		broker:       broker,
		logger:       logger,
	}
}

func (as *AdminService) PendingProviders(ctx context.Context, accessToken string) ([]*models.Provider, error) {
	return as.providerRepo.ListProvidersByStatus(ctx, models.VerificationPending, accessToken)
}

func (as *AdminService) Approve(ctx context.Context, id uuid.UUID, accessToken string) (*ReviewOutcome, error) {
	return as.decide(ctx, id, models.VerificationApproved, "", accessToken)
}

func (as *AdminService) Reject(ctx context.Context, id uuid.UUID, reason string, accessToken string) (*ReviewOutcome, error) {
	return as.decide(ctx, id, models.VerificationRejected, strings.TrimSpace(reason), accessToken)
}

func (as *AdminService) decide(ctx context.Context, id uuid.UUID, to models.VerificationStatus, reason string, accessToken string) (*ReviewOutcome, error) {
	p, err := as.providerRepo.GetProvider(ctx, id, accessToken)
	if err != nil {
		return nil, err
	}
	from := p.EffectiveStatus()
	if !models.CanTransitionVerification(from, to) {
		return nil, fmt.Errorf("cannot move provider from %s to %s: %w", from, to, models.ErrInvalidTransition)
	}

	fields := map[string]interface{}{
		"verified":            to == models.VerificationApproved,
		"verification_status": to,
		"rejection_reason":    nil,
		"updated_at":          time.Now().UTC(),
	}
	if to == models.VerificationRejected && reason != "" {
		fields["rejection_reason"] = reason
	}

	updated, err := as.providerRepo.UpdateProvider(ctx, id, fields, accessToken)
	if err != nil {
		return nil, err
	}
	as.logger.Info("Provider verification decided", "provider_id", id, "status", to)
	realtime.Emit(ctx, as.broker, as.logger, models.ProvidersTable, realtime.Update, updated)

	approved := to == models.VerificationApproved
	outcome := &ReviewOutcome{Provider: updated}
	if err := as.sendDecision(ctx, updated, approved, reason, accessToken); err != nil {
		as.logger.Error("Verification email failed", "provider_id", id, "error", err)
	} else {
		outcome.EmailSent = true
	}
	outcome.Message = decisionMessage(approved, outcome.EmailSent)
	return outcome, nil
}

func decisionMessage(approved, emailSent bool) string {
	switch {
	case approved && emailSent:
		return ApprovedMessage
	case approved:
		return ApprovedEmailFailMessage
	case emailSent:
		return RejectedMessage
	}
	return RejectedEmailFailMessage
}

func (as *AdminService) sendDecision(ctx context.Context, p *models.Provider, approved bool, reason, accessToken string) error {
	to := p.BusinessEmail
	if to == "" {
		user, err := as.userRepo.GetUser(ctx, p.ID, accessToken)
		if err != nil {
			return fmt.Errorf("no address for provider: %w", err)
		}
		to = user.Email
	}

	msg, err := notify.VerificationEmail{
		To:              to,
		ProviderName:    p.FullName,
		BusinessName:    p.BusinessName,
		Approved:        approved,
		RejectionReason: reason,
		AppURL:          as.appURL,
	}.Build()
	if err != nil {
		return err
	}
	return as.mailer.Send(ctx, msg)
}

// Watch streams every change to the providers table.
func (as *AdminService) Watch(ctx context.Context) (*realtime.Subscription, error) {
	return as.broker.Subscribe(ctx, realtime.Filter{Table: models.ProvidersTable})
}
