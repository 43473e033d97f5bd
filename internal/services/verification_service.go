package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"dialaservice/internal/models"
	"dialaservice/internal/realtime"
)

type VerificationState struct {
	Status          models.VerificationStatus `json:"status"`
	Verified        bool                      `json:"verified"`
	RejectionReason string                    `json:"rejection_reason,omitempty"`
	RequestedAt     *time.Time                `json:"verification_requested_at,omitempty"`
	Next            string                    `json:"next,omitempty"`
}

func verificationStateFor(p *models.Provider) *VerificationState {
	state := &VerificationState{Status: p.EffectiveStatus()}
	if p == nil {
		return state
	}
	state.Verified = p.Verified
	state.RequestedAt = p.VerificationRequestedAt
	if state.Status == models.VerificationRejected && p.RejectionReason != nil {
		state.RejectionReason = *p.RejectionReason
	}
	if state.Status == models.VerificationApproved {
		state.Next = NextProviderDashboard
	}
	return state
}

type VerificationService struct {
	providerRepo models.ProviderRepo
	broker       realtime.Broker
	logger       *slog.Logger
	now          func() time.Time
}

func NewVerificationService(providerRepo models.ProviderRepo, broker realtime.Broker, logger *slog.Logger) *VerificationService {
	return &VerificationService{
		providerRepo: providerRepo,
		broker:       broker,
		logger:       logger,
		now:          time.Now,
	}
}

// Status reports the provider's effective verification state. A provider
// without a row yet is pending.
func (vs *VerificationService) Status(ctx context.Context, id uuid.UUID, accessToken string) (*VerificationState, error) {
	p, err := vs.providerRepo.GetProvider(ctx, id, accessToken)
	if errors.Is(err, models.ErrNotFound) {
		return verificationStateFor(nil), nil
	}
	if err != nil {
		return nil, err
	}
	return verificationStateFor(p), nil
}

// Resend puts a pending or rejected provider back at the end of the review
// queue. Approved providers cannot resubmit.
func (vs *VerificationService) Resend(ctx context.Context, id uuid.UUID, accessToken string) (*VerificationState, error) {
	p, err := vs.providerRepo.GetProvider(ctx, id, accessToken)
	if err != nil {
		return nil, err
	}
	from := p.EffectiveStatus()
	if !models.CanTransitionVerification(from, models.VerificationPending) {
		return nil, fmt.Errorf("cannot resubmit from %s: %w", from, models.ErrInvalidTransition)
	}
	if !p.HasIDDocument() {
		return nil, models.NewValidationError("file", "Please upload your ID document first")
	}

	updated, err := vs.providerRepo.UpdateProvider(ctx, id, map[string]interface{}{
		"verified":                  false,
		"verification_status":       models.VerificationPending,
		"verification_requested_at": vs.now().UTC(),
		"rejection_reason":          nil,
	}, accessToken)
	if err != nil {
		return nil, err
	}
	vs.logger.Info("Verification resubmitted", "provider_id", id, "from", from)
	realtime.Emit(ctx, vs.broker, vs.logger, models.ProvidersTable, realtime.Update, updated)
	return verificationStateFor(updated), nil
}

// Watch pushes a fresh state every time the provider's row changes. The
// returned channel closes when ctx ends.
func (vs *VerificationService) Watch(ctx context.Context, id uuid.UUID, accessToken string) (<-chan *VerificationState, error) {
	sub, err := vs.broker.Subscribe(ctx, realtime.Filter{
		Table:  models.ProvidersTable,
		Column: "id",
		Value:  id.String(),
	})
	if err != nil {
		return nil, err
	}

	out := make(chan *VerificationState, 1)
	go func() {
		defer close(out)
		defer sub.Close()
		for range sub.Events() {
			state, err := vs.Status(ctx, id, accessToken)
			if err != nil {
				vs.logger.Warn("Verification status check failed", "provider_id", id, "error", err)
				continue
			}
			select {
			case out <- state:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
