package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"dialaservice/internal/models"
)

func TestAdminPendingProviders(t *testing.T) {
	store := newFakeStore()
	older := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(48 * time.Hour)
	second := seedProvider(store, func(p *models.Provider) { p.VerificationRequestedAt = &newer })
	first := seedProvider(store, func(p *models.Provider) { p.VerificationRequestedAt = &older })
	seedProvider(store, func(p *models.Provider) { p.Verified = true; p.VerificationStatus = models.VerificationApproved })

	svc := NewAdminService(store, store, &fakeMailer{}, "http://localhost:3000", newBroker(), testLogger())
	pending, err := svc.PendingProviders(context.Background(), "token")
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 || pending[0].ID != first.ID || pending[1].ID != second.ID {
		t.Errorf("pending queue out of order: %+v", pending)
	}
}

func TestAdminApprove(t *testing.T) {
	store := newFakeStore()
	mailer := &fakeMailer{}
	p := seedProvider(store, func(p *models.Provider) {
		p.BusinessName = "Mensah Plumbing"
		p.BusinessEmail = "jobs@mensah.example.com"
	})
	svc := NewAdminService(store, store, mailer, "https://dialaservice.example.com/", newBroker(), testLogger())

	outcome, err := svc.Approve(context.Background(), p.ID, "token")
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if !outcome.EmailSent || outcome.Message != ApprovedMessage {
		t.Errorf("outcome = %+v", outcome)
	}
	if !outcome.Provider.Verified || outcome.Provider.VerificationStatus != models.VerificationApproved {
		t.Errorf("provider not approved: %+v", outcome.Provider)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("sent %d emails", len(mailer.sent))
	}
	msg := mailer.sent[0]
	if msg.To != "jobs@mensah.example.com" {
		t.Errorf("To = %s", msg.To)
	}
	if msg.Subject != "Your Dial a Service Account has been approved" {
		t.Errorf("Subject = %s", msg.Subject)
	}
	if !strings.Contains(msg.HTML, "https://dialaservice.example.com/auth/signin") {
		t.Error("approval email should link to the sign in page")
	}

	if _, err := svc.Reject(context.Background(), p.ID, "late", "token"); !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("rejecting an approved provider: %v", err)
	}
}

func TestAdminRejectMailFailure(t *testing.T) {
	store := newFakeStore()
	mailer := &fakeMailer{err: errors.New("smtp down")}
	p := seedProvider(store, nil)
	store.users[p.ID] = &models.User{ID: p.ID, Email: "kofi@example.com"}
	svc := NewAdminService(store, store, mailer, "http://localhost:3000", newBroker(), testLogger())

	outcome, err := svc.Reject(context.Background(), p.ID, "  ID photo is blurry ", "token")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if outcome.EmailSent {
		t.Error("EmailSent should be false when the mailer fails")
	}
	if outcome.Message != RejectedEmailFailMessage {
		t.Errorf("Message = %s", outcome.Message)
	}
	got := store.providers[p.ID]
	if got.VerificationStatus != models.VerificationRejected || got.Verified {
		t.Errorf("status = %s verified=%v", got.VerificationStatus, got.Verified)
	}
	if got.RejectionReason == nil || *got.RejectionReason != "ID photo is blurry" {
		t.Errorf("rejection reason = %v", got.RejectionReason)
	}
}

func TestAdminRejectFallsBackToProfileEmail(t *testing.T) {
	store := newFakeStore()
	mailer := &fakeMailer{}
	p := seedProvider(store, nil)
	store.users[p.ID] = &models.User{ID: p.ID, Email: "kofi@example.com"}
	svc := NewAdminService(store, store, mailer, "http://localhost:3000", newBroker(), testLogger())

	outcome, err := svc.Reject(context.Background(), p.ID, "", "token")
	if err != nil {
		t.Fatal(err)
	}
	if !outcome.EmailSent || len(mailer.sent) != 1 || mailer.sent[0].To != "kofi@example.com" {
		t.Errorf("outcome=%+v sent=%+v", outcome, mailer.sent)
	}
	if store.providers[p.ID].RejectionReason != nil {
		t.Error("blank reason should be stored as null")
	}
}
