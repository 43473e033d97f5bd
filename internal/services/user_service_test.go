package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"dialaservice/internal/models"
)

func TestCompleteAccountProvider(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewUserService(store, store, newBroker(), testLogger())
	id := uuid.New()

	form := &models.AccountForm{
		FullName:    " Kofi Mensah ",
		PhoneNumber: "0241234567",
		City:        "Accra",
		Role:        models.RoleProvider,
	}
	profile, next, err := svc.CompleteAccount(ctx, id, "kofi@example.com", form, "token")
	if err != nil {
		t.Fatalf("CompleteAccount: %v", err)
	}
	if next != NextProviderOnboard {
		t.Errorf("next = %s", next)
	}
	if profile.FullName != "Kofi Mensah" || profile.Role != models.RoleProvider {
		t.Errorf("profile = %+v", profile)
	}
	if store.metadata["role"] != models.RoleProvider {
		t.Errorf("auth metadata = %v", store.metadata)
	}
	p, ok := store.providers[id]
	if !ok || p.FullName != "Kofi Mensah" || p.VerificationStatus != models.VerificationPending {
		t.Fatalf("provider row = %+v", p)
	}

	// Saving the account form again must not reset onboarding progress.
	p.BusinessName = "Mensah Plumbing"
	p.OnboardingStep = 2
	if _, _, err := svc.CompleteAccount(ctx, id, "kofi@example.com", form, "token"); err != nil {
		t.Fatal(err)
	}
	if got := store.providers[id]; got.BusinessName != "Mensah Plumbing" || got.OnboardingStep != 2 {
		t.Errorf("provider row was overwritten: %+v", got)
	}
}

func TestCompleteAccountCustomer(t *testing.T) {
	store := newFakeStore()
	svc := NewUserService(store, store, newBroker(), testLogger())
	id := uuid.New()

	_, next, err := svc.CompleteAccount(context.Background(), id, "ama@example.com", &models.AccountForm{
		FullName:    "Ama Owusu",
		PhoneNumber: "0201234567",
		City:        "Kumasi",
		Role:        models.RoleCustomer,
	}, "token")
	if err != nil || next != NextCustomerHome {
		t.Fatalf("next=%s err=%v", next, err)
	}
	if _, ok := store.providers[id]; ok {
		t.Error("customers must not get a provider row")
	}

	_, _, err = svc.CompleteAccount(context.Background(), id, "ama@example.com", &models.AccountForm{
		FullName:    "Ama Owusu",
		PhoneNumber: "0201234567",
		City:        "Kumasi",
		Role:        models.RoleAdmin,
	}, "token")
	var verr *models.ValidationError
	if !errors.As(err, &verr) || verr.Field != "Role" {
		t.Errorf("admin self-assignment: %v", err)
	}
}

func TestUpdateUserWhitelist(t *testing.T) {
	store := newFakeStore()
	svc := NewUserService(store, store, newBroker(), testLogger())
	id := uuid.New()
	store.users[id] = &models.User{ID: id, FullName: "Old", Role: models.RoleCustomer}

	if _, err := svc.UpdateUser(context.Background(), map[string]interface{}{"role": "admin"}, id, "token"); err == nil {
		t.Error("role must not be updatable")
	}
	if _, err := svc.UpdateUser(context.Background(), map[string]interface{}{}, id, "token"); err == nil {
		t.Error("empty update should fail")
	}
	u, err := svc.UpdateUser(context.Background(), map[string]interface{}{"fullname": "New"}, id, "token")
	if err != nil || u.FullName != "New" {
		t.Errorf("UpdateUser: %+v, err=%v", u, err)
	}
}

func TestCreateUserRejectsWeakPassword(t *testing.T) {
	svc := NewUserService(newFakeStore(), newFakeStore(), newBroker(), testLogger())
	_, err := svc.CreateUser(context.Background(), &models.SignupForm{Email: "a@example.com", Password: "password"})
	var verr *models.ValidationError
	if !errors.As(err, &verr) || verr.Message != weakPasswordMessage {
		t.Errorf("weak password: %v", err)
	}
	if _, err := svc.CreateUser(context.Background(), &models.SignupForm{Email: "a@example.com", Password: "Str0ng@Pass"}); err != nil {
		t.Errorf("strong password: %v", err)
	}
}

func TestProfileService(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewProfileService(store, store, store, newBroker(), testLogger())
	p := seedProvider(store, func(p *models.Provider) { p.Skills = []string{"Plumbing"} })

	updated, err := svc.UploadPicture(ctx, p.ID, pngReader(), "token")
	if err != nil {
		t.Fatalf("UploadPicture: %v", err)
	}
	want := "https://res.cloudinary.com/demo/provider-profiles/profile-" + p.ID.String()
	if updated.ProfilePictureURL == nil || *updated.ProfilePictureURL != want {
		t.Errorf("picture url = %v", updated.ProfilePictureURL)
	}

	sel, err := svc.Skills(ctx, p.ID, "token")
	if err != nil || len(sel.Catalogue) != len(models.DefaultSkills) || len(sel.Selected) != 1 {
		t.Errorf("Skills = %+v, err=%v", sel, err)
	}

	updated, err = svc.UpdateSkills(ctx, p.ID, &models.SkillsForm{Skills: []string{"carpentry", "Gardening"}}, "token")
	if err != nil || len(updated.Skills) != 2 || updated.Skills[0] != "Carpentry" {
		t.Errorf("UpdateSkills = %+v, err=%v", updated, err)
	}
	if _, err := svc.UpdateSkills(ctx, p.ID, &models.SkillsForm{Skills: []string{"Juggling"}}, "token"); err == nil {
		t.Error("unknown skill should fail")
	}

	updated, err = svc.UpdateProfile(ctx, p.ID, &models.ProfileForm{
		FullName:      "Kofi Mensah",
		BusinessName:  "Mensah & Sons",
		BusinessEmail: "hello@mensah.example.com",
		Bio:           "Twenty years on the tools",
	}, "token")
	if err != nil || updated.BusinessName != "Mensah & Sons" || updated.Bio != "Twenty years on the tools" {
		t.Errorf("UpdateProfile = %+v, err=%v", updated, err)
	}
}

func TestSavedProviders(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewSavedProviderService(store, store)
	customer := uuid.New()
	p := seedProvider(store, nil)

	if _, err := svc.SaveProvider(ctx, customer, uuid.New(), "token"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("saving unknown provider: %v", err)
	}
	saved, err := svc.SaveProvider(ctx, customer, p.ID, "token")
	if err != nil || len(saved) != 1 || saved[0].ProviderID != p.ID.String() {
		t.Fatalf("SaveProvider = %+v, err=%v", saved, err)
	}
	if err := svc.UnsaveProvider(ctx, customer, p.ID); err != nil {
		t.Fatal(err)
	}
	saved, err = svc.SavedProviders(ctx, customer)
	if err != nil || len(saved) != 0 {
		t.Errorf("after unsave: %+v, err=%v", saved, err)
	}
	if _, err := svc.SavedProviders(ctx, uuid.Nil); err == nil {
		t.Error("nil customer should fail")
	}
}
