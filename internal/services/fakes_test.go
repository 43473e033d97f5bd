package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"

	"dialaservice/internal/models"
	"dialaservice/internal/notify"
	"dialaservice/internal/realtime"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore keeps every table in memory.
type fakeStore struct {
	mu        sync.Mutex
	users     map[uuid.UUID]*models.User
	providers map[uuid.UUID]*models.Provider
	jobs      map[uuid.UUID]*models.Job
	slots     map[uuid.UUID]*models.TimeSlot
	recurring map[uuid.UUID]*models.RecurringSlot
	reviews   []*models.JobReview
	saved     map[string]*models.SavedProviders
	skills    []models.Skill
	uploads   map[string][]byte
	metadata  map[string]interface{}
	updateErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     map[uuid.UUID]*models.User{},
		providers: map[uuid.UUID]*models.Provider{},
		jobs:      map[uuid.UUID]*models.Job{},
		slots:     map[uuid.UUID]*models.TimeSlot{},
		recurring: map[uuid.UUID]*models.RecurringSlot{},
		saved:     map[string]*models.SavedProviders{},
		uploads:   map[string][]byte{},
	}
}

// applyProviderFields mirrors what PostgREST would do with the update map.
func applyProviderFields(p *models.Provider, fields map[string]interface{}) {
	for k, v := range fields {
		switch k {
		case "business_name":
			p.BusinessName = v.(string)
		case "business_email":
			p.BusinessEmail = v.(string)
		case "years_experience":
			p.YearsExperience = v.(int)
		case "full_name":
			p.FullName = v.(string)
		case "phone":
			p.Phone = v.(string)
		case "bio":
			p.Bio = v.(string)
		case "skills":
			p.Skills = v.([]string)
		case "verified":
			p.Verified = v.(bool)
		case "verification_status":
			p.VerificationStatus = v.(models.VerificationStatus)
		case "verification_requested_at":
			t := v.(time.Time)
			p.VerificationRequestedAt = &t
		case "rejection_reason":
			if v == nil {
				p.RejectionReason = nil
			} else {
				s := v.(string)
				p.RejectionReason = &s
			}
		case "id_url":
			s := v.(string)
			p.IDURL = &s
		case "profile_picture_url":
			s := v.(string)
			p.ProfilePictureURL = &s
		case "onboarding_step":
			p.OnboardingStep = v.(int)
		case "updated_at":
			p.UpdatedAt = v.(time.Time)
		default:
			panic("unexpected provider field " + k)
		}
	}
}

// UserRepo

func (f *fakeStore) CreateUser(ctx context.Context, email, password string) (*types.SignupResponse, error) {
	return &types.SignupResponse{}, nil
}

func (f *fakeStore) AuthenticateUser(ctx context.Context, email, password string) (*types.TokenResponse, error) {
	return &types.TokenResponse{}, nil
}

func (f *fakeStore) SendMagicLink(ctx context.Context, email string) error { return nil }

func (f *fakeStore) RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	return &types.TokenResponse{}, nil
}

func (f *fakeStore) Logout(ctx context.Context, accessToken string) error { return nil }

func (f *fakeStore) UpdateAuthMetadata(ctx context.Context, accessToken string, data map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metadata = data
	return nil
}

func (f *fakeStore) GetUser(ctx context.Context, id uuid.UUID, accessToken string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, models.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) UpsertProfile(ctx context.Context, user *models.User, accessToken string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *user
	f.users[user.ID] = &cp
	return &cp, nil
}

func (f *fakeStore) UpdateUser(ctx context.Context, fields map[string]interface{}, id uuid.UUID, accessToken string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if v, ok := fields["fullname"].(string); ok {
		u.FullName = v
	}
	if v, ok := fields["city"].(string); ok {
		u.City = v
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) DeleteUser(ctx context.Context, id uuid.UUID, accessToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return models.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

// ProviderRepo

func (f *fakeStore) CreateProvider(ctx context.Context, provider *models.Provider, accessToken string) (*models.Provider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *provider
	if cp.Skills == nil {
		cp.Skills = []string{}
	}
	cp.VerificationStatus = models.VerificationPending
	f.providers[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeStore) GetProvider(ctx context.Context, id uuid.UUID, accessToken string) (*models.Provider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.providers[id]
	if !ok {
		return nil, fmt.Errorf("provider %s: %w", id, models.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) UpdateProvider(ctx context.Context, id uuid.UUID, fields map[string]interface{}, accessToken string) (*models.Provider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	p, ok := f.providers[id]
	if !ok {
		return nil, fmt.Errorf("provider %s: %w", id, models.ErrNotFound)
	}
	applyProviderFields(p, fields)
	cp := *p
	return &cp, nil
}

func (f *fakeStore) ListProvidersByStatus(ctx context.Context, status models.VerificationStatus, accessToken string) ([]*models.Provider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Provider
	for _, p := range f.providers {
		if p.VerificationStatus == status {
			cp := *p
			out = append(out, &cp)
		}
	}
	requested := func(p *models.Provider) time.Time {
		if p.VerificationRequestedAt == nil {
			return time.Time{}
		}
		return *p.VerificationRequestedAt
	}
	sort.Slice(out, func(i, j int) bool {
		return requested(out[i]).Before(requested(out[j]))
	})
	return out, nil
}

// DocumentStore

func (f *fakeStore) UploadIDDocument(ctx context.Context, path, contentType string, data []byte, accessToken string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads[path] = data
	return "https://storage.example.com/provider-ids/" + path, nil
}

// ImageUploader

func (f *fakeStore) UploadImage(ctx context.Context, data []byte, folder, publicID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads[folder+"/"+publicID] = data
	return "https://res.cloudinary.com/demo/" + folder + "/" + publicID, nil
}

// SkillRepo

func (f *fakeStore) ListSkills(ctx context.Context, accessToken string) ([]models.Skill, error) {
	if len(f.skills) == 0 {
		return models.DefaultSkills, nil
	}
	return f.skills, nil
}

// JobRepo

func (f *fakeStore) CreateJob(ctx context.Context, job *models.Job, accessToken string) (*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *job
	cp.ID = uuid.New()
	cp.CreatedAt = time.Now()
	f.jobs[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeStore) GetJob(ctx context.Context, id uuid.UUID, accessToken string) (*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, models.ErrNotFound)
	}
	cp := *j
	return &cp, nil
}

func (f *fakeStore) filterJobs(keep func(*models.Job) bool, less func(a, b *models.Job) bool) []*models.Job {
	out := []*models.Job{}
	for _, j := range f.jobs {
		if keep(j) {
			cp := *j
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, k int) bool { return less(out[i], out[k]) })
	return out
}

func newestFirst(a, b *models.Job) bool { return a.CreatedAt.After(b.CreatedAt) }

func (f *fakeStore) ListJobsByCustomer(ctx context.Context, customerID uuid.UUID, accessToken string) ([]*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filterJobs(func(j *models.Job) bool { return j.OwnedBy(customerID) }, newestFirst), nil
}

func (f *fakeStore) ListJobsByProvider(ctx context.Context, providerID uuid.UUID, limit int, accessToken string) ([]*models.Job, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	jobs := f.filterJobs(func(j *models.Job) bool { return j.AssignedTo(providerID) }, newestFirst)
	total := int64(len(jobs))
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, total, nil
}

func (f *fakeStore) ListOpenJobs(ctx context.Context, categories []string, accessToken string) ([]*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	in := map[string]bool{}
	for _, c := range categories {
		in[c] = true
	}
	return f.filterJobs(func(j *models.Job) bool {
		return j.Status == models.JobPending && in[j.Category]
	}, func(a, b *models.Job) bool { return a.CreatedAt.Before(b.CreatedAt) }), nil
}

func startsIn(t *time.Time, from, to time.Time) bool {
	return t != nil && !t.Before(from) && t.Before(to)
}

func byStart(a, b *models.Job) bool { return a.StartTime.Before(*b.StartTime) }

func (f *fakeStore) ListProviderJobsBetween(ctx context.Context, providerID uuid.UUID, from, to time.Time, accessToken string) ([]*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filterJobs(func(j *models.Job) bool {
		return j.AssignedTo(providerID) && startsIn(j.StartTime, from, to)
	}, byStart), nil
}

func (f *fakeStore) ListJobsStartingBetween(ctx context.Context, status models.JobStatus, from, to time.Time, accessToken string) ([]*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filterJobs(func(j *models.Job) bool {
		return j.Status == status && startsIn(j.StartTime, from, to)
	}, byStart), nil
}

func (f *fakeStore) UpdateJob(ctx context.Context, id uuid.UUID, expected models.JobStatus, fields map[string]interface{}, accessToken string) (*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok || j.Status != expected {
		return nil, fmt.Errorf("job %s is no longer %s: %w", id, expected, models.ErrConflict)
	}
	for k, v := range fields {
		switch k {
		case "status":
			j.Status = v.(models.JobStatus)
		case "provider_id":
			pid := v.(uuid.UUID)
			j.ProviderID = &pid
		case "updated_at":
			j.UpdatedAt = v.(time.Time)
		default:
			panic("unexpected job field " + k)
		}
	}
	cp := *j
	return &cp, nil
}

// SlotRepo

func (f *fakeStore) ListTimeSlots(ctx context.Context, providerID uuid.UUID, from, to time.Time, accessToken string) ([]*models.TimeSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.TimeSlot{}
	for _, s := range f.slots {
		if s.ProviderID == providerID && startsIn(&s.StartTime, from, to) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (f *fakeStore) CreateTimeSlot(ctx context.Context, slot *models.TimeSlot, accessToken string) (*models.TimeSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *slot
	cp.ID = uuid.New()
	f.slots[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeStore) UpdateTimeSlot(ctx context.Context, providerID, id uuid.UUID, fields map[string]interface{}, accessToken string) (*models.TimeSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.slots[id]
	if !ok || s.ProviderID != providerID {
		return nil, models.ErrNotFound
	}
	if v, ok := fields["status"]; ok {
		s.Status = v.(models.SlotStatus)
	}
	if v, ok := fields["notes"]; ok {
		if v == nil {
			s.Notes = nil
		} else {
			n := v.(string)
			s.Notes = &n
		}
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) DeleteTimeSlot(ctx context.Context, providerID, id uuid.UUID, accessToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.slots[id]
	if !ok || s.ProviderID != providerID {
		return models.ErrNotFound
	}
	delete(f.slots, id)
	return nil
}

func recurringFrom(providerID uuid.UUID, fields map[string]interface{}) *models.RecurringSlot {
	r := &models.RecurringSlot{
		ProviderID: providerID,
		StartTime:  fields["start_time"].(string),
		EndTime:    fields["end_time"].(string),
		DaysOfWeek: fields["days_of_week"].([]int),
		Status:     fields["status"].(models.SlotStatus),
	}
	if n, ok := fields["notes"].(string); ok {
		r.Notes = &n
	}
	return r
}

func (f *fakeStore) ListRecurringSlots(ctx context.Context, providerID uuid.UUID, accessToken string) ([]*models.RecurringSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.RecurringSlot{}
	for _, r := range f.recurring {
		if r.ProviderID == providerID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

func (f *fakeStore) CreateRecurringSlot(ctx context.Context, providerID uuid.UUID, fields map[string]interface{}, accessToken string) (*models.RecurringSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := recurringFrom(providerID, fields)
	r.ID = uuid.New()
	f.recurring[r.ID] = r
	cp := *r
	return &cp, nil
}

func (f *fakeStore) UpdateRecurringSlot(ctx context.Context, providerID, id uuid.UUID, fields map[string]interface{}, accessToken string) (*models.RecurringSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	old, ok := f.recurring[id]
	if !ok || old.ProviderID != providerID {
		return nil, models.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "start_time":
			old.StartTime = v.(string)
		case "end_time":
			old.EndTime = v.(string)
		case "days_of_week":
			old.DaysOfWeek = v.([]int)
		case "status":
			old.Status = v.(models.SlotStatus)
		case "notes":
			if n, ok := v.(string); ok {
				old.Notes = &n
			} else {
				old.Notes = nil
			}
		default:
			panic("unexpected recurring slot field " + k)
		}
	}
	cp := *old
	return &cp, nil
}

func (f *fakeStore) DeleteRecurringSlot(ctx context.Context, providerID, id uuid.UUID, accessToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.recurring[id]
	if !ok || r.ProviderID != providerID {
		return models.ErrNotFound
	}
	delete(f.recurring, id)
	return nil
}

// ReviewsRepo

func (f *fakeStore) EnsureReviewIndexes(ctx context.Context) error { return nil }

func (f *fakeStore) CreateReview(ctx context.Context, review *models.JobReview) (*models.JobReview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reviews {
		if r.JobID == review.JobID {
			return nil, fmt.Errorf("job %s already reviewed: %w", review.JobID, models.ErrConflict)
		}
	}
	review.BeforeCreate()
	f.reviews = append(f.reviews, review)
	return review, nil
}

func (f *fakeStore) GetReviewsByProvider(ctx context.Context, providerID string) ([]*models.JobReview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.JobReview{}
	for _, r := range f.reviews {
		if r.ProviderID == providerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) GetProviderRating(ctx context.Context, providerID string) (models.RatingSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum models.RatingSummary
	total := 0
	for _, r := range f.reviews {
		if r.ProviderID == providerID {
			sum.Count++
			total += r.Rating
		}
	}
	if sum.Count > 0 {
		sum.Average = float64(total) / float64(sum.Count)
	}
	return sum, nil
}

// SavedProviderRepo

func (f *fakeStore) SaveProvider(ctx context.Context, customerID, providerID string) (*models.SavedProviders, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.saved[customerID]
	if !ok {
		s = &models.SavedProviders{CustomerID: customerID, Providers: map[string]models.SavedProvider{}}
		f.saved[customerID] = s
	}
	s.Providers[providerID] = models.SavedProvider{ProviderID: providerID, AddedAt: time.Now()}
	return s, nil
}

func (f *fakeStore) UnsaveProvider(ctx context.Context, customerID, providerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.saved[customerID]
	if !ok {
		return models.ErrNotFound
	}
	delete(s.Providers, providerID)
	return nil
}

func (f *fakeStore) GetSavedProviders(ctx context.Context, customerID string) (*models.SavedProviders, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.saved[customerID]; ok {
		return s, nil
	}
	return &models.SavedProviders{CustomerID: customerID, Providers: map[string]models.SavedProvider{}}, nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func newBroker() *realtime.MemoryBroker {
	return realtime.NewMemoryBroker(testLogger())
}

func seedProvider(store *fakeStore, mutate func(p *models.Provider)) *models.Provider {
	p := &models.Provider{
		ID:                 uuid.New(),
		FullName:           "Kofi Mensah",
		Skills:             []string{},
		VerificationStatus: models.VerificationPending,
	}
	if mutate != nil {
		mutate(p)
	}
	store.providers[p.ID] = p
	return p
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func pngReader() io.Reader {
	return strings.NewReader(string(pngBytes))
}
