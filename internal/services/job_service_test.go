package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"dialaservice/internal/models"
)

func newJobService(store *fakeStore) *JobService {
	return NewJobService(store, store, store, store, newBroker(), testLogger())
}

func seedJob(store *fakeStore, mutate func(j *models.Job)) *models.Job {
	customer := uuid.New()
	j := &models.Job{
		ID:          uuid.New(),
		CustomerID:  &customer,
		Category:    "Plumbing",
		Title:       "Leaking tap",
		Description: "Kitchen tap drips all night",
		Status:      models.JobPending,
		CreatedAt:   time.Now(),
	}
	if mutate != nil {
		mutate(j)
	}
	store.jobs[j.ID] = j
	return j
}

func TestCreateJob(t *testing.T) {
	store := newFakeStore()
	svc := newJobService(store)
	customer := uuid.New()

	job, err := svc.CreateJob(context.Background(), customer, &models.JobForm{
		Category:    "Plumbing",
		Description: "Burst pipe under the sink",
		Price:       150,
	}, "token")
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if job.Title != "Plumbing" {
		t.Errorf("blank title should default to the category, got %q", job.Title)
	}
	if job.Status != models.JobPending || !job.OwnedBy(customer) {
		t.Errorf("job = %+v", job)
	}

	_, err = svc.CreateJob(context.Background(), customer, &models.JobForm{
		Category:    "Astrology",
		Description: "Read my stars",
	}, "token")
	var verr *models.ValidationError
	if !errors.As(err, &verr) || verr.Field != "Category" {
		t.Errorf("unknown category: %v", err)
	}
}

func TestAvailableJobs(t *testing.T) {
	store := newFakeStore()
	svc := newJobService(store)
	p := seedProvider(store, func(p *models.Provider) { p.Skills = []string{"Plumbing"} })

	base := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	newer := seedJob(store, func(j *models.Job) { j.CreatedAt = base.Add(time.Hour) })
	older := seedJob(store, func(j *models.Job) { j.CreatedAt = base })
	seedJob(store, func(j *models.Job) { j.Category = "Painting" })
	seedJob(store, func(j *models.Job) { j.Status = models.JobAccepted })

	jobs, err := svc.AvailableJobs(context.Background(), p.ID, "token")
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 2 || jobs[0].ID != older.ID || jobs[1].ID != newer.ID {
		t.Errorf("want open plumbing jobs oldest first, got %+v", jobs)
	}

	noSkills := seedProvider(store, nil)
	jobs, err = svc.AvailableJobs(context.Background(), noSkills.ID, "token")
	if err != nil || len(jobs) != 0 {
		t.Errorf("provider without skills: %d jobs, err=%v", len(jobs), err)
	}
}

func TestCreateJobStoresCatalogueCategory(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newJobService(store)
	p := seedProvider(store, func(p *models.Provider) {
		p.Verified = true
		p.Skills = []string{"Plumbing"}
	})

	job, err := svc.CreateJob(ctx, uuid.New(), &models.JobForm{
		Category:    "  plumbing ",
		Description: "Blocked drain",
	}, "token")
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if job.Category != "Plumbing" || job.Title != "Plumbing" {
		t.Errorf("category = %q, title = %q, want catalogue spelling", job.Category, job.Title)
	}

	jobs, err := svc.AvailableJobs(ctx, p.ID, "token")
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 1 || jobs[0].ID != job.ID {
		t.Errorf("plumbing provider sees %d jobs, want the posted one", len(jobs))
	}

	start := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	scheduled, err := svc.ScheduleJob(ctx, p.ID, &models.ScheduleJobForm{
		Title:     "Boiler service",
		Category:  "PLUMBING",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	}, "token")
	if err != nil {
		t.Fatalf("ScheduleJob: %v", err)
	}
	if scheduled.Category != "Plumbing" {
		t.Errorf("scheduled category = %q", scheduled.Category)
	}

	_, err = svc.ScheduleJob(ctx, p.ID, &models.ScheduleJobForm{
		Title:     "Horoscope",
		Category:  "Astrology",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	}, "token")
	var verr *models.ValidationError
	if !errors.As(err, &verr) || verr.Field != "Category" {
		t.Errorf("unknown scheduled category: %v", err)
	}
}

func TestAcceptJob(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newJobService(store)
	job := seedJob(store, nil)

	unverified := seedProvider(store, nil)
	if _, err := svc.AcceptJob(ctx, unverified.ID, job.ID, "token"); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("unverified provider: %v", err)
	}

	first := seedProvider(store, func(p *models.Provider) { p.Verified = true })
	second := seedProvider(store, func(p *models.Provider) { p.Verified = true })

	accepted, err := svc.AcceptJob(ctx, first.ID, job.ID, "token")
	if err != nil {
		t.Fatalf("AcceptJob: %v", err)
	}
	if accepted.Status != models.JobAccepted || !accepted.AssignedTo(first.ID) {
		t.Errorf("accepted = %+v", accepted)
	}

	if _, err := svc.AcceptJob(ctx, second.ID, job.ID, "token"); !errors.Is(err, models.ErrConflict) {
		t.Errorf("second accept: %v", err)
	}
	if !store.jobs[job.ID].AssignedTo(first.ID) {
		t.Error("losing provider must not take over the job")
	}
}

func TestUpdateJobStatus(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newJobService(store)
	p := seedProvider(store, func(p *models.Provider) { p.Verified = true })
	other := seedProvider(store, func(p *models.Provider) { p.Verified = true })

	open := seedJob(store, nil)
	if _, err := svc.UpdateStatus(ctx, p.ID, open.ID, models.JobCompleted, "token"); !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("pending to completed: %v", err)
	}

	job, err := svc.UpdateStatus(ctx, p.ID, open.ID, models.JobAccepted, "token")
	if err != nil || !job.AssignedTo(p.ID) {
		t.Fatalf("accept via status update: job=%+v err=%v", job, err)
	}

	if _, err := svc.UpdateStatus(ctx, other.ID, open.ID, models.JobCompleted, "token"); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("completing another provider's job: %v", err)
	}

	job, err = svc.UpdateStatus(ctx, p.ID, open.ID, models.JobCompleted, "token")
	if err != nil || job.Status != models.JobCompleted {
		t.Errorf("complete: job=%+v err=%v", job, err)
	}

	if _, err := svc.UpdateStatus(ctx, p.ID, uuid.New(), models.JobCompleted, "token"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("missing job: %v", err)
	}
}

func TestDashboard(t *testing.T) {
	store := newFakeStore()
	svc := newJobService(store)
	p := seedProvider(store, nil)

	for i := 0; i < 12; i++ {
		status := models.JobAccepted
		if i%3 == 0 {
			status = models.JobCompleted
		}
		seedJob(store, func(j *models.Job) {
			j.ProviderID = &p.ID
			j.Status = status
			j.Price = 100
			j.CreatedAt = time.Date(2026, 10, 1, i, 0, 0, 0, time.UTC)
		})
	}
	store.reviews = []*models.JobReview{
		{ProviderID: p.ID.String(), Rating: 5},
		{ProviderID: p.ID.String(), Rating: 4},
	}

	dash, err := svc.Dashboard(context.Background(), p.ID, "token")
	if err != nil {
		t.Fatal(err)
	}
	if dash.Stats.TotalJobs != 12 || dash.Stats.CompletedJobs != 4 || dash.Stats.TotalEarnings != 400 {
		t.Errorf("stats = %+v", dash.Stats)
	}
	if dash.Stats.ReviewCount != 2 || dash.Stats.AverageRating != 4.5 {
		t.Errorf("rating = %v over %d", dash.Stats.AverageRating, dash.Stats.ReviewCount)
	}
	if len(dash.RecentJobs) != recentJobsLimit {
		t.Errorf("recent jobs = %d", len(dash.RecentJobs))
	}
	if dash.RecentJobs[0].CreatedAt.Hour() != 11 {
		t.Error("recent jobs should be newest first")
	}
}

func TestScheduleJob(t *testing.T) {
	store := newFakeStore()
	svc := newJobService(store)
	p := seedProvider(store, nil)
	start := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

	job, err := svc.ScheduleJob(context.Background(), p.ID, &models.ScheduleJobForm{
		Title:     "Fence repair",
		StartTime: start,
		EndTime:   start.Add(2 * time.Hour),
	}, "token")
	if err != nil {
		t.Fatalf("ScheduleJob: %v", err)
	}
	if job.Status != models.JobAccepted || !job.AssignedTo(p.ID) || job.CustomerID != nil {
		t.Errorf("scheduled job = %+v", job)
	}

	_, err = svc.ScheduleJob(context.Background(), p.ID, &models.ScheduleJobForm{
		Title:     "Backwards",
		StartTime: start,
		EndTime:   start.Add(-time.Hour),
	}, "token")
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("end before start: %v", err)
	}
}

func TestReviewJob(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newJobService(store)
	p := seedProvider(store, nil)

	job := seedJob(store, func(j *models.Job) { j.ProviderID = &p.ID; j.Status = models.JobAccepted })
	customer := *job.CustomerID

	if _, err := svc.ReviewJob(ctx, customer, job.ID, &models.ReviewForm{Rating: 5}, "token"); !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("review before completion: %v", err)
	}
	store.jobs[job.ID].Status = models.JobCompleted

	if _, err := svc.ReviewJob(ctx, uuid.New(), job.ID, &models.ReviewForm{Rating: 5}, "token"); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("review by stranger: %v", err)
	}

	var verr *models.ValidationError
	if _, err := svc.ReviewJob(ctx, customer, job.ID, &models.ReviewForm{Rating: 6}, "token"); !errors.As(err, &verr) {
		t.Errorf("rating 6: %v", err)
	}

	review, err := svc.ReviewJob(ctx, customer, job.ID, &models.ReviewForm{Rating: 4, Comment: " Quick and tidy "}, "token")
	if err != nil {
		t.Fatalf("ReviewJob: %v", err)
	}
	if review.ProviderID != p.ID.String() || review.Comment != "Quick and tidy" {
		t.Errorf("review = %+v", review)
	}

	if _, err := svc.ReviewJob(ctx, customer, job.ID, &models.ReviewForm{Rating: 1}, "token"); !errors.Is(err, models.ErrConflict) {
		t.Errorf("second review: %v", err)
	}

	summary, err := svc.ProviderReviews(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(summary.Reviews) != 1 || summary.Rating.Average != 4 || summary.Rating.Count != 1 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestWatchCustomerJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newFakeStore()
	svc := newJobService(store)
	customer := uuid.New()

	sub, err := svc.WatchCustomerJobs(ctx, customer)
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()

	if _, err := svc.CreateJob(ctx, uuid.New(), &models.JobForm{Category: "Cleaning", Description: "Someone else's job"}, "token"); err != nil {
		t.Fatal(err)
	}
	job, err := svc.CreateJob(ctx, customer, &models.JobForm{Category: "Cleaning", Description: "Deep clean"}, "token")
	if err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-sub.Events():
		if ev.Record["id"] != job.ID.String() {
			t.Errorf("event for %v, want %s", ev.Record["id"], job.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event for the customer's job")
	}
}
