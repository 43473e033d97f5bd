package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"dialaservice/internal/models"
	"dialaservice/internal/realtime"
)

const recentJobsLimit = 10

type Dashboard struct {
	Stats      models.ProviderStats `json:"stats"`
	RecentJobs []*models.Job        `json:"recent_jobs"`
}

type ProviderReviews struct {
	Reviews []*models.JobReview  `json:"reviews"`
	Rating  models.RatingSummary `json:"rating"`
}

type JobService struct {
	jobRepo      models.JobRepo
	providerRepo models.ProviderRepo
	skillRepo    models.SkillRepo
	reviewsRepo  models.ReviewsRepo
	broker       realtime.Broker
	logger       *slog.Logger
}

func NewJobService(jobRepo models.JobRepo, providerRepo models.ProviderRepo, skillRepo models.SkillRepo, reviewsRepo models.ReviewsRepo, broker realtime.Broker, logger *slog.Logger) *JobService {
	return &JobService{
		jobRepo:      jobRepo,
		providerRepo: providerRepo,
		skillRepo:    skillRepo,
		reviewsRepo:  reviewsRepo,
		broker:       broker,
		logger:       logger,
	}
}

func (js *JobService) CreateJob(ctx context.Context, customerID uuid.UUID, form *models.JobForm, accessToken string) (*models.Job, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	catalogue, err := js.skillRepo.ListSkills(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	category, ok := models.CategoryName(form.Category, catalogue)
	if !ok {
		return nil, models.NewValidationError("Category", "Please choose a category")
	}

	title := strings.TrimSpace(form.Title)
	if title == "" {
		title = category
	}
	job, err := js.jobRepo.CreateJob(ctx, &models.Job{
		CustomerID:  &customerID,
		Category:    category,
		Title:       title,
		Description: form.Description,
		Status:      models.JobPending,
		Price:       form.Price,
		StartTime:   form.StartTime,
		EndTime:     form.EndTime,
	}, accessToken)
	if err != nil {
		return nil, err
	}
	js.logger.Info("Job posted", "job_id", job.ID, "customer_id", customerID, "category", job.Category)
	realtime.Emit(ctx, js.broker, js.logger, models.JobsTable, realtime.Insert, job)
	return job, nil
}

func (js *JobService) CustomerJobs(ctx context.Context, customerID uuid.UUID, accessToken string) ([]*models.Job, error) {
	return js.jobRepo.ListJobsByCustomer(ctx, customerID, accessToken)
}

func (js *JobService) Dashboard(ctx context.Context, providerID uuid.UUID, accessToken string) (*Dashboard, error) {
	jobs, _, err := js.jobRepo.ListJobsByProvider(ctx, providerID, 0, accessToken)
	if err != nil {
		return nil, err
	}
	stats := models.ComputeStats(jobs)

	rating, err := js.reviewsRepo.GetProviderRating(ctx, providerID.String())
	if err != nil {
		js.logger.Warn("Rating lookup failed", "provider_id", providerID, "error", err)
	} else {
		stats.AverageRating = rating.Average
		stats.ReviewCount = rating.Count
	}

	recent := jobs
	if len(recent) > recentJobsLimit {
		recent = recent[:recentJobsLimit]
	}
	return &Dashboard{Stats: stats, RecentJobs: recent}, nil
}

// AvailableJobs lists open jobs in the provider's skill categories, oldest
// first.
func (js *JobService) AvailableJobs(ctx context.Context, providerID uuid.UUID, accessToken string) ([]*models.Job, error) {
	p, err := js.providerRepo.GetProvider(ctx, providerID, accessToken)
	if err != nil {
		return nil, err
	}
	if !p.HasSkills() {
		return []*models.Job{}, nil
	}
	return js.jobRepo.ListOpenJobs(ctx, p.Skills, accessToken)
}

// AcceptJob assigns an open job to a verified provider. Two providers racing
// for the same job get ErrConflict for the loser.
func (js *JobService) AcceptJob(ctx context.Context, providerID, jobID uuid.UUID, accessToken string) (*models.Job, error) {
	p, err := js.providerRepo.GetProvider(ctx, providerID, accessToken)
	if err != nil {
		return nil, err
	}
	if !p.Verified {
		return nil, fmt.Errorf("provider is not verified: %w", models.ErrForbidden)
	}

	job, err := js.jobRepo.UpdateJob(ctx, jobID, models.JobPending, map[string]interface{}{
		"status":      models.JobAccepted,
		"provider_id": providerID,
		"updated_at":  time.Now().UTC(),
	}, accessToken)
	if err != nil {
		return nil, err
	}
	js.logger.Info("Job accepted", "job_id", jobID, "provider_id", providerID)
	realtime.Emit(ctx, js.broker, js.logger, models.JobsTable, realtime.Update, job)
	return job, nil
}

func (js *JobService) UpdateStatus(ctx context.Context, providerID, jobID uuid.UUID, to models.JobStatus, accessToken string) (*models.Job, error) {
	job, err := js.jobRepo.GetJob(ctx, jobID, accessToken)
	if err != nil {
		return nil, err
	}
	if !models.CanTransitionJob(job.Status, to) {
		return nil, fmt.Errorf("job %s cannot move from %s to %s: %w", jobID, job.Status, to, models.ErrInvalidTransition)
	}
	if job.ProviderID == nil && to == models.JobAccepted {
		return js.AcceptJob(ctx, providerID, jobID, accessToken)
	}
	if !job.AssignedTo(providerID) {
		return nil, fmt.Errorf("job %s belongs to another provider: %w", jobID, models.ErrForbidden)
	}

	updated, err := js.jobRepo.UpdateJob(ctx, jobID, job.Status, map[string]interface{}{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}, accessToken)
	if err != nil {
		return nil, err
	}
	js.logger.Info("Job status changed", "job_id", jobID, "from", job.Status, "to", to)
	realtime.Emit(ctx, js.broker, js.logger, models.JobsTable, realtime.Update, updated)
	return updated, nil
}

// ScheduleJob books a job straight into the provider's calendar.
func (js *JobService) ScheduleJob(ctx context.Context, providerID uuid.UUID, form *models.ScheduleJobForm, accessToken string) (*models.Job, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	category := strings.TrimSpace(form.Category)
	if category != "" {
		catalogue, err := js.skillRepo.ListSkills(ctx, accessToken)
		if err != nil {
			return nil, err
		}
		name, ok := models.CategoryName(category, catalogue)
		if !ok {
			return nil, models.NewValidationError("Category", "Please choose a category")
		}
		category = name
	}
	start, end := form.StartTime, form.EndTime
	job, err := js.jobRepo.CreateJob(ctx, &models.Job{
		ProviderID:  &providerID,
		Category:    category,
		Title:       form.Title,
		Description: strings.TrimSpace(form.Description),
		Status:      models.JobAccepted,
		Price:       form.Price,
		StartTime:   &start,
		EndTime:     &end,
	}, accessToken)
	if err != nil {
		return nil, err
	}
	realtime.Emit(ctx, js.broker, js.logger, models.JobsTable, realtime.Insert, job)
	return job, nil
}

func (js *JobService) ReviewJob(ctx context.Context, customerID, jobID uuid.UUID, form *models.ReviewForm, accessToken string) (*models.JobReview, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	job, err := js.jobRepo.GetJob(ctx, jobID, accessToken)
	if err != nil {
		return nil, err
	}
	if !job.OwnedBy(customerID) {
		return nil, fmt.Errorf("job %s belongs to another customer: %w", jobID, models.ErrForbidden)
	}
	if job.Status != models.JobCompleted || job.ProviderID == nil {
		return nil, fmt.Errorf("only completed jobs can be reviewed: %w", models.ErrInvalidTransition)
	}

	return js.reviewsRepo.CreateReview(ctx, &models.JobReview{
		JobID:      jobID.String(),
		CustomerID: customerID.String(),
		ProviderID: job.ProviderID.String(),
		Rating:     form.Rating,
		Comment:    form.Comment,
	})
}

func (js *JobService) ProviderReviews(ctx context.Context, providerID uuid.UUID) (*ProviderReviews, error) {
	reviews, err := js.reviewsRepo.GetReviewsByProvider(ctx, providerID.String())
	if err != nil {
		return nil, err
	}
	rating, err := js.reviewsRepo.GetProviderRating(ctx, providerID.String())
	if err != nil {
		return nil, err
	}
	return &ProviderReviews{Reviews: reviews, Rating: rating}, nil
}

// WatchCustomerJobs streams changes to the customer's own jobs.
func (js *JobService) WatchCustomerJobs(ctx context.Context, customerID uuid.UUID) (*realtime.Subscription, error) {
	return js.broker.Subscribe(ctx, realtime.Filter{Table: models.JobsTable, Column: "customer_id", Value: customerID.String()})
}

// WatchProviderJobs streams changes to jobs assigned to the provider.
func (js *JobService) WatchProviderJobs(ctx context.Context, providerID uuid.UUID) (*realtime.Subscription, error) {
	return js.broker.Subscribe(ctx, realtime.Filter{Table: models.JobsTable, Column: "provider_id", Value: providerID.String()})
}
