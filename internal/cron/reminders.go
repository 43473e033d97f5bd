// Package cron runs the service's periodic jobs.
package cron

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"dialaservice/internal/models"
	"dialaservice/internal/notify"
)

// Accepted jobs starting within this window get a reminder.
const (
	reminderFrom = 55 * time.Minute
	reminderTo   = 65 * time.Minute
)

// Reminders e-mails customers about jobs starting in about an hour.
type Reminders struct {
	jobRepo  models.JobRepo
	userRepo models.UserRepo
	mailer   notify.Mailer
	logger   *slog.Logger
	now      func() time.Time

	mu   sync.Mutex
	sent map[string]time.Time
}

func NewReminders(jobRepo models.JobRepo, userRepo models.UserRepo, mailer notify.Mailer, logger *slog.Logger) *Reminders {
	return &Reminders{
		jobRepo:  jobRepo,
		userRepo: userRepo,
		mailer:   mailer,
		logger:   logger,
		now:      time.Now,
		sent:     make(map[string]time.Time),
	}
}

// Run sends the reminders due now and returns how many went out. A job is
// reminded at most once even though consecutive runs overlap.
func (r *Reminders) Run(ctx context.Context) int {
	now := r.now()
	jobs, err := r.jobRepo.ListJobsStartingBetween(ctx, models.JobAccepted, now.Add(reminderFrom), now.Add(reminderTo), "")
	if err != nil {
		r.logger.Error("Error fetching jobs for reminders", "error", err)
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, at := range r.sent {
		if now.Sub(at) > 2*reminderTo {
			delete(r.sent, id)
		}
	}

	sent := 0
	for _, job := range jobs {
		key := job.ID.String()
		if _, done := r.sent[key]; done || job.CustomerID == nil || job.StartTime == nil {
			continue
		}
		if err := r.remind(ctx, job); err != nil {
			r.logger.Warn("Failed to send job reminder", "job_id", job.ID, "error", err)
			continue
		}
		r.sent[key] = now
		sent++
	}
	if len(jobs) > 0 {
		r.logger.Info("Job reminders processed", "due", len(jobs), "sent", sent)
	}
	return sent
}

func (r *Reminders) remind(ctx context.Context, job *models.Job) error {
	customer, err := r.userRepo.GetUser(ctx, *job.CustomerID, "")
	if err != nil {
		return err
	}
	name := customer.FullName
	if name == "" && job.Customer != nil {
		name = job.Customer.FullName
	}

	msg, err := notify.ReminderEmail{
		To:           customer.Email,
		CustomerName: name,
		Title:        job.Title,
		Category:     job.Category,
		Start:        *job.StartTime,
		End:          job.EndTime,
	}.Build()
	if err != nil {
		return err
	}
	return r.mailer.Send(ctx, msg)
}

// Start schedules the reminders every minute. The returned stop function
// waits for a running tick to finish.
func Start(r *Reminders, logger *slog.Logger) (func(), error) {
	c := cron.New()
	_, err := c.AddFunc("* * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Second)
		defer cancel()
		r.Run(ctx)
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	logger.Info("Cron job scheduler started for job reminders")

	return func() {
		<-c.Stop().Done()
		logger.Info("Cron job scheduler stopped")
	}, nil
}
