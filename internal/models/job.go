package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobAccepted  JobStatus = "accepted"
	JobCompleted JobStatus = "completed"
	JobRejected  JobStatus = "rejected"
)

// CustomerContact is the embedded customers(full_name, phone) read.
type CustomerContact struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

type Job struct {
	ID          uuid.UUID        `db:"id" json:"id"`
	CustomerID  *uuid.UUID       `db:"customer_id" json:"customer_id"`
	ProviderID  *uuid.UUID       `db:"provider_id" json:"provider_id"`
	Category    string           `db:"category" json:"category"`
	Title       string           `db:"title" json:"title"`
	Description string           `db:"description" json:"description"`
	Status      JobStatus        `db:"status" json:"status"`
	Price       float64          `db:"price" json:"price"`
	StartTime   *time.Time       `db:"start_time" json:"start_time"`
	EndTime     *time.Time       `db:"end_time" json:"end_time"`
	Customer    *CustomerContact `json:"customers,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// CanTransitionJob lists the status moves a provider may make on a job.
func CanTransitionJob(from, to JobStatus) bool {
	switch from {
	case JobPending:
		return to == JobAccepted || to == JobRejected
	case JobAccepted:
		return to == JobCompleted
	}
	return false
}

func (j *Job) AssignedTo(providerID uuid.UUID) bool {
	return j.ProviderID != nil && *j.ProviderID == providerID
}

func (j *Job) OwnedBy(customerID uuid.UUID) bool {
	return j.CustomerID != nil && *j.CustomerID == customerID
}

// JobForm is what a customer posts.
type JobForm struct {
	Category    string     `json:"category" validate:"required"`
	Title       string     `json:"title" validate:"max=200"`
	Description string     `json:"description" validate:"required,max=2000"`
	Price       float64    `json:"price" validate:"min=0"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
}

var jobMessages = map[string]string{
	"Category":    "Please choose a category",
	"Title":       "Title must be at most 200 characters",
	"Description": "Please describe the job",
	"Price":       "Price cannot be negative",
}

func (f *JobForm) Validate() error {
	f.Category = strings.TrimSpace(f.Category)
	f.Description = strings.TrimSpace(f.Description)
	if err := Validate.Struct(f); err != nil {
		return FormError(err, jobMessages)
	}
	return validateWindow(f.StartTime, f.EndTime)
}

// ScheduleJobForm is the provider calendar's "Schedule Job" form.
type ScheduleJobForm struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=2000"`
	Category    string    `json:"category"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required"`
	Price       float64   `json:"price" validate:"min=0"`
}

var scheduleMessages = map[string]string{
	"Title":     "Please enter a job title",
	"StartTime": "Please choose a start time",
	"EndTime":   "Please choose an end time",
	"Price":     "Price cannot be negative",
}

func (f *ScheduleJobForm) Validate() error {
	f.Title = strings.TrimSpace(f.Title)
	if err := Validate.Struct(f); err != nil {
		return FormError(err, scheduleMessages)
	}
	return validateWindow(&f.StartTime, &f.EndTime)
}

func validateWindow(start, end *time.Time) error {
	if start == nil && end == nil {
		return nil
	}
	if start == nil || end == nil {
		return NewValidationError("EndTime", "Please provide both a start and an end time")
	}
	if !end.After(*start) {
		return NewValidationError("EndTime", "End time must be after start time")
	}
	return nil
}

type ProviderStats struct {
	TotalJobs     int     `json:"total_jobs"`
	CompletedJobs int     `json:"completed_jobs"`
	TotalEarnings float64 `json:"total_earnings"`
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int64   `json:"review_count"`
}

// ComputeStats tallies a provider's jobs.
func ComputeStats(jobs []*Job) ProviderStats {
	var stats ProviderStats
	for _, j := range jobs {
		stats.TotalJobs++
		if j.Status == JobCompleted {
			stats.CompletedJobs++
			stats.TotalEarnings += j.Price
		}
	}
	return stats
}
