package models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
)

const jobColumns = "*,customers(full_name,phone)"

type JobRepo interface {
	CreateJob(ctx context.Context, job *Job, accessToken string) (*Job, error)
	GetJob(ctx context.Context, id uuid.UUID, accessToken string) (*Job, error)
	ListJobsByCustomer(ctx context.Context, customerID uuid.UUID, accessToken string) ([]*Job, error)
	ListJobsByProvider(ctx context.Context, providerID uuid.UUID, limit int, accessToken string) ([]*Job, int64, error)
	ListOpenJobs(ctx context.Context, categories []string, accessToken string) ([]*Job, error)
	ListProviderJobsBetween(ctx context.Context, providerID uuid.UUID, from, to time.Time, accessToken string) ([]*Job, error)
	ListJobsStartingBetween(ctx context.Context, status JobStatus, from, to time.Time, accessToken string) ([]*Job, error)
	// UpdateJob applies fields only while the row is still in expected.
	// A row that moved on in the meantime yields ErrConflict.
	UpdateJob(ctx context.Context, id uuid.UUID, expected JobStatus, fields map[string]interface{}, accessToken string) (*Job, error)
}

func (su *SupabaseRepo) CreateJob(ctx context.Context, job *Job, accessToken string) (*Job, error) {
	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, err
	}

	row := map[string]interface{}{
		"customer_id": job.CustomerID,
		"provider_id": job.ProviderID,
		"category":    job.Category,
		"title":       job.Title,
		"description": job.Description,
		"status":      job.Status,
		"price":       job.Price,
	}
	if job.StartTime != nil {
		row["start_time"] = pgTime(*job.StartTime)
	}
	if job.EndTime != nil {
		row["end_time"] = pgTime(*job.EndTime)
	}

	raw, _, err := client.From(JobsTable).Insert(row, false, "", "", "").Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	return firstRow[Job](raw)
}

func (su *SupabaseRepo) GetJob(ctx context.Context, id uuid.UUID, accessToken string) (*Job, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("invalid job ID")
	}
	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, err
	}

	raw, _, err := client.From(JobsTable).Select(jobColumns, "", false).Eq("id", id.String()).Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	job, err := firstRow[Job](raw)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", id, err)
	}
	return job, nil
}

func (su *SupabaseRepo) ListJobsByCustomer(ctx context.Context, customerID uuid.UUID, accessToken string) ([]*Job, error) {
	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, err
	}

	raw, _, err := client.From(JobsTable).
		Select("*", "", false).
		Eq("customer_id", customerID.String()).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list customer jobs: %w", err)
	}
	return jobPointers(raw)
}

// ListJobsByProvider returns the newest jobs assigned to the provider with the
// total count. A limit of zero or less returns every job.
func (su *SupabaseRepo) ListJobsByProvider(ctx context.Context, providerID uuid.UUID, limit int, accessToken string) ([]*Job, int64, error) {
	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, 0, err
	}

	query := client.From(JobsTable).
		Select(jobColumns, "exact", false).
		Eq("provider_id", providerID.String()).
		Order("created_at", &postgrest.OrderOpts{Ascending: false})
	if limit > 0 {
		query = query.Limit(limit, "")
	}

	raw, count, err := query.Execute()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list provider jobs: %w", err)
	}
	jobs, err := jobPointers(raw)
	if err != nil {
		return nil, 0, err
	}
	return jobs, count, nil
}

func (su *SupabaseRepo) ListOpenJobs(ctx context.Context, categories []string, accessToken string) ([]*Job, error) {
	if len(categories) == 0 {
		return []*Job{}, nil
	}
	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, err
	}

	raw, _, err := client.From(JobsTable).
		Select(jobColumns, "", false).
		Eq("status", string(JobPending)).
		In("category", categories).
		Order("created_at", &postgrest.OrderOpts{Ascending: true}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list open jobs: %w", err)
	}
	return jobPointers(raw)
}

// ListProviderJobsBetween returns jobs starting in [from, to), ordered by start.
func (su *SupabaseRepo) ListProviderJobsBetween(ctx context.Context, providerID uuid.UUID, from, to time.Time, accessToken string) ([]*Job, error) {
	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, err
	}

	raw, _, err := client.From(JobsTable).
		Select(jobColumns, "", false).
		Eq("provider_id", providerID.String()).
		And(startWindow(from, to), "").
		Order("start_time", &postgrest.OrderOpts{Ascending: true}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs for calendar: %w", err)
	}
	return jobPointers(raw)
}

func (su *SupabaseRepo) ListJobsStartingBetween(ctx context.Context, status JobStatus, from, to time.Time, accessToken string) ([]*Job, error) {
	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, err
	}

	raw, _, err := client.From(JobsTable).
		Select(jobColumns, "", false).
		Eq("status", string(status)).
		And(startWindow(from, to), "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming jobs: %w", err)
	}
	return jobPointers(raw)
}

func (su *SupabaseRepo) UpdateJob(ctx context.Context, id uuid.UUID, expected JobStatus, fields map[string]interface{}, accessToken string) (*Job, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("invalid job ID")
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}
	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, err
	}

	raw, _, err := client.From(JobsTable).
		Update(fields, "", "exact").
		Eq("id", id.String()).
		Eq("status", string(expected)).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to update job: %w", err)
	}
	job, err := firstRow[Job](raw)
	if err != nil {
		return nil, fmt.Errorf("job %s is no longer %s: %w", id, expected, ErrConflict)
	}
	return job, nil
}

// startWindow builds an and=() filter since PostgREST query params are keyed
// by column and a second start_time filter would replace the first.
func startWindow(from, to time.Time) string {
	return fmt.Sprintf("start_time.gte.%s,start_time.lt.%s", pgTime(from), pgTime(to))
}

func jobPointers(raw []byte) ([]*Job, error) {
	rows, err := decodeRows[Job](raw)
	if err != nil {
		return nil, err
	}
	jobs := make([]*Job, 0, len(rows))
	for i := range rows {
		jobs = append(jobs, &rows[i])
	}
	return jobs, nil
}
