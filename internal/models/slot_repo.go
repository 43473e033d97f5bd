package models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
)

// SlotRepo stores a provider's availability. Every write is filtered by
// provider_id as well as id.
type SlotRepo interface {
	ListTimeSlots(ctx context.Context, providerID uuid.UUID, from, to time.Time, accessToken string) ([]*TimeSlot, error)
	CreateTimeSlot(ctx context.Context, slot *TimeSlot, accessToken string) (*TimeSlot, error)
	UpdateTimeSlot(ctx context.Context, providerID, id uuid.UUID, fields map[string]interface{}, accessToken string) (*TimeSlot, error)
	DeleteTimeSlot(ctx context.Context, providerID, id uuid.UUID, accessToken string) error

	ListRecurringSlots(ctx context.Context, providerID uuid.UUID, accessToken string) ([]*RecurringSlot, error)
	CreateRecurringSlot(ctx context.Context, providerID uuid.UUID, fields map[string]interface{}, accessToken string) (*RecurringSlot, error)
	UpdateRecurringSlot(ctx context.Context, providerID, id uuid.UUID, fields map[string]interface{}, accessToken string) (*RecurringSlot, error)
	DeleteRecurringSlot(ctx context.Context, providerID, id uuid.UUID, accessToken string) error
}

func (su *SupabaseRepo) ListTimeSlots(ctx context.Context, providerID uuid.UUID, from, to time.Time, accessToken string) ([]*TimeSlot, error) {
	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, err
	}

	raw, _, err := client.From(TimeSlotsTable).
		Select("*", "", false).
		Eq("provider_id", providerID.String()).
		And(startWindow(from, to), "").
		Order("start_time", &postgrest.OrderOpts{Ascending: true}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list time slots: %w", err)
	}
	rows, err := decodeRows[TimeSlot](raw)
	if err != nil {
		return nil, err
	}
	slots := make([]*TimeSlot, 0, len(rows))
	for i := range rows {
		slots = append(slots, &rows[i])
	}
	return slots, nil
}

func (su *SupabaseRepo) CreateTimeSlot(ctx context.Context, slot *TimeSlot, accessToken string) (*TimeSlot, error) {
	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, err
	}

	row := map[string]interface{}{
		"provider_id": slot.ProviderID,
		"start_time":  pgTime(slot.StartTime),
		"end_time":    pgTime(slot.EndTime),
		"status":      slot.Status,
		"notes":       slot.Notes,
	}
	raw, _, err := client.From(TimeSlotsTable).Insert(row, false, "", "", "").Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to create time slot: %w", err)
	}
	return firstRow[TimeSlot](raw)
}

func (su *SupabaseRepo) UpdateTimeSlot(ctx context.Context, providerID, id uuid.UUID, fields map[string]interface{}, accessToken string) (*TimeSlot, error) {
	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, err
	}

	raw, _, err := client.From(TimeSlotsTable).
		Update(fields, "", "").
		Eq("id", id.String()).
		Eq("provider_id", providerID.String()).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to update time slot: %w", err)
	}
	slot, err := firstRow[TimeSlot](raw)
	if err != nil {
		return nil, fmt.Errorf("time slot %s: %w", id, err)
	}
	return slot, nil
}

func (su *SupabaseRepo) DeleteTimeSlot(ctx context.Context, providerID, id uuid.UUID, accessToken string) error {
	client, err := su.clientFor(accessToken)
	if err != nil {
		return err
	}

	raw, _, err := client.From(TimeSlotsTable).
		Delete("", "").
		Eq("id", id.String()).
		Eq("provider_id", providerID.String()).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to delete time slot: %w", err)
	}
	if _, err := firstRow[TimeSlot](raw); err != nil {
		return fmt.Errorf("time slot %s: %w", id, err)
	}
	return nil
}

func (su *SupabaseRepo) ListRecurringSlots(ctx context.Context, providerID uuid.UUID, accessToken string) ([]*RecurringSlot, error) {
	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, err
	}

	raw, _, err := client.From(RecurringSlotsTable).
		Select("*", "", false).
		Eq("provider_id", providerID.String()).
		Order("start_time", &postgrest.OrderOpts{Ascending: true}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list recurring slots: %w", err)
	}
	rows, err := decodeRows[RecurringSlot](raw)
	if err != nil {
		return nil, err
	}
	slots := make([]*RecurringSlot, 0, len(rows))
	for i := range rows {
		slots = append(slots, &rows[i])
	}
	return slots, nil
}

func (su *SupabaseRepo) CreateRecurringSlot(ctx context.Context, providerID uuid.UUID, fields map[string]interface{}, accessToken string) (*RecurringSlot, error) {
	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, err
	}

	row := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		row[k] = v
	}
	row["provider_id"] = providerID

	raw, _, err := client.From(RecurringSlotsTable).Insert(row, false, "", "", "").Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to create recurring slot: %w", err)
	}
	return firstRow[RecurringSlot](raw)
}

func (su *SupabaseRepo) UpdateRecurringSlot(ctx context.Context, providerID, id uuid.UUID, fields map[string]interface{}, accessToken string) (*RecurringSlot, error) {
	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, err
	}

	raw, _, err := client.From(RecurringSlotsTable).
		Update(fields, "", "").
		Eq("id", id.String()).
		Eq("provider_id", providerID.String()).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to update recurring slot: %w", err)
	}
	slot, err := firstRow[RecurringSlot](raw)
	if err != nil {
		return nil, fmt.Errorf("recurring slot %s: %w", id, err)
	}
	return slot, nil
}

func (su *SupabaseRepo) DeleteRecurringSlot(ctx context.Context, providerID, id uuid.UUID, accessToken string) error {
	client, err := su.clientFor(accessToken)
	if err != nil {
		return err
	}

	raw, _, err := client.From(RecurringSlotsTable).
		Delete("", "").
		Eq("id", id.String()).
		Eq("provider_id", providerID.String()).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to delete recurring slot: %w", err)
	}
	if _, err := firstRow[RecurringSlot](raw); err != nil {
		return fmt.Errorf("recurring slot %s: %w", id, err)
	}
	return nil
}
