package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

type SlotStatus string

const (
	SlotAvailable   SlotStatus = "available"
	SlotUnavailable SlotStatus = "unavailable"
	SlotReserved    SlotStatus = "reserved"
)

const clockLayout = "15:04"

type TimeSlot struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	ProviderID uuid.UUID  `db:"provider_id" json:"provider_id"`
	StartTime  time.Time  `db:"start_time" json:"start_time"`
	EndTime    time.Time  `db:"end_time" json:"end_time"`
	Status     SlotStatus `db:"status" json:"status"`
	Notes      *string    `db:"notes" json:"notes"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// RecurringSlot repeats on the listed weekdays, 0 being Sunday. Start and end
// are wall clock HH:MM strings.
type RecurringSlot struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	ProviderID uuid.UUID  `db:"provider_id" json:"provider_id"`
	StartTime  string     `db:"start_time" json:"start_time"`
	EndTime    string     `db:"end_time" json:"end_time"`
	DaysOfWeek []int      `db:"days_of_week" json:"days_of_week"`
	Status     SlotStatus `db:"status" json:"status"`
	Notes      *string    `db:"notes" json:"notes"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

func (r *RecurringSlot) Covers(day time.Weekday) bool {
	for _, d := range r.DaysOfWeek {
		if d == int(day) {
			return true
		}
	}
	return false
}

type TimeSlotForm struct {
	Date      string     `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string     `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string     `json:"end_time" validate:"required,datetime=15:04"`
	Status    SlotStatus `json:"status" validate:"omitempty,oneof=available unavailable"`
	Notes     string     `json:"notes" validate:"max=500"`
}

var slotMessages = map[string]string{
	"Date":       "Please choose a date",
	"StartTime":  "Start time must be HH:MM",
	"EndTime":    "End time must be HH:MM",
	"Status":     "Status must be available or unavailable",
	"Notes":      "Notes must be at most 500 characters",
	"DaysOfWeek": "Please select at least one day",
}

// Validate checks the form and returns the slot window in loc.
func (f *TimeSlotForm) Validate(loc *time.Location) (time.Time, time.Time, error) {
	if f.Status == "" {
		f.Status = SlotAvailable
	}
	if err := Validate.Struct(f); err != nil {
		return time.Time{}, time.Time{}, FormError(err, slotMessages)
	}
	start, err := time.ParseInLocation("2006-01-02 15:04", f.Date+" "+f.StartTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, NewValidationError("StartTime", slotMessages["StartTime"])
	}
	end, err := time.ParseInLocation("2006-01-02 15:04", f.Date+" "+f.EndTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, NewValidationError("EndTime", slotMessages["EndTime"])
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, NewValidationError("EndTime", "End time must be after start time")
	}
	return start, end, nil
}

// SlotUpdateForm patches a one-off slot. Nil fields are left alone.
type SlotUpdateForm struct {
	Status *SlotStatus `json:"status" validate:"omitempty,oneof=available unavailable reserved"`
	Notes  *string     `json:"notes" validate:"omitempty,max=500"`
}

func (f *SlotUpdateForm) Validate() error {
	if err := Validate.Struct(f); err != nil {
		return FormError(err, slotMessages)
	}
	if f.Status == nil && f.Notes == nil {
		return NewValidationError("Status", "Nothing to update")
	}
	return nil
}

func (f *SlotUpdateForm) Fields() map[string]interface{} {
	fields := map[string]interface{}{}
	if f.Status != nil {
		fields["status"] = *f.Status
	}
	if f.Notes != nil {
		fields["notes"] = nullableNotes(*f.Notes)
	}
	return fields
}

type RecurringSlotForm struct {
	StartTime  string     `json:"start_time" validate:"required,datetime=15:04"`
	EndTime    string     `json:"end_time" validate:"required,datetime=15:04"`
	DaysOfWeek []int      `json:"days_of_week" validate:"required,min=1,dive,min=0,max=6"`
	Status     SlotStatus `json:"status" validate:"oneof=available unavailable"`
	Notes      string     `json:"notes" validate:"max=500"`
}

// NewRecurringSlotForm returns the form prefilled with a Monday to Friday,
// nine to five availability.
func NewRecurringSlotForm() RecurringSlotForm {
	return RecurringSlotForm{
		StartTime:  "09:00",
		EndTime:    "17:00",
		DaysOfWeek: []int{1, 2, 3, 4, 5},
		Status:     SlotAvailable,
	}
}

func (f *RecurringSlotForm) Validate() error {
	if err := Validate.Struct(f); err != nil {
		return FormError(err, slotMessages)
	}
	start, _ := time.Parse(clockLayout, f.StartTime)
	end, _ := time.Parse(clockLayout, f.EndTime)
	if !end.After(start) {
		return NewValidationError("EndTime", "End time must be after start time")
	}
	f.DaysOfWeek = NormalizeDays(f.DaysOfWeek)
	return nil
}

func (f *RecurringSlotForm) Fields() map[string]interface{} {
	return map[string]interface{}{
		"start_time":   f.StartTime,
		"end_time":     f.EndTime,
		"days_of_week": f.DaysOfWeek,
		"status":       f.Status,
		"notes":        nullableNotes(f.Notes),
	}
}

// RecurringSlotUpdateForm patches a recurring slot. Nil fields are left alone;
// start and end move together so the window can be checked.
type RecurringSlotUpdateForm struct {
	StartTime  *string     `json:"start_time" validate:"omitempty,datetime=15:04"`
	EndTime    *string     `json:"end_time" validate:"omitempty,datetime=15:04"`
	DaysOfWeek *[]int      `json:"days_of_week"`
	Status     *SlotStatus `json:"status" validate:"omitempty,oneof=available unavailable"`
	Notes      *string     `json:"notes" validate:"omitempty,max=500"`
}

func (f *RecurringSlotUpdateForm) Validate() error {
	if err := Validate.Struct(f); err != nil {
		return FormError(err, slotMessages)
	}
	if f.StartTime == nil && f.EndTime == nil && f.DaysOfWeek == nil && f.Status == nil && f.Notes == nil {
		return NewValidationError("Status", "Nothing to update")
	}
	if (f.StartTime == nil) != (f.EndTime == nil) {
		return NewValidationError("EndTime", "Please set both start and end time")
	}
	if f.StartTime != nil {
		start, _ := time.Parse(clockLayout, *f.StartTime)
		end, _ := time.Parse(clockLayout, *f.EndTime)
		if !end.After(start) {
			return NewValidationError("EndTime", "End time must be after start time")
		}
	}
	if f.DaysOfWeek != nil {
		if len(*f.DaysOfWeek) == 0 {
			return NewValidationError("DaysOfWeek", slotMessages["DaysOfWeek"])
		}
		for _, d := range *f.DaysOfWeek {
			if d < 0 || d > 6 {
				return NewValidationError("DaysOfWeek", "Days must be between 0 (Sunday) and 6 (Saturday)")
			}
		}
		days := NormalizeDays(*f.DaysOfWeek)
		f.DaysOfWeek = &days
	}
	return nil
}

func (f *RecurringSlotUpdateForm) Fields() map[string]interface{} {
	fields := map[string]interface{}{}
	if f.StartTime != nil {
		fields["start_time"] = *f.StartTime
		fields["end_time"] = *f.EndTime
	}
	if f.DaysOfWeek != nil {
		fields["days_of_week"] = *f.DaysOfWeek
	}
	if f.Status != nil {
		fields["status"] = *f.Status
	}
	if f.Notes != nil {
		fields["notes"] = nullableNotes(*f.Notes)
	}
	return fields
}

// NormalizeDays removes duplicates and sorts the weekdays.
func NormalizeDays(days []int) []int {
	seen := make(map[int]struct{}, len(days))
	out := make([]int, 0, len(days))
	for _, d := range days {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}

func nullableNotes(notes string) interface{} {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil
	}
	return notes
}

// ParseDay reads a YYYY-MM-DD date in loc.
func ParseDay(value string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", value, loc)
	if err != nil {
		return time.Time{}, NewValidationError("date", fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", value))
	}
	return day, nil
}
