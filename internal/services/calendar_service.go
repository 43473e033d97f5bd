package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"dialaservice/internal/helpers"
	"dialaservice/internal/models"
	"dialaservice/internal/realtime"
)

const dateLayout = "2006-01-02"

type CalendarDay struct {
	Date         string        `json:"date"`
	Weekday      string        `json:"weekday"`
	Jobs         []*models.Job `json:"jobs"`
	HasTimeSlots bool          `json:"has_time_slots"`
}

type CalendarWeek struct {
	Start string        `json:"start"`
	Prev  string        `json:"prev"`
	Next  string        `json:"next"`
	Days  []CalendarDay `json:"days"`
}

type HourGroup struct {
	Hour  int                `json:"hour"`
	Slots []*models.TimeSlot `json:"slots"`
}

// BuildWeek lays jobs and availability out over the seven days starting at
// start. Jobs must be ordered by start time.
func BuildWeek(start time.Time, jobs []*models.Job, slots []*models.TimeSlot, recurring []*models.RecurringSlot) *CalendarWeek {
	week := &CalendarWeek{
		Start: start.Format(dateLayout),
		Prev:  start.AddDate(0, 0, -7).Format(dateLayout),
		Next:  start.AddDate(0, 0, 7).Format(dateLayout),
		Days:  make([]CalendarDay, 7),
	}
	for i := range week.Days {
		day := start.AddDate(0, 0, i)
		week.Days[i] = CalendarDay{
			Date:    day.Format(dateLayout),
			Weekday: day.Weekday().String(),
			Jobs:    []*models.Job{},
		}
		for _, r := range recurring {
			if r.Status == models.SlotAvailable && r.Covers(day.Weekday()) {
				week.Days[i].HasTimeSlots = true
				break
			}
		}
	}

	loc := start.Location()
	index := func(t time.Time) int {
		d := helpers.StartOfDay(t.In(loc))
		for i := range week.Days {
			if start.AddDate(0, 0, i).Equal(d) {
				return i
			}
		}
		return -1
	}
	for _, j := range jobs {
		if j.StartTime == nil {
			continue
		}
		if i := index(*j.StartTime); i >= 0 {
			week.Days[i].Jobs = append(week.Days[i].Jobs, j)
		}
	}
	for _, s := range slots {
		if i := index(s.StartTime); i >= 0 {
			week.Days[i].HasTimeSlots = true
		}
	}
	return week
}

// GroupByHour buckets slots by their starting hour. Slots must be ordered by
// start time; groups come out in the same order.
func GroupByHour(slots []*models.TimeSlot, loc *time.Location) []HourGroup {
	groups := []HourGroup{}
	for _, s := range slots {
		hour := s.StartTime.In(loc).Hour()
		if n := len(groups); n > 0 && groups[n-1].Hour == hour {
			groups[n-1].Slots = append(groups[n-1].Slots, s)
			continue
		}
		groups = append(groups, HourGroup{Hour: hour, Slots: []*models.TimeSlot{s}})
	}
	return groups
}

type CalendarService struct {
	jobRepo  models.JobRepo
	slotRepo models.SlotRepo
	broker   realtime.Broker
	logger   *slog.Logger
	loc      *time.Location
}

func NewCalendarService(jobRepo models.JobRepo, slotRepo models.SlotRepo, broker realtime.Broker, logger *slog.Logger, loc *time.Location) *CalendarService {
	if loc == nil {
		loc = time.UTC
	}
	return &CalendarService{
		jobRepo:  jobRepo,
		slotRepo: slotRepo,
		broker:   broker,
		logger:   logger,
		loc:      loc,
	}
}

func (cs *CalendarService) Location() *time.Location {
	return cs.loc
}

// Week returns the Sunday to Saturday week containing date. An empty date
// means today.
func (cs *CalendarService) Week(ctx context.Context, providerID uuid.UUID, date string, accessToken string) (*CalendarWeek, error) {
	day := time.Now().In(cs.loc)
	if date != "" {
		var err error
		if day, err = models.ParseDay(date, cs.loc); err != nil {
			return nil, err
		}
	}
	start := helpers.StartOfWeek(day)
	end := start.AddDate(0, 0, 7)

	jobs, err := cs.jobRepo.ListProviderJobsBetween(ctx, providerID, start, end, accessToken)
	if err != nil {
		return nil, err
	}
	slots, err := cs.slotRepo.ListTimeSlots(ctx, providerID, start, end, accessToken)
	if err != nil {
		return nil, err
	}
	recurring, err := cs.slotRepo.ListRecurringSlots(ctx, providerID, accessToken)
	if err != nil {
		return nil, err
	}
	return BuildWeek(start, jobs, slots, recurring), nil
}

func (cs *CalendarService) DaySlots(ctx context.Context, providerID uuid.UUID, date string, accessToken string) ([]HourGroup, error) {
	day, err := models.ParseDay(date, cs.loc)
	if err != nil {
		return nil, err
	}
	slots, err := cs.slotRepo.ListTimeSlots(ctx, providerID, day, day.AddDate(0, 0, 1), accessToken)
	if err != nil {
		return nil, err
	}
	return GroupByHour(slots, cs.loc), nil
}

func (cs *CalendarService) CreateSlot(ctx context.Context, providerID uuid.UUID, form *models.TimeSlotForm, accessToken string) (*models.TimeSlot, error) {
	start, end, err := form.Validate(cs.loc)
	if err != nil {
		return nil, err
	}
	slot := &models.TimeSlot{
		ProviderID: providerID,
		StartTime:  start,
		EndTime:    end,
		Status:     form.Status,
	}
	if notes := strings.TrimSpace(form.Notes); notes != "" {
		slot.Notes = &notes
	}

	created, err := cs.slotRepo.CreateTimeSlot(ctx, slot, accessToken)
	if err != nil {
		return nil, err
	}
	realtime.Emit(ctx, cs.broker, cs.logger, models.TimeSlotsTable, realtime.Insert, created)
	return created, nil
}

func (cs *CalendarService) UpdateSlot(ctx context.Context, providerID, id uuid.UUID, form *models.SlotUpdateForm, accessToken string) (*models.TimeSlot, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	updated, err := cs.slotRepo.UpdateTimeSlot(ctx, providerID, id, form.Fields(), accessToken)
	if err != nil {
		return nil, err
	}
	realtime.Emit(ctx, cs.broker, cs.logger, models.TimeSlotsTable, realtime.Update, updated)
	return updated, nil
}

func (cs *CalendarService) DeleteSlot(ctx context.Context, providerID, id uuid.UUID, accessToken string) error {
	if err := cs.slotRepo.DeleteTimeSlot(ctx, providerID, id, accessToken); err != nil {
		return err
	}
	realtime.Emit(ctx, cs.broker, cs.logger, models.TimeSlotsTable, realtime.Delete, map[string]interface{}{
		"id":          id,
		"provider_id": providerID,
	})
	return nil
}

func (cs *CalendarService) RecurringSlots(ctx context.Context, providerID uuid.UUID, accessToken string) ([]*models.RecurringSlot, error) {
	return cs.slotRepo.ListRecurringSlots(ctx, providerID, accessToken)
}

func (cs *CalendarService) CreateRecurringSlot(ctx context.Context, providerID uuid.UUID, form *models.RecurringSlotForm, accessToken string) (*models.RecurringSlot, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	created, err := cs.slotRepo.CreateRecurringSlot(ctx, providerID, form.Fields(), accessToken)
	if err != nil {
		return nil, err
	}
	realtime.Emit(ctx, cs.broker, cs.logger, models.RecurringSlotsTable, realtime.Insert, created)
	return created, nil
}

// UpdateRecurringSlot writes only the fields present in form.
func (cs *CalendarService) UpdateRecurringSlot(ctx context.Context, providerID, id uuid.UUID, form *models.RecurringSlotUpdateForm, accessToken string) (*models.RecurringSlot, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	updated, err := cs.slotRepo.UpdateRecurringSlot(ctx, providerID, id, form.Fields(), accessToken)
	if err != nil {
		return nil, err
	}
	realtime.Emit(ctx, cs.broker, cs.logger, models.RecurringSlotsTable, realtime.Update, updated)
	return updated, nil
}

func (cs *CalendarService) DeleteRecurringSlot(ctx context.Context, providerID, id uuid.UUID, accessToken string) error {
	if err := cs.slotRepo.DeleteRecurringSlot(ctx, providerID, id, accessToken); err != nil {
		return err
	}
	realtime.Emit(ctx, cs.broker, cs.logger, models.RecurringSlotsTable, realtime.Delete, map[string]interface{}{
		"id":          id,
		"provider_id": providerID,
	})
	return nil
}
