package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"event-tracker/internal/model"
)

// SchedulerService wraps cron-based jobs. Jobs run on cron's goroutines, so
// they should only hand work over to the owner of the session.
type SchedulerService struct {
	cron *cron.Cron
}

func NewSchedulerService(loc *time.Location) *SchedulerService {
	return &SchedulerService{
		cron: cron.New(cron.WithLocation(loc), cron.WithSeconds()),
	}
}

// ScheduleDaily registers a daily job at the given HH:MM time string.
func (s *SchedulerService) ScheduleDaily(timeStr string, job func()) (cron.EntryID, error) {
	spec, err := buildDailySpec(timeStr)
	if err != nil {
		return 0, err
	}
	return s.cron.AddFunc(spec, job)
}

// ScheduleInterval registers a periodic job every given duration.
func (s *SchedulerService) ScheduleInterval(interval time.Duration, job func()) (cron.EntryID, error) {
	if interval < time.Second {
		return 0, errors.New("interval must be at least one second")
	}
	return s.cron.AddFunc(fmt.Sprintf("@every %ds", int(interval/time.Second)), job)
}

// ScheduleDigest registers job daily at "HH:MM" and every interval; either
// may be empty. It returns the number of entries added.
func (s *SchedulerService) ScheduleDigest(at string, interval time.Duration, job func()) (int, error) {
	added := 0
	if at != "" {
		if _, err := s.ScheduleDaily(at, job); err != nil {
			return added, fmt.Errorf("schedule daily digest: %w", err)
		}
		added++
	}
	if interval > 0 {
		if _, err := s.ScheduleInterval(interval, job); err != nil {
			return added, fmt.Errorf("schedule digest interval: %w", err)
		}
		added++
	}
	return added, nil
}

// Next returns the earliest upcoming run, if any job is scheduled. Valid
// only after Start.
func (s *SchedulerService) Next() (time.Time, bool) {
	var next time.Time
	for _, e := range s.cron.Entries() {
		if next.IsZero() || (!e.Next.IsZero() && e.Next.Before(next)) {
			next = e.Next
		}
	}
	return next, !next.IsZero()
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// buildDailySpec accepts the time forms of event intervals.
func buildDailySpec(timeStr string) (string, error) {
	at, err := model.ParseTimeOfDay(timeStr)
	if err != nil {
		return "", fmt.Errorf("invalid time %q, expected HH:MM: %w", timeStr, err)
	}
	// cron format: second minute hour dom month dow
	return fmt.Sprintf("%d %d %d * * *", at.Second, at.Minute, at.Hour), nil
}
