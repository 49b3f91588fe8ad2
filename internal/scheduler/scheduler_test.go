package scheduler

import (
	"testing"

	"github.com/yourusername/quant-stock/internal/models"
)

func TestScheduleDailySyncInvalidCron(t *testing.T) {
	s := NewScheduler(nil, nil)

	if err := s.ScheduleDailySync("not a cron", models.PeriodDaily); err == nil {
		t.Error("Expected error for invalid cron expression")
	}
}

func TestScheduleDailySyncInvalidPeriod(t *testing.T) {
	s := NewScheduler(nil, nil)

	if err := s.ScheduleDailySync("0 30 17 * * MON-FRI", models.Period("hourly")); err == nil {
		t.Error("Expected error for invalid period")
	}
}

func TestStartWithoutJobs(t *testing.T) {
	s := NewScheduler(nil, nil)

	if err := s.Start(); err == nil {
		t.Error("Expected error starting with no jobs")
	}
}

func TestStartStopLifecycle(t *testing.T) {
	s := NewScheduler(nil, nil)

	if err := s.ScheduleDailySync("0 30 17 * * MON-FRI", models.PeriodDaily); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if err := s.ScheduleStockListSync("0 0 9 * * MON-FRI"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !s.IsRunning() {
		t.Error("Expected scheduler to be running")
	}
	if s.GetNextRun().IsZero() {
		t.Error("Expected a next run time")
	}
	if len(s.Entries()) != 2 {
		t.Errorf("Expected 2 entries, got %d", len(s.Entries()))
	}

	// Scheduling while running is rejected
	if err := s.ScheduleStockListSync("0 0 10 * * *"); err == nil {
		t.Error("Expected error scheduling while running")
	}

	if err := s.Stop(); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if s.IsRunning() {
		t.Error("Expected scheduler to be stopped")
	}
}
