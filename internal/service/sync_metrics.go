package service

import (
	"fmt"
	"sync"
	"time"
)

// SyncMetrics tracks statistics about a data sync run
type SyncMetrics struct {
	mu               sync.RWMutex
	StartTime        time.Time
	Duration         time.Duration
	TotalStocks      int
	SuccessfulStocks int
	TotalBars        int
	SkippedStocks    int
	ValidationErrors int
	Errors           int
}

// NewSyncMetrics creates a new metrics tracker
func NewSyncMetrics() *SyncMetrics {
	return &SyncMetrics{
		StartTime: time.Now(),
	}
}

// Reset resets all metrics
func (m *SyncMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.StartTime = time.Now()
	m.Duration = 0
	m.TotalStocks = 0
	m.SuccessfulStocks = 0
	m.TotalBars = 0
	m.SkippedStocks = 0
	m.ValidationErrors = 0
	m.Errors = 0
}

// RecordStock increments the successful stock count
func (m *SyncMetrics) RecordStock(bars int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SuccessfulStocks++
	m.TotalBars += bars
}

// RecordSkipped increments the skipped stock count
func (m *SyncMetrics) RecordSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SkippedStocks++
}

// RecordValidationError increments the validation error count
func (m *SyncMetrics) RecordValidationError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ValidationErrors++
}

// RecordError increments the error count
func (m *SyncMetrics) RecordError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors++
}

// Snapshot returns a copy of the current counters
func (m *SyncMetrics) Snapshot() (total, successful, bars, skipped, validationErrors, errs int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.TotalStocks, m.SuccessfulStocks, m.TotalBars, m.SkippedStocks, m.ValidationErrors, m.Errors
}

// String returns a formatted string representation of metrics
func (m *SyncMetrics) String() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	successRate := float64(0)
	if m.TotalStocks > 0 {
		successRate = float64(m.SuccessfulStocks) / float64(m.TotalStocks) * 100
	}

	return fmt.Sprintf(
		"SyncMetrics{Total=%d, Successful=%d (%.1f%%), Bars=%d, Skipped=%d, ValidationErrors=%d, Errors=%d, Duration=%v}",
		m.TotalStocks,
		m.SuccessfulStocks,
		successRate,
		m.TotalBars,
		m.SkippedStocks,
		m.ValidationErrors,
		m.Errors,
		m.Duration,
	)
}
