package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// FailedJobRecord is the row written to failed_jobs (created by the
// database migrations).
type FailedJobRecord struct {
	ID       uint      `gorm:"primaryKey;autoIncrement"`
	JobType  string    `gorm:"size:255;not null;index"`
	Payload  string    `gorm:"type:text;not null"`
	Error    string    `gorm:"type:text"`
	Attempts int       `gorm:"not null;default:0"`
	FailedAt time.Time `gorm:"not null"`
}

func (FailedJobRecord) TableName() string { return "failed_jobs" }

// persistFailed keeps the failure in memory and, when a store is
// configured, in the failed_jobs table.
func (m *Manager) persistFailed(ctx context.Context, job Job, typeName string, lastErr error, attempts int) {
	now := time.Now()
	m.mu.Lock()
	m.failed = append(m.failed, FailedJob{
		Type: typeName, Job: job, Err: lastErr, FailedAt: now, Attempts: attempts,
	})
	m.mu.Unlock()

	if m.failedDB == nil {
		return
	}

	payload, err := json.Marshal(job)
	if err != nil {
		payload = []byte(fmt.Sprintf(`{"error": "could not marshal: %v"}`, err))
	}

	record := FailedJobRecord{
		JobType:  typeName,
		Payload:  string(payload),
		Error:    lastErr.Error(),
		Attempts: attempts,
		FailedAt: now,
	}
	if err := m.failedDB.WithContext(context.WithoutCancel(ctx)).Create(&record).Error; err != nil {
		logger.Error("queue: could not persist failed job", "type", typeName, "error", err)
	}
}
