package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/shakewatch/shakewatch/internal/models"
)

// Repository handles all database operations for triggers and errors
type Repository struct {
	db *DB
}

// NewRepository creates a new repository instance
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a trigger event, assigning an EventID when missing
func (r *Repository) Create(event *models.TriggerEvent) error {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	result := r.db.Create(event)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert trigger event")
	}
	return nil
}

// RecordTrigger stores a trigger for the monitor loop
func (r *Repository) RecordTrigger(event *models.TriggerEvent) error {
	return r.Create(event)
}

// RecordError stores err under component
func (r *Repository) RecordError(component string, err error) error {
	return r.CreateErrorLog(models.NewErrorLog(component, err, time.Now()))
}

// GetByEventID retrieves a trigger by its public identifier
func (r *Repository) GetByEventID(eventID string) (*models.TriggerEvent, error) {
	var event models.TriggerEvent
	result := r.db.Where("event_id = ?", eventID).First(&event)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, errors.Wrap(result.Error, "failed to get trigger event")
	}
	return &event, nil
}

// GetEventsSince retrieves all triggers since a given time, oldest first
func (r *Repository) GetEventsSince(since time.Time) ([]*models.TriggerEvent, error) {
	var events []*models.TriggerEvent
	result := r.db.Where("timestamp >= ?", since).Order("timestamp ASC").Find(&events)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query trigger events")
	}

	return events, nil
}

// GetSourceSummarySince counts triggers per source since a given time
func (r *Repository) GetSourceSummarySince(since time.Time) ([]models.SourceSummary, error) {
	var summaries []models.SourceSummary

	result := r.db.Model(&models.TriggerEvent{}).
		Select("source, COUNT(*) as count").
		Where("timestamp >= ?", since).
		Group("source").
		Order("count DESC, source ASC").
		Scan(&summaries)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query source summary")
	}

	return summaries, nil
}

// CountErrorsSince counts error logs since a given time
func (r *Repository) CountErrorsSince(since time.Time) (int64, error) {
	var count int64
	result := r.db.Model(&models.ErrorLog{}).Where("timestamp >= ?", since).Count(&count)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to count error logs")
	}
	return count, nil
}

// GetRecentErrors returns the newest error logs
func (r *Repository) GetRecentErrors(limit int) ([]*models.ErrorLog, error) {
	var logs []*models.ErrorLog
	result := r.db.Order("timestamp DESC").Limit(limit).Find(&logs)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query error logs")
	}
	return logs, nil
}

// DeleteOldEvents deletes events older than a specified date (soft delete)
func (r *Repository) DeleteOldEvents(before time.Time) (int64, error) {
	result := r.db.Where("timestamp < ?", before).Delete(&models.TriggerEvent{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to delete old events")
	}
	return result.RowsAffected, nil
}

// GetLatest retrieves the most recent trigger, or nil when there is none
func (r *Repository) GetLatest() (*models.TriggerEvent, error) {
	var event models.TriggerEvent
	result := r.db.Order("timestamp DESC").First(&event)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(result.Error, "failed to get latest event")
	}
	return &event, nil
}

// CreateErrorLog inserts a new error log into the database
func (r *Repository) CreateErrorLog(errorLog *models.ErrorLog) error {
	if errorLog.Component == "" {
		errorLog.Component = "monitor"
	}
	result := r.db.Create(errorLog)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert error log")
	}
	return nil
}

// Clear removes all triggers and error logs from the database
func (r *Repository) Clear() error {
	if result := r.db.Exec("DELETE FROM trigger_events"); result.Error != nil {
		return errors.Wrap(result.Error, "failed to clear trigger events")
	}
	if result := r.db.Exec("DELETE FROM error_logs"); result.Error != nil {
		return errors.Wrap(result.Error, "failed to clear error logs")
	}
	return nil
}
