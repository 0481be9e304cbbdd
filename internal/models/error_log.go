package models

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ErrorLog is a non-fatal failure reported by the monitor loop or the dispatcher.
type ErrorLog struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Timestamp time.Time      `gorm:"not null;index" json:"timestamp"`
	Component string         `gorm:"not null;index;default:'monitor'" json:"component"` // "monitor", "sampler", "screen", "dispatch"
	ErrorMsg  string         `gorm:"not null" json:"error_msg"`
	Cause     string         `json:"cause,omitempty"` // innermost error when ErrorMsg is wrapped
	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// NewErrorLog builds an entry for err. Cause is only set when err wraps another error.
func NewErrorLog(component string, err error, at time.Time) *ErrorLog {
	entry := &ErrorLog{
		Timestamp: at,
		Component: component,
		ErrorMsg:  err.Error(),
	}
	if cause := errors.Cause(err); cause != nil && cause != err {
		entry.Cause = cause.Error()
	}
	return entry
}
