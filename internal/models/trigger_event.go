package models

import (
	"time"

	"gorm.io/gorm"
)

// TriggerEvent records one ShowAt intent emitted by the monitor.
type TriggerEvent struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	EventID       string         `gorm:"uniqueIndex;size:36" json:"event_id"`
	Timestamp     time.Time      `gorm:"not null;index" json:"timestamp"`
	Source        string         `gorm:"not null;index" json:"source"` // "shake", "hotkey", "tray", "api"
	PointerX      int            `gorm:"not null" json:"pointer_x"`
	PointerY      int            `gorm:"not null" json:"pointer_y"`
	WindowX       int            `gorm:"not null" json:"window_x"`
	WindowY       int            `gorm:"not null" json:"window_y"`
	Reversals     uint           `gorm:"not null;default:0" json:"reversals"`
	AppName       string         `gorm:"index" json:"app_name"` // Foreground app at trigger time
	DisplayServer string         `json:"display_server"`
	CreatedAt     time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// Corrected reports whether edge correction moved the window away from the pointer.
func (e *TriggerEvent) Corrected() bool {
	return e.PointerX != e.WindowX || e.PointerY != e.WindowY
}

type SourceSummary struct {
	Source     string  `json:"source"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage,omitempty"`
}

type ReportPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Type  string    `json:"type"` // "day", "week", "month"
}

type Report struct {
	Period      ReportPeriod    `json:"period"`
	Sources     []SourceSummary `json:"sources"`
	TotalCount  int             `json:"total_count"`
	ErrorCount  int64           `json:"error_count"`
	LastTrigger *TriggerEvent   `json:"last_trigger,omitempty"`
	GeneratedAt time.Time       `json:"generated_at"`
}
