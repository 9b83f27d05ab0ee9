package models

import (
	"time"
)

// EventView is the event_type of a page-view record.
const EventView = "view"

// AnalyticsEvent is an append-only engagement record emitted by the page-view
// instrumentation collaborator. The aggregator only ever reads these rows.
type AnalyticsEvent struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	EventType string    `json:"event_type" gorm:"not null;size:50;index"`
	EventData JSONMap   `json:"event_data" gorm:"type:jsonb"`
	PostID    uint      `json:"post_id" gorm:"not null;index"`
	UserID    *uint     `json:"user_id" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`
}

func (AnalyticsEvent) TableName() string {
	return "analytics_events"
}
