package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EventDate struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	EventID   uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_event_day" json:"event_id"`
	Event     *Event    `gorm:"foreignKey:EventID" json:"-"`
	DayDate   time.Time `gorm:"not null;uniqueIndex:idx_event_day" json:"day_date"`
	StartTime string    `gorm:"not null" json:"start_time"`
	EndTime   string    `gorm:"not null" json:"end_time"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (eventDate *EventDate) BeforeCreate(tx *gorm.DB) (err error) {
	if eventDate.ID == uuid.Nil {
		eventDate.ID = uuid.New()
	}
	return
}
