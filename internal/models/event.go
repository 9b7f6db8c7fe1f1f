package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CapacityType string

const (
	CapacityTotal   CapacityType = "total"
	CapacityPerDate CapacityType = "per-date"
)

type Event struct {
	ID           uuid.UUID    `gorm:"type:uuid;primary_key" json:"id"`
	Name         string       `gorm:"unique;not null" json:"name"`
	Description  string       `gorm:"not null" json:"description"`
	Location     string       `gorm:"not null" json:"location"`
	MapsLink     string       `gorm:"not null" json:"maps_link"`
	Capacity     int          `gorm:"not null" json:"capacity"`
	CapacityType CapacityType `gorm:"not null" json:"capacity_type"`
	ImageUUID    uuid.UUID    `gorm:"type:uuid;unique" json:"image_uuid"`
	IsPublished  bool         `gorm:"not null;default:false" json:"is_published"`
	IsCancelled  bool         `gorm:"not null;default:false" json:"is_cancelled"`
	OrganizerID  uuid.UUID    `gorm:"type:uuid;not null" json:"organizer_id"`
	Organizer    *User        `gorm:"foreignKey:OrganizerID" json:"-"`
	EventDates   []EventDate  `gorm:"foreignKey:EventID" json:"event_dates,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"-"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (event *Event) BeforeCreate(tx *gorm.DB) (err error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return
}
