package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CompanionType string

const (
	CompanionSelf    CompanionType = "self"
	CompanionParent  CompanionType = "parent"
	CompanionSibling CompanionType = "sibling"
	CompanionOther   CompanionType = "other"
)

func (t CompanionType) IsValid() bool {
	switch t {
	case CompanionSelf, CompanionParent, CompanionSibling, CompanionOther:
		return true
	}
	return false
}

type Registration struct {
	ID            uuid.UUID     `gorm:"type:uuid;primary_key" json:"id"`
	EventID       uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_event_assistant_companion" json:"event_id"`
	Event         *Event        `gorm:"foreignKey:EventID" json:"-"`
	AssistantID   uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_event_assistant_companion" json:"assistant_id"`
	Assistant     *User         `gorm:"foreignKey:AssistantID" json:"-"`
	CompanionID   uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_event_assistant_companion" json:"companion_id"`
	Companion     *Assistant    `gorm:"foreignKey:CompanionID" json:"-"`
	CompanionType CompanionType `gorm:"not null" json:"companion_type"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"-"`
}

func (registration *Registration) BeforeCreate(tx *gorm.DB) (err error) {
	if registration.ID == uuid.Nil {
		registration.ID = uuid.New()
	}
	return
}
