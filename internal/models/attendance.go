package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Attendance struct {
	ID             uuid.UUID     `gorm:"type:uuid;primary_key" json:"id"`
	RegistrationID uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_registration_event_date" json:"registration_id"`
	Registration   *Registration `gorm:"foreignKey:RegistrationID" json:"-"`
	EventDateID    uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_registration_event_date" json:"event_date_id"`
	EventDate     *EventDate `gorm:"foreignKey:EventDateID" json:"-"`
	ArrivedAt     time.Time  `gorm:"not null" json:"arrived_at"`
	CreatedAt     time.Time  `json:"-"`
}

func (attendance *Attendance) BeforeCreate(tx *gorm.DB) (err error) {
	if attendance.ID == uuid.Nil {
		attendance.ID = uuid.New()
	}
	return
}
