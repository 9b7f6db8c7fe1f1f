package models

import (
	"time"

	"github.com/google/uuid"
)

type IDType string

const (
	IDTypeNationalID IDType = "national-id"
	IDTypePassport   IDType = "passport"
)

type Gender string

const (
	GenderFemale Gender = "female"
	GenderMale   Gender = "male"
	GenderOther  Gender = "other"
)

type Assistant struct {
	UserID        uuid.UUID `gorm:"type:uuid;primary_key" json:"user_id"`
	User          *User     `gorm:"foreignKey:UserID" json:"-"`
	IDNumber      string    `gorm:"unique;not null;index" json:"id_number"`
	IDNumberType  IDType    `gorm:"not null" json:"id_number_type"`
	Phone         string    `gorm:"not null" json:"phone"`
	Gender        Gender    `gorm:"not null" json:"gender"`
	DateOfBirth   time.Time `gorm:"not null" json:"date_of_birth"`
	AcceptedTerms bool      `gorm:"not null" json:"accepted_terms"`
	ImageUUID     uuid.UUID `gorm:"type:uuid;unique;not null;index" json:"image_uuid"`
	CreatedAt     time.Time `json:"-"`
	UpdatedAt     time.Time `json:"-"`
}
