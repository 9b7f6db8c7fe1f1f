package reminder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/udlaevents/eventpass/internal/clock"
	"github.com/udlaevents/eventpass/internal/models"
)

type recordingSender struct {
	reminders []string
}

func (s *recordingSender) SendWelcome(user models.User) error { return nil }

func (s *recordingSender) SendEventRegistration(user models.User, event models.Event, dates []models.EventDate) error {
	return nil
}

func (s *recordingSender) SendRegistrationCanceled(user models.User, event models.Event) error {
	return nil
}

func (s *recordingSender) SendEventReminder(user models.User, event models.Event, date models.EventDate) error {
	s.reminders = append(s.reminders, user.Email)
	return nil
}

var testTime = time.Date(2025, 6, 15, 10, 0, 0, 0, clock.Zone())

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Assistant{},
		&models.Event{},
		&models.EventDate{},
		&models.Registration{},
		&models.Attendance{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()
	user := models.User{
		Email:     email,
		FirstName: "Test",
		LastName:  "User",
		Password:  "irrelevant",
		Role:      models.RoleAssistant,
		IsActive:  true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user %s: %v", email, err)
	}
	return user
}

func seedEventWithDate(t *testing.T, db *gorm.DB, name string, dayDate time.Time, published bool) (models.Event, models.EventDate) {
	t.Helper()
	organizer := seedUser(t, db, name+"-organizer@udla.edu.ec")
	event := models.Event{
		Name:         name,
		Description:  "d",
		Location:     "l",
		MapsLink:     "https://maps.app.goo.gl/x",
		Capacity:     100,
		CapacityType: models.CapacityTotal,
		ImageUUID:    uuid.New(),
		IsPublished:  published,
		OrganizerID:  organizer.ID,
	}
	if err := db.Create(&event).Error; err != nil {
		t.Fatalf("failed to seed event: %v", err)
	}
	eventDate := models.EventDate{
		EventID:   event.ID,
		DayDate:   dayDate,
		StartTime: "09:00",
		EndTime:   "17:00",
	}
	if err := db.Create(&eventDate).Error; err != nil {
		t.Fatalf("failed to seed event date: %v", err)
	}
	return event, eventDate
}

func register(t *testing.T, db *gorm.DB, event models.Event, user models.User) {
	t.Helper()
	registration := models.Registration{
		EventID:       event.ID,
		AssistantID:   user.ID,
		CompanionID:   user.ID,
		CompanionType: models.CompanionSelf,
	}
	if err := db.Create(&registration).Error; err != nil {
		t.Fatalf("failed to seed registration: %v", err)
	}
}

func TestRunEmailsAssistantsRegisteredForTomorrow(t *testing.T) {
	db := newTestDB(t)
	tomorrow := time.Date(2025, 6, 16, 0, 0, 0, 0, clock.Zone())

	event, _ := seedEventWithDate(t, db, "open-day", tomorrow, true)
	alice := seedUser(t, db, "alice@example.com")
	bob := seedUser(t, db, "bob@example.com")
	register(t, db, event, alice)
	register(t, db, event, bob)

	sender := &recordingSender{}
	NewJob(db, sender, clock.Fixed(testTime)).Run()

	if len(sender.reminders) != 2 {
		t.Fatalf("expected 2 reminders, got %d: %v", len(sender.reminders), sender.reminders)
	}
}

func TestRunSkipsOtherDaysAndUnpublishedEvents(t *testing.T) {
	db := newTestDB(t)
	tomorrow := time.Date(2025, 6, 16, 0, 0, 0, 0, clock.Zone())
	nextWeek := tomorrow.AddDate(0, 0, 6)

	laterEvent, _ := seedEventWithDate(t, db, "later-event", nextWeek, true)
	draftEvent, _ := seedEventWithDate(t, db, "draft-event", tomorrow, false)

	alice := seedUser(t, db, "alice@example.com")
	register(t, db, laterEvent, alice)
	register(t, db, draftEvent, alice)

	sender := &recordingSender{}
	NewJob(db, sender, clock.Fixed(testTime)).Run()

	if len(sender.reminders) != 0 {
		t.Fatalf("expected no reminders, got %v", sender.reminders)
	}
}

func TestRunDeduplicatesAssistantWithCompanions(t *testing.T) {
	db := newTestDB(t)
	tomorrow := time.Date(2025, 6, 16, 0, 0, 0, 0, clock.Zone())

	event, _ := seedEventWithDate(t, db, "family-day", tomorrow, true)
	alice := seedUser(t, db, "alice@example.com")
	carol := seedUser(t, db, "carol@example.com")
	register(t, db, event, alice)

	companion := models.Registration{
		EventID:       event.ID,
		AssistantID:   alice.ID,
		CompanionID:   carol.ID,
		CompanionType: models.CompanionSibling,
	}
	if err := db.Create(&companion).Error; err != nil {
		t.Fatalf("failed to seed companion registration: %v", err)
	}

	sender := &recordingSender{}
	NewJob(db, sender, clock.Fixed(testTime)).Run()

	if len(sender.reminders) != 1 || sender.reminders[0] != "alice@example.com" {
		t.Fatalf("expected a single reminder to alice, got %v", sender.reminders)
	}
}
