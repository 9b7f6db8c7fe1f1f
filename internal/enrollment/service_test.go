package enrollment

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/udlaevents/eventpass/internal/clock"
	"github.com/udlaevents/eventpass/internal/facerec"
	"github.com/udlaevents/eventpass/internal/helpers"
	"github.com/udlaevents/eventpass/internal/models"
)

// stubEngine reads staged files whose content encodes the detection result:
// "face:<token>" is one face belonging to <token>, "nofaces" is zero faces
// and "twofaces" is two. Corpus search matches files with equal tokens.
type stubEngine struct{}

func fileToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(bytes.TrimSpace(data)), nil
}

func (stubEngine) DetectSingleFace(ctx context.Context, imagePath string) (facerec.Region, error) {
	token, err := fileToken(imagePath)
	if err != nil {
		return facerec.Region{}, err
	}
	switch {
	case strings.HasPrefix(token, "face:"):
		return facerec.Region{Width: 64, Height: 64}, nil
	case token == "twofaces":
		return facerec.Region{}, facerec.ErrMultipleFaces
	default:
		return facerec.Region{}, facerec.ErrNoFaceDetected
	}
}

func (stubEngine) SearchCorpus(ctx context.Context, imagePath, corpusDir string) ([]facerec.Match, error) {
	probe, err := fileToken(imagePath)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(probe, "face:") {
		return nil, facerec.ErrNoFaceDetected
	}

	entries, err := os.ReadDir(corpusDir)
	if err != nil {
		return nil, err
	}

	var matches []facerec.Match
	for _, entry := range entries {
		imageUUID, err := uuid.Parse(strings.TrimSuffix(entry.Name(), ".png"))
		if err != nil {
			continue
		}
		enrolled, err := fileToken(filepath.Join(corpusDir, entry.Name()))
		if err != nil {
			continue
		}
		if enrolled == probe {
			matches = append(matches, facerec.Match{ImageUUID: imageUUID, Distance: 0.12})
		}
	}
	return matches, nil
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
		&models.User{}, &models.Assistant{}, &models.Event{},
		&models.EventDate{}, &models.Registration{}, &models.Attendance{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	base := t.TempDir()
	store, err := helpers.NewImageStore(filepath.Join(base, "temp_imgs"), filepath.Join(base, "people_imgs"))
	if err != nil {
		t.Fatalf("failed to create image store: %v", err)
	}
	return NewService(stubEngine{}, store, clock.Fixed(testTime), time.Second)
}

func stageFace(t *testing.T, svc *Service, token string) *helpers.StagedImage {
	t.Helper()
	staged, err := svc.Store().Stage(strings.NewReader(token))
	if err != nil {
		t.Fatalf("failed to stage image: %v", err)
	}
	return staged
}

func assistantInput(email, idNumber string) NewAssistant {
	return NewAssistant{
		Email:         email,
		FirstName:     "Maria",
		LastName:      "Paredes",
		Password:      "Sup3r!Secret",
		IDNumber:      idNumber,
		IDNumberType:  models.IDTypeNationalID,
		Phone:         "0991234567",
		Gender:        models.GenderFemale,
		DateOfBirth:   time.Date(2000, 3, 9, 0, 0, 0, 0, clock.Zone()),
		AcceptedTerms: true,
	}
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var count int64
	if err := db.Model(model).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return count
}

func countCorpusFiles(t *testing.T, svc *Service) int {
	t.Helper()
	entries, err := os.ReadDir(svc.Store().CorpusDir)
	if err != nil {
		t.Fatalf("failed to read corpus: %v", err)
	}
	return len(entries)
}

func countScratchFiles(t *testing.T, svc *Service) int {
	t.Helper()
	entries, err := os.ReadDir(svc.Store().ScratchDir)
	if err != nil {
		t.Fatalf("failed to read scratch dir: %v", err)
	}
	return len(entries)
}

func TestRegisterSuccess(t *testing.T) {
	svc := newTestService(t)
	db := newTestDB(t)

	staged := stageFace(t, svc, "face:alice")
	user, err := svc.Register(context.Background(), db, assistantInput("alice@example.com", "1710034065"), staged)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if user.Role != models.RoleAssistant {
		t.Errorf("role = %s, want assistant", user.Role)
	}
	if user.Assistant == nil || user.Assistant.ImageUUID != staged.UUID() {
		t.Error("assistant should carry the staged image uuid")
	}
	if user.Password == "Sup3r!Secret" {
		t.Error("password must be stored hashed")
	}
	if !user.CreatedAt.Equal(testTime) {
		t.Errorf("created_at = %v, want fixed clock time %v", user.CreatedAt, testTime)
	}

	if got := countRows(t, db, &models.User{}); got != 1 {
		t.Errorf("user rows = %d, want 1", got)
	}
	if got := countCorpusFiles(t, svc); got != 1 {
		t.Errorf("corpus files = %d, want 1", got)
	}
	if got := countScratchFiles(t, svc); got != 0 {
		t.Errorf("scratch files = %d, want 0", got)
	}
}

func TestRegisterRejectsBadImages(t *testing.T) {
	svc := newTestService(t)
	db := newTestDB(t)

	for _, token := range []string{"nofaces", "twofaces"} {
		// repeated failures must never leak scratch files
		for i := 0; i < 3; i++ {
			staged := stageFace(t, svc, token)
			_, err := svc.Register(context.Background(), db, assistantInput("a@example.com", "1710034065"), staged)
			if !errors.Is(err, ErrInvalidImage) {
				t.Fatalf("token %q: err = %v, want ErrInvalidImage", token, err)
			}
		}
	}

	if got := countRows(t, db, &models.User{}); got != 0 {
		t.Errorf("user rows = %d, want 0", got)
	}
	if got := countCorpusFiles(t, svc); got != 0 {
		t.Errorf("corpus files = %d, want 0", got)
	}
	if got := countScratchFiles(t, svc); got != 0 {
		t.Errorf("scratch files = %d, want 0", got)
	}
}

func TestRegisterRejectsDuplicateFace(t *testing.T) {
	svc := newTestService(t)
	db := newTestDB(t)

	staged := stageFace(t, svc, "face:alice")
	if _, err := svc.Register(context.Background(), db, assistantInput("alice@example.com", "1710034065"), staged); err != nil {
		t.Fatalf("first register failed: %v", err)
	}

	// same face, fresh email and id number
	staged = stageFace(t, svc, "face:alice")
	_, err := svc.Register(context.Background(), db, assistantInput("c@example.com", "0926687856"), staged)
	if !errors.Is(err, ErrDuplicatePerson) {
		t.Fatalf("err = %v, want ErrDuplicatePerson", err)
	}

	if got := countRows(t, db, &models.User{}); got != 1 {
		t.Errorf("user rows = %d, want 1", got)
	}
	if got := countCorpusFiles(t, svc); got != 1 {
		t.Errorf("corpus files = %d, want 1", got)
	}
	if got := countScratchFiles(t, svc); got != 0 {
		t.Errorf("scratch files = %d, want 0", got)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc := newTestService(t)
	db := newTestDB(t)

	staged := stageFace(t, svc, "face:alice")
	if _, err := svc.Register(context.Background(), db, assistantInput("alice@example.com", "1710034065"), staged); err != nil {
		t.Fatalf("first register failed: %v", err)
	}

	// different face, same email: the unique constraint must fire and the
	// already-promoted corpus file must be rolled back with the row
	staged = stageFace(t, svc, "face:bob")
	_, err := svc.Register(context.Background(), db, assistantInput("alice@example.com", "0926687856"), staged)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}

	if got := countRows(t, db, &models.User{}); got != 1 {
		t.Errorf("user rows = %d, want 1", got)
	}
	if got := countCorpusFiles(t, svc); got != 1 {
		t.Errorf("corpus files = %d, want 1", got)
	}
	if got := countScratchFiles(t, svc); got != 0 {
		t.Errorf("scratch files = %d, want 0", got)
	}
}

func TestRegisterEndToEndScenario(t *testing.T) {
	svc := newTestService(t)
	db := newTestDB(t)

	staged := stageFace(t, svc, "face:alice")
	if _, err := svc.Register(context.Background(), db, assistantInput("a@example.com", "1710034065"), staged); err != nil {
		t.Fatalf("register A failed: %v", err)
	}
	staged = stageFace(t, svc, "face:bob")
	if _, err := svc.Register(context.Background(), db, assistantInput("b@example.com", "0926687856"), staged); err != nil {
		t.Fatalf("register B failed: %v", err)
	}
	if got := countCorpusFiles(t, svc); got != 2 {
		t.Fatalf("corpus files = %d, want 2", got)
	}

	staged = stageFace(t, svc, "face:alice")
	_, err := svc.Register(context.Background(), db, assistantInput("c@example.com", "1104680135"), staged)
	if !errors.Is(err, ErrDuplicatePerson) {
		t.Fatalf("err = %v, want ErrDuplicatePerson", err)
	}
	if got := countCorpusFiles(t, svc); got != 2 {
		t.Errorf("corpus files = %d, want 2 after rejected duplicate", got)
	}
}

func registerTestAssistant(t *testing.T, svc *Service, db *gorm.DB, token, email, idNumber string) *models.User {
	t.Helper()
	staged := stageFace(t, svc, token)
	user, err := svc.Register(context.Background(), db, assistantInput(email, idNumber), staged)
	if err != nil {
		t.Fatalf("register %s failed: %v", email, err)
	}
	return user
}

func createTestEvent(t *testing.T, db *gorm.DB, organizerID uuid.UUID) (*models.Event, *models.EventDate) {
	t.Helper()
	event := models.Event{
		Name:         "Open Campus",
		Description:  "Open doors day",
		Location:     "Main auditorium",
		MapsLink:     "https://maps.app.goo.gl/abc123",
		Capacity:     150,
		CapacityType: models.CapacityTotal,
		ImageUUID:    uuid.New(),
		OrganizerID:  organizerID,
		IsPublished:  true,
	}
	if err := db.Create(&event).Error; err != nil {
		t.Fatalf("failed to create event: %v", err)
	}
	eventDate := models.EventDate{
		EventID:   event.ID,
		DayDate:   testTime.AddDate(0, 0, 7),
		StartTime: "09:00",
		EndTime:   "12:00",
	}
	if err := db.Create(&eventDate).Error; err != nil {
		t.Fatalf("failed to create event date: %v", err)
	}
	return &event, &eventDate
}

func createTestOrganizer(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	organizer := models.User{
		Email:     "organizer@udla.edu.ec",
		FirstName: "Elena",
		LastName:  "Vaca",
		Password:  "irrelevant",
		Role:      models.RoleOrganizer,
		IsActive:  true,
	}
	if err := db.Create(&organizer).Error; err != nil {
		t.Fatalf("failed to create organizer: %v", err)
	}
	return &organizer
}

func registerForEvent(t *testing.T, db *gorm.DB, user *models.User, event *models.Event) *models.Registration {
	t.Helper()
	registration := models.Registration{
		EventID:       event.ID,
		AssistantID:   user.ID,
		CompanionID:   user.ID,
		CompanionType: models.CompanionSelf,
		CreatedAt:     testTime,
	}
	if err := db.Create(&registration).Error; err != nil {
		t.Fatalf("failed to create registration: %v", err)
	}
	return &registration
}

func TestFindByImageUnfiltered(t *testing.T) {
	svc := newTestService(t)
	db := newTestDB(t)

	alice := registerTestAssistant(t, svc, db, "face:alice", "a@example.com", "1710034065")
	registerTestAssistant(t, svc, db, "face:bob", "b@example.com", "0926687856")

	probe := stageFace(t, svc, "face:alice")
	users, err := svc.FindByImage(context.Background(), db, probe, nil)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("matches = %d, want 1", len(users))
	}
	if users[0].ID != alice.ID {
		t.Error("wrong identity matched")
	}
	if users[0].Assistant == nil {
		t.Error("match should include assistant data")
	}
	if got := countScratchFiles(t, svc); got != 0 {
		t.Errorf("scratch files = %d, want 0", got)
	}
}

func TestFindByImageNoMatch(t *testing.T) {
	svc := newTestService(t)
	db := newTestDB(t)

	registerTestAssistant(t, svc, db, "face:alice", "a@example.com", "1710034065")

	probe := stageFace(t, svc, "face:stranger")
	_, err := svc.FindByImage(context.Background(), db, probe, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	probe = stageFace(t, svc, "nofaces")
	_, err = svc.FindByImage(context.Background(), db, probe, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound for faceless probe", err)
	}
	if got := countScratchFiles(t, svc); got != 0 {
		t.Errorf("scratch files = %d, want 0", got)
	}
}

func TestFindByImageEventFilterAndCheckIn(t *testing.T) {
	svc := newTestService(t)
	db := newTestDB(t)

	alice := registerTestAssistant(t, svc, db, "face:alice", "a@example.com", "1710034065")
	organizer := createTestOrganizer(t, db)
	event, eventDate := createTestEvent(t, db, organizer.ID)
	registerForEvent(t, db, alice, event)

	filter := &EventFilter{EventID: event.ID, EventDateID: eventDate.ID}

	// not yet checked in: A appears
	probe := stageFace(t, svc, "face:alice")
	users, err := svc.FindByImage(context.Background(), db, probe, filter)
	if err != nil {
		t.Fatalf("filtered find failed: %v", err)
	}
	if len(users) != 1 || users[0].ID != alice.ID {
		t.Fatal("expected alice before check-in")
	}

	if _, err := svc.RegisterAttendance(context.Background(), db, alice.ID, event.ID, eventDate.ID); err != nil {
		t.Fatalf("check-in failed: %v", err)
	}

	// checked in: A excluded
	probe = stageFace(t, svc, "face:alice")
	_, err = svc.FindByImage(context.Background(), db, probe, filter)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound after check-in", err)
	}

	// double check-in rejected by the uniqueness constraint
	_, err = svc.RegisterAttendance(context.Background(), db, alice.ID, event.ID, eventDate.ID)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict on double check-in", err)
	}
}

func TestRegisterAttendanceRequiresRegistration(t *testing.T) {
	svc := newTestService(t)
	db := newTestDB(t)

	alice := registerTestAssistant(t, svc, db, "face:alice", "a@example.com", "1710034065")
	organizer := createTestOrganizer(t, db)
	event, eventDate := createTestEvent(t, db, organizer.ID)

	_, err := svc.RegisterAttendance(context.Background(), db, alice.ID, event.ID, eventDate.ID)
	if !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("err = %v, want ErrNotRegistered", err)
	}
}

func TestRegisterAttendanceRejectsForeignEventDate(t *testing.T) {
	svc := newTestService(t)
	db := newTestDB(t)

	alice := registerTestAssistant(t, svc, db, "face:alice", "a@example.com", "1710034065")
	organizer := createTestOrganizer(t, db)
	event, _ := createTestEvent(t, db, organizer.ID)
	registerForEvent(t, db, alice, event)

	otherEvent := models.Event{
		Name:         "Other Event",
		Description:  "d",
		Location:     "l",
		MapsLink:     "https://maps.app.goo.gl/xyz",
		Capacity:     10,
		CapacityType: models.CapacityTotal,
		ImageUUID:    uuid.New(),
		OrganizerID:  organizer.ID,
	}
	if err := db.Create(&otherEvent).Error; err != nil {
		t.Fatalf("failed to create other event: %v", err)
	}
	otherDate := models.EventDate{
		EventID:   otherEvent.ID,
		DayDate:   testTime.AddDate(0, 0, 3),
		StartTime: "09:00",
		EndTime:   "10:00",
	}
	if err := db.Create(&otherDate).Error; err != nil {
		t.Fatalf("failed to create other date: %v", err)
	}

	_, err := svc.RegisterAttendance(context.Background(), db, alice.ID, event.ID, otherDate.ID)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument for date of another event", err)
	}
}
