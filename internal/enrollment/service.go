// Package enrollment implements the duplicate-safe identity registration
// workflow: stage the uploaded face image, require exactly one face, reject
// faces already enrolled in the corpus, then persist the identity row and
// promote the image into the corpus as one unit. It also hosts the image
// lookup flow and attendance check-in built on the same corpus.
package enrollment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/udlaevents/eventpass/internal/clock"
	"github.com/udlaevents/eventpass/internal/facerec"
	"github.com/udlaevents/eventpass/internal/helpers"
	"github.com/udlaevents/eventpass/internal/models"
)

const defaultEngineTimeout = 30 * time.Second

type Service struct {
	engine  facerec.Engine
	store   *helpers.ImageStore
	clock   clock.Clock
	timeout time.Duration

	// mu serializes duplicate-check through commit so two concurrent
	// registrations of the same face cannot both pass the corpus scan.
	mu sync.Mutex
}

func NewService(engine facerec.Engine, store *helpers.ImageStore, clk clock.Clock, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = defaultEngineTimeout
	}
	return &Service{
		engine:  engine,
		store:   store,
		clock:   clk,
		timeout: timeout,
	}
}

func (s *Service) Store() *helpers.ImageStore {
	return s.store
}

func (s *Service) Clock() clock.Clock {
	return s.clock
}

// NewAssistant carries the already-validated personal data for a
// registration. The password is still plain text; Register hashes it.
type NewAssistant struct {
	Email         string
	FirstName     string
	LastName      string
	Password      string
	IDNumber      string
	IDNumberType  models.IDType
	Phone         string
	Gender        models.Gender
	DateOfBirth   time.Time
	AcceptedTerms bool
}

// Register runs the duplicate-guard flow. It takes ownership of the staged
// image: on every return path the scratch file is gone, and the corpus file
// exists if and only if the identity row was committed.
func (s *Service) Register(ctx context.Context, db *gorm.DB, input NewAssistant, staged *helpers.StagedImage) (*models.User, error) {
	defer staged.Discard()

	if _, err := s.detectSingleFace(ctx, staged.Path()); err != nil {
		if errors.Is(err, facerec.ErrNoFaceDetected) || errors.Is(err, facerec.ErrMultipleFaces) {
			return nil, ErrInvalidImage
		}
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	matches, err := s.searchCorpus(ctx, staged.Path())
	if err != nil && !errors.Is(err, facerec.ErrNoFaceDetected) {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if len(matches) > 0 {
		return nil, ErrDuplicatePerson
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	now := s.clock.Now()
	user := models.User{
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Password:  string(hashedPassword),
		Role:      models.RoleAssistant,
		IsActive:  true,
		CreatedAt: now,
		Assistant: &models.Assistant{
			IDNumber:      input.IDNumber,
			IDNumberType:  input.IDNumberType,
			Phone:         input.Phone,
			Gender:        input.Gender,
			DateOfBirth:   input.DateOfBirth,
			AcceptedTerms: input.AcceptedTerms,
			ImageUUID:     staged.UUID(),
			CreatedAt:     now,
		},
	}

	// The corpus promotion happens inside the transaction closure so a
	// failed promotion rolls the row back, and a failed commit can still
	// remove the already-promoted file. Either both writes land or neither.
	promoted := false
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		if err := s.store.Promote(staged); err != nil {
			return err
		}
		promoted = true
		return nil
	})
	if err != nil {
		if promoted {
			s.store.RemoveCorpusImage(staged.UUID())
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return &user, nil
}

// EventFilter narrows an image lookup to identities registered for one
// event who have not yet checked in for one of its dates. Both IDs must be
// given together.
type EventFilter struct {
	EventID     uuid.UUID
	EventDateID uuid.UUID
}

// FindByImage matches the probe image against the corpus and returns the
// registered identities behind the matches, ranked by similarity. The
// staged probe is always discarded.
func (s *Service) FindByImage(ctx context.Context, db *gorm.DB, staged *helpers.StagedImage, filter *EventFilter) ([]models.User, error) {
	defer staged.Discard()

	matches, err := s.searchCorpus(ctx, staged.Path())
	if err != nil {
		if errors.Is(err, facerec.ErrNoFaceDetected) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if len(matches) == 0 {
		return nil, ErrNotFound
	}

	matchedUUIDs := make([]uuid.UUID, 0, len(matches))
	for _, match := range matches {
		matchedUUIDs = append(matchedUUIDs, match.ImageUUID)
	}

	query := db.Model(&models.Assistant{}).Preload("User").Where("assistants.image_uuid IN ?", matchedUUIDs)

	if filter != nil {
		var eventDate models.EventDate
		if err := db.Where("id = ?", filter.EventDateID).First(&eventDate).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		if eventDate.EventID != filter.EventID {
			return nil, ErrInvalidArgument
		}

		// "Not checked in yet" is a missing attendance row, not a flag, so
		// the (registration, event date) unique index stays the backstop
		// against concurrent double check-in.
		query = query.
			Joins("JOIN registrations ON registrations.companion_id = assistants.user_id AND registrations.event_id = ?", filter.EventID).
			Where("NOT EXISTS (SELECT 1 FROM attendances WHERE attendances.registration_id = registrations.id AND attendances.event_date_id = ?)", filter.EventDateID)
	}

	var assistants []models.Assistant
	if err := query.Find(&assistants).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if len(assistants) == 0 {
		return nil, ErrNotFound
	}

	byImageUUID := make(map[uuid.UUID]models.Assistant, len(assistants))
	for _, assistant := range assistants {
		byImageUUID[assistant.ImageUUID] = assistant
	}

	// preserve the engine's similarity ranking
	users := make([]models.User, 0, len(assistants))
	for _, match := range matches {
		assistant, ok := byImageUUID[match.ImageUUID]
		if !ok || assistant.User == nil {
			continue
		}
		user := *assistant.User
		assistantCopy := assistant
		assistantCopy.User = nil
		user.Assistant = &assistantCopy
		users = append(users, user)
	}
	if len(users) == 0 {
		return nil, ErrNotFound
	}

	return users, nil
}

// RegisterAttendance checks an identity in for one event date. The identity
// must hold a registration for the event; the unique (registration, event
// date) pair rejects a second check-in.
func (s *Service) RegisterAttendance(ctx context.Context, db *gorm.DB, identityID, eventID, eventDateID uuid.UUID) (*models.Attendance, error) {
	var eventDate models.EventDate
	if err := db.Where("id = ?", eventDateID).First(&eventDate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if eventDate.EventID != eventID {
		return nil, ErrInvalidArgument
	}

	var registration models.Registration
	err := db.Where("event_id = ? AND companion_id = ?", eventID, identityID).First(&registration).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotRegistered
		}
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	attendance := models.Attendance{
		RegistrationID: registration.ID,
		EventDateID:    eventDateID,
		ArrivedAt:      s.clock.Now(),
	}
	if err := db.Create(&attendance).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return &attendance, nil
}

func (s *Service) detectSingleFace(ctx context.Context, imagePath string) (facerec.Region, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.engine.DetectSingleFace(ctx, imagePath)
}

func (s *Service) searchCorpus(ctx context.Context, imagePath string) ([]facerec.Match, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.engine.SearchCorpus(ctx, imagePath, s.store.CorpusDir)
}
