package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/udlaevents/eventpass/internal/models"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	DataDir       string
	FaceModelsDir string
	FaceThreshold float64

	SMTPHost     string
	SMTPPort     int
	SMTPSender   string
	SMTPPassword string

	AdminEmail    string
	AdminPassword string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		DataDir:       os.Getenv("DATA_DIR"),
		FaceModelsDir: os.Getenv("FACE_MODELS_DIR"),
		FaceThreshold: 0.6,

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     465,
		SMTPSender:   os.Getenv("SMTP_SENDER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),

		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	if cfg.FaceModelsDir == "" {
		cfg.FaceModelsDir = "models"
	}
	if cfg.AdminEmail == "" {
		cfg.AdminEmail = "admin@udla.edu.ec"
	}

	if threshold := os.Getenv("FACE_THRESHOLD"); threshold != "" {
		parsed, err := strconv.ParseFloat(threshold, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid FACE_THRESHOLD: %v", err)
		}
		cfg.FaceThreshold = parsed
	}
	if port := os.Getenv("SMTP_PORT"); port != "" {
		parsed, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid SMTP_PORT: %v", err)
		}
		cfg.SMTPPort = parsed
	}

	return cfg, nil
}

func (cfg *Config) ScratchDir() string {
	return filepath.Join(cfg.DataDir, "temp_imgs")
}

func (cfg *Config) CorpusDir() string {
	return filepath.Join(cfg.DataDir, "people_imgs")
}

func (cfg *Config) EventImageDir() string {
	return filepath.Join(cfg.DataDir, "event_imgs")
}

func InitDatabase(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
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
		return nil, err
	}

	seedAdmin(db, cfg)

	return db, nil
}

// seedAdmin guarantees at least one organizer account exists so staff and
// further organizers can be created through the API.
func seedAdmin(db *gorm.DB, cfg *Config) {
	if cfg.AdminPassword == "" {
		return
	}

	var existing models.User
	if err := db.Where("email = ?", cfg.AdminEmail).First(&existing).Error; err == nil {
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("failed to hash admin password: %v", err)
		return
	}

	admin := models.User{
		Email:     cfg.AdminEmail,
		FirstName: "Admin",
		LastName:  "Organizer",
		Password:  string(hashedPassword),
		Role:      models.RoleOrganizer,
		IsActive:  true,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Printf("failed to seed admin organizer: %v", err)
	}
}
