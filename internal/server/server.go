package server

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/udlaevents/eventpass/config"
	"github.com/udlaevents/eventpass/internal/clock"
	"github.com/udlaevents/eventpass/internal/enrollment"
	"github.com/udlaevents/eventpass/internal/facerec"
	"github.com/udlaevents/eventpass/internal/handlers"
	"github.com/udlaevents/eventpass/internal/helpers"
	"github.com/udlaevents/eventpass/internal/mailer"
	"github.com/udlaevents/eventpass/internal/middleware"
	"github.com/udlaevents/eventpass/internal/models"
	"github.com/udlaevents/eventpass/internal/reminder"
)

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}

	store, err := helpers.NewImageStore(cfg.ScratchDir(), cfg.CorpusDir())
	if err != nil {
		return fmt.Errorf("failed to initialize image store: %v", err)
	}

	engine, err := facerec.NewDlibEngine(cfg.FaceModelsDir, cfg.FaceThreshold)
	if err != nil {
		return fmt.Errorf("failed to initialize face engine: %v", err)
	}
	defer engine.Close()

	service := enrollment.NewService(engine, store, clock.Quito(), 0)

	sender, err := mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPSender, cfg.SMTPPassword)
	if err != nil {
		return fmt.Errorf("failed to initialize mailer: %v", err)
	}

	cronRunner, err := reminder.NewJob(db, sender, clock.Quito()).Start()
	if err != nil {
		return fmt.Errorf("failed to start reminder job: %v", err)
	}
	defer cronRunner.Stop()

	r := gin.Default()

	setupRoutes(r, db, service, sender, cfg.EventImageDir())

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return r.Run(":" + port)
}

func setupRoutes(r *gin.Engine, db *gorm.DB, service *enrollment.Service, sender mailer.Sender, eventImageDir string) {
	r.Use(middleware.DatabaseMiddleware(db))
	r.Use(middleware.EnrollmentMiddleware(service))
	r.Use(middleware.MailerMiddleware(sender))
	r.Use(middleware.EventImagesMiddleware(eventImageDir))

	public := r.Group("/v1")
	{
		public.POST("/login", handlers.Login)

		assistantPublic := public.Group("/assistant")
		{
			assistantPublic.POST("/add", handlers.AddAssistant)
			assistantPublic.GET("/image/:uuid", handlers.GetAssistantImage)
		}

		eventPublic := public.Group("/events")
		{
			eventPublic.GET("", handlers.ListEvents)
			eventPublic.GET("/:id", handlers.GetEvent)
			eventPublic.GET("/:id/dates", handlers.ListEventDates)
			eventPublic.GET("/image/:uuid", handlers.GetEventImage)
		}
	}

	assistant := r.Group("/v1/assistant")
	assistant.Use(middleware.JWTAuthMiddleware(models.RoleAssistant))
	{
		assistant.POST("/register-to-event/:event_id", handlers.RegisterToEvent)
		assistant.POST("/register-companion-to-event/:event_id", handlers.RegisterCompanionToEvent)
		assistant.GET("/registrations", handlers.ListRegistrations)
		assistant.DELETE("/unregister-from-event/:event_id", handlers.UnregisterFromEvent)
	}

	staff := r.Group("/v1")
	staff.Use(middleware.JWTAuthMiddleware(models.RoleStaff, models.RoleOrganizer))
	{
		staff.POST("/assistant/get-by-image", handlers.GetAssistantsByImage)
		staff.GET("/assistant/get-by-id-number/:id_number", handlers.GetAssistantByIDNumber)
		staff.POST("/events/attendance/:event_date_id/:registration_id", handlers.AddAttendance)
	}

	organizer := r.Group("/v1")
	organizer.Use(middleware.JWTAuthMiddleware(models.RoleOrganizer))
	{
		organizer.POST("/events", handlers.CreateEvent)
		organizer.PUT("/events/:id", handlers.UpdateEvent)
		organizer.DELETE("/events/:id", handlers.DeleteEvent)
		organizer.POST("/events/:id/dates", handlers.AddEventDate)
		organizer.DELETE("/events/:id/dates/:date_id", handlers.DeleteEventDate)
		organizer.POST("/staff/add", handlers.AddStaff)
		organizer.POST("/organizer/add", handlers.AddOrganizer)
	}
}
