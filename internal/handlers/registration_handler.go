package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/udlaevents/eventpass/internal/helpers"
	"github.com/udlaevents/eventpass/internal/middleware"
	"github.com/udlaevents/eventpass/internal/models"
)

func registrableEvent(c *gin.Context, gormDB *gorm.DB) (*models.Event, bool) {
	eventID := c.Param("event_id")

	var event models.Event
	if err := gormDB.Preload("EventDates").Where("id = ?", eventID).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
			return nil, false
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving event.")
		return nil, false
	}
	if !event.IsPublished || event.IsCancelled {
		helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
		return nil, false
	}
	return &event, true
}

func tokenUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(userID.(string))
	if err != nil {
		helpers.RespondWithError(c, http.StatusUnauthorized, "Invalid user ID in token.")
		return uuid.Nil, false
	}
	return id, true
}

func RegisterToEvent(c *gin.Context) {
	assistantID, ok := tokenUserID(c)
	if !ok {
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	event, ok := registrableEvent(c, gormDB)
	if !ok {
		return
	}

	registration := models.Registration{
		EventID:       event.ID,
		AssistantID:   assistantID,
		CompanionID:   assistantID,
		CompanionType: models.CompanionSelf,
	}
	if err := gormDB.Create(&registration).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			helpers.RespondWithError(c, http.StatusConflict, "You are already registered for this event.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to register to event.")
		return
	}

	if sender := middleware.GetMailer(c); sender != nil {
		var user models.User
		if err := gormDB.Where("id = ?", assistantID).First(&user).Error; err == nil {
			go sender.SendEventRegistration(user, *event, event.EventDates)
		}
	}

	c.JSON(http.StatusCreated, registration)
}

func RegisterCompanionToEvent(c *gin.Context) {
	assistantID, ok := tokenUserID(c)
	if !ok {
		return
	}

	companionID, err := uuid.Parse(c.PostForm("companion_id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusUnprocessableEntity, "Invalid companion ID.")
		return
	}
	companionType := models.CompanionType(c.PostForm("companion_type"))
	if !companionType.IsValid() {
		helpers.RespondWithError(c, http.StatusUnprocessableEntity, "Companion type must be self, parent, sibling or other.")
		return
	}
	if (companionID == assistantID) != (companionType == models.CompanionSelf) {
		helpers.RespondWithError(c, http.StatusUnprocessableEntity, "Companion type self is only valid when registering yourself.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	event, ok := registrableEvent(c, gormDB)
	if !ok {
		return
	}

	var own models.Registration
	err = gormDB.Where("event_id = ? AND assistant_id = ? AND companion_id = ?", event.ID, assistantID, assistantID).First(&own).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			helpers.RespondWithError(c, http.StatusForbidden, "Register yourself for the event before adding companions.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error checking registration.")
		return
	}

	var companion models.Assistant
	if err := gormDB.Where("user_id = ?", companionID).First(&companion).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			helpers.RespondWithError(c, http.StatusNotFound, "Companion not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error finding companion.")
		return
	}

	registration := models.Registration{
		EventID:       event.ID,
		AssistantID:   assistantID,
		CompanionID:   companionID,
		CompanionType: companionType,
	}
	if err := gormDB.Create(&registration).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			helpers.RespondWithError(c, http.StatusConflict, "This companion is already registered for the event.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to register companion.")
		return
	}

	c.JSON(http.StatusCreated, registration)
}

func ListRegistrations(c *gin.Context) {
	assistantID, ok := tokenUserID(c)
	if !ok {
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var registrations []models.Registration
	err := gormDB.Preload("Event").Preload("Event.EventDates").
		Where("assistant_id = ?", assistantID).
		Order("created_at DESC").
		Find(&registrations).Error
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving registrations.")
		return
	}

	c.JSON(http.StatusOK, registrations)
}

func UnregisterFromEvent(c *gin.Context) {
	assistantID, ok := tokenUserID(c)
	if !ok {
		return
	}
	eventID := c.Param("event_id")

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var event models.Event
	if err := gormDB.Where("id = ?", eventID).First(&event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
		return
	}

	// Removes the assistant's own registration and any companion rows they added.
	result := gormDB.Where("event_id = ? AND assistant_id = ?", event.ID, assistantID).Delete(&models.Registration{})
	if result.Error != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to unregister from event.")
		return
	}
	if result.RowsAffected == 0 {
		helpers.RespondWithError(c, http.StatusNotFound, "You are not registered for this event.")
		return
	}

	if sender := middleware.GetMailer(c); sender != nil {
		var user models.User
		if err := gormDB.Where("id = ?", assistantID).First(&user).Error; err == nil {
			go sender.SendRegistrationCanceled(user, event)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Registration canceled successfully."})
}
