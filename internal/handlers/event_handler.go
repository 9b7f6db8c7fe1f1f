package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/udlaevents/eventpass/internal/clock"
	"github.com/udlaevents/eventpass/internal/enrollment"
	"github.com/udlaevents/eventpass/internal/helpers"
	"github.com/udlaevents/eventpass/internal/middleware"
	"github.com/udlaevents/eventpass/internal/models"
	"github.com/udlaevents/eventpass/internal/validators"
)

func CreateEvent(c *gin.Context) {
	name := c.PostForm("name")
	description := c.PostForm("description")
	location := c.PostForm("location")
	mapsLink := c.PostForm("maps_link")
	capacityStr := c.PostForm("capacity")
	capacityType := models.CapacityType(c.PostForm("capacity_type"))

	if name == "" || description == "" || location == "" {
		helpers.RespondWithError(c, http.StatusUnprocessableEntity, "Name, description and location are required.")
		return
	}
	if !validators.IsGoogleMapsShortLink(mapsLink) {
		helpers.RespondWithError(c, http.StatusUnprocessableEntity, "Maps link must be a Google Maps short link.")
		return
	}
	capacity, err := helpers.StringToInt(capacityStr)
	if err != nil || capacity <= 0 {
		helpers.RespondWithError(c, http.StatusUnprocessableEntity, "Capacity must be a positive number.")
		return
	}
	if capacityType != models.CapacityTotal && capacityType != models.CapacityPerDate {
		helpers.RespondWithError(c, http.StatusUnprocessableEntity, "Capacity type must be total or per-date.")
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}
	organizerID, err := uuid.Parse(userID.(string))
	if err != nil {
		helpers.RespondWithError(c, http.StatusUnauthorized, "Invalid user ID in token.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	imageFile, err := c.FormFile("image")
	if err != nil {
		helpers.RespondWithError(c, http.StatusUnprocessableEntity, "An event image is required.")
		return
	}
	imageUUID, err := helpers.SaveUpload(middleware.GetEventImageDir(c), imageFile)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	event := models.Event{
		Name:         name,
		Description:  description,
		Location:     location,
		MapsLink:     mapsLink,
		Capacity:     capacity,
		CapacityType: capacityType,
		ImageUUID:    imageUUID,
		IsPublished:  c.DefaultPostForm("is_published", "true") == "true",
		OrganizerID:  organizerID,
	}

	if err := gormDB.Create(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			helpers.RespondWithError(c, http.StatusConflict, "An event with this name already exists.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create event.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Event created successfully.",
		"event_id": event.ID,
	})
}

func ListEvents(c *gin.Context) {
	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	page := c.DefaultQuery("page", "1")
	limit := c.DefaultQuery("limit", "10")

	pageNum, err := helpers.StringToInt(page)
	if err != nil || pageNum < 1 {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid page number.")
		return
	}
	limitNum, err := helpers.StringToInt(limit)
	if err != nil || limitNum < 1 {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid limit.")
		return
	}

	query := gormDB.Model(&models.Event{}).Where("is_published = ? AND is_cancelled = ?", true, false)

	var totalCount int64
	query.Count(&totalCount)

	var events []models.Event
	offset := (pageNum - 1) * limitNum
	err = query.Preload("EventDates").Offset(offset).Limit(limitNum).Order("created_at DESC").Find(&events).Error
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving events.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events":      events,
		"total":       totalCount,
		"page":        pageNum,
		"limit":       limitNum,
		"total_pages": (totalCount + int64(limitNum) - 1) / int64(limitNum),
	})
}

func GetEvent(c *gin.Context) {
	eventID := c.Param("id")

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var event models.Event
	if err := gormDB.Preload("EventDates").Where("id = ?", eventID).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving event.")
		return
	}

	c.JSON(http.StatusOK, event)
}

func UpdateEvent(c *gin.Context) {
	eventID := c.Param("id")

	name := c.PostForm("name")
	description := c.PostForm("description")
	location := c.PostForm("location")
	mapsLink := c.PostForm("maps_link")
	capacityStr := c.PostForm("capacity")
	capacityType := models.CapacityType(c.PostForm("capacity_type"))

	if name == "" || description == "" || location == "" {
		helpers.RespondWithError(c, http.StatusUnprocessableEntity, "Name, description and location are required.")
		return
	}
	if !validators.IsGoogleMapsShortLink(mapsLink) {
		helpers.RespondWithError(c, http.StatusUnprocessableEntity, "Maps link must be a Google Maps short link.")
		return
	}
	capacity, err := helpers.StringToInt(capacityStr)
	if err != nil || capacity <= 0 {
		helpers.RespondWithError(c, http.StatusUnprocessableEntity, "Capacity must be a positive number.")
		return
	}
	if capacityType != models.CapacityTotal && capacityType != models.CapacityPerDate {
		helpers.RespondWithError(c, http.StatusUnprocessableEntity, "Capacity type must be total or per-date.")
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var event models.Event
	if err := gormDB.Where("id = ? AND organizer_id = ?", eventID, userID).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			helpers.RespondWithError(c, http.StatusForbidden, "Event not found or you don't have permission to update it.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error finding event.")
		return
	}

	event.Name = name
	event.Description = description
	event.Location = location
	event.MapsLink = mapsLink
	event.Capacity = capacity
	event.CapacityType = capacityType
	if published := c.PostForm("is_published"); published != "" {
		event.IsPublished = published == "true"
	}

	if imageFile, err := c.FormFile("image"); err == nil {
		imageUUID, err := helpers.SaveUpload(middleware.GetEventImageDir(c), imageFile)
		if err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		helpers.RemoveImage(middleware.GetEventImageDir(c), event.ImageUUID)
		event.ImageUUID = imageUUID
	}

	if err := gormDB.Save(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			helpers.RespondWithError(c, http.StatusConflict, "An event with this name already exists.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update event.")
		return
	}

	c.JSON(http.StatusOK, event)
}

func DeleteEvent(c *gin.Context) {
	eventID := c.Param("id")

	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var event models.Event
	if err := gormDB.Where("id = ? AND organizer_id = ?", eventID, userID).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			helpers.RespondWithError(c, http.StatusForbidden, "Event not found or you don't have permission to delete it.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error finding event.")
		return
	}

	if err := gormDB.Delete(&event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to delete event.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully."})
}

func AddEventDate(c *gin.Context) {
	eventID := c.Param("id")

	dayDateStr := c.PostForm("day_date")
	startTime := c.PostForm("start_time")
	endTime := c.PostForm("end_time")

	svc := middleware.GetEnrollmentService(c)
	if svc == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Enrollment service not found.")
		return
	}

	// Parse in the Quito zone so the stored midnight lines up with the
	// reminder job's civil-day window.
	dayDate, err := time.ParseInLocation("2006-01-02", dayDateStr, clock.Zone())
	if err != nil {
		helpers.RespondWithError(c, http.StatusUnprocessableEntity, "Invalid day date format. Use YYYY-MM-DD.")
		return
	}
	if !validators.IsFutureDate(dayDate, svc.Clock().Now()) {
		helpers.RespondWithError(c, http.StatusUnprocessableEntity, "Day date must be in the future.")
		return
	}
	if !validators.IsTimeOfDay(startTime) || !validators.IsTimeOfDay(endTime) {
		helpers.RespondWithError(c, http.StatusUnprocessableEntity, "Start and end time must use the HH:MM format.")
		return
	}
	if startTime >= endTime {
		helpers.RespondWithError(c, http.StatusUnprocessableEntity, "Start time must be before end time.")
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var event models.Event
	if err := gormDB.Where("id = ? AND organizer_id = ?", eventID, userID).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			helpers.RespondWithError(c, http.StatusForbidden, "Event not found or you don't have permission to modify it.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error finding event.")
		return
	}

	eventDate := models.EventDate{
		EventID:   event.ID,
		DayDate:   dayDate,
		StartTime: startTime,
		EndTime:   endTime,
	}
	if err := gormDB.Create(&eventDate).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			helpers.RespondWithError(c, http.StatusConflict, "The event already has a date on this day.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create event date.")
		return
	}

	c.JSON(http.StatusCreated, eventDate)
}

func DeleteEventDate(c *gin.Context) {
	eventID := c.Param("id")
	dateID := c.Param("date_id")

	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var event models.Event
	if err := gormDB.Where("id = ? AND organizer_id = ?", eventID, userID).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			helpers.RespondWithError(c, http.StatusForbidden, "Event not found or you don't have permission to modify it.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error finding event.")
		return
	}

	result := gormDB.Where("id = ? AND event_id = ?", dateID, event.ID).Delete(&models.EventDate{})
	if result.Error != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to delete event date.")
		return
	}
	if result.RowsAffected == 0 {
		helpers.RespondWithError(c, http.StatusNotFound, "Event date not found.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Event date deleted successfully."})
}

func ListEventDates(c *gin.Context) {
	eventID := c.Param("id")

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var event models.Event
	if err := gormDB.Preload("EventDates").Where("id = ?", eventID).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving event.")
		return
	}

	c.JSON(http.StatusOK, event.EventDates)
}

func GetEventImage(c *gin.Context) {
	imageUUID, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid image UUID.")
		return
	}

	imagePath, err := helpers.SafeJoin(middleware.GetEventImageDir(c), imageUUID.String()+".png")
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid image path.")
		return
	}

	c.File(imagePath)
}

func AddAttendance(c *gin.Context) {
	eventDateID, err := uuid.Parse(c.Param("event_date_id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid event date ID.")
		return
	}
	registrationID, err := uuid.Parse(c.Param("registration_id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid registration ID.")
		return
	}

	svc := middleware.GetEnrollmentService(c)
	if svc == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Enrollment service not found.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var registration models.Registration
	if err := gormDB.Where("id = ?", registrationID).First(&registration).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			helpers.RespondWithError(c, http.StatusNotFound, "Registration not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error finding registration.")
		return
	}

	attendance, err := svc.RegisterAttendance(c.Request.Context(), gormDB, registration.CompanionID, registration.EventID, eventDateID)
	if err != nil {
		switch {
		case errors.Is(err, enrollment.ErrNotFound):
			helpers.RespondWithError(c, http.StatusNotFound, "Event date not found.")
		case errors.Is(err, enrollment.ErrInvalidArgument):
			helpers.RespondWithError(c, http.StatusBadRequest, "Event date does not belong to the registration's event.")
		case errors.Is(err, enrollment.ErrNotRegistered):
			helpers.RespondWithError(c, http.StatusNotFound, "No registration found for this event.")
		case errors.Is(err, enrollment.ErrConflict):
			helpers.RespondWithError(c, http.StatusConflict, "Attendance already registered for this event date.")
		default:
			helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to register attendance.")
		}
		return
	}

	c.JSON(http.StatusCreated, attendance)
}
