package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/udlaevents/eventpass/internal/enrollment"
	"github.com/udlaevents/eventpass/internal/helpers"
	"github.com/udlaevents/eventpass/internal/middleware"
	"github.com/udlaevents/eventpass/internal/models"
	"github.com/udlaevents/eventpass/internal/validators"
)

const universityDomain = "udla.edu.ec"

func AddAssistant(c *gin.Context) {
	email := strings.ToLower(strings.TrimSpace(c.PostForm("email")))
	firstName := c.PostForm("first_name")
	lastName := c.PostForm("last_name")
	password := c.PostForm("password")
	idNumber := strings.ToUpper(strings.TrimSpace(c.PostForm("id_number")))
	idNumberType := models.IDType(c.PostForm("id_number_type"))
	phone := c.PostForm("phone")
	gender := models.Gender(c.PostForm("gender"))
	dateOfBirthStr := c.PostForm("date_of_birth")
	acceptedTerms := c.PostForm("accepted_terms") == "true"

	svc := middleware.GetEnrollmentService(c)
	if svc == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Enrollment service not found.")
		return
	}

	if email == "" || firstName == "" || lastName == "" {
		helpers.RespondWithError(c, http.StatusUnprocessableEntity, "Email, first name and last name are required.")
		return
	}
	if strings.HasSuffix(email, "@"+universityDomain) {
		helpers.RespondWithError(c, http.StatusUnprocessableEntity, "Assistant email cannot be from the university domain.")
		return
	}
	if !validators.IsStrongPassword(password) {
		helpers.RespondWithError(c, http.StatusUnprocessableEntity, "Password must have at least 9 characters, 1 lowercase letter, 1 uppercase letter, 1 digit, and 1 special character.")
		return
	}
	switch idNumberType {
	case models.IDTypeNationalID:
		if !validators.IsValidNationalID(idNumber) {
			helpers.RespondWithError(c, http.StatusUnprocessableEntity, "Invalid national ID number.")
			return
		}
	case models.IDTypePassport:
		if !validators.IsValidPassportNumber(idNumber) {
			helpers.RespondWithError(c, http.StatusUnprocessableEntity, "Invalid passport number.")
			return
		}
	default:
		helpers.RespondWithError(c, http.StatusUnprocessableEntity, "ID number type must be national-id or passport.")
		return
	}
	if !validators.IsTenDigitPhone(phone) {
		helpers.RespondWithError(c, http.StatusUnprocessableEntity, "Phone number must have 10 digits.")
		return
	}
	if gender != models.GenderFemale && gender != models.GenderMale && gender != models.GenderOther {
		helpers.RespondWithError(c, http.StatusUnprocessableEntity, "Gender must be female, male or other.")
		return
	}
	dateOfBirth, err := time.Parse("2006-01-02", dateOfBirthStr)
	if err != nil {
		helpers.RespondWithError(c, http.StatusUnprocessableEntity, "Invalid date of birth format. Use YYYY-MM-DD.")
		return
	}
	if !validators.IsPastDate(dateOfBirth, svc.Clock().Now()) {
		helpers.RespondWithError(c, http.StatusUnprocessableEntity, "Date of birth must be in the past.")
		return
	}
	if !validators.IsAcceptedTerms(acceptedTerms) {
		helpers.RespondWithError(c, http.StatusUnprocessableEntity, "You must accept the terms and conditions.")
		return
	}

	imageFile, err := c.FormFile("image")
	if err != nil {
		helpers.RespondWithError(c, http.StatusUnprocessableEntity, "A face image is required.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	staged, err := svc.Store().StageUpload(imageFile)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := svc.Register(c.Request.Context(), gormDB, enrollment.NewAssistant{
		Email:         email,
		FirstName:     firstName,
		LastName:      lastName,
		Password:      password,
		IDNumber:      idNumber,
		IDNumberType:  idNumberType,
		Phone:         phone,
		Gender:        gender,
		DateOfBirth:   dateOfBirth,
		AcceptedTerms: acceptedTerms,
	}, staged)
	if err != nil {
		switch {
		case errors.Is(err, enrollment.ErrInvalidImage):
			helpers.RespondWithError(c, http.StatusBadRequest, "The image must contain exactly one person.")
		case errors.Is(err, enrollment.ErrDuplicatePerson):
			helpers.RespondWithError(c, http.StatusBadRequest, "A person with this face is already registered.")
		case errors.Is(err, enrollment.ErrConflict):
			helpers.RespondWithError(c, http.StatusConflict, "An assistant with this email or ID number already exists.")
		default:
			helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to register assistant.")
		}
		return
	}

	if sender := middleware.GetMailer(c); sender != nil {
		go sender.SendWelcome(*user)
	}

	c.JSON(http.StatusCreated, user)
}

func GetAssistantsByImage(c *gin.Context) {
	eventIDStr := c.Query("event_id")
	eventDateIDStr := c.Query("event_date_id")

	if (eventIDStr == "") != (eventDateIDStr == "") {
		helpers.RespondWithError(c, http.StatusBadRequest, "event_id and event_date_id must be supplied together.")
		return
	}

	var filter *enrollment.EventFilter
	if eventIDStr != "" {
		eventID, err := uuid.Parse(eventIDStr)
		if err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, "Invalid event_id.")
			return
		}
		eventDateID, err := uuid.Parse(eventDateIDStr)
		if err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, "Invalid event_date_id.")
			return
		}
		filter = &enrollment.EventFilter{EventID: eventID, EventDateID: eventDateID}
	}

	imageFile, err := c.FormFile("image")
	if err != nil {
		helpers.RespondWithError(c, http.StatusUnprocessableEntity, "A face image is required.")
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

	staged, err := svc.Store().StageUpload(imageFile)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	users, err := svc.FindByImage(c.Request.Context(), gormDB, staged, filter)
	if err != nil {
		switch {
		case errors.Is(err, enrollment.ErrNotFound):
			helpers.RespondWithError(c, http.StatusNotFound, "Assistant not found.")
		case errors.Is(err, enrollment.ErrInvalidArgument):
			helpers.RespondWithError(c, http.StatusBadRequest, "Event date does not belong to the event.")
		default:
			helpers.RespondWithError(c, http.StatusInternalServerError, "Error searching assistants.")
		}
		return
	}

	c.JSON(http.StatusOK, users)
}

func GetAssistantByIDNumber(c *gin.Context) {
	idNumber := strings.ToUpper(c.Param("id_number"))

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var assistant models.Assistant
	if err := gormDB.Preload("User").Where("id_number = ?", idNumber).First(&assistant).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Assistant not found.")
		return
	}
	if assistant.User == nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Assistant not found.")
		return
	}

	user := *assistant.User
	assistant.User = nil
	user.Assistant = &assistant

	c.JSON(http.StatusOK, user)
}

func GetAssistantImage(c *gin.Context) {
	imageUUID, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid image UUID.")
		return
	}

	svc := middleware.GetEnrollmentService(c)
	if svc == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Enrollment service not found.")
		return
	}

	imagePath, err := helpers.SafeJoin(svc.Store().CorpusDir, imageUUID.String()+".png")
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid image path.")
		return
	}

	c.File(imagePath)
}
