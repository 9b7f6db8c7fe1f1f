package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/udlaevents/eventpass/internal/helpers"
	"github.com/udlaevents/eventpass/internal/models"
	"github.com/udlaevents/eventpass/internal/validators"
)

// Staff and organizer accounts are created by an organizer and must use a
// university email address.
func addUniversityUser(c *gin.Context, role models.Role) {
	email := strings.ToLower(strings.TrimSpace(c.PostForm("email")))
	firstName := c.PostForm("first_name")
	lastName := c.PostForm("last_name")
	password := c.PostForm("password")

	if email == "" || firstName == "" || lastName == "" {
		helpers.RespondWithError(c, http.StatusUnprocessableEntity, "Email, first name and last name are required.")
		return
	}
	if !strings.HasSuffix(email, "@"+universityDomain) {
		helpers.RespondWithError(c, http.StatusUnprocessableEntity, "Email must be on the university domain.")
		return
	}
	if !validators.IsStrongPassword(password) {
		helpers.RespondWithError(c, http.StatusUnprocessableEntity, "Password must have at least 9 characters, 1 lowercase letter, 1 uppercase letter, 1 digit, and 1 special character.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error hashing password.")
		return
	}

	user := models.User{
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Password:  string(hashedPassword),
		Role:      role,
		IsActive:  true,
	}
	if err := gormDB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			helpers.RespondWithError(c, http.StatusConflict, "A user with this email already exists.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create user.")
		return
	}

	c.JSON(http.StatusCreated, user)
}

func AddStaff(c *gin.Context) {
	addUniversityUser(c, models.RoleStaff)
}

func AddOrganizer(c *gin.Context) {
	addUniversityUser(c, models.RoleOrganizer)
}
