package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/udlaevents/eventpass/internal/enrollment"
)

func EnrollmentMiddleware(service *enrollment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("enrollment_service", service)
		c.Next()
	}
}

func GetEnrollmentService(c *gin.Context) *enrollment.Service {
	service, exists := c.Get("enrollment_service")
	if !exists {
		return nil
	}
	return service.(*enrollment.Service)
}
