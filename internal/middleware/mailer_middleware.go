package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/udlaevents/eventpass/internal/mailer"
)

func MailerMiddleware(sender mailer.Sender) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("mailer", sender)
		c.Next()
	}
}

func GetMailer(c *gin.Context) mailer.Sender {
	sender, exists := c.Get("mailer")
	if !exists {
		return nil
	}
	return sender.(mailer.Sender)
}
