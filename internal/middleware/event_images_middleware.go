package middleware

import (
	"github.com/gin-gonic/gin"
)

func EventImagesMiddleware(dir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("event_image_dir", dir)
		c.Next()
	}
}

func GetEventImageDir(c *gin.Context) string {
	dir, exists := c.Get("event_image_dir")
	if !exists {
		return ""
	}
	return dir.(string)
}
