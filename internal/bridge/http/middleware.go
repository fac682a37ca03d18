package http

import (
	"github.com/gin-gonic/gin"

	"github.com/sjzar/contactsbridge/internal/bridge/database"
	"github.com/sjzar/contactsbridge/internal/errors"
)

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-CSRF-Token")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func (s *Service) checkDBStateMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		state, msg := s.db.GetState()
		switch state {
		case database.StateInit:
			errors.Err(c, errors.NoContext("contact store is not ready"))
			c.Abort()
			return
		case database.StateError:
			errors.Err(c, errors.NoContext(msg))
			c.Abort()
			return
		}

		c.Next()
	}
}
