package errors

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrorHandlerMiddleware 为每个请求生成请求 ID，并在处理器通过 c.Error 记录错误时统一输出
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		c.Set("RequestID", requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			Err(c, c.Errors[0].Err)
			c.Abort()
		}
	}
}

// RecoveryMiddleware 从 panic 恢复并返回 500 错误
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				requestID := c.GetString("RequestID")

				var err *Error
				switch v := r.(type) {
				case error:
					err = Internal("panic recovered", v)
				default:
					err = Internal(fmt.Sprintf("panic recovered: %v", r), nil)
				}
				err.WithRequestID(requestID)

				log.Error().Strs("stack", err.Stack).Msgf("PANIC RECOVERED: %v", err)

				c.AbortWithStatusJSON(err.Status, gin.H{"error": err})
			}
		}()

		c.Next()
	}
}
