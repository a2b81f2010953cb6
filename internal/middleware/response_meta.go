package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/planboard-api/pkg/response"
)

// WithResponseMeta initialises response metadata storage so envelopes carry
// processing_time_ms and any values set through response.SetMeta.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Begin(c)
		c.Next()
	}
}
