package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/planboard-api/internal/middleware"
	"github.com/noah-isme/planboard-api/internal/models"
	appErrors "github.com/noah-isme/planboard-api/pkg/errors"
	"github.com/noah-isme/planboard-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.SessionClaims {
	value, exists := c.Get(middleware.ContextSessionKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.SessionClaims)
	if !ok {
		return nil
	}
	return claims
}

// calendarID returns the calendar the session is scoped to, writing a 401 when
// there is none.
func calendarID(c *gin.Context) (string, bool) {
	claims := claimsFromContext(c)
	if claims == nil || claims.CalendarID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return "", false
	}
	return claims.CalendarID, true
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return false
	}
	return true
}
