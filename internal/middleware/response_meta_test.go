package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/planboard-api/pkg/response"
)

func TestWithResponseMetaMergesStoredValues(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(WithResponseMeta())
	router.GET("/", func(c *gin.Context) {
		response.SetMeta(c, "calendar_id", "cal-1")
		response.JSON(c, http.StatusOK, "ok", map[string]interface{}{"pending_changes": 2})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "cal-1", envelope.Meta["calendar_id"])
	assert.EqualValues(t, 2, envelope.Meta["pending_changes"])
	assert.Contains(t, envelope.Meta, "processing_time_ms")
}

func TestResponseWithoutMetaOmitsEnvelopeMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/", func(c *gin.Context) {
		response.JSON(c, http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotContains(t, w.Body.String(), `"meta"`)
}
