package response

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	metaKey      = "response_meta"
	metaStartKey = "response_started_at"
)

// Begin initialises metadata storage for the current request.
func Begin(c *gin.Context) {
	c.Set(metaStartKey, time.Now())
	c.Set(metaKey, map[string]interface{}{})
}

// SetMeta records a metadata value that every success envelope of the request carries.
func SetMeta(c *gin.Context, key string, value interface{}) {
	ensureMeta(c)[key] = value
}

// ExtractMeta returns the metadata stored on the context.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	if meta, exists := c.Get(metaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	return nil
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if meta := ExtractMeta(c); meta != nil {
		return meta
	}
	meta := make(map[string]interface{})
	c.Set(metaKey, meta)
	return meta
}

// collectMeta merges request metadata with the explicit meta of a response.
func collectMeta(c *gin.Context, extra map[string]interface{}) map[string]interface{} {
	stored := ExtractMeta(c)
	started, timed := c.Get(metaStartKey)
	if len(stored) == 0 && len(extra) == 0 && !timed {
		return nil
	}
	merged := make(map[string]interface{}, len(stored)+len(extra)+1)
	for k, v := range stored {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	if at, ok := started.(time.Time); ok {
		merged["processing_time_ms"] = time.Since(at).Milliseconds()
	}
	return merged
}
