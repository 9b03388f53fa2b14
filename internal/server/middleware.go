package server

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/setavenger/utxo-dump/internal/logging"
)

// RequestLogger routes gin's access log through the zerolog logger.
func RequestLogger(c *gin.Context) {
	start := time.Now()
	c.Next()

	logging.L.Debug().
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Int("status", c.Writer.Status()).
		Dur("took", time.Since(start)).
		Msg("http request")
}
