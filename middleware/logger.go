package middleware

import (
	"time"

	"gamegscore/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// OwnerKey is the gin context key holding the authenticated owner id
const OwnerKey = "owner_id"

// RequestLogger logs every request. Paths in quiet (e.g. /metrics) are only logged at debug level.
func RequestLogger(quiet ...string) gin.HandlerFunc {
	quietPaths := make(map[string]struct{}, len(quiet))
	for _, p := range quiet {
		quietPaths[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := logrus.InfoLevel
		switch {
		case status >= 500:
			level = logrus.ErrorLevel
		case status >= 400:
			level = logrus.WarnLevel
		}
		if _, ok := quietPaths[c.Request.URL.Path]; ok && level == logrus.InfoLevel {
			level = logrus.DebugLevel
		}

		entry := utils.Log.WithFields(requestFields(c)).WithFields(logrus.Fields{
			"route":         c.FullPath(),
			"status":        status,
			"duration_ms":   time.Since(start).Milliseconds(),
			"user_agent":    c.Request.UserAgent(),
			"query":         c.Request.URL.RawQuery,
			"response_size": c.Writer.Size(),
		})
		entry.Log(level, "HTTP Request")
	}
}

// ErrorLogger logs the errors handlers attached with c.Error
func ErrorLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		for _, err := range c.Errors {
			utils.Log.WithFields(requestFields(c)).WithFields(logrus.Fields{
				"error": err.Error(),
				"type":  err.Type,
			}).Error("Request error occurred")
		}
	}
}

func requestFields(c *gin.Context) logrus.Fields {
	fields := logrus.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
		"ip":     c.ClientIP(),
	}
	if owner, ok := c.Get(OwnerKey); ok {
		fields["owner_id"] = owner
	}
	return fields
}
