package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Audit logs every successful change to the records under the "audit" logger.
// Reads and failed requests are not recorded.
func Audit(logger *zap.Logger, resource string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	audit := logger.Named("audit")
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		switch c.Request.Method {
		case "GET", "HEAD", "OPTIONS":
			return
		}
		if c.Writer.Status() >= 400 {
			return
		}

		fields := []zap.Field{
			zap.String("resource", resource),
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Time("at", start),
		}
		if claims, ok := Claims(c); ok {
			fields = append(fields, zap.Int("teacher_id", claims.TeacherID))
		}
		for _, p := range c.Params {
			fields = append(fields, zap.String("param_"+p.Key, p.Value))
		}
		audit.Info("records changed", fields...)
	}
}
