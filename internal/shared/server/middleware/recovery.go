package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"doculingua-backend/internal/shared/server/respond"
	"doculingua-backend/internal/shared/telemetry"
)

// Recovery turns a panic in any handler into a 500 JSON body and one error
// log line carrying the stack and the caller identity known so far.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			fields := map[string]any{
				"request_id": RequestIDFromContext(c),
				"error":      rec,
				"stack":      string(debug.Stack()),
				"path":       c.Request.URL.Path,
				"method":     c.Request.Method,
			}
			if userID := UserIDFromContext(c); userID != "" {
				fields["user_id"] = userID
			}
			if docID := c.GetString(DocumentIDKey); docID != "" {
				fields["document_id"] = docID
			}
			telemetry.Error("panic", fields)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal", "Unexpected server error")
		}()
		c.Next()
	}
}
