package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"storyshelf.app/assistant/common/id"
	"storyshelf.app/assistant/common/logger"
)

const RequestIDHeader = "X-Request-Id"

// RequestID assigns every request a snowflake id, echoes it in the response
// header, and seeds it into the request's log fields.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := id.New()

		c.Header(RequestIDHeader, strconv.FormatInt(requestID, 10))
		ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{
			RequestID: &requestID,
			Component: "assistant.http",
		})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
