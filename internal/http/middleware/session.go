package middleware

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/agenty/agenty-backend/internal/ai/flowerr"
	"github.com/agenty/agenty-backend/internal/http/response"
	"github.com/agenty/agenty-backend/internal/platform/ctxutil"
)

const (
	headerSessionID  = "X-Session-Id"
	headerRequestSeq = "X-Request-Seq"
)

// AttachSession reads the chat session id and the caller's request sequence
// number. Requests without a session id are not sequenced.
func AttachSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := strings.TrimSpace(c.GetHeader(headerSessionID))
		if sessionID == "" {
			c.Next()
			return
		}
		var seq uint64
		if raw := strings.TrimSpace(c.GetHeader(headerRequestSeq)); raw != "" {
			n, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				response.RespondFlowError(c, &flowerr.ValidationError{Field: headerRequestSeq, Reason: "must be a non-negative integer"})
				return
			}
			seq = n
		}
		ctx := ctxutil.WithSessionData(c.Request.Context(), &ctxutil.SessionData{SessionID: sessionID, Seq: seq})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
