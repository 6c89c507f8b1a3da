package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/gin-gonic/gin"
)

const CtxSessionID = "session_id"

// SessionID gives every client a stable session identifier, the scope
// for its local-store namespace. The browser client persists the value
// and sends it back as X-Session-Id; a missing header starts a new
// session, which is echoed in the response for the client to keep.
func SessionID() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := strings.TrimSpace(c.GetHeader("X-Session-Id"))
		if sid == "" {
			sid = newSessionID()
		}

		c.Set(CtxSessionID, sid)
		c.Writer.Header().Set("X-Session-Id", sid)

		c.Next()
	}
}

// GetSessionID extracts the session id set by SessionID.
func GetSessionID(c *gin.Context) string {
	return c.GetString(CtxSessionID)
}

func newSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the process is in a bad state;
		// an empty id would collapse all such clients into one scope.
		panic("session id: " + err.Error())
	}
	return hex.EncodeToString(b)
}
