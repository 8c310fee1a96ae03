package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/Conceptual-Machines/tutor-api/internal/logger"
)

const (
	callerSessionName = "tutor_session"
	callerIDKey       = "caller_id"
	sessionMaxAge     = 7 * 24 * 60 * 60
)

// NewCookieStore creates the signed cookie store that carries caller ids
func NewCookieStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options.HttpOnly = true
	store.Options.Secure = secure
	store.Options.MaxAge = sessionMaxAge
	store.Options.SameSite = http.SameSiteLaxMode
	return store
}

// CallerSession assigns every browser a stable caller id kept in a signed cookie.
// The id scopes the caller's cached question set.
func CallerSession(store sessions.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get returns a fresh session when the cookie is missing or fails verification
		session, err := store.Get(c.Request, callerSessionName)
		if err != nil {
			logger.Warn("Discarding invalid session cookie", logger.Fields{
				"request_id": c.GetString("request_id"),
				"error":      err.Error(),
			})
		}

		var callerID string
		if session != nil {
			callerID, _ = session.Values[callerIDKey].(string)
		}
		if callerID == "" {
			callerID = uuid.NewString()
			if session != nil {
				session.Values[callerIDKey] = callerID
				if err := session.Save(c.Request, c.Writer); err != nil {
					logger.Error("Failed to save caller session", err, logger.Fields{"request_id": c.GetString("request_id")})
				}
			}
		}

		c.Set(callerIDKey, callerID)
		c.Next()
	}
}

// GetCallerID returns the caller id set by CallerSession
func GetCallerID(c *gin.Context) string {
	return c.GetString(callerIDKey)
}
