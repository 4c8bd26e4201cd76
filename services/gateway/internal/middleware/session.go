package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/waste3d/learnhub/pkg/course"
	"github.com/waste3d/learnhub/services/gateway/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

const (
	cookieName = "learnhub_session"
	sidKey     = "sid"
	ctxSession = "session"
)

// SessionCookies keeps the session id in a signed cookie.
type SessionCookies struct {
	store *sessions.CookieStore
}

func NewSessionCookies(secret string, ttl time.Duration, secure bool) *SessionCookies {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionCookies{store: store}
}

// ID returns the session id from the request cookie, or "" if there is none
// or the signature does not match.
func (s *SessionCookies) ID(r *http.Request) string {
	sess, err := s.store.Get(r, cookieName)
	if err != nil {
		return ""
	}
	id, _ := sess.Values[sidKey].(string)
	return id
}

func (s *SessionCookies) Save(c *gin.Context, id string) error {
	sess, _ := s.store.Get(c.Request, cookieName)
	sess.Values[sidKey] = id
	return sess.Save(c.Request, c.Writer)
}

func (s *SessionCookies) Clear(c *gin.Context) error {
	sess, _ := s.store.Get(c.Request, cookieName)
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	return sess.Save(c.Request, c.Writer)
}

// LoadSession resolves the cookie to a stored session. Requests without a
// live session continue anonymously.
func LoadSession(cookies *SessionCookies, store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := cookies.ID(c.Request); id != "" {
			sess, err := store.Get(c.Request.Context(), id)
			switch {
			case err == nil:
				c.Set(ctxSession, sess)
			case errors.Is(err, session.ErrNotFound):
			default:
				slog.Warn("failed to load session", "error", err)
			}
		}
		c.Next()
	}
}

func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentSession(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Login required"})
			return
		}
		c.Next()
	}
}

// RequireRole must run after RequireSession.
func RequireRole(role course.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sess := CurrentSession(c); sess == nil || sess.User.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied: " + string(role) + "s only"})
			return
		}
		c.Next()
	}
}

// CurrentSession returns nil for anonymous requests.
func CurrentSession(c *gin.Context) *session.Session {
	v, ok := c.Get(ctxSession)
	if !ok {
		return nil
	}
	sess, _ := v.(*session.Session)
	return sess
}
