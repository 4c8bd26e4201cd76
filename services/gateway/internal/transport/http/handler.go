package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/waste3d/learnhub/pkg/course"
	"github.com/waste3d/learnhub/services/gateway/internal/client"
	"github.com/waste3d/learnhub/services/gateway/internal/metrics"
	"github.com/waste3d/learnhub/services/gateway/internal/middleware"
	"github.com/waste3d/learnhub/services/gateway/internal/progress"
	"github.com/waste3d/learnhub/services/gateway/internal/session"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	client   *client.AuthClient
	sessions *session.Store
	tracker  *progress.Tracker
	cookies  *middleware.SessionCookies
}

func NewAuthHandler(ac *client.AuthClient, sessions *session.Store, tracker *progress.Tracker, cookies *middleware.SessionCookies) *AuthHandler {
	return &AuthHandler{client: ac, sessions: sessions, tracker: tracker, cookies: cookies}
}

type signupReq struct {
	Name     string      `json:"name" binding:"required"`
	Email    string      `json:"email" binding:"required,email"`
	Password string      `json:"password" binding:"required,min=6"`
	Role     course.Role `json:"role" binding:"omitempty,oneof=student instructor"`
}

type loginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// POST /api/v1/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.client.Signup(c.Request.Context(), client.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		writeUpstreamError(c, err, "signup", "")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, user, err := h.client.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		writeUpstreamError(c, err, "login", "")
		return
	}

	sess, err := h.sessions.Create(c.Request.Context(), token, *user)
	if err != nil {
		slog.Error("failed to create session", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}
	if err := h.cookies.Save(c, sess.ID); err != nil {
		slog.Error("failed to set session cookie", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":     user,
		"redirect": coursesHref(user.Role),
	})
}

// POST /api/v1/auth/logout
// Logging out without a session still clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	if sess := middleware.CurrentSession(c); sess != nil {
		if err := h.client.Logout(ctx, sess); err != nil {
			slog.Warn("catalog logout failed", "error", err)
		}
		if err := h.tracker.Clear(ctx, sess.ID); err != nil {
			slog.Warn("failed to clear lesson marks", "error", err)
		}
		if err := h.sessions.Delete(ctx, sess.ID); err != nil {
			slog.Warn("failed to delete session", "error", err)
		}
	}
	if err := h.cookies.Clear(c); err != nil {
		slog.Warn("failed to clear session cookie", "error", err)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// GET /api/v1/me
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": middleware.CurrentSession(c).User})
}

// role returns the caller's role; anonymous callers browse as students.
func role(c *gin.Context) course.Role {
	if sess := middleware.CurrentSession(c); sess != nil {
		return sess.User.Role
	}
	return course.RoleStudent
}

// pathID parses a positive id path parameter and answers 400 otherwise.
func pathID(c *gin.Context, name string) (course.ID, bool) {
	id, err := course.ParseID(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// writeUpstreamError maps a catalog error to a response. back, when set, is
// returned with 404s so the client can link somewhere useful.
func writeUpstreamError(c *gin.Context, err error, op, back string) {
	var apiErr *client.APIError
	message := ""
	if errors.As(err, &apiErr) {
		message = apiErr.Message
	}

	switch {
	case errors.Is(err, client.ErrNotFound):
		body := gin.H{"error": orDefault(message, "Not found")}
		if back != "" {
			body["back"] = back
		}
		c.JSON(http.StatusNotFound, body)
	case errors.Is(err, client.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session expired, please log in again"})
	case errors.Is(err, client.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": orDefault(message, "Access denied")})
	case errors.Is(err, client.ErrBadRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": message})
	case errors.Is(err, client.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": message})
	default:
		metrics.UpstreamErrors.WithLabelValues(op).Inc()
		slog.Error("catalog call failed", "operation", op, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Course service is unavailable, try again later"})
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
