package handlers

import (
	"net/http"

	"github.com/waste3d/learnhub/pkg/course"
	"github.com/waste3d/learnhub/services/gateway/internal/client"
	"github.com/waste3d/learnhub/services/gateway/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
)

type EnrollmentHandler struct {
	rest *resty.Client
}

func NewEnrollmentHandler(rest *resty.Client) *EnrollmentHandler {
	return &EnrollmentHandler{rest: rest}
}

type enrollReq struct {
	CourseID course.ID `json:"courseId" binding:"required"`
}

// GET /api/v1/enrollments
func (h *EnrollmentHandler) List(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	list, err := client.NewCourseClient(h.rest, sess).Enrollments(c.Request.Context())
	if err != nil {
		writeUpstreamError(c, err, "list_enrollments", "")
		return
	}
	if list == nil {
		list = []course.Enrollment{}
	}
	c.JSON(http.StatusOK, gin.H{"enrollments": list})
}

// POST /api/v1/enrollments
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var req enrollReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess := middleware.CurrentSession(c)
	e, created, err := client.NewCourseClient(h.rest, sess).Enroll(c.Request.Context(), req.CourseID)
	if err != nil {
		writeUpstreamError(c, err, "enroll", coursesHref(course.RoleStudent))
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{
		"enrollment": e,
		"href":       courseHref(course.RoleStudent, req.CourseID),
	})
}
