package handlers

import (
	"net/http"

	"github.com/waste3d/learnhub/pkg/course"
	"github.com/waste3d/learnhub/pkg/navigation"
	"github.com/waste3d/learnhub/services/gateway/internal/client"
	"github.com/waste3d/learnhub/services/gateway/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
)

// AuthoringHandler forwards instructor writes to the catalog. The catalog
// enforces ownership; the gateway only checks that nested ids belong together.
type AuthoringHandler struct {
	rest *resty.Client
}

func NewAuthoringHandler(rest *resty.Client) *AuthoringHandler {
	return &AuthoringHandler{rest: rest}
}

func (h *AuthoringHandler) catalog(c *gin.Context) *client.CourseClient {
	return client.NewCourseClient(h.rest, middleware.CurrentSession(c))
}

type courseReq struct {
	Title       string `json:"title" binding:"required,min=5"`
	Description string `json:"description" binding:"required,min=20"`
	Category    string `json:"category"`
	Level       string `json:"level"`
	Price       string `json:"price" binding:"omitempty,numeric"`
}

type courseUpdateReq struct {
	Title       *string `json:"title" binding:"omitempty,min=5"`
	Description *string `json:"description" binding:"omitempty,min=20"`
	Category    *string `json:"category"`
	Level       *string `json:"level"`
	Price       *string `json:"price" binding:"omitempty,numeric"`
}

type moduleReq struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Position    int    `json:"position" binding:"omitempty,min=0"`
}

type lessonReq struct {
	Title    string `json:"title" binding:"required"`
	Content  string `json:"content"`
	Duration string `json:"duration"`
	Position int    `json:"position" binding:"omitempty,min=0"`
}

// POST /api/v1/courses
func (h *AuthoringHandler) CreateCourse(c *gin.Context) {
	var req courseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	crs, err := h.catalog(c).CreateCourse(c.Request.Context(), client.CourseInput(req))
	if err != nil {
		writeUpstreamError(c, err, "create_course", "")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"course": crs, "href": courseHref(course.RoleInstructor, crs.ID)})
}

// PATCH /api/v1/courses/:id
func (h *AuthoringHandler) UpdateCourse(c *gin.Context) {
	courseID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req courseUpdateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	crs, err := h.catalog(c).UpdateCourse(c.Request.Context(), courseID, client.CourseUpdate(req))
	if err != nil {
		writeUpstreamError(c, err, "update_course", coursesHref(course.RoleInstructor))
		return
	}
	c.JSON(http.StatusOK, gin.H{"course": crs})
}

// DELETE /api/v1/courses/:id
func (h *AuthoringHandler) DeleteCourse(c *gin.Context) {
	courseID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog(c).DeleteCourse(c.Request.Context(), courseID); err != nil {
		writeUpstreamError(c, err, "delete_course", coursesHref(course.RoleInstructor))
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/v1/courses/:id/modules
func (h *AuthoringHandler) CreateModule(c *gin.Context) {
	courseID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req moduleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m, err := h.catalog(c).CreateModule(c.Request.Context(), client.ModuleInput{
		CourseID:    courseID,
		Title:       req.Title,
		Description: req.Description,
		Position:    req.Position,
	})
	if err != nil {
		writeUpstreamError(c, err, "create_module", coursesHref(course.RoleInstructor))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"module": m})
}

// DELETE /api/v1/courses/:id/modules/:moduleId
func (h *AuthoringHandler) DeleteModule(c *gin.Context) {
	courseID, ok := pathID(c, "id")
	if !ok {
		return
	}
	moduleID, ok := pathID(c, "moduleId")
	if !ok {
		return
	}

	cc := h.catalog(c)
	crs, ok := h.course(c, cc, courseID)
	if !ok {
		return
	}
	if _, found := navigation.FindModule(crs, moduleID); !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Module not found", "back": moduleListHref(course.RoleInstructor, courseID)})
		return
	}

	if err := cc.DeleteModule(c.Request.Context(), moduleID); err != nil {
		writeUpstreamError(c, err, "delete_module", moduleListHref(course.RoleInstructor, courseID))
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/v1/courses/:id/modules/:moduleId/lessons
func (h *AuthoringHandler) CreateLesson(c *gin.Context) {
	courseID, ok := pathID(c, "id")
	if !ok {
		return
	}
	moduleID, ok := pathID(c, "moduleId")
	if !ok {
		return
	}
	var req lessonReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cc := h.catalog(c)
	crs, ok := h.course(c, cc, courseID)
	if !ok {
		return
	}
	if _, found := navigation.FindModule(crs, moduleID); !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Module not found", "back": moduleListHref(course.RoleInstructor, courseID)})
		return
	}

	l, err := cc.CreateLesson(c.Request.Context(), client.LessonInput{
		ModuleID: moduleID,
		Title:    req.Title,
		Content:  req.Content,
		Duration: req.Duration,
		Position: req.Position,
	})
	if err != nil {
		writeUpstreamError(c, err, "create_lesson", moduleListHref(course.RoleInstructor, courseID))
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"lesson": l,
		"href":   lessonHref(course.RoleInstructor, courseID, moduleID, l.ID),
	})
}

// DELETE /api/v1/courses/:id/modules/:moduleId/lessons/:lessonId
func (h *AuthoringHandler) DeleteLesson(c *gin.Context) {
	courseID, ok := pathID(c, "id")
	if !ok {
		return
	}
	moduleID, ok := pathID(c, "moduleId")
	if !ok {
		return
	}
	lessonID, ok := pathID(c, "lessonId")
	if !ok {
		return
	}

	cc := h.catalog(c)
	crs, ok := h.course(c, cc, courseID)
	if !ok {
		return
	}
	back := moduleListHref(course.RoleInstructor, courseID)
	if _, found := navigation.FindLesson(crs, moduleID, lessonID); !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Lesson not found", "back": back})
		return
	}

	if err := cc.DeleteLesson(c.Request.Context(), lessonID); err != nil {
		writeUpstreamError(c, err, "delete_lesson", back)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthoringHandler) course(c *gin.Context, cc *client.CourseClient, courseID course.ID) (*course.Course, bool) {
	crs, err := cc.GetCourse(c.Request.Context(), courseID)
	if err != nil {
		writeUpstreamError(c, err, "get_course", coursesHref(course.RoleInstructor))
		return nil, false
	}
	return crs, true
}
