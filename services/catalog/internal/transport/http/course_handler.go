package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/waste3d/learnhub/pkg/course"
	"github.com/waste3d/learnhub/services/catalog/internal/application/usecase"
	"github.com/waste3d/learnhub/services/catalog/internal/domain"
	"github.com/waste3d/learnhub/services/catalog/internal/middleware"

	"github.com/gin-gonic/gin"
)

type CourseHandler struct {
	courses *usecase.CourseUseCase
}

func NewCourseHandler(courses *usecase.CourseUseCase) *CourseHandler {
	return &CourseHandler{courses: courses}
}

type createCourseReq struct {
	Title       string `json:"title" binding:"required,min=5"`
	Description string `json:"description" binding:"required,min=20"`
	Category    string `json:"category"`
	Level       string `json:"level"`
	Price       string `json:"price" binding:"omitempty,numeric"`
}

type updateCourseReq struct {
	Title       *string `json:"title" binding:"omitempty,min=5"`
	Description *string `json:"description" binding:"omitempty,min=20"`
	Category    *string `json:"category"`
	Level       *string `json:"level"`
	Price       *string `json:"price" binding:"omitempty,numeric"`
}

func (r updateCourseReq) updates() map[string]interface{} {
	out := map[string]interface{}{}
	set := func(col string, v *string) {
		if v != nil {
			out[col] = *v
		}
	}
	set("title", r.Title)
	set("description", r.Description)
	set("category", r.Category)
	set("level", r.Level)
	set("price", r.Price)
	return out
}

type createModuleReq struct {
	CourseID    course.ID `json:"courseId" binding:"required"`
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	Position    int       `json:"position" binding:"gte=0"`
}

type createLessonReq struct {
	ModuleID course.ID `json:"moduleId" binding:"required"`
	Title    string    `json:"title" binding:"required"`
	Content  string    `json:"content"`
	Duration string    `json:"duration"`
	Position int       `json:"position" binding:"gte=0"`
}

type enrollReq struct {
	CourseID course.ID `json:"courseId" binding:"required"`
}

// GET /courses?search=&category=&instructorId=&limit=&offset=
func (h *CourseHandler) List(c *gin.Context) {
	f := domain.CourseFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
	}
	f.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	f.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if c.Query("instructorId") != "" {
		id, ok := queryID(c, "instructorId")
		if !ok {
			return
		}
		f.InstructorID = id
	}

	courses, total, err := h.courses.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]course.Course, 0, len(courses))
	for i := range courses {
		out = append(out, courses[i].ToWire())
	}
	c.JSON(http.StatusOK, gin.H{"courses": out, "total": total})
}

// GET /courses/:id
func (h *CourseHandler) GetOne(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.courses.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res.ToWire())
}

// POST /courses
func (h *CourseHandler) Create(c *gin.Context) {
	var req createCourseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.courses.Create(c.Request.Context(), middleware.UserID(c), &domain.Course{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Level:       req.Level,
		Price:       req.Price,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res.ToWire())
}

// PATCH /courses/:id
func (h *CourseHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateCourseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.courses.Update(c.Request.Context(), middleware.UserID(c), id, req.updates())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res.ToWire())
}

// DELETE /courses/:id
func (h *CourseHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.courses.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GET /modules?courseId=
func (h *CourseHandler) ListModules(c *gin.Context) {
	courseID, ok := queryID(c, "courseId")
	if !ok {
		return
	}
	modules, err := h.courses.ListModules(c.Request.Context(), courseID)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]course.Module, 0, len(modules))
	for i := range modules {
		out = append(out, modules[i].ToWire())
	}
	c.JSON(http.StatusOK, out)
}

// POST /modules
func (h *CourseHandler) CreateModule(c *gin.Context) {
	var req createModuleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m := &domain.Module{
		CourseID:    uint(req.CourseID),
		Title:       req.Title,
		Description: req.Description,
		Position:    req.Position,
	}
	if err := h.courses.CreateModule(c.Request.Context(), middleware.UserID(c), m); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m.ToWire())
}

// DELETE /modules/:id
func (h *CourseHandler) DeleteModule(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.courses.DeleteModule(c.Request.Context(), middleware.UserID(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GET /lessons?moduleId=
func (h *CourseHandler) ListLessons(c *gin.Context) {
	moduleID, ok := queryID(c, "moduleId")
	if !ok {
		return
	}
	lessons, err := h.courses.ListLessons(c.Request.Context(), moduleID)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]course.Lesson, 0, len(lessons))
	for i := range lessons {
		out = append(out, lessons[i].ToWire())
	}
	c.JSON(http.StatusOK, out)
}

// POST /lessons
func (h *CourseHandler) CreateLesson(c *gin.Context) {
	var req createLessonReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	l := &domain.Lesson{
		ModuleID: uint(req.ModuleID),
		Title:    req.Title,
		Content:  req.Content,
		Duration: req.Duration,
		Position: req.Position,
	}
	if err := h.courses.CreateLesson(c.Request.Context(), middleware.UserID(c), l); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, l.ToWire())
}

// DELETE /lessons/:id
func (h *CourseHandler) DeleteLesson(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.courses.DeleteLesson(c.Request.Context(), middleware.UserID(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GET /enrollments?studentId=
// Students may only list their own enrollments.
func (h *CourseHandler) ListEnrollments(c *gin.Context) {
	studentID := middleware.UserID(c)
	if c.Query("studentId") != "" {
		id, ok := queryID(c, "studentId")
		if !ok {
			return
		}
		if id != studentID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}
	}

	list, err := h.courses.Enrollments(c.Request.Context(), studentID)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]course.Enrollment, 0, len(list))
	for i := range list {
		out = append(out, list[i].ToWire())
	}
	c.JSON(http.StatusOK, out)
}

// POST /enrollments
func (h *CourseHandler) Enroll(c *gin.Context) {
	var req enrollReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	e, err := h.courses.Enroll(c.Request.Context(), middleware.UserID(c), uint(req.CourseID))
	if errors.Is(err, domain.ErrAlreadyEnrolled) {
		c.JSON(http.StatusOK, e.ToWire())
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, e.ToWire())
}
