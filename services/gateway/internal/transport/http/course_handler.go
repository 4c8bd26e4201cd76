package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/waste3d/learnhub/pkg/course"
	"github.com/waste3d/learnhub/pkg/navigation"
	"github.com/waste3d/learnhub/services/gateway/internal/client"
	"github.com/waste3d/learnhub/services/gateway/internal/metrics"
	"github.com/waste3d/learnhub/services/gateway/internal/middleware"
	"github.com/waste3d/learnhub/services/gateway/internal/progress"
	"github.com/waste3d/learnhub/services/gateway/internal/render"

	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
)

// CourseHandler serves the student-facing course pages. Each request builds
// its own catalog client from the caller's session.
type CourseHandler struct {
	rest    *resty.Client
	tracker *progress.Tracker
	md      *render.Markdown
}

func NewCourseHandler(rest *resty.Client, tracker *progress.Tracker, md *render.Markdown) *CourseHandler {
	return &CourseHandler{rest: rest, tracker: tracker, md: md}
}

func (h *CourseHandler) catalog(c *gin.Context) *client.CourseClient {
	return client.NewCourseClient(h.rest, middleware.CurrentSession(c))
}

type stateView struct {
	ServerCompleted bool `json:"serverCompleted"`
	LocallyMarked   bool `json:"locallyMarked"`
	Completed       bool `json:"completed"`
	Saved           bool `json:"saved"`
}

func toStateView(s progress.LessonState) stateView {
	return stateView{
		ServerCompleted: s.ServerCompleted,
		LocallyMarked:   s.LocallyMarked,
		Completed:       s.Completed(),
		Saved:           s.Saved(),
	}
}

type courseHeader struct {
	ID          course.ID   `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Category    string      `json:"category,omitempty"`
	Level       string      `json:"level,omitempty"`
	Price       string      `json:"price,omitempty"`
	Instructor  course.User `json:"instructor"`
	Href        string      `json:"href"`
}

type lessonLink struct {
	ModuleID course.ID `json:"moduleId"`
	LessonID course.ID `json:"lessonId"`
	Title    string    `json:"title"`
	Href     string    `json:"href"`
}

type lessonItem struct {
	ID       course.ID `json:"id"`
	Title    string    `json:"title"`
	Duration string    `json:"duration,omitempty"`
	Position int       `json:"position"`
	Href     string    `json:"href"`
	State    stateView `json:"state"`
}

type moduleView struct {
	ID          course.ID    `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Lessons     []lessonItem `json:"lessons"`
}

type breadcrumb struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

type lessonView struct {
	ID          course.ID `json:"id"`
	Title       string    `json:"title"`
	Duration    string    `json:"duration,omitempty"`
	ContentHTML string    `json:"contentHtml"`
	State       stateView `json:"state"`
}

type lessonPage struct {
	Course      courseHeader `json:"course"`
	Module      moduleView   `json:"module"`
	Lesson      lessonView   `json:"lesson"`
	Previous    *lessonLink  `json:"previous"`
	Next        *lessonLink  `json:"next"`
	Index       int          `json:"index"`
	Total       int          `json:"total"`
	Breadcrumbs []breadcrumb `json:"breadcrumbs"`
	Back        string       `json:"back"`
}

func header(r course.Role, c *course.Course) courseHeader {
	return courseHeader{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Category:    c.Category,
		Level:       c.Level,
		Price:       c.Price,
		Instructor:  c.Instructor,
		Href:        courseHref(r, c.ID),
	}
}

func link(r course.Role, courseID course.ID, e *navigation.Entry) *lessonLink {
	if e == nil {
		return nil
	}
	return &lessonLink{
		ModuleID: e.ModuleID,
		LessonID: e.Lesson.ID,
		Title:    e.Lesson.Title,
		Href:     lessonHref(r, courseID, e.ModuleID, e.Lesson.ID),
	}
}

func modules(r course.Role, c *course.Course, marks progress.Marks) []moduleView {
	out := make([]moduleView, 0, len(c.Modules))
	for i := range c.Modules {
		m := &c.Modules[i]
		mv := moduleView{ID: m.ID, Title: m.Title, Description: m.Description, Lessons: make([]lessonItem, 0, len(m.Lessons))}
		for j := range m.Lessons {
			l := &m.Lessons[j]
			mv.Lessons = append(mv.Lessons, lessonItem{
				ID:       l.ID,
				Title:    l.Title,
				Duration: l.Duration,
				Position: l.Position,
				Href:     lessonHref(r, c.ID, m.ID, l.ID),
				State:    toStateView(marks.State(m.ID, l)),
			})
		}
		out = append(out, mv)
	}
	return out
}

// load fetches the course and the caller's local marks. It writes the error
// response itself and returns false on failure.
func (h *CourseHandler) load(c *gin.Context, courseID course.ID, op string) (*course.Course, progress.Marks, bool) {
	r := role(c)
	crs, err := h.catalog(c).GetCourse(c.Request.Context(), courseID)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Course not found", "back": coursesHref(r)})
			return nil, nil, false
		}
		writeUpstreamError(c, err, op, coursesHref(r))
		return nil, nil, false
	}

	marks := progress.Marks{}
	if sess := middleware.CurrentSession(c); sess != nil {
		m, err := h.tracker.Marks(c.Request.Context(), sess.ID, courseID)
		if err != nil {
			slog.Warn("failed to load lesson marks", "course_id", courseID, "error", err)
		} else {
			marks = m
		}
	}
	return crs, marks, true
}

// GET /api/v1/courses
func (h *CourseHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	q := client.ListQuery{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Limit:    limit,
		Offset:   offset,
	}

	// mine=true narrows the list to the signed-in instructor's own courses.
	if c.Query("mine") == "true" {
		sess := middleware.CurrentSession(c)
		if sess == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Login required"})
			return
		}
		if sess.User.Role != course.RoleInstructor {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied: instructors only"})
			return
		}
		q.InstructorID = sess.User.ID
	}

	res, err := h.catalog(c).ListCourses(c.Request.Context(), q)
	if err != nil {
		writeUpstreamError(c, err, "list_courses", "")
		return
	}

	r := role(c)
	out := make([]courseHeader, 0, len(res.Courses))
	for i := range res.Courses {
		out = append(out, header(r, &res.Courses[i]))
	}
	c.JSON(http.StatusOK, gin.H{"courses": out, "total": res.Total})
}

// GET /api/v1/courses/:id
func (h *CourseHandler) GetOne(c *gin.Context) {
	courseID, ok := pathID(c, "id")
	if !ok {
		return
	}
	crs, marks, ok := h.load(c, courseID, "get_course")
	if !ok {
		return
	}

	r := role(c)
	var cont *lessonLink
	if e, found := navigation.NextIncomplete(crs, marks.Done); found {
		cont = link(r, crs.ID, &e)
	}
	c.JSON(http.StatusOK, gin.H{
		"course":      header(r, crs),
		"moduleCount": len(crs.Modules),
		"lessonCount": crs.LessonCount(),
		"summary":     navigation.Summarize(crs, marks.Done),
		"continue":    cont,
		"modulesHref": moduleListHref(r, crs.ID),
	})
}

// GET /api/v1/courses/:id/modules
func (h *CourseHandler) Modules(c *gin.Context) {
	courseID, ok := pathID(c, "id")
	if !ok {
		return
	}
	crs, marks, ok := h.load(c, courseID, "get_course")
	if !ok {
		return
	}

	r := role(c)
	var next *lessonLink
	if e, found := navigation.NextIncomplete(crs, marks.Done); found {
		next = link(r, crs.ID, &e)
	}
	c.JSON(http.StatusOK, gin.H{
		"course":  header(r, crs),
		"modules": modules(r, crs, marks),
		"summary": navigation.Summarize(crs, marks.Done),
		"next":    next,
		"back":    courseHref(r, crs.ID),
	})
}

// GET /api/v1/courses/:id/modules/:moduleId/lessons/:lessonId
func (h *CourseHandler) Lesson(c *gin.Context) {
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
	crs, marks, ok := h.load(c, courseID, "get_course")
	if !ok {
		return
	}

	r := role(c)
	back := moduleListHref(r, courseID)
	pos, found := navigation.Locate(crs, moduleID, lessonID)
	if !found {
		metrics.LessonLookups.WithLabelValues("not_found").Inc()
		msg := "Lesson not found"
		if pos.Module == nil {
			msg = "Module not found"
		}
		c.JSON(http.StatusNotFound, gin.H{"error": msg, "back": back})
		return
	}
	metrics.LessonLookups.WithLabelValues("found").Inc()

	html, err := h.md.HTML(pos.Lesson.Content)
	if err != nil {
		slog.Error("failed to render lesson", "lesson_id", lessonID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render lesson"})
		return
	}

	mv := modules(r, &course.Course{ID: crs.ID, Modules: []course.Module{*pos.Module}}, marks)[0]
	c.JSON(http.StatusOK, lessonPage{
		Course: header(r, crs),
		Module: mv,
		Lesson: lessonView{
			ID:          pos.Lesson.ID,
			Title:       pos.Lesson.Title,
			Duration:    pos.Lesson.Duration,
			ContentHTML: html,
			State:       toStateView(marks.State(moduleID, pos.Lesson)),
		},
		Previous: link(r, crs.ID, pos.Previous),
		Next:     link(r, crs.ID, pos.Next),
		Index:    pos.Index + 1,
		Total:    pos.Total,
		Breadcrumbs: []breadcrumb{
			{Label: "Courses", Href: coursesHref(r)},
			{Label: crs.Title, Href: courseHref(r, crs.ID)},
			{Label: pos.Module.Title, Href: back},
			{Label: pos.Lesson.Title, Href: lessonHref(r, crs.ID, moduleID, lessonID)},
		},
		Back: back,
	})
}

// POST /api/v1/courses/:id/modules/:moduleId/lessons/:lessonId/complete
// The mark lives in the session only.
func (h *CourseHandler) Complete(c *gin.Context) {
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
	crs, marks, ok := h.load(c, courseID, "get_course")
	if !ok {
		return
	}

	lesson, found := navigation.FindLesson(crs, moduleID, lessonID)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Lesson not found", "back": moduleListHref(role(c), courseID)})
		return
	}

	sess := middleware.CurrentSession(c)
	if err := h.tracker.Mark(c.Request.Context(), sess, courseID, moduleID, lessonID); err != nil {
		slog.Error("failed to mark lesson", "lesson_id", lessonID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark lesson"})
		return
	}
	metrics.LessonsMarked.Inc()
	marks.Add(moduleID, lessonID)

	c.JSON(http.StatusOK, gin.H{
		"state":   toStateView(marks.State(moduleID, lesson)),
		"summary": navigation.Summarize(crs, marks.Done),
	})
}
