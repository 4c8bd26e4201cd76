package client

import (
	"context"
	"net/http"
	"strconv"

	"github.com/waste3d/learnhub/pkg/course"

	"github.com/go-resty/resty/v2"
)

// CourseClient talks to the catalog on behalf of one caller. Build a new one
// per request with that request's credentials.
type CourseClient struct {
	rest  *resty.Client
	creds Credentials
}

func NewCourseClient(rest *resty.Client, creds Credentials) *CourseClient {
	return &CourseClient{rest: rest, creds: creds}
}

type ListQuery struct {
	Search       string
	Category     string
	InstructorID course.ID
	Limit        int
	Offset       int
}

type CourseList struct {
	Courses []course.Course `json:"courses"`
	Total   int64           `json:"total"`
}

type CourseInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	Level       string `json:"level,omitempty"`
	Price       string `json:"price,omitempty"`
}

// CourseUpdate carries only the fields to change.
type CourseUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	Level       *string `json:"level,omitempty"`
	Price       *string `json:"price,omitempty"`
}

type ModuleInput struct {
	CourseID    course.ID `json:"courseId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Position    int       `json:"position,omitempty"`
}

type LessonInput struct {
	ModuleID course.ID `json:"moduleId"`
	Title    string    `json:"title"`
	Content  string    `json:"content,omitempty"`
	Duration string    `json:"duration,omitempty"`
	Position int       `json:"position,omitempty"`
}

func (c *CourseClient) ListCourses(ctx context.Context, q ListQuery) (*CourseList, error) {
	var out CourseList
	req := request(ctx, c.rest, c.creds).SetResult(&out)
	if q.Search != "" {
		req.SetQueryParam("search", q.Search)
	}
	if q.Category != "" {
		req.SetQueryParam("category", q.Category)
	}
	if q.InstructorID != 0 {
		req.SetQueryParam("instructorId", q.InstructorID.String())
	}
	if q.Limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		req.SetQueryParam("offset", strconv.Itoa(q.Offset))
	}
	if err := check(req.Get("/courses")); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCourse returns the course with modules and lessons.
func (c *CourseClient) GetCourse(ctx context.Context, id course.ID) (*course.Course, error) {
	var out course.Course
	resp, err := request(ctx, c.rest, c.creds).
		SetResult(&out).
		SetPathParam("id", id.String()).
		Get("/courses/{id}")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *CourseClient) CreateCourse(ctx context.Context, in CourseInput) (*course.Course, error) {
	var out course.Course
	resp, err := request(ctx, c.rest, c.creds).SetBody(in).SetResult(&out).Post("/courses")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *CourseClient) UpdateCourse(ctx context.Context, id course.ID, in CourseUpdate) (*course.Course, error) {
	var out course.Course
	resp, err := request(ctx, c.rest, c.creds).
		SetBody(in).
		SetResult(&out).
		SetPathParam("id", id.String()).
		Patch("/courses/{id}")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *CourseClient) DeleteCourse(ctx context.Context, id course.ID) error {
	return check(request(ctx, c.rest, c.creds).SetPathParam("id", id.String()).Delete("/courses/{id}"))
}

func (c *CourseClient) CreateModule(ctx context.Context, in ModuleInput) (*course.Module, error) {
	var out course.Module
	resp, err := request(ctx, c.rest, c.creds).SetBody(in).SetResult(&out).Post("/modules")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *CourseClient) DeleteModule(ctx context.Context, id course.ID) error {
	return check(request(ctx, c.rest, c.creds).SetPathParam("id", id.String()).Delete("/modules/{id}"))
}

func (c *CourseClient) CreateLesson(ctx context.Context, in LessonInput) (*course.Lesson, error) {
	var out course.Lesson
	resp, err := request(ctx, c.rest, c.creds).SetBody(in).SetResult(&out).Post("/lessons")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *CourseClient) DeleteLesson(ctx context.Context, id course.ID) error {
	return check(request(ctx, c.rest, c.creds).SetPathParam("id", id.String()).Delete("/lessons/{id}"))
}

func (c *CourseClient) Enrollments(ctx context.Context) ([]course.Enrollment, error) {
	var out []course.Enrollment
	resp, err := request(ctx, c.rest, c.creds).SetResult(&out).Get("/enrollments")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

// Enroll returns the enrollment; created is false when it already existed.
func (c *CourseClient) Enroll(ctx context.Context, courseID course.ID) (e *course.Enrollment, created bool, err error) {
	var out course.Enrollment
	resp, err := request(ctx, c.rest, c.creds).
		SetBody(map[string]course.ID{"courseId": courseID}).
		SetResult(&out).
		Post("/enrollments")
	if err := check(resp, err); err != nil {
		return nil, false, err
	}
	return &out, resp.StatusCode() == http.StatusCreated, nil
}
