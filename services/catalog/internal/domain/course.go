package domain

import (
	"errors"
	"time"

	"github.com/waste3d/learnhub/pkg/course"
)

var (
	ErrCourseNotFound     = errors.New("course not found")
	ErrModuleNotFound     = errors.New("module not found")
	ErrLessonNotFound     = errors.New("lesson not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrAlreadyEnrolled    = errors.New("already enrolled")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// CourseFilter selects a page of the course list. Zero values mean "any".
type CourseFilter struct {
	Search       string
	Category     string
	InstructorID uint
	Limit        int
	Offset       int
}

type User struct {
	ID        uint        `gorm:"primaryKey"`
	Name      string      `gorm:"not null;size:100"`
	Email     string      `gorm:"uniqueIndex;not null;size:100"`
	Password  string      `gorm:"not null" json:"-"`
	Role      course.Role `gorm:"size:20;not null;default:'student'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Course struct {
	ID           uint   `gorm:"primaryKey"`
	Title        string `gorm:"index"`
	Description  string
	Category     string `gorm:"index"`
	Level        string
	Price        string
	InstructorID uint `gorm:"index"`
	Instructor   User `gorm:"foreignKey:InstructorID"`

	// A course has many modules, each with many lessons.
	Modules []Module `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE;"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Module struct {
	ID          uint `gorm:"primaryKey"`
	CourseID    uint `gorm:"index"`
	Title       string
	Description string
	Position    int // sort key inside the course (1, 2, 3...)

	Lessons []Lesson `gorm:"foreignKey:ModuleID;constraint:OnDelete:CASCADE;"`

	CreatedAt time.Time
}

type Lesson struct {
	ID        uint `gorm:"primaryKey"`
	ModuleID  uint `gorm:"index"`
	Title     string
	Content   string `gorm:"type:text"`
	Duration  string
	Position  int
	Completed bool

	CreatedAt time.Time
}

type Enrollment struct {
	ID        uint   `gorm:"primaryKey"`
	CourseID  uint   `gorm:"uniqueIndex:idx_enrollment_course_student"`
	StudentID uint   `gorm:"uniqueIndex:idx_enrollment_course_student;index"`
	Course    Course `gorm:"foreignKey:CourseID"`
	CreatedAt time.Time
}

func (u *User) ToWire() course.User {
	return course.User{
		ID:    course.ID(u.ID),
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

func (c *Course) ToWire() course.Course {
	out := course.Course{
		ID:          course.ID(c.ID),
		Title:       c.Title,
		Description: c.Description,
		Category:    c.Category,
		Level:       c.Level,
		Price:       c.Price,
		Instructor:  c.Instructor.ToWire(),
		Modules:     make([]course.Module, 0, len(c.Modules)),
	}
	for i := range c.Modules {
		out.Modules = append(out.Modules, c.Modules[i].ToWire())
	}
	return out
}

func (m *Module) ToWire() course.Module {
	out := course.Module{
		ID:          course.ID(m.ID),
		CourseID:    course.ID(m.CourseID),
		Title:       m.Title,
		Description: m.Description,
		Position:    m.Position,
		Lessons:     make([]course.Lesson, 0, len(m.Lessons)),
	}
	for i := range m.Lessons {
		out.Lessons = append(out.Lessons, m.Lessons[i].ToWire())
	}
	return out
}

func (l *Lesson) ToWire() course.Lesson {
	return course.Lesson{
		ID:        course.ID(l.ID),
		ModuleID:  course.ID(l.ModuleID),
		Title:     l.Title,
		Content:   l.Content,
		Duration:  l.Duration,
		Position:  l.Position,
		Completed: l.Completed,
	}
}

func (e *Enrollment) ToWire() course.Enrollment {
	out := course.Enrollment{
		ID:        course.ID(e.ID),
		CourseID:  course.ID(e.CourseID),
		StudentID: course.ID(e.StudentID),
	}
	if e.Course.ID != 0 {
		c := e.Course.ToWire()
		out.Course = &c
	}
	return out
}
