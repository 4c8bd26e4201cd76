package usecase

import (
	"context"
	"errors"

	"github.com/waste3d/learnhub/services/catalog/internal/domain"
	"github.com/waste3d/learnhub/services/catalog/internal/infrastructure/repository"
)

var ErrForbidden = errors.New("not the course owner")

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// CourseUseCase applies ownership rules on top of the course repository.
// Role checks happen in the transport middleware.
type CourseUseCase struct {
	courses     *repository.CourseRepository
	enrollments *repository.EnrollmentRepository
}

func NewCourseUseCase(cr *repository.CourseRepository, er *repository.EnrollmentRepository) *CourseUseCase {
	return &CourseUseCase{courses: cr, enrollments: er}
}

func (uc *CourseUseCase) List(ctx context.Context, f domain.CourseFilter) ([]domain.Course, int64, error) {
	if f.Limit <= 0 {
		f.Limit = defaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return uc.courses.List(ctx, f)
}

func (uc *CourseUseCase) Get(ctx context.Context, id uint) (*domain.Course, error) {
	return uc.courses.GetDetail(ctx, id)
}

func (uc *CourseUseCase) Create(ctx context.Context, instructorID uint, c *domain.Course) (*domain.Course, error) {
	c.InstructorID = instructorID
	if err := uc.courses.Create(ctx, c); err != nil {
		return nil, err
	}
	return uc.courses.GetDetail(ctx, c.ID)
}

func (uc *CourseUseCase) Update(ctx context.Context, instructorID, id uint, updates map[string]interface{}) (*domain.Course, error) {
	if err := uc.checkOwner(ctx, instructorID, id); err != nil {
		return nil, err
	}
	return uc.courses.Update(ctx, id, updates)
}

func (uc *CourseUseCase) Delete(ctx context.Context, instructorID, id uint) error {
	if err := uc.checkOwner(ctx, instructorID, id); err != nil {
		return err
	}
	return uc.courses.Delete(ctx, id)
}

func (uc *CourseUseCase) ListModules(ctx context.Context, courseID uint) ([]domain.Module, error) {
	if _, err := uc.courses.GetByID(ctx, courseID); err != nil {
		return nil, err
	}
	return uc.courses.ListModules(ctx, courseID)
}

func (uc *CourseUseCase) CreateModule(ctx context.Context, instructorID uint, m *domain.Module) error {
	if err := uc.checkOwner(ctx, instructorID, m.CourseID); err != nil {
		return err
	}
	return uc.courses.CreateModule(ctx, m)
}

func (uc *CourseUseCase) DeleteModule(ctx context.Context, instructorID, moduleID uint) error {
	courseID, err := uc.courses.CourseIDOfModule(ctx, moduleID)
	if err != nil {
		return err
	}
	if err := uc.checkOwner(ctx, instructorID, courseID); err != nil {
		return err
	}
	return uc.courses.DeleteModule(ctx, moduleID)
}

func (uc *CourseUseCase) ListLessons(ctx context.Context, moduleID uint) ([]domain.Lesson, error) {
	if _, err := uc.courses.GetModule(ctx, moduleID); err != nil {
		return nil, err
	}
	return uc.courses.ListLessons(ctx, moduleID)
}

func (uc *CourseUseCase) CreateLesson(ctx context.Context, instructorID uint, l *domain.Lesson) error {
	courseID, err := uc.courses.CourseIDOfModule(ctx, l.ModuleID)
	if err != nil {
		return err
	}
	if err := uc.checkOwner(ctx, instructorID, courseID); err != nil {
		return err
	}
	return uc.courses.CreateLesson(ctx, l)
}

func (uc *CourseUseCase) DeleteLesson(ctx context.Context, instructorID, lessonID uint) error {
	l, err := uc.courses.GetLesson(ctx, lessonID)
	if err != nil {
		return err
	}
	courseID, err := uc.courses.CourseIDOfModule(ctx, l.ModuleID)
	if err != nil {
		return err
	}
	if err := uc.checkOwner(ctx, instructorID, courseID); err != nil {
		return err
	}
	return uc.courses.DeleteLesson(ctx, lessonID)
}

// Enroll is idempotent: enrolling twice returns the existing enrollment
// together with ErrAlreadyEnrolled.
func (uc *CourseUseCase) Enroll(ctx context.Context, studentID, courseID uint) (*domain.Enrollment, error) {
	if _, err := uc.courses.GetByID(ctx, courseID); err != nil {
		return nil, err
	}
	e := &domain.Enrollment{CourseID: courseID, StudentID: studentID}
	err := uc.enrollments.Create(ctx, e)
	return e, err
}

func (uc *CourseUseCase) Enrollments(ctx context.Context, studentID uint) ([]domain.Enrollment, error) {
	return uc.enrollments.ListByStudent(ctx, studentID)
}

func (uc *CourseUseCase) checkOwner(ctx context.Context, instructorID, courseID uint) error {
	c, err := uc.courses.GetByID(ctx, courseID)
	if err != nil {
		return err
	}
	if c.InstructorID != instructorID {
		return ErrForbidden
	}
	return nil
}
