package repository

import (
	"context"
	"errors"

	"github.com/waste3d/learnhub/services/catalog/internal/domain"

	"gorm.io/gorm"
)

type EnrollmentRepository struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Create enrolls a student once. A second attempt, including one that loses
// the insert race, loads the existing row into e and returns ErrAlreadyEnrolled.
func (r *EnrollmentRepository) Create(ctx context.Context, e *domain.Enrollment) error {
	err := r.loadExisting(ctx, e)
	if err == nil {
		return domain.ErrAlreadyEnrolled
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		if err := r.loadExisting(ctx, e); err != nil {
			return err
		}
		return domain.ErrAlreadyEnrolled
	}
	return nil
}

func (r *EnrollmentRepository) loadExisting(ctx context.Context, e *domain.Enrollment) error {
	var existing domain.Enrollment
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND student_id = ?", e.CourseID, e.StudentID).
		First(&existing).Error
	if err != nil {
		return err
	}
	*e = existing
	return nil
}

func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID uint) ([]domain.Enrollment, error) {
	var enrollments []domain.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Course").
		Preload("Course.Instructor").
		Where("student_id = ?", studentID).
		Order("created_at desc").Order("id desc").
		Find(&enrollments).Error
	return enrollments, err
}
