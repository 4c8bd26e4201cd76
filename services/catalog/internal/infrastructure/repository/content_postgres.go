package repository

import (
	"context"
	"errors"

	"github.com/waste3d/learnhub/services/catalog/internal/domain"

	"gorm.io/gorm"
)

// Modules and lessons live in the same repository as courses so every write
// can drop the cached course detail.

func (r *CourseRepository) ListModules(ctx context.Context, courseID uint) ([]domain.Module, error) {
	var modules []domain.Module
	err := r.db.WithContext(ctx).
		Preload("Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("position asc").Order("id asc")
		}).
		Where("course_id = ?", courseID).
		Order("position asc").Order("id asc").
		Find(&modules).Error
	return modules, err
}

func (r *CourseRepository) GetModule(ctx context.Context, id uint) (*domain.Module, error) {
	var m domain.Module
	err := r.db.WithContext(ctx).First(&m, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrModuleNotFound
		}
		return nil, err
	}
	return &m, nil
}

// CreateModule appends the module to the end of the course when no position is given.
func (r *CourseRepository) CreateModule(ctx context.Context, m *domain.Module) error {
	if m.Position == 0 {
		var last int
		err := r.db.WithContext(ctx).Model(&domain.Module{}).
			Where("course_id = ?", m.CourseID).
			Select("COALESCE(MAX(position), 0)").Scan(&last).Error
		if err != nil {
			return err
		}
		m.Position = last + 1
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	r.invalidate(ctx, m.CourseID)
	return nil
}

func (r *CourseRepository) DeleteModule(ctx context.Context, id uint) error {
	m, err := r.GetModule(ctx, id)
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("module_id = ?", id).Delete(&domain.Lesson{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Module{}, id).Error
	})
	if err != nil {
		return err
	}
	r.invalidate(ctx, m.CourseID)
	return nil
}

func (r *CourseRepository) ListLessons(ctx context.Context, moduleID uint) ([]domain.Lesson, error) {
	var lessons []domain.Lesson
	err := r.db.WithContext(ctx).
		Where("module_id = ?", moduleID).
		Order("position asc").Order("id asc").
		Find(&lessons).Error
	return lessons, err
}

func (r *CourseRepository) GetLesson(ctx context.Context, id uint) (*domain.Lesson, error) {
	var l domain.Lesson
	err := r.db.WithContext(ctx).First(&l, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLessonNotFound
		}
		return nil, err
	}
	return &l, nil
}

// CreateLesson appends the lesson to the end of its module when no position is given.
func (r *CourseRepository) CreateLesson(ctx context.Context, l *domain.Lesson) error {
	m, err := r.GetModule(ctx, l.ModuleID)
	if err != nil {
		return err
	}
	if l.Position == 0 {
		var last int
		err := r.db.WithContext(ctx).Model(&domain.Lesson{}).
			Where("module_id = ?", l.ModuleID).
			Select("COALESCE(MAX(position), 0)").Scan(&last).Error
		if err != nil {
			return err
		}
		l.Position = last + 1
	}
	if err := r.db.WithContext(ctx).Create(l).Error; err != nil {
		return err
	}
	r.invalidate(ctx, m.CourseID)
	return nil
}

func (r *CourseRepository) DeleteLesson(ctx context.Context, id uint) error {
	l, err := r.GetLesson(ctx, id)
	if err != nil {
		return err
	}
	m, err := r.GetModule(ctx, l.ModuleID)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Delete(&domain.Lesson{}, id).Error; err != nil {
		return err
	}
	r.invalidate(ctx, m.CourseID)
	return nil
}

// CourseIDOfModule returns the owning course, used for ownership checks.
func (r *CourseRepository) CourseIDOfModule(ctx context.Context, moduleID uint) (uint, error) {
	m, err := r.GetModule(ctx, moduleID)
	if err != nil {
		return 0, err
	}
	return m.CourseID, nil
}
