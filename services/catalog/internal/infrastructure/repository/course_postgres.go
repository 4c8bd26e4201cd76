package repository

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/waste3d/learnhub/services/catalog/internal/domain"
	"github.com/waste3d/learnhub/services/catalog/internal/infrastructure/cache"

	"gorm.io/gorm"
)

type CourseRepository struct {
	db    *gorm.DB
	cache *cache.CourseCache
}

func NewCourseRepository(db *gorm.DB, cc *cache.CourseCache) *CourseRepository {
	return &CourseRepository{db: db, cache: cc}
}

// List returns a page of courses without modules. Pages are cached until the
// next write.
func (r *CourseRepository) List(ctx context.Context, f domain.CourseFilter) ([]domain.Course, int64, error) {
	if list, err := r.cache.GetList(ctx, f); err == nil {
		return list.Courses, list.Total, nil
	}

	var courses []domain.Course
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Course{})
	if f.Search != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(f.Search)+"%")
	}
	if f.Category != "" {
		query = query.Where("category = ?", f.Category)
	}
	if f.InstructorID != 0 {
		query = query.Where("instructor_id = ?", f.InstructorID)
	}
	// Count and Find must not share a statement.
	query = query.Session(&gorm.Session{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Preload("Instructor").
		Limit(f.Limit).Offset(f.Offset).
		Order("created_at desc").Order("id desc").
		Find(&courses).Error
	if err != nil {
		return nil, 0, err
	}

	if err := r.cache.SetList(ctx, f, &cache.CourseList{Courses: courses, Total: total}); err != nil {
		slog.Warn("failed to cache course list", "error", err)
	}

	return courses, total, nil
}

// GetDetail returns the course with its instructor, modules and lessons,
// each level ordered by position and then id.
func (r *CourseRepository) GetDetail(ctx context.Context, id uint) (*domain.Course, error) {
	if c, err := r.cache.GetDetail(ctx, id); err == nil {
		return c, nil
	}

	var course domain.Course
	err := r.db.WithContext(ctx).
		Preload("Instructor").
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("position asc").Order("id asc")
		}).
		Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("position asc").Order("id asc")
		}).
		First(&course, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCourseNotFound
		}
		return nil, err
	}

	if err := r.cache.SetDetail(ctx, &course); err != nil {
		slog.Warn("failed to cache course detail", "course_id", id, "error", err)
	}

	return &course, nil
}

// GetByID returns the course row only.
func (r *CourseRepository) GetByID(ctx context.Context, id uint) (*domain.Course, error) {
	var course domain.Course
	err := r.db.WithContext(ctx).First(&course, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCourseNotFound
		}
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Course{}).Count(&count).Error
	return count, err
}

func (r *CourseRepository) Create(ctx context.Context, c *domain.Course) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return err
	}
	r.invalidate(ctx, c.ID)
	return nil
}

// Update applies the non-empty fields of updates.
func (r *CourseRepository) Update(ctx context.Context, id uint, updates map[string]interface{}) (*domain.Course, error) {
	if len(updates) > 0 {
		res := r.db.WithContext(ctx).Model(&domain.Course{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, domain.ErrCourseNotFound
		}
	}
	r.invalidate(ctx, id)
	return r.GetDetail(ctx, id)
}

// Delete removes the course together with its modules, lessons and enrollments.
func (r *CourseRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		moduleIDs := tx.Model(&domain.Module{}).Select("id").Where("course_id = ?", id)
		if err := tx.Where("module_id IN (?)", moduleIDs).Delete(&domain.Lesson{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", id).Delete(&domain.Module{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", id).Delete(&domain.Enrollment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.Course{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrCourseNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

// invalidate drops the cached detail and list pages after a write.
func (r *CourseRepository) invalidate(ctx context.Context, courseID uint) {
	if err := r.cache.DeleteDetail(ctx, courseID); err != nil {
		slog.Warn("failed to drop course detail cache", "course_id", courseID, "error", err)
	}
	if err := r.cache.InvalidateLists(ctx); err != nil {
		slog.Warn("failed to invalidate course lists", "error", err)
	}
}
