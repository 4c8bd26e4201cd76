package seed

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/waste3d/learnhub/pkg/course"
	"github.com/waste3d/learnhub/services/catalog/internal/domain"
	"github.com/waste3d/learnhub/services/catalog/internal/infrastructure/security"
)

const demo = `
users:
  - name: Ann
    email: ann@example.com
    password: secret123
    role: instructor
courses:
  - title: Advanced JavaScript
    description: Closures, prototypes and async code
    instructor: ann@example.com
    modules:
      - title: Fundamentals
        lessons:
          - title: Variables
            content: "# Variables"
          - title: Objects
      - title: Async
        lessons:
          - title: Promises
`

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.Course{}, &domain.Module{}, &domain.Lesson{}, &domain.Enrollment{}))
	return db
}

func TestApply_IsIdempotent(t *testing.T) {
	db := setupDB(t)
	f, err := Decode(strings.NewReader(demo))
	require.NoError(t, err)

	res, err := Apply(context.Background(), db, security.NewPasswordHasher(), f)
	require.NoError(t, err)
	assert.Equal(t, Result{Users: 1, Courses: 1}, res)

	res, err = Apply(context.Background(), db, security.NewPasswordHasher(), f)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)

	var c domain.Course
	require.NoError(t, db.Preload("Instructor").Preload("Modules", func(db *gorm.DB) *gorm.DB {
		return db.Order("position asc")
	}).Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB {
		return db.Order("position asc")
	}).First(&c).Error)

	assert.Equal(t, course.RoleInstructor, c.Instructor.Role)
	require.Len(t, c.Modules, 2)
	assert.Equal(t, 1, c.Modules[0].Position)
	assert.Equal(t, "Async", c.Modules[1].Title)
	require.Len(t, c.Modules[0].Lessons, 2)
	assert.Equal(t, "Objects", c.Modules[0].Lessons[1].Title)
	assert.Equal(t, 2, c.Modules[0].Lessons[1].Position)
}

func TestApply_UnknownInstructor(t *testing.T) {
	db := setupDB(t)
	f := &File{Courses: []Course{{Title: "Orphan course", Instructor: "ghost@example.com"}}}

	_, err := Apply(context.Background(), db, security.NewPasswordHasher(), f)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestDecode_RejectsUnknownFields(t *testing.T) {
	_, err := Decode(strings.NewReader("courses:\n  - titel: typo\n"))
	assert.Error(t, err)
}
