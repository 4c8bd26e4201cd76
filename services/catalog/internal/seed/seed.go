// Package seed loads demo catalogs from YAML.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/waste3d/learnhub/pkg/course"
	"github.com/waste3d/learnhub/services/catalog/internal/domain"
	"github.com/waste3d/learnhub/services/catalog/internal/infrastructure/security"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

type File struct {
	Users   []User   `yaml:"users"`
	Courses []Course `yaml:"courses"`
}

type User struct {
	Name     string      `yaml:"name"`
	Email    string      `yaml:"email"`
	Password string      `yaml:"password"`
	Role     course.Role `yaml:"role"`
}

type Course struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Category    string   `yaml:"category"`
	Level       string   `yaml:"level"`
	Price       string   `yaml:"price"`
	Instructor  string   `yaml:"instructor"` // email of a user in the same file or database
	Modules     []Module `yaml:"modules"`
}

type Module struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Lessons     []Lesson `yaml:"lessons"`
}

type Lesson struct {
	Title    string `yaml:"title"`
	Content  string `yaml:"content"`
	Duration string `yaml:"duration"`
}

func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

func Decode(r io.Reader) (*File, error) {
	var out File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	return &out, nil
}

// Result counts what Apply created.
type Result struct {
	Users   int
	Courses int
}

// Apply inserts users and courses that do not exist yet. Users match on email
// and courses on (title, instructor), so applying the same file twice is a
// no-op. Positions follow the order in the file.
func Apply(ctx context.Context, db *gorm.DB, hasher *security.PasswordHasher, f *File) (Result, error) {
	var res Result
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range f.Users {
			var existing domain.User
			err := tx.Where("email = ?", u.Email).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			hash, err := hasher.Hash(u.Password)
			if err != nil {
				return err
			}
			role := u.Role
			if !role.Valid() {
				role = course.RoleStudent
			}
			if err := tx.Create(&domain.User{Name: u.Name, Email: u.Email, Password: hash, Role: role}).Error; err != nil {
				return err
			}
			res.Users++
		}

		for _, c := range f.Courses {
			var instructor domain.User
			if err := tx.Where("email = ?", c.Instructor).First(&instructor).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("course %q: instructor %q: %w", c.Title, c.Instructor, domain.ErrUserNotFound)
				}
				return err
			}

			var count int64
			if err := tx.Model(&domain.Course{}).
				Where("title = ? AND instructor_id = ?", c.Title, instructor.ID).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}

			row := toCourse(c, instructor.ID)
			if err := tx.Omit("Instructor").Create(&row).Error; err != nil {
				return err
			}
			res.Courses++
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	slog.Info("seed applied", "users", res.Users, "courses", res.Courses)
	return res, nil
}

func toCourse(c Course, instructorID uint) domain.Course {
	out := domain.Course{
		Title:        c.Title,
		Description:  c.Description,
		Category:     c.Category,
		Level:        c.Level,
		Price:        c.Price,
		InstructorID: instructorID,
	}
	for i, m := range c.Modules {
		mod := domain.Module{Title: m.Title, Description: m.Description, Position: i + 1}
		for j, l := range m.Lessons {
			mod.Lessons = append(mod.Lessons, domain.Lesson{
				Title:    l.Title,
				Content:  l.Content,
				Duration: l.Duration,
				Position: j + 1,
			})
		}
		out.Modules = append(out.Modules, mod)
	}
	return out
}
