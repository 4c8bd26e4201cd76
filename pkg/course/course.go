// Package course holds the JSON shapes exchanged between the catalog service
// and the gateway.
package course

type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
)

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleInstructor
}

type User struct {
	ID    ID     `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role,omitempty"`
}

type Course struct {
	ID          ID       `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category,omitempty"`
	Level       string   `json:"level,omitempty"`
	Price       string   `json:"price,omitempty"`
	Instructor  User     `json:"instructor"`
	Modules     []Module `json:"modules"`
}

type Module struct {
	ID          ID       `json:"id"`
	CourseID    ID       `json:"courseId,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Position    int      `json:"position"`
	Lessons     []Lesson `json:"lessons"`
}

// Lesson is a single unit of content. Completed is the value reported by the
// catalog; marks made during a session are tracked separately by the gateway.
type Lesson struct {
	ID        ID     `json:"id"`
	ModuleID  ID     `json:"moduleId,omitempty"`
	Title     string `json:"title"`
	Content   string `json:"content,omitempty"`
	Duration  string `json:"duration,omitempty"`
	Position  int    `json:"position"`
	Completed bool   `json:"completed"`
}

type Enrollment struct {
	ID        ID      `json:"id"`
	CourseID  ID      `json:"courseId"`
	StudentID ID      `json:"studentId"`
	Course    *Course `json:"course,omitempty"`
}

// LessonCount returns the number of lessons across all modules.
func (c *Course) LessonCount() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, m := range c.Modules {
		n += len(m.Lessons)
	}
	return n
}
