// Package navigation resolves lessons inside a course and their neighbours in
// course-wide order.
//
// Course-wide order is derived on every call from course.Modules[*].Lessons[*]
// and then stable-sorted by (module id, lesson id). The sorted order is
// authoritative: a catalog that returns modules or lessons out of id order
// still yields the same previous/next links.
//
// All functions are pure, accept a nil course, and never mutate their input.
package navigation

import (
	"cmp"
	"slices"

	"github.com/waste3d/learnhub/pkg/course"
)

// Entry is one lesson in course-wide order together with its module id.
type Entry struct {
	ModuleID course.ID      `json:"moduleId"`
	Lesson   *course.Lesson `json:"lesson"`
}

// Adjacent holds the neighbours of a lesson. Either side is nil when absent.
type Adjacent struct {
	Previous *Entry `json:"previous"`
	Next     *Entry `json:"next"`
}

// Position is everything a lesson page needs: the current module and lesson
// plus the neighbours. Index and Total describe the sorted sequence.
type Position struct {
	Module   *course.Module
	Lesson   *course.Lesson
	Previous *Entry
	Next     *Entry
	Index    int
	Total    int
}

// Summary counts completed lessons.
type Summary struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
	Percent   int `json:"percent"`
}

// DoneFunc reports whether a lesson counts as completed.
type DoneFunc func(moduleID course.ID, l *course.Lesson) bool

// FindModule returns the module with the given id.
func FindModule(c *course.Course, moduleID course.ID) (*course.Module, bool) {
	if c == nil {
		return nil, false
	}
	for i := range c.Modules {
		if c.Modules[i].ID == moduleID {
			return &c.Modules[i], true
		}
	}
	return nil, false
}

// FindLesson returns the lesson lessonID inside module moduleID.
func FindLesson(c *course.Course, moduleID, lessonID course.ID) (*course.Lesson, bool) {
	m, ok := FindModule(c, moduleID)
	if !ok {
		return nil, false
	}
	for i := range m.Lessons {
		if m.Lessons[i].ID == lessonID {
			return &m.Lessons[i], true
		}
	}
	return nil, false
}

// Flatten returns every lesson of the course in sorted course-wide order.
func Flatten(c *course.Course) []Entry {
	if c == nil {
		return nil
	}
	entries := make([]Entry, 0, c.LessonCount())
	for i := range c.Modules {
		m := &c.Modules[i]
		for j := range m.Lessons {
			entries = append(entries, Entry{ModuleID: m.ID, Lesson: &m.Lessons[j]})
		}
	}
	slices.SortStableFunc(entries, func(a, b Entry) int {
		if n := cmp.Compare(a.ModuleID, b.ModuleID); n != 0 {
			return n
		}
		return cmp.Compare(a.Lesson.ID, b.Lesson.ID)
	})
	return entries
}

// AdjacentLessons returns the lessons before and after (moduleID, lessonID).
// Both sides are nil when the pair does not exist.
func AdjacentLessons(c *course.Course, moduleID, lessonID course.ID) Adjacent {
	entries := Flatten(c)
	i := indexOf(entries, moduleID, lessonID)
	if i < 0 {
		return Adjacent{}
	}
	return neighbours(entries, i)
}

// Locate resolves the current module and lesson along with the neighbours.
func Locate(c *course.Course, moduleID, lessonID course.ID) (Position, bool) {
	m, ok := FindModule(c, moduleID)
	if !ok {
		return Position{}, false
	}
	l, ok := FindLesson(c, moduleID, lessonID)
	if !ok {
		return Position{Module: m}, false
	}

	entries := Flatten(c)
	i := indexOf(entries, moduleID, lessonID)
	adj := neighbours(entries, i)
	return Position{
		Module:   m,
		Lesson:   l,
		Previous: adj.Previous,
		Next:     adj.Next,
		Index:    i,
		Total:    len(entries),
	}, true
}

// NextIncomplete returns the first lesson, in the order the catalog lists
// modules and lessons, for which done reports false.
func NextIncomplete(c *course.Course, done DoneFunc) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	for i := range c.Modules {
		m := &c.Modules[i]
		for j := range m.Lessons {
			if !done(m.ID, &m.Lessons[j]) {
				return Entry{ModuleID: m.ID, Lesson: &m.Lessons[j]}, true
			}
		}
	}
	return Entry{}, false
}

// Summarize counts the lessons done reports as completed.
func Summarize(c *course.Course, done DoneFunc) Summary {
	var s Summary
	if c == nil {
		return s
	}
	for i := range c.Modules {
		m := &c.Modules[i]
		for j := range m.Lessons {
			s.Total++
			if done(m.ID, &m.Lessons[j]) {
				s.Completed++
			}
		}
	}
	if s.Total > 0 {
		s.Percent = s.Completed * 100 / s.Total
	}
	return s
}

// ServerCompleted is a DoneFunc that trusts the completed flag from the catalog.
func ServerCompleted(_ course.ID, l *course.Lesson) bool {
	return l.Completed
}

func indexOf(entries []Entry, moduleID, lessonID course.ID) int {
	return slices.IndexFunc(entries, func(e Entry) bool {
		return e.ModuleID == moduleID && e.Lesson.ID == lessonID
	})
}

func neighbours(entries []Entry, i int) Adjacent {
	var adj Adjacent
	if i > 0 {
		prev := entries[i-1]
		adj.Previous = &prev
	}
	if i >= 0 && i < len(entries)-1 {
		next := entries[i+1]
		adj.Next = &next
	}
	return adj
}
