package handlers

import (
	"fmt"

	"github.com/waste3d/learnhub/pkg/course"
)

// Front-end routes differ by role: students browse under /dashboard and
// instructors under /instructor.
func areaPrefix(role course.Role) string {
	if role == course.RoleInstructor {
		return "/instructor"
	}
	return "/dashboard"
}

func courseHref(role course.Role, courseID course.ID) string {
	return fmt.Sprintf("%s/course/%d", areaPrefix(role), courseID)
}

func moduleListHref(role course.Role, courseID course.ID) string {
	return courseHref(role, courseID) + "/modules"
}

func lessonHref(role course.Role, courseID, moduleID, lessonID course.ID) string {
	return fmt.Sprintf("%s/modules/%d/lessons/%d", courseHref(role, courseID), moduleID, lessonID)
}

func coursesHref(role course.Role) string {
	return areaPrefix(role) + "/courses"
}
