// Package routes is the client route table.
package routes

import "net/url"

const (
	Login        = "/login"
	Unauthorized = "/unauthorized"

	AdminDashboard   = "/admin/dashboard"
	AdminCourses     = "/admin/courses"
	AdminUsers       = "/admin/users"
	AdminEnrollments = "/admin/enrollments"

	StudentDashboard = "/student/dashboard"
	StudentCourses   = "/student/courses"
	StudentProfile   = "/student/profile"
)

// AdminCourse is the authoring view of one course.
func AdminCourse(courseID string) string {
	return AdminCourses + "/" + url.PathEscape(courseID)
}

// AdminModule is the authoring view of a module inside a course.
func AdminModule(courseID, moduleID string) string {
	return AdminCourse(courseID) + "/modules/" + url.PathEscape(moduleID)
}

func AdminUser(userID string) string {
	return AdminUsers + "/" + url.PathEscape(userID)
}

func StudentCourse(courseID string) string {
	return StudentCourses + "/" + url.PathEscape(courseID)
}

func StudentLesson(courseID, lessonID string) string {
	return StudentCourse(courseID) + "/lessons/" + url.PathEscape(lessonID)
}

func StudentQuiz(courseID, quizID string) string {
	return StudentCourse(courseID) + "/quizzes/" + url.PathEscape(quizID)
}

// IsAdmin reports whether path belongs to the admin area.
func IsAdmin(path string) bool {
	return hasSection(path, "/admin")
}

// IsStudent reports whether path belongs to the student area.
func IsStudent(path string) bool {
	return hasSection(path, "/student")
}

func hasSection(path, section string) bool {
	if len(path) < len(section) || path[:len(section)] != section {
		return false
	}
	return len(path) == len(section) || path[len(section)] == '/'
}
