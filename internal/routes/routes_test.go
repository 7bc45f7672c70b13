package routes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetailPaths(t *testing.T) {
	assert.Equal(t, "/admin/courses/c1", AdminCourse("c1"))
	assert.Equal(t, "/admin/courses/c1/modules/m2", AdminModule("c1", "m2"))
	assert.Equal(t, "/admin/users/u1", AdminUser("u1"))
	assert.Equal(t, "/student/courses/c1/lessons/l3", StudentLesson("c1", "l3"))
	assert.Equal(t, "/student/courses/c1/quizzes/q4", StudentQuiz("c1", "q4"))
	assert.Equal(t, "/student/courses/a%2Fb", StudentCourse("a/b"))
}

func TestSections(t *testing.T) {
	tests := []struct {
		path    string
		admin   bool
		student bool
	}{
		{AdminDashboard, true, false},
		{AdminCourse("x"), true, false},
		{"/administrator", false, false},
		{StudentProfile, false, true},
		{"/students", false, false},
		{Login, false, false},
		{"/admin", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.admin, IsAdmin(tt.path))
			assert.Equal(t, tt.student, IsStudent(tt.path))
		})
	}
}
