package validation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aula-lms/internal/domain"
)

func validCourse() domain.CreateCourseInput {
	return domain.CreateCourseInput{
		Title:        "Go for Backend Developers",
		Slug:         "go-for-backend-developers",
		Level:        domain.CourseLevelBeginner,
		CategoryID:   "cat-1",
		InstructorID: "ins-1",
	}
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr), "expected *domain.ValidationError, got %T", err)
	return verr.Fields
}

func TestStruct_ValidInput(t *testing.T) {
	assert.NoError(t, Struct(validCourse()))
}

func TestStruct_CourseFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *domain.CreateCourseInput)
		field  string
	}{
		{"missing_title", func(in *domain.CreateCourseInput) { in.Title = "" }, "title"},
		{"blank_title", func(in *domain.CreateCourseInput) { in.Title = "   " }, "title"},
		{"bad_slug", func(in *domain.CreateCourseInput) { in.Slug = "Go For Devs" }, "slug"},
		{"trailing_hyphen_slug", func(in *domain.CreateCourseInput) { in.Slug = "go-" }, "slug"},
		{"unknown_level", func(in *domain.CreateCourseInput) { in.Level = "EXPERT" }, "level"},
		{"bad_thumbnail", func(in *domain.CreateCourseInput) { in.ThumbnailURL = "not a url" }, "thumbnailUrl"},
		{"negative_price", func(in *domain.CreateCourseInput) { in.Price = -1 }, "price"},
		{"missing_category", func(in *domain.CreateCourseInput) { in.CategoryID = "" }, "categoryId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validCourse()
			tt.mutate(&in)

			err := Struct(in)

			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidInput))
			assert.Contains(t, fieldsOf(t, err), tt.field)
		})
	}
}

func TestStruct_CustomMessages(t *testing.T) {
	in := validCourse()
	in.Title = "  "
	in.Slug = "Bad Slug"

	fields := fieldsOf(t, Struct(in))

	assert.Equal(t, "title cannot be blank", fields["title"])
	assert.Equal(t, "slug must contain only lowercase letters, digits and hyphens", fields["slug"])
}

func TestStruct_AllRoles(t *testing.T) {
	in := domain.CreateUserInput{
		Email:     "ana@aula.dev",
		Password:  "s3cretpass",
		FirstName: "Ana",
		LastName:  "Souza",
		Roles:     []string{"STUDENT"},
	}
	assert.NoError(t, Struct(in))

	in.Roles = []string{"STUDENT", "INSTRUCTOR"}
	fields := fieldsOf(t, Struct(in))
	assert.Equal(t, "invalid roles", fields["roles"])
}

func TestStruct_LessonContentByType(t *testing.T) {
	in := domain.CreateLessonInput{
		ModuleID: "mod-1",
		Title:    "Intro",
		Type:     domain.LessonTypeVideo,
		Order:    1,
	}

	fields := fieldsOf(t, Struct(in))
	assert.Contains(t, fields, "videoUrl")
	assert.NotContains(t, fields, "fileUrl")

	in.VideoURL = "https://aula.b-cdn.net/videos/intro.mp4"
	assert.NoError(t, Struct(in))
}

func TestStruct_NestedFieldPath(t *testing.T) {
	in := domain.CreateQuestionInput{
		QuizID: "quiz-1",
		Text:   "Which keyword starts a goroutine?",
		Type:   domain.QuestionTypeSingle,
		Weight: 1,
		Order:  1,
		Options: []domain.AnswerOptionInput{
			{Text: "go", IsCorrect: true},
			{Text: " "},
		},
	}

	fields := fieldsOf(t, Struct(in))

	assert.Contains(t, fields, "answerOptions[1].text")
}

func TestStruct_LiveSessionWindow(t *testing.T) {
	start := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	in := domain.CreateLiveSessionInput{
		CourseID:   "course-1",
		Topic:      "Office hours",
		StartsAt:   start,
		EndsAt:     start.Add(-time.Hour),
		MeetingURL: "https://meet.aula.dev/abc",
	}

	assert.Contains(t, fieldsOf(t, Struct(in)), "endsAt")

	in.EndsAt = start.Add(time.Hour)
	assert.NoError(t, Struct(in))
}
