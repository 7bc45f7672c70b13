// Package service holds one data service per backend domain. Reads go
// through the shared query cache; mutations validate their input, call the
// backend, invalidate the affected cache domains and report the outcome
// through a Notifier.
package service

import (
	"context"
	"net/url"

	"aula-lms/internal/domain"
	"aula-lms/internal/observability"
	"aula-lms/internal/querycache"
	"aula-lms/internal/validation"
)

// Cache key domains
const (
	keyAuth          = "auth"
	keyUsers         = "users"
	keyCourses       = "courses"
	keyCategories    = "categories"
	keyInstructors   = "instructors"
	keyModules       = "modules"
	keyLessons       = "lessons"
	keyQuizzes       = "quizzes"
	keyEnrollments   = "enrollments"
	keyLiveSessions  = "live-sessions"
	keyNotifications = "notifications"
	keyStudents      = "students"
)

// Domains lists every cache key domain, in the order the event feed
// documents them.
var Domains = []string{
	keyAuth, keyUsers, keyCourses, keyCategories, keyInstructors, keyModules,
	keyLessons, keyQuizzes, keyEnrollments, keyLiveSessions, keyNotifications, keyStudents,
}

// Backend is the REST surface the services use; *api.Client implements it.
type Backend interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Patch(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string) error
}

// Notifier shows short-lived success and error messages to the user.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

type base struct {
	api    Backend
	cache  *querycache.Client
	notify Notifier
}

// fail reports err with a readable message and hands it back unchanged.
func (b *base) fail(ctx context.Context, err error, fallback string) error {
	msg := domain.ErrorMessage(err, fallback)
	observability.FromContext(ctx).Warn("request failed",
		"message", msg,
		"status", domain.StatusCode(err),
		"error", err,
	)
	b.notify.Error(msg)
	return err
}

// validate checks input before it reaches the backend.
func (b *base) validate(ctx context.Context, input any) error {
	if err := validation.Struct(input); err != nil {
		return b.fail(ctx, err, "Please check the form")
	}
	return nil
}

func (b *base) invalidate(domains ...string) {
	for _, d := range domains {
		b.cache.Invalidate(querycache.NewKey(d))
	}
}

// fetch reads path through the cache under key.
func fetch[T any](ctx context.Context, b *base, key querycache.Key, path string, query url.Values) (T, error) {
	return querycache.Fetch(ctx, b.cache, key, func(ctx context.Context) (T, error) {
		var out T
		err := b.api.Get(ctx, path, query, &out)
		return out, err
	})
}

// Services bundles every domain service over one backend, cache and notifier.
type Services struct {
	Auth          *AuthService
	Users         *UserService
	Courses       *CourseService
	Categories    *CategoryService
	Instructors   *InstructorService
	Modules       *ModuleService
	Lessons       *LessonService
	Quizzes       *QuizService
	Enrollments   *EnrollmentService
	LiveSessions  *LiveSessionService
	Notifications *NotificationService
	Students      *StudentService
}

func New(api Backend, cache *querycache.Client, notify Notifier) *Services {
	b := &base{api: api, cache: cache, notify: notify}
	return &Services{
		Auth:          &AuthService{base: b},
		Users:         &UserService{b},
		Courses:       &CourseService{b},
		Categories:    &CategoryService{b},
		Instructors:   &InstructorService{b},
		Modules:       &ModuleService{b},
		Lessons:       &LessonService{b},
		Quizzes:       &QuizService{b},
		Enrollments:   &EnrollmentService{b},
		LiveSessions:  &LiveSessionService{b},
		Notifications: &NotificationService{b},
		Students:      &StudentService{b},
	}
}

func escape(id string) string {
	return url.PathEscape(id)
}
