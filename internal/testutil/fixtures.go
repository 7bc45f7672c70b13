package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"aula-lms/internal/domain"
)

// Counter for generating unique IDs
var idCounter atomic.Int64

// nextID generates a unique ID for test fixtures
func nextID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, idCounter.Add(1))
}

// UserOptions allows customizing user fixture creation
type UserOptions struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	Roles     []domain.Role
	CreatedAt time.Time
}

// NewTestUser creates a student with sensible defaults
// Pass options to override specific fields
func NewTestUser(opts ...func(*UserOptions)) *domain.User {
	o := &UserOptions{
		ID:        nextID("user"),
		FirstName: "Test",
		LastName:  fmt.Sprintf("User%d", idCounter.Load()),
		Roles:     []domain.Role{domain.RoleStudent},
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.Email == "" {
		o.Email = fmt.Sprintf("%s@example.com", o.ID)
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}

	roles := make([]domain.UserRole, len(o.Roles))
	for i, r := range o.Roles {
		roles[i] = domain.UserRole{ID: nextID("role"), Name: r}
	}

	return &domain.User{
		ID:        o.ID,
		Email:     o.Email,
		FirstName: o.FirstName,
		LastName:  o.LastName,
		Status:    domain.UserStatusActive,
		Roles:     roles,
		CreatedAt: o.CreatedAt,
	}
}

// WithEmail sets the email
func WithEmail(email string) func(*UserOptions) {
	return func(o *UserOptions) {
		o.Email = email
	}
}

// WithRoles replaces the user's roles; pass none for a role-less user
func WithRoles(roles ...domain.Role) func(*UserOptions) {
	return func(o *UserOptions) {
		o.Roles = roles
	}
}

// NewTestAdmin creates a user holding only the admin role
func NewTestAdmin(opts ...func(*UserOptions)) *domain.User {
	return NewTestUser(append([]func(*UserOptions){WithRoles(domain.RoleAdmin)}, opts...)...)
}

// NewTestToken signs a JWT for sub expiring at exp. A zero exp omits the claim.
func NewTestToken(sub string, exp time.Time) string {
	claims := jwt.MapClaims{"sub": sub, "iat": time.Now().Unix()}
	if !exp.IsZero() {
		claims["exp"] = exp.Unix()
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		panic(err)
	}
	return token
}

// NewTestAuthResponse builds a login payload for user with a token valid for a day
func NewTestAuthResponse(user *domain.User) *domain.AuthResponse {
	return &domain.AuthResponse{
		AccessToken: NewTestToken(user.ID, time.Now().Add(24*time.Hour)),
		User:        user,
	}
}

// CourseOptions allows customizing course fixture creation
type CourseOptions struct {
	ID     string
	Title  string
	Status domain.CourseStatus
}

// NewTestCourse creates a published beginner course
func NewTestCourse(opts ...func(*CourseOptions)) domain.Course {
	o := &CourseOptions{
		ID:     nextID("course"),
		Title:  fmt.Sprintf("Test Course %d", idCounter.Load()),
		Status: domain.CourseStatusPublished,
	}

	for _, opt := range opts {
		opt(o)
	}

	now := time.Now()
	return domain.Course{
		ID:           o.ID,
		Title:        o.Title,
		Slug:         fmt.Sprintf("test-course-%d", idCounter.Load()),
		Level:        domain.CourseLevelBeginner,
		Status:       o.Status,
		CategoryID:   nextID("category"),
		InstructorID: nextID("instructor"),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// WithCourseID sets the course ID
func WithCourseID(id string) func(*CourseOptions) {
	return func(o *CourseOptions) {
		o.ID = id
	}
}

// WithCourseTitle sets the course title
func WithCourseTitle(title string) func(*CourseOptions) {
	return func(o *CourseOptions) {
		o.Title = title
	}
}

// NewTestEnrollment enrolls userID in courseID
func NewTestEnrollment(userID, courseID string) domain.Enrollment {
	return domain.Enrollment{
		ID:               nextID("enrollment"),
		UserID:           userID,
		CourseID:         courseID,
		Status:           domain.EnrollmentStatusActive,
		PaymentConfirmed: true,
		EnrolledAt:       time.Now(),
	}
}

// NewTestCourses creates multiple test courses
func NewTestCourses(count int) []domain.Course {
	courses := make([]domain.Course, count)
	for i := 0; i < count; i++ {
		courses[i] = NewTestCourse()
	}
	return courses
}

// NewTestPage wraps items in a single-page envelope
func NewTestPage[T any](items []T) domain.Page[T] {
	return domain.Page[T]{
		Data:       items,
		Total:      len(items),
		Page:       1,
		Limit:      len(items),
		TotalPages: 1,
	}
}

