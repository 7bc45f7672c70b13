package domain

import "time"

type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusSuspended EnrollmentStatus = "SUSPENDED"
	EnrollmentStatusCompleted EnrollmentStatus = "COMPLETED"
	EnrollmentStatusExpired   EnrollmentStatus = "EXPIRED"
)

type Enrollment struct {
	ID               string           `json:"id"`
	UserID           string           `json:"userId"`
	CourseID         string           `json:"courseId"`
	Status           EnrollmentStatus `json:"status"`
	PaymentConfirmed bool             `json:"paymentConfirmed"`
	EnrolledAt       time.Time        `json:"enrolledAt"`
	ExpiresAt        *time.Time       `json:"expiresAt,omitempty"`
	CompletedAt      *time.Time       `json:"completedAt,omitempty"`
	Course           *Course          `json:"course,omitempty"`
	User             *User            `json:"user,omitempty"`
	Progress         *CourseProgress  `json:"progress,omitempty"`
}

type CreateEnrollmentInput struct {
	UserID           string     `json:"userId" validate:"required"`
	CourseID         string     `json:"courseId" validate:"required"`
	PaymentConfirmed bool       `json:"paymentConfirmed"`
	ExpiresAt        *time.Time `json:"expiresAt,omitempty"`
}

type EnrollmentFilters struct {
	UserID   string           `json:"userId,omitempty"`
	CourseID string           `json:"courseId,omitempty"`
	Status   EnrollmentStatus `json:"status,omitempty"`
	Page     int              `json:"page,omitempty"`
	Limit    int              `json:"limit,omitempty"`
}

type CourseProgress struct {
	CourseID         string  `json:"courseId"`
	CompletedLessons int     `json:"completedLessons"`
	TotalLessons     int     `json:"totalLessons"`
	Percentage       float64 `json:"percentage"`
	LastLessonID     string  `json:"lastLessonId,omitempty"`
}

type LiveSession struct {
	ID         string    `json:"id"`
	CourseID   string    `json:"courseId"`
	Topic      string    `json:"topic"`
	StartsAt   time.Time `json:"startsAt"`
	EndsAt     time.Time `json:"endsAt"`
	MeetingURL string    `json:"meetingUrl"`
}

type CreateLiveSessionInput struct {
	CourseID   string    `json:"courseId" validate:"required"`
	Topic      string    `json:"topic" validate:"required,notblank,max=200"`
	StartsAt   time.Time `json:"startsAt" validate:"required"`
	EndsAt     time.Time `json:"endsAt" validate:"required,gtfield=StartsAt"`
	MeetingURL string    `json:"meetingUrl" validate:"required,url"`
}

type NotificationType string

const (
	NotificationTypeCourse     NotificationType = "COURSE"
	NotificationTypeEnrollment NotificationType = "ENROLLMENT"
	NotificationTypeLive       NotificationType = "LIVE_SESSION"
	NotificationTypeSystem     NotificationType = "SYSTEM"
)

type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
}

// StudentProfile aggregates everything the student dashboard shows.
type StudentProfile struct {
	User             User          `json:"user"`
	Enrollments      []Enrollment  `json:"enrollments"`
	CompletedCourses int           `json:"completedCourses"`
	ActiveCourses    int           `json:"activeCourses"`
	QuizAttempts     []QuizAttempt `json:"quizAttempts,omitempty"`
	UpcomingSessions []LiveSession `json:"upcomingSessions,omitempty"`
}

// Page is the pagination envelope used by list endpoints.
type Page[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

type CreateUserInput struct {
	Email     string   `json:"email" validate:"required,email"`
	Password  string   `json:"password" validate:"required,min=8"`
	FirstName string   `json:"firstName" validate:"required,notblank"`
	LastName  string   `json:"lastName" validate:"required,notblank"`
	Phone     string   `json:"phone,omitempty" validate:"omitempty,e164"`
	Roles     []string `json:"roles" validate:"required,min=1,all_roles"`
}

type UserFilters struct {
	Search string     `json:"search,omitempty"`
	Role   string     `json:"role,omitempty"`
	Status UserStatus `json:"status,omitempty"`
	Page   int        `json:"page,omitempty"`
	Limit  int        `json:"limit,omitempty"`
}

type UpdateUserInput struct {
	FirstName *string     `json:"firstName,omitempty" validate:"omitempty,notblank"`
	LastName  *string     `json:"lastName,omitempty" validate:"omitempty,notblank"`
	Phone     *string     `json:"phone,omitempty" validate:"omitempty,e164"`
	Status    *UserStatus `json:"status,omitempty" validate:"omitempty,oneof=ACTIVE INACTIVE SUSPENDED"`
	Roles     []string    `json:"roles,omitempty" validate:"omitempty,min=1,all_roles"`
}

// UnreadCount is the notification badge counter.
type UnreadCount struct {
	Count int `json:"count"`
}
