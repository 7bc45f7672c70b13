package domain

import "time"

type CourseLevel string

const (
	CourseLevelBeginner     CourseLevel = "BEGINNER"
	CourseLevelIntermediate CourseLevel = "INTERMEDIATE"
	CourseLevelAdvanced     CourseLevel = "ADVANCED"
)

type CourseStatus string

const (
	CourseStatusDraft     CourseStatus = "DRAFT"
	CourseStatusPublished CourseStatus = "PUBLISHED"
	CourseStatusArchived  CourseStatus = "ARCHIVED"
)

// Course represents a catalog entry
type Course struct {
	ID               string       `json:"id"`
	Title            string       `json:"title"`
	Slug             string       `json:"slug"`
	Summary          string       `json:"summary,omitempty"`
	Description      string       `json:"description,omitempty"`
	Level            CourseLevel  `json:"level"`
	Status           CourseStatus `json:"status"`
	ThumbnailURL     string       `json:"thumbnailUrl,omitempty"`
	EstimatedHours   int          `json:"estimatedHours,omitempty"`
	Price            float64      `json:"price,omitempty"`
	CategoryID       string       `json:"categoryId"`
	InstructorID     string       `json:"instructorId"`
	Category         *Category    `json:"category,omitempty"`
	Instructor       *Instructor  `json:"instructor,omitempty"`
	ModulesCount     int          `json:"modulesCount,omitempty"`
	EnrollmentsCount int          `json:"enrollmentsCount,omitempty"`
	PublishedAt      *time.Time   `json:"publishedAt,omitempty"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

// CourseFilters are the list query parameters the backend accepts.
type CourseFilters struct {
	Search       string       `json:"search,omitempty"`
	Level        CourseLevel  `json:"level,omitempty"`
	Status       CourseStatus `json:"status,omitempty"`
	CategoryID   string       `json:"categoryId,omitempty"`
	InstructorID string       `json:"instructorId,omitempty"`
	Page         int          `json:"page,omitempty"`
	Limit        int          `json:"limit,omitempty"`
}

type CreateCourseInput struct {
	Title          string       `json:"title" validate:"required,notblank,max=200"`
	Slug           string       `json:"slug" validate:"required,slug"`
	Summary        string       `json:"summary,omitempty" validate:"omitempty,max=500"`
	Description    string       `json:"description,omitempty"`
	Level          CourseLevel  `json:"level" validate:"required,oneof=BEGINNER INTERMEDIATE ADVANCED"`
	Status         CourseStatus `json:"status,omitempty" validate:"omitempty,oneof=DRAFT PUBLISHED ARCHIVED"`
	ThumbnailURL   string       `json:"thumbnailUrl,omitempty" validate:"omitempty,url"`
	EstimatedHours int          `json:"estimatedHours,omitempty" validate:"gte=0"`
	Price          float64      `json:"price,omitempty" validate:"gte=0"`
	CategoryID     string       `json:"categoryId" validate:"required"`
	InstructorID   string       `json:"instructorId" validate:"required"`
}

type UpdateCourseInput struct {
	Title          *string       `json:"title,omitempty" validate:"omitempty,notblank,max=200"`
	Summary        *string       `json:"summary,omitempty" validate:"omitempty,max=500"`
	Description    *string       `json:"description,omitempty"`
	Level          *CourseLevel  `json:"level,omitempty" validate:"omitempty,oneof=BEGINNER INTERMEDIATE ADVANCED"`
	Status         *CourseStatus `json:"status,omitempty" validate:"omitempty,oneof=DRAFT PUBLISHED ARCHIVED"`
	ThumbnailURL   *string       `json:"thumbnailUrl,omitempty" validate:"omitempty,url"`
	EstimatedHours *int          `json:"estimatedHours,omitempty" validate:"omitempty,gte=0"`
	Price          *float64      `json:"price,omitempty" validate:"omitempty,gte=0"`
	CategoryID     *string       `json:"categoryId,omitempty"`
	InstructorID   *string       `json:"instructorId,omitempty"`
}

type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"isActive"`
}

type Instructor struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
	Bio       string `json:"bio,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// Module groups lessons inside a course.
type Module struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"courseId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Order       int       `json:"order"`
	IsRequired  bool      `json:"isRequired"`
	Lessons     []Lesson  `json:"lessons,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type CreateModuleInput struct {
	CourseID    string `json:"courseId" validate:"required"`
	Title       string `json:"title" validate:"required,notblank,max=200"`
	Description string `json:"description,omitempty"`
	Order       int    `json:"order" validate:"gte=1"`
	IsRequired  bool   `json:"isRequired"`
}

type LessonType string

const (
	LessonTypeVideo LessonType = "VIDEO"
	LessonTypeText  LessonType = "TEXT"
	LessonTypePDF   LessonType = "PDF"
)

type Lesson struct {
	ID              string     `json:"id"`
	ModuleID        string     `json:"moduleId"`
	Title           string     `json:"title"`
	Type            LessonType `json:"type"`
	Order           int        `json:"order"`
	DurationSeconds int        `json:"durationSec,omitempty"`
	VideoURL        string     `json:"videoUrl,omitempty"`
	FileURL         string     `json:"fileUrl,omitempty"`
	MarkdownContent string     `json:"markdownContent,omitempty"`
	IsPreview       bool       `json:"isPreview"`
	Completed       bool       `json:"completed,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

type CreateLessonInput struct {
	ModuleID        string     `json:"moduleId" validate:"required"`
	Title           string     `json:"title" validate:"required,notblank,max=200"`
	Type            LessonType `json:"type" validate:"required,oneof=VIDEO TEXT PDF"`
	Order           int        `json:"order" validate:"gte=1"`
	DurationSeconds int        `json:"durationSec,omitempty" validate:"gte=0"`
	VideoURL        string     `json:"videoUrl,omitempty" validate:"required_if=Type VIDEO"`
	FileURL         string     `json:"fileUrl,omitempty" validate:"required_if=Type PDF"`
	MarkdownContent string     `json:"markdownContent,omitempty" validate:"required_if=Type TEXT"`
	IsPreview       bool       `json:"isPreview"`
}

type CreateCategoryInput struct {
	Name        string `json:"name" validate:"required,notblank,max=100"`
	Slug        string `json:"slug" validate:"required,slug"`
	Description string `json:"description,omitempty" validate:"omitempty,max=500"`
}

type UpdateModuleInput struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,notblank,max=200"`
	Description *string `json:"description,omitempty"`
	Order       *int    `json:"order,omitempty" validate:"omitempty,gte=1"`
	IsRequired  *bool   `json:"isRequired,omitempty"`
}

type UpdateLessonInput struct {
	Title           *string `json:"title,omitempty" validate:"omitempty,notblank,max=200"`
	Order           *int    `json:"order,omitempty" validate:"omitempty,gte=1"`
	DurationSeconds *int    `json:"durationSec,omitempty" validate:"omitempty,gte=0"`
	VideoURL        *string `json:"videoUrl,omitempty" validate:"omitempty,url"`
	FileURL         *string `json:"fileUrl,omitempty" validate:"omitempty,url"`
	MarkdownContent *string `json:"markdownContent,omitempty"`
	IsPreview       *bool   `json:"isPreview,omitempty"`
}
