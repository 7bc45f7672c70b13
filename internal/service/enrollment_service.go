package service

import (
	"context"

	"aula-lms/internal/api"
	"aula-lms/internal/domain"
	"aula-lms/internal/querycache"
)

type EnrollmentService struct{ *base }

func (s *EnrollmentService) List(ctx context.Context, filters domain.EnrollmentFilters) (domain.Page[domain.Enrollment], error) {
	key := querycache.NewKey(keyEnrollments, "list", filters)
	return fetch[domain.Page[domain.Enrollment]](ctx, s.base, key, "/enrollments", api.EncodeQuery(filters))
}

// Mine lists the signed-in student's enrollments.
func (s *EnrollmentService) Mine(ctx context.Context) ([]domain.Enrollment, error) {
	return fetch[[]domain.Enrollment](ctx, s.base, querycache.NewKey(keyEnrollments, "me"), "/enrollments/me", nil)
}

func (s *EnrollmentService) Progress(ctx context.Context, courseID string) (*domain.CourseProgress, error) {
	key := querycache.NewKey(keyEnrollments, "progress", courseID)
	return fetch[*domain.CourseProgress](ctx, s.base, key, "/enrollments/course/"+escape(courseID)+"/progress", nil)
}

func (s *EnrollmentService) Create(ctx context.Context, in domain.CreateEnrollmentInput) (*domain.Enrollment, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	var enrollment domain.Enrollment
	if err := s.api.Post(ctx, "/enrollments", in, &enrollment); err != nil {
		return nil, s.fail(ctx, err, "Could not enroll the student")
	}

	s.invalidate(keyEnrollments, keyCourses, keyStudents)
	s.notify.Success("Student enrolled")
	return &enrollment, nil
}

func (s *EnrollmentService) UpdateStatus(ctx context.Context, id string, status domain.EnrollmentStatus) (*domain.Enrollment, error) {
	var enrollment domain.Enrollment
	body := map[string]domain.EnrollmentStatus{"status": status}
	if err := s.api.Patch(ctx, "/enrollments/"+escape(id)+"/status", body, &enrollment); err != nil {
		return nil, s.fail(ctx, err, "Could not update the enrollment")
	}

	s.invalidate(keyEnrollments, keyStudents)
	s.notify.Success("Enrollment updated")
	return &enrollment, nil
}

func (s *EnrollmentService) Cancel(ctx context.Context, id string) error {
	if err := s.api.Delete(ctx, "/enrollments/"+escape(id)); err != nil {
		return s.fail(ctx, err, "Could not cancel the enrollment")
	}

	s.invalidate(keyEnrollments, keyCourses, keyStudents)
	s.notify.Success("Enrollment cancelled")
	return nil
}

type LiveSessionService struct{ *base }

func (s *LiveSessionService) ListByCourse(ctx context.Context, courseID string) ([]domain.LiveSession, error) {
	key := querycache.NewKey(keyLiveSessions, "course", courseID)
	return fetch[[]domain.LiveSession](ctx, s.base, key, "/courses/"+escape(courseID)+"/live-sessions", nil)
}

func (s *LiveSessionService) Upcoming(ctx context.Context) ([]domain.LiveSession, error) {
	key := querycache.NewKey(keyLiveSessions, "upcoming")
	return fetch[[]domain.LiveSession](ctx, s.base, key, "/live-sessions/upcoming", nil)
}

func (s *LiveSessionService) Create(ctx context.Context, in domain.CreateLiveSessionInput) (*domain.LiveSession, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	var live domain.LiveSession
	if err := s.api.Post(ctx, "/live-sessions", in, &live); err != nil {
		return nil, s.fail(ctx, err, "Could not schedule the live session")
	}

	s.invalidate(keyLiveSessions, keyStudents)
	s.notify.Success("Live session scheduled")
	return &live, nil
}

func (s *LiveSessionService) Delete(ctx context.Context, id string) error {
	if err := s.api.Delete(ctx, "/live-sessions/"+escape(id)); err != nil {
		return s.fail(ctx, err, "Could not delete the live session")
	}

	s.invalidate(keyLiveSessions, keyStudents)
	s.notify.Success("Live session deleted")
	return nil
}

type StudentService struct{ *base }

// Profile is the aggregate the student dashboard renders.
func (s *StudentService) Profile(ctx context.Context) (*domain.StudentProfile, error) {
	key := querycache.NewKey(keyStudents, "me", "profile")
	return fetch[*domain.StudentProfile](ctx, s.base, key, "/students/me/profile", nil)
}

func (s *StudentService) Courses(ctx context.Context) ([]domain.Course, error) {
	key := querycache.NewKey(keyStudents, "me", "courses")
	return fetch[[]domain.Course](ctx, s.base, key, "/students/me/courses", nil)
}

// Get is the admin view of one student.
func (s *StudentService) Get(ctx context.Context, userID string) (*domain.StudentProfile, error) {
	key := querycache.NewKey(keyStudents, "detail", userID)
	return fetch[*domain.StudentProfile](ctx, s.base, key, "/students/"+escape(userID)+"/profile", nil)
}
