package service

import (
	"context"

	"aula-lms/internal/domain"
	"aula-lms/internal/querycache"
)

type ModuleService struct{ *base }

func (s *ModuleService) ListByCourse(ctx context.Context, courseID string) ([]domain.Module, error) {
	key := querycache.NewKey(keyModules, "course", courseID)
	return fetch[[]domain.Module](ctx, s.base, key, "/courses/"+escape(courseID)+"/modules", nil)
}

func (s *ModuleService) Create(ctx context.Context, in domain.CreateModuleInput) (*domain.Module, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	var module domain.Module
	if err := s.api.Post(ctx, "/modules", in, &module); err != nil {
		return nil, s.fail(ctx, err, "Could not create the module")
	}

	s.invalidate(keyModules, keyCourses)
	s.notify.Success("Module created")
	return &module, nil
}

func (s *ModuleService) Update(ctx context.Context, id string, in domain.UpdateModuleInput) (*domain.Module, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	var module domain.Module
	if err := s.api.Patch(ctx, "/modules/"+escape(id), in, &module); err != nil {
		return nil, s.fail(ctx, err, "Could not update the module")
	}

	s.invalidate(keyModules)
	s.notify.Success("Module updated")
	return &module, nil
}

// Reorder sets the module order of a course to moduleIDs.
func (s *ModuleService) Reorder(ctx context.Context, courseID string, moduleIDs []string) error {
	body := map[string][]string{"moduleIds": moduleIDs}
	if err := s.api.Patch(ctx, "/courses/"+escape(courseID)+"/modules/reorder", body, nil); err != nil {
		return s.fail(ctx, err, "Could not reorder the modules")
	}

	s.invalidate(keyModules)
	return nil
}

func (s *ModuleService) Delete(ctx context.Context, id string) error {
	if err := s.api.Delete(ctx, "/modules/"+escape(id)); err != nil {
		return s.fail(ctx, err, "Could not delete the module")
	}

	s.invalidate(keyModules, keyLessons, keyCourses)
	s.notify.Success("Module deleted")
	return nil
}

type LessonService struct{ *base }

func (s *LessonService) ListByModule(ctx context.Context, moduleID string) ([]domain.Lesson, error) {
	key := querycache.NewKey(keyLessons, "module", moduleID)
	return fetch[[]domain.Lesson](ctx, s.base, key, "/modules/"+escape(moduleID)+"/lessons", nil)
}

func (s *LessonService) Get(ctx context.Context, id string) (*domain.Lesson, error) {
	key := querycache.NewKey(keyLessons, "detail", id)
	return fetch[*domain.Lesson](ctx, s.base, key, "/lessons/"+escape(id), nil)
}

func (s *LessonService) Create(ctx context.Context, in domain.CreateLessonInput) (*domain.Lesson, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	var lesson domain.Lesson
	if err := s.api.Post(ctx, "/lessons", in, &lesson); err != nil {
		return nil, s.fail(ctx, err, "Could not create the lesson")
	}

	s.invalidate(keyLessons, keyModules)
	s.notify.Success("Lesson created")
	return &lesson, nil
}

func (s *LessonService) Update(ctx context.Context, id string, in domain.UpdateLessonInput) (*domain.Lesson, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	var lesson domain.Lesson
	if err := s.api.Patch(ctx, "/lessons/"+escape(id), in, &lesson); err != nil {
		return nil, s.fail(ctx, err, "Could not update the lesson")
	}

	s.invalidate(keyLessons, keyModules)
	s.notify.Success("Lesson updated")
	return &lesson, nil
}

func (s *LessonService) Delete(ctx context.Context, id string) error {
	if err := s.api.Delete(ctx, "/lessons/"+escape(id)); err != nil {
		return s.fail(ctx, err, "Could not delete the lesson")
	}

	s.invalidate(keyLessons, keyModules)
	s.notify.Success("Lesson deleted")
	return nil
}

// Complete marks a lesson done for the signed-in student. Progress lives
// on enrollments and the student profile, so both are refreshed.
func (s *LessonService) Complete(ctx context.Context, id string) (*domain.CourseProgress, error) {
	var progress domain.CourseProgress
	if err := s.api.Post(ctx, "/lessons/"+escape(id)+"/complete", nil, &progress); err != nil {
		return nil, s.fail(ctx, err, "Could not mark the lesson as completed")
	}

	s.invalidate(keyLessons, keyEnrollments, keyStudents)
	s.notify.Success("Lesson completed")
	return &progress, nil
}

type QuizService struct{ *base }

func (s *QuizService) Get(ctx context.Context, id string) (*domain.Quiz, error) {
	key := querycache.NewKey(keyQuizzes, "detail", id)
	return fetch[*domain.Quiz](ctx, s.base, key, "/quizzes/"+escape(id), nil)
}

func (s *QuizService) ListByModule(ctx context.Context, moduleID string) ([]domain.Quiz, error) {
	key := querycache.NewKey(keyQuizzes, "module", moduleID)
	return fetch[[]domain.Quiz](ctx, s.base, key, "/modules/"+escape(moduleID)+"/quizzes", nil)
}

func (s *QuizService) Attempts(ctx context.Context, quizID string) ([]domain.QuizAttempt, error) {
	key := querycache.NewKey(keyQuizzes, "attempts", quizID)
	return fetch[[]domain.QuizAttempt](ctx, s.base, key, "/quizzes/"+escape(quizID)+"/attempts", nil)
}

func (s *QuizService) Create(ctx context.Context, in domain.CreateQuizInput) (*domain.Quiz, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	var quiz domain.Quiz
	if err := s.api.Post(ctx, "/quizzes", in, &quiz); err != nil {
		return nil, s.fail(ctx, err, "Could not create the quiz")
	}

	s.invalidate(keyQuizzes)
	s.notify.Success("Quiz created")
	return &quiz, nil
}

func (s *QuizService) AddQuestion(ctx context.Context, in domain.CreateQuestionInput) (*domain.Question, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	var question domain.Question
	if err := s.api.Post(ctx, "/quizzes/"+escape(in.QuizID)+"/questions", in, &question); err != nil {
		return nil, s.fail(ctx, err, "Could not add the question")
	}

	s.invalidate(keyQuizzes)
	s.notify.Success("Question added")
	return &question, nil
}

func (s *QuizService) Submit(ctx context.Context, in domain.QuizSubmission) (*domain.QuizAttempt, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	var attempt domain.QuizAttempt
	if err := s.api.Post(ctx, "/quizzes/"+escape(in.QuizID)+"/submit", in, &attempt); err != nil {
		return nil, s.fail(ctx, err, "Could not submit the quiz")
	}

	s.invalidate(keyQuizzes, keyStudents, keyEnrollments)
	if attempt.Passed {
		s.notify.Success("Quiz passed")
	} else {
		s.notify.Success("Quiz submitted")
	}
	return &attempt, nil
}
