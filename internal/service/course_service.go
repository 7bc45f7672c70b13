package service

import (
	"context"

	"aula-lms/internal/api"
	"aula-lms/internal/domain"
	"aula-lms/internal/querycache"
)

type CourseService struct{ *base }

func (s *CourseService) List(ctx context.Context, filters domain.CourseFilters) (domain.Page[domain.Course], error) {
	key := querycache.NewKey(keyCourses, "list", filters)
	return fetch[domain.Page[domain.Course]](ctx, s.base, key, "/courses", api.EncodeQuery(filters))
}

func (s *CourseService) Get(ctx context.Context, id string) (*domain.Course, error) {
	key := querycache.NewKey(keyCourses, "detail", id)
	return fetch[*domain.Course](ctx, s.base, key, "/courses/"+escape(id), nil)
}

func (s *CourseService) GetBySlug(ctx context.Context, slug string) (*domain.Course, error) {
	key := querycache.NewKey(keyCourses, "slug", slug)
	return fetch[*domain.Course](ctx, s.base, key, "/courses/slug/"+escape(slug), nil)
}

func (s *CourseService) Create(ctx context.Context, in domain.CreateCourseInput) (*domain.Course, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	var course domain.Course
	if err := s.api.Post(ctx, "/courses", in, &course); err != nil {
		return nil, s.fail(ctx, err, "Could not create the course")
	}

	s.invalidate(keyCourses, keyInstructors, keyCategories)
	s.notify.Success("Course created")
	return &course, nil
}

func (s *CourseService) Update(ctx context.Context, id string, in domain.UpdateCourseInput) (*domain.Course, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	var course domain.Course
	if err := s.api.Patch(ctx, "/courses/"+escape(id), in, &course); err != nil {
		return nil, s.fail(ctx, err, "Could not update the course")
	}

	s.invalidate(keyCourses)
	s.notify.Success("Course updated")
	return &course, nil
}

func (s *CourseService) Publish(ctx context.Context, id string) (*domain.Course, error) {
	var course domain.Course
	if err := s.api.Patch(ctx, "/courses/"+escape(id)+"/publish", nil, &course); err != nil {
		return nil, s.fail(ctx, err, "Could not publish the course")
	}

	s.invalidate(keyCourses)
	s.notify.Success("Course published")
	return &course, nil
}

func (s *CourseService) Delete(ctx context.Context, id string) error {
	if err := s.api.Delete(ctx, "/courses/"+escape(id)); err != nil {
		return s.fail(ctx, err, "Could not delete the course")
	}

	s.invalidate(keyCourses, keyModules, keyEnrollments, keyStudents)
	s.notify.Success("Course deleted")
	return nil
}

type CategoryService struct{ *base }

func (s *CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	return fetch[[]domain.Category](ctx, s.base, querycache.NewKey(keyCategories), "/categories", nil)
}

func (s *CategoryService) Create(ctx context.Context, in domain.CreateCategoryInput) (*domain.Category, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	var category domain.Category
	if err := s.api.Post(ctx, "/categories", in, &category); err != nil {
		return nil, s.fail(ctx, err, "Could not create the category")
	}

	s.invalidate(keyCategories)
	s.notify.Success("Category created")
	return &category, nil
}

func (s *CategoryService) Delete(ctx context.Context, id string) error {
	if err := s.api.Delete(ctx, "/categories/"+escape(id)); err != nil {
		return s.fail(ctx, err, "Could not delete the category")
	}

	s.invalidate(keyCategories, keyCourses)
	s.notify.Success("Category deleted")
	return nil
}

type InstructorService struct{ *base }

func (s *InstructorService) List(ctx context.Context) ([]domain.Instructor, error) {
	return fetch[[]domain.Instructor](ctx, s.base, querycache.NewKey(keyInstructors), "/instructors", nil)
}

func (s *InstructorService) Get(ctx context.Context, id string) (*domain.Instructor, error) {
	key := querycache.NewKey(keyInstructors, "detail", id)
	return fetch[*domain.Instructor](ctx, s.base, key, "/instructors/"+escape(id), nil)
}
