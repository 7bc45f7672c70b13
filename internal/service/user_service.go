package service

import (
	"context"

	"aula-lms/internal/api"
	"aula-lms/internal/domain"
	"aula-lms/internal/querycache"
)

type UserService struct{ *base }

func (s *UserService) List(ctx context.Context, filters domain.UserFilters) (domain.Page[domain.User], error) {
	key := querycache.NewKey(keyUsers, "list", filters)
	return fetch[domain.Page[domain.User]](ctx, s.base, key, "/users", api.EncodeQuery(filters))
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	key := querycache.NewKey(keyUsers, "detail", id)
	return fetch[*domain.User](ctx, s.base, key, "/users/"+escape(id), nil)
}

func (s *UserService) Create(ctx context.Context, in domain.CreateUserInput) (*domain.User, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	var user domain.User
	if err := s.api.Post(ctx, "/users", in, &user); err != nil {
		return nil, s.fail(ctx, err, "Could not create the user")
	}

	s.invalidate(keyUsers)
	s.notify.Success("User created")
	return &user, nil
}

func (s *UserService) Update(ctx context.Context, id string, in domain.UpdateUserInput) (*domain.User, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	var user domain.User
	if err := s.api.Patch(ctx, "/users/"+escape(id), in, &user); err != nil {
		return nil, s.fail(ctx, err, "Could not update the user")
	}

	s.invalidate(keyUsers, keyEnrollments)
	s.notify.Success("User updated")
	return &user, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.api.Delete(ctx, "/users/"+escape(id)); err != nil {
		return s.fail(ctx, err, "Could not delete the user")
	}

	s.invalidate(keyUsers, keyEnrollments)
	s.notify.Success("User deleted")
	return nil
}
