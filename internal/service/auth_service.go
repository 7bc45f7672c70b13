package service

import (
	"context"

	"aula-lms/internal/domain"
	"aula-lms/internal/querycache"
)

type AuthService struct {
	*base
	profileChanged func(ctx context.Context, user *domain.User)
}

// OnProfileChange registers fn to run after a successful profile update,
// typically the session's SetUser.
func (s *AuthService) OnProfileChange(fn func(ctx context.Context, user *domain.User)) {
	s.profileChanged = fn
}

// Login exchanges credentials for a token. Backend errors come back
// unchanged and nothing is validated locally; the session store reports
// the outcome.
func (s *AuthService) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResponse, error) {
	var resp domain.AuthResponse
	if err := s.api.Post(ctx, "/auth/login", creds, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func profileKey() querycache.Key {
	return querycache.NewKey(keyAuth, "profile")
}

func (s *AuthService) Profile(ctx context.Context) (*domain.User, error) {
	return fetch[*domain.User](ctx, s.base, profileKey(), "/auth/profile", nil)
}

func (s *AuthService) UpdateProfile(ctx context.Context, in domain.UpdateProfileInput) (*domain.User, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	var user domain.User
	if err := s.api.Patch(ctx, "/auth/profile", in, &user); err != nil {
		return nil, s.fail(ctx, err, "Could not update your profile")
	}

	s.cache.SetData(profileKey(), &user)
	s.invalidate(keyUsers, keyStudents)
	if s.profileChanged != nil {
		s.profileChanged(ctx, &user)
	}
	s.notify.Success("Profile updated")
	return &user, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, in domain.ChangePasswordInput) error {
	if err := s.validate(ctx, in); err != nil {
		return err
	}

	if err := s.api.Post(ctx, "/auth/change-password", in, nil); err != nil {
		return s.fail(ctx, err, "Could not change your password")
	}

	s.notify.Success("Password changed")
	return nil
}
