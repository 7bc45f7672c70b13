package service

import (
	"context"
	"net/url"
	"strconv"

	"aula-lms/internal/domain"
	"aula-lms/internal/querycache"
)

type NotificationService struct{ *base }

func (s *NotificationService) List(ctx context.Context, unreadOnly bool) ([]domain.Notification, error) {
	var query url.Values
	if unreadOnly {
		query = url.Values{"unread": {strconv.FormatBool(true)}}
	}
	key := querycache.NewKey(keyNotifications, "list", strconv.FormatBool(unreadOnly))
	return fetch[[]domain.Notification](ctx, s.base, key, "/notifications", query)
}

func (s *NotificationService) UnreadCount(ctx context.Context) (int, error) {
	key := querycache.NewKey(keyNotifications, "unread-count")
	count, err := fetch[domain.UnreadCount](ctx, s.base, key, "/notifications/unread-count", nil)
	return count.Count, err
}

func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	if err := s.api.Patch(ctx, "/notifications/"+escape(id)+"/read", nil, nil); err != nil {
		return s.fail(ctx, err, "Could not mark the notification as read")
	}

	s.invalidate(keyNotifications)
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context) error {
	if err := s.api.Patch(ctx, "/notifications/read-all", nil, nil); err != nil {
		return s.fail(ctx, err, "Could not mark notifications as read")
	}

	s.invalidate(keyNotifications)
	s.notify.Success("All notifications marked as read")
	return nil
}
