package service

import (
	"context"
	"net/http"
	"net/url"
	"slices"

	"github.com/hireloop/hireloop-web/internal/gateway"
	"github.com/hireloop/hireloop-web/internal/model"
)

// Notifications is the notification client. Mark-read calls update the session's
// projection optimistically; List re-syncs it from the backend.
type Notifications struct {
	s *Session
}

// Notifications returns the notification client bound to s.
func (s *Session) Notifications() *Notifications {
	return &Notifications{s: s}
}

// List fetches the authoritative feed and replaces the projection with it.
func (n *Notifications) List(ctx context.Context) (model.NotificationFeed, error) {
	token, err := n.s.requireToken()
	if err != nil {
		return model.NotificationFeed{}, err
	}

	items := []model.Notification{}
	if err := n.s.api.Do(ctx, gateway.Request{Path: "/notifications", Action: "notifications"}, &items); err != nil {
		return model.NotificationFeed{}, err
	}

	n.s.updateNotifications(ctx, token, func([]model.Notification) []model.Notification {
		return slices.Clone(items)
	})
	return model.NewNotificationFeed(items), nil
}

// MarkRead flags one notification read.
func (n *Notifications) MarkRead(ctx context.Context, id string) (model.NotificationFeed, error) {
	token, err := n.s.requireToken()
	if err != nil {
		return model.NotificationFeed{}, err
	}
	if err := validateVar("id", id, "required"); err != nil {
		return model.NotificationFeed{}, err
	}

	feed := n.s.updateNotifications(ctx, token, func(items []model.Notification) []model.Notification {
		for i := range items {
			if items[i].ID == id {
				items[i].IsRead = true
			}
		}
		return items
	})

	err = n.s.api.Do(ctx, gateway.Request{
		Method: http.MethodPut,
		Path:   "/notifications/" + url.PathEscape(id) + "/read",
		Action: "notification-read:" + id,
	}, nil)
	return feed, err
}

// MarkAllRead flags every notification read.
func (n *Notifications) MarkAllRead(ctx context.Context) (model.NotificationFeed, error) {
	token, err := n.s.requireToken()
	if err != nil {
		return model.NotificationFeed{}, err
	}

	feed := n.s.updateNotifications(ctx, token, func(items []model.Notification) []model.Notification {
		for i := range items {
			items[i].IsRead = true
		}
		return items
	})

	err = n.s.api.Do(ctx, gateway.Request{
		Method: http.MethodPut,
		Path:   "/notifications/read-all",
		Action: "notifications-read-all",
	}, nil)
	return feed, err
}

// Cached returns the local projection without calling the backend.
func (n *Notifications) Cached() model.NotificationFeed {
	return n.s.CachedNotifications()
}
