package model

import "time"

// Notification represents a user notification.
type Notification struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// NotificationFeed is the notifications projection with its derived unread count.
type NotificationFeed struct {
	Items  []Notification `json:"items"`
	Unread int            `json:"unread"`
}

// NewNotificationFeed builds a feed from items, deriving the unread count.
func NewNotificationFeed(items []Notification) NotificationFeed {
	feed := NotificationFeed{Items: items}
	if feed.Items == nil {
		feed.Items = []Notification{}
	}
	for _, n := range feed.Items {
		if !n.IsRead {
			feed.Unread++
		}
	}
	return feed
}
