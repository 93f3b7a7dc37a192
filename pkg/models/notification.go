package models

import "time"

// NotificationType is the closed set of notification kinds.
type NotificationType string

const (
	NotificationCommentLike   NotificationType = "comment_like"
	NotificationCommentReply  NotificationType = "comment_reply"
	NotificationFriendRequest NotificationType = "friend_request"
	NotificationFriendAccept  NotificationType = "friend_accept"
	NotificationNewEpisode    NotificationType = "new_episode"
	NotificationNewChapter    NotificationType = "new_chapter"
	NotificationNewContent    NotificationType = "new_content"
)

// IsValidNotificationType validates against the closed type set.
func IsValidNotificationType(t string) bool {
	switch NotificationType(t) {
	case NotificationCommentLike, NotificationCommentReply,
		NotificationFriendRequest, NotificationFriendAccept,
		NotificationNewEpisode, NotificationNewChapter, NotificationNewContent:
		return true
	default:
		return false
	}
}

// Notification is created only as a side effect of another mutation, never
// standalone. Read state moves forward only (unread -> read).
type Notification struct {
	ID           string           `json:"id" db:"id"`
	UserID       string           `json:"user_id" db:"user_id"`
	Type         NotificationType `json:"type" db:"type"`
	SenderUserID *string          `json:"sender_user_id,omitempty" db:"sender_user_id"`
	ContentID    *string          `json:"content_id,omitempty" db:"content_id"`
	CommentID    *string          `json:"comment_id,omitempty" db:"comment_id"`
	Message      string           `json:"message" db:"message"`
	IsRead       bool             `json:"is_read" db:"is_read"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
}

// NotificationContext carries the inputs the message template needs.
type NotificationContext struct {
	SenderUserID string
	SenderName   string
	ContentID    string
	ContentTitle string
	CommentID    string
	EpisodeNum   int
}
