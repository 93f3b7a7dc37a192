package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Comment represents a stored comment row - matches schema exactly
type Comment struct {
	ID              string    `json:"id" db:"id"`
	UserID          string    `json:"user_id" db:"user_id"`
	ContentID       string    `json:"content_id" db:"content_id"`
	ContentType     string    `json:"content_type" db:"content_type"`
	Text            string    `json:"text" db:"text"`
	MediaURL        *string   `json:"media_url,omitempty" db:"media_url"`
	ParentCommentID *string   `json:"parent_comment_id,omitempty" db:"parent_comment_id"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// IsReply reports whether the comment is a reply to a top-level comment.
func (c *Comment) IsReply() bool {
	return c.ParentCommentID != nil && *c.ParentCommentID != ""
}

// CommentView is a comment composed with its read-time joins: author profile,
// like aggregate, viewer like state, and (for top-level comments) replies
// sorted oldest first. None of these fields are persisted on the row.
type CommentView struct {
	Comment
	Author       Profile        `json:"user_profile"`
	LikeCount    int            `json:"like_count"`
	UserHasLiked bool           `json:"user_has_liked"`
	Replies      []*CommentView `json:"replies"`
}

// CreateCommentRequest carries a new comment. Text trimmed non-empty OR
// media_url present; the handler enforces this, the repository does not.
type CreateCommentRequest struct {
	ContentID       string  `json:"content_id" validate:"required"`
	ContentType     string  `json:"content_type" validate:"required"`
	Text            string  `json:"text"`
	MediaURL        *string `json:"media_url"`
	ParentCommentID *string `json:"parent_comment_id"`
	// Display snapshot supplied by the client, used when the author profile
	// cannot be fetched after insert.
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// Valid reports whether the request carries something to post.
func (r *CreateCommentRequest) Valid() bool {
	if strings.TrimSpace(r.Text) != "" {
		return true
	}
	return r.MediaURL != nil && *r.MediaURL != ""
}

// NullableString distinguishes an absent JSON field from an explicit null.
// Absent leaves the stored value unchanged; null clears it.
type NullableString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON marks the field as provided; a JSON null leaves Value nil.
func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(data, []byte("null")) {
		n.Value = nil
		return nil
	}
	return json.Unmarshal(data, &n.Value)
}

// MarshalJSON emits the wrapped value (null when cleared or unset).
func (n NullableString) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Value)
}

// UpdateCommentRequest edits an existing comment's text and/or media.
type UpdateCommentRequest struct {
	Text     string         `json:"text"`
	MediaURL NullableString `json:"media_url"`
}

// LikeResult is the authoritative state returned by a like toggle. Callers
// that applied an optimistic update overwrite their state with this.
type LikeResult struct {
	CommentID string `json:"comment_id"`
	Liked     bool   `json:"liked"`
	LikeCount int    `json:"like_count"`
}

const MaxCommentLength = 5000
