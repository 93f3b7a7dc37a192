package core

import (
	"context"
	"errors"

	"manganime/internal/identity"
	"manganime/internal/repository"
	"manganime/pkg/models"
)

// LikeService toggles comment likes and reports the authoritative state.
type LikeService interface {
	// Toggle flips the caller's like on a comment. The returned count is a
	// fresh recount, not an increment: a concurrent double-toggle settles
	// on whatever the store holds.
	Toggle(ctx context.Context, commentID, userID string) (*models.LikeResult, error)
}

type likeService struct {
	likes         repository.LikeRepository
	comments      repository.CommentRepository
	profiles      repository.ProfileRepository
	notifications NotificationService
}

// NewLikeService creates a like service
func NewLikeService(
	likes repository.LikeRepository,
	comments repository.CommentRepository,
	profiles repository.ProfileRepository,
	notifications NotificationService,
) LikeService {
	return &likeService{
		likes:         likes,
		comments:      comments,
		profiles:      profiles,
		notifications: notifications,
	}
}

// Toggle flips the like row and recounts
func (s *likeService) Toggle(ctx context.Context, commentID, userID string) (*models.LikeResult, error) {
	userID = identity.Normalize(userID)

	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrCommentNotFound
		}
		return nil, err
	}

	exists, err := s.likes.Exists(ctx, commentID, userID)
	if err != nil {
		return nil, err
	}

	liked := !exists
	if exists {
		if err := s.likes.Delete(ctx, commentID, userID); err != nil {
			return nil, err
		}
	} else {
		err := s.likes.Insert(ctx, commentID, userID)
		if err != nil && !errors.Is(err, models.ErrDuplicate) {
			// A duplicate insert means another request won the race;
			// the like stands either way.
			return nil, err
		}
	}

	count, err := s.likes.Count(ctx, commentID)
	if err != nil {
		return nil, err
	}

	if liked && comment.UserID != userID {
		senderName := "Someone"
		if profile, perr := s.profiles.GetByID(ctx, userID); perr == nil {
			senderName = profile.DisplayName
		}
		s.notifications.Dispatch(comment.UserID, models.NotificationCommentLike, models.NotificationContext{
			SenderUserID: userID,
			SenderName:   senderName,
			ContentID:    comment.ContentID,
			CommentID:    commentID,
		})
	}

	return &models.LikeResult{
		CommentID: commentID,
		Liked:     liked,
		LikeCount: count,
	}, nil
}
