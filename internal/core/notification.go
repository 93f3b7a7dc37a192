package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"manganime/internal/cache"
	"manganime/internal/repository"
	"manganime/pkg/logger"
	"manganime/pkg/models"
	"manganime/pkg/utils"
)

// NotificationService creates and reads notification records. Creation is
// always a side effect of another mutation and is dispatched fire-and-forget:
// a failed dispatch is logged and never fails the triggering operation.
type NotificationService interface {
	// Dispatch builds the fixed message for the type and persists the
	// record in the background. Safe to call from any mutation path.
	Dispatch(recipientID string, kind models.NotificationType, nctx models.NotificationContext)
	// List fetches recent notifications within a fixed wall-clock budget;
	// when the budget elapses the last cached result is substituted.
	List(ctx context.Context, userID string, limit int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
	CountUnread(ctx context.Context, userID string) (int, error)
}

type notificationService struct {
	repo     repository.NotificationRepository
	cache    cache.Cache
	cacheTTL time.Duration
}

// NewNotificationService creates a notification service with an injected
// cache backing the list fallback.
func NewNotificationService(repo repository.NotificationRepository, c cache.Cache, cacheTTL time.Duration) NotificationService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &notificationService{repo: repo, cache: c, cacheTTL: cacheTTL}
}

// message renders the fixed template for a notification type.
func message(kind models.NotificationType, nctx models.NotificationContext) string {
	switch kind {
	case models.NotificationCommentLike:
		return fmt.Sprintf("%s liked your comment", nctx.SenderName)
	case models.NotificationCommentReply:
		return fmt.Sprintf("%s replied to your comment", nctx.SenderName)
	case models.NotificationFriendRequest:
		return fmt.Sprintf("%s sent you a friend request", nctx.SenderName)
	case models.NotificationFriendAccept:
		return fmt.Sprintf("%s accepted your friend request", nctx.SenderName)
	case models.NotificationNewEpisode:
		return fmt.Sprintf("Episode %d of %s is out", nctx.EpisodeNum, nctx.ContentTitle)
	case models.NotificationNewChapter:
		return fmt.Sprintf("Chapter %d of %s is out", nctx.EpisodeNum, nctx.ContentTitle)
	case models.NotificationNewContent:
		return fmt.Sprintf("%s was added to the catalog", nctx.ContentTitle)
	default:
		return ""
	}
}

// Dispatch persists the record in the background
func (s *notificationService) Dispatch(recipientID string, kind models.NotificationType, nctx models.NotificationContext) {
	if recipientID == "" || !models.IsValidNotificationType(string(kind)) {
		return
	}
	// Never notify the actor about their own action.
	if nctx.SenderUserID != "" && nctx.SenderUserID == recipientID {
		return
	}

	notification := &models.Notification{
		UserID:  recipientID,
		Type:    kind,
		Message: message(kind, nctx),
	}
	if nctx.SenderUserID != "" {
		notification.SenderUserID = &nctx.SenderUserID
	}
	if nctx.ContentID != "" {
		notification.ContentID = &nctx.ContentID
	}
	if nctx.CommentID != "" {
		notification.CommentID = &nctx.CommentID
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), utils.DefaultTimeout)
		defer cancel()
		if err := s.repo.Create(ctx, notification); err != nil {
			logger.WithFields(map[string]interface{}{
				"recipient": recipientID,
				"type":      string(kind),
			}).Error(fmt.Sprintf("notification dispatch failed: %v", err))
			return
		}
		s.cache.Delete(ctx, listCacheKey(recipientID))
	}()
}

func listCacheKey(userID string) string {
	return "notifications:" + userID
}

// List fetches notifications with the budget/fallback rule
func (s *notificationService) List(ctx context.Context, userID string, limit int) ([]*models.Notification, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, utils.NotificationFetchBudget)
	defer cancel()

	notifications, err := s.repo.ListByUser(fetchCtx, userID, limit)
	if err == nil {
		if encoded, encErr := json.Marshal(notifications); encErr == nil {
			s.cache.Set(ctx, listCacheKey(userID), encoded, s.cacheTTL)
		}
		return notifications, nil
	}

	if !utils.IsContextError(err) {
		return nil, err
	}

	// Budget elapsed: serve the stale cached list if one exists.
	cached, ok := s.cache.Get(ctx, listCacheKey(userID))
	if !ok {
		return nil, err
	}
	var fallback []*models.Notification
	if decErr := json.Unmarshal(cached, &fallback); decErr != nil {
		return nil, err
	}
	logger.WithFields(map[string]interface{}{"user_id": userID}).Warn("notification fetch timed out, serving cached list")
	return fallback, nil
}

// MarkRead marks one notification read, scoped to its recipient
func (s *notificationService) MarkRead(ctx context.Context, id, userID string) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		return err
	}
	s.cache.Delete(ctx, listCacheKey(userID))
	return nil
}

// MarkAllRead marks every notification of the user read
func (s *notificationService) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.repo.MarkAllRead(ctx, userID); err != nil {
		return err
	}
	s.cache.Delete(ctx, listCacheKey(userID))
	return nil
}

// CountUnread returns the unread badge count
func (s *notificationService) CountUnread(ctx context.Context, userID string) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}
