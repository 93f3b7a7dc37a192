package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manganime/internal/cache"
	"manganime/pkg/models"
)

// fakeNotificationRepo is a mutex-guarded in-memory notification store whose
// reads can be forced to fail, including with context errors, to exercise the
// list fallback.
type fakeNotificationRepo struct {
	mu      sync.Mutex
	rows    []models.Notification
	listErr error
}

func (f *fakeNotificationRepo) Create(_ context.Context, n *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n.ID == "" {
		n.ID = "n-" + n.UserID
	}
	n.CreatedAt = time.Now()
	f.rows = append(f.rows, *n)
	return nil
}

func (f *fakeNotificationRepo) ListByUser(_ context.Context, userID string, limit int) ([]*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.Notification
	for i := len(f.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if f.rows[i].UserID == userID {
			row := f.rows[i]
			out = append(out, &row)
		}
	}
	return out, nil
}

func (f *fakeNotificationRepo) MarkRead(_ context.Context, id, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id && f.rows[i].UserID == userID {
			f.rows[i].IsRead = true
			return nil
		}
	}
	return models.ErrNotFound
}

func (f *fakeNotificationRepo) MarkAllRead(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].UserID == userID {
			f.rows[i].IsRead = true
		}
	}
	return nil
}

func (f *fakeNotificationRepo) CountUnread(_ context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, row := range f.rows {
		if row.UserID == userID && !row.IsRead {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationRepo) setListErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr = err
}

func (f *fakeNotificationRepo) stored() []models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Notification(nil), f.rows...)
}

func TestNotificationDispatch(t *testing.T) {
	t.Run("persists with the fixed message", func(t *testing.T) {
		repo := &fakeNotificationRepo{}
		svc := NewNotificationService(repo, cache.NewMemory(), 0)

		svc.Dispatch(aliceID, models.NotificationCommentLike, models.NotificationContext{
			SenderUserID: bobID,
			SenderName:   "Bob",
			ContentID:    "one-piece",
			CommentID:    "c1",
		})

		require.Eventually(t, func() bool { return len(repo.stored()) == 1 }, time.Second, 10*time.Millisecond)
		row := repo.stored()[0]
		assert.Equal(t, aliceID, row.UserID)
		assert.Equal(t, "Bob liked your comment", row.Message)
		require.NotNil(t, row.SenderUserID)
		assert.Equal(t, bobID, *row.SenderUserID)
		require.NotNil(t, row.CommentID)
		assert.Equal(t, "c1", *row.CommentID)
		assert.False(t, row.IsRead)
	})

	t.Run("episode and chapter templates", func(t *testing.T) {
		repo := &fakeNotificationRepo{}
		svc := NewNotificationService(repo, cache.NewMemory(), 0)

		svc.Dispatch(aliceID, models.NotificationNewEpisode, models.NotificationContext{
			ContentTitle: "Frieren", EpisodeNum: 12,
		})
		svc.Dispatch(aliceID, models.NotificationNewChapter, models.NotificationContext{
			ContentTitle: "One Piece", EpisodeNum: 1101,
		})

		require.Eventually(t, func() bool { return len(repo.stored()) == 2 }, time.Second, 10*time.Millisecond)
		messages := []string{repo.stored()[0].Message, repo.stored()[1].Message}
		assert.Contains(t, messages, "Episode 12 of Frieren is out")
		assert.Contains(t, messages, "Chapter 1101 of One Piece is out")
	})

	t.Run("self notification suppressed", func(t *testing.T) {
		repo := &fakeNotificationRepo{}
		svc := NewNotificationService(repo, cache.NewMemory(), 0)

		svc.Dispatch(aliceID, models.NotificationCommentLike, models.NotificationContext{SenderUserID: aliceID})
		svc.Dispatch("", models.NotificationCommentLike, models.NotificationContext{SenderUserID: bobID})
		svc.Dispatch(aliceID, "bogus_kind", models.NotificationContext{SenderUserID: bobID})

		time.Sleep(50 * time.Millisecond)
		assert.Empty(t, repo.stored())
	})
}

func TestNotificationList(t *testing.T) {
	seed := func(repo *fakeNotificationRepo, n int) {
		for i := 0; i < n; i++ {
			_ = repo.Create(context.Background(), &models.Notification{
				ID: "seed", UserID: aliceID,
				Type: models.NotificationCommentReply, Message: "Bob replied to your comment",
			})
		}
	}

	t.Run("fresh read refreshes the cache", func(t *testing.T) {
		repo := &fakeNotificationRepo{}
		mem := cache.NewMemory()
		svc := NewNotificationService(repo, mem, 0)
		seed(repo, 3)

		got, err := svc.List(context.Background(), aliceID, 50)
		require.NoError(t, err)
		assert.Len(t, got, 3)
		_, ok := mem.Get(context.Background(), "notifications:"+aliceID)
		assert.True(t, ok)
	})

	t.Run("timeout serves the cached list", func(t *testing.T) {
		repo := &fakeNotificationRepo{}
		mem := cache.NewMemory()
		svc := NewNotificationService(repo, mem, 0)
		seed(repo, 2)

		_, err := svc.List(context.Background(), aliceID, 50)
		require.NoError(t, err)

		repo.setListErr(context.DeadlineExceeded)
		got, err := svc.List(context.Background(), aliceID, 50)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("timeout without cache is an error", func(t *testing.T) {
		repo := &fakeNotificationRepo{listErr: context.DeadlineExceeded}
		svc := NewNotificationService(repo, cache.NewMemory(), 0)

		_, err := svc.List(context.Background(), aliceID, 50)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("non-timeout failure bypasses the cache", func(t *testing.T) {
		repo := &fakeNotificationRepo{}
		mem := cache.NewMemory()
		svc := NewNotificationService(repo, mem, 0)
		seed(repo, 1)

		_, err := svc.List(context.Background(), aliceID, 50)
		require.NoError(t, err)

		storeErr := errors.New("connection reset")
		repo.setListErr(storeErr)
		_, err = svc.List(context.Background(), aliceID, 50)
		assert.ErrorIs(t, err, storeErr)
	})

	t.Run("limit applies", func(t *testing.T) {
		repo := &fakeNotificationRepo{}
		svc := NewNotificationService(repo, cache.NewMemory(), 0)
		seed(repo, 5)

		got, err := svc.List(context.Background(), aliceID, 2)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})
}

func TestNotificationReadState(t *testing.T) {
	repo := &fakeNotificationRepo{}
	mem := cache.NewMemory()
	svc := NewNotificationService(repo, mem, 0)

	first := &models.Notification{ID: "n1", UserID: aliceID, Type: models.NotificationCommentReply}
	second := &models.Notification{ID: "n2", UserID: aliceID, Type: models.NotificationCommentLike}
	require.NoError(t, repo.Create(context.Background(), first))
	require.NoError(t, repo.Create(context.Background(), second))

	unread, err := svc.CountUnread(context.Background(), aliceID)
	require.NoError(t, err)
	assert.Equal(t, 2, unread)

	require.NoError(t, svc.MarkRead(context.Background(), "n1", aliceID))
	unread, err = svc.CountUnread(context.Background(), aliceID)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	// Recipient scoping: someone else's id cannot flip the row.
	assert.Error(t, svc.MarkRead(context.Background(), "n2", bobID))

	require.NoError(t, svc.MarkAllRead(context.Background(), aliceID))
	unread, err = svc.CountUnread(context.Background(), aliceID)
	require.NoError(t, err)
	assert.Equal(t, 0, unread)
}
