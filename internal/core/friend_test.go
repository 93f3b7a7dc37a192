package core

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manganime/pkg/models"
)

type fakeFriends struct {
	mu   sync.Mutex
	rows []models.Friend
}

func (f *fakeFriends) CreateRequest(_ context.Context, userID, friendID string) (*models.Friend, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rel := range f.rows {
		if rel.UserID == userID && rel.FriendID == friendID {
			return nil, fmt.Errorf("create_friend_request: %w", models.ErrDuplicate)
		}
	}
	rel := models.Friend{
		UserID: userID, FriendID: friendID,
		Status:    models.FriendPending,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	f.rows = append(f.rows, rel)
	return &rel, nil
}

func (f *fakeFriends) Accept(_ context.Context, userID, requesterID string) (*models.Friend, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, rel := range f.rows {
		if rel.UserID == requesterID && rel.FriendID == userID && rel.Status == models.FriendPending {
			f.rows[i].Status = models.FriendAccepted
			f.rows[i].UpdatedAt = time.Now()
			row := f.rows[i]
			return &row, nil
		}
	}
	return nil, fmt.Errorf("accept_friend: %w", models.ErrNotFound)
}

func (f *fakeFriends) Get(_ context.Context, userID, friendID string) (*models.Friend, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rel := range f.rows {
		if (rel.UserID == userID && rel.FriendID == friendID) ||
			(rel.UserID == friendID && rel.FriendID == userID) {
			row := rel
			return &row, nil
		}
	}
	return nil, fmt.Errorf("get_friend: %w", models.ErrNotFound)
}

func (f *fakeFriends) ListByUser(_ context.Context, userID string, status models.FriendStatus) ([]models.Friend, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Friend
	for _, rel := range f.rows {
		if rel.Status != status {
			continue
		}
		// Pending requests surface only for the addressee.
		if status == models.FriendPending {
			if rel.FriendID == userID {
				out = append(out, rel)
			}
			continue
		}
		if rel.UserID == userID || rel.FriendID == userID {
			out = append(out, rel)
		}
	}
	return out, nil
}

func newFriendFixture() (FriendService, *fakeFriends, *recordingNotifications) {
	friends := &fakeFriends{}
	notifications := &recordingNotifications{}
	profiles := newFakeProfiles(
		models.Profile{ID: aliceID, Username: "alice", DisplayName: "Alice"},
		models.Profile{ID: bobID, Username: "bob", DisplayName: "Bob"},
	)
	return NewFriendService(friends, profiles, notifications), friends, notifications
}

func TestFriendRequest(t *testing.T) {
	t.Run("creates pending relation and notifies", func(t *testing.T) {
		svc, _, notifications := newFriendFixture()
		rel, err := svc.Request(context.Background(), aliceID, bobID)
		require.NoError(t, err)
		assert.Equal(t, models.FriendPending, rel.Status)

		calls := notifications.dispatched()
		require.Len(t, calls, 1)
		assert.Equal(t, bobID, calls[0].Recipient)
		assert.Equal(t, models.NotificationFriendRequest, calls[0].Kind)
		assert.Equal(t, "Alice", calls[0].Context.SenderName)
	})

	t.Run("self request rejected", func(t *testing.T) {
		svc, _, _ := newFriendFixture()
		_, err := svc.Request(context.Background(), aliceID, aliceID)
		assert.ErrorIs(t, err, ErrSelfFriend)
	})

	t.Run("unknown target", func(t *testing.T) {
		svc, _, _ := newFriendFixture()
		_, err := svc.Request(context.Background(), aliceID, caraID)
		assert.ErrorIs(t, err, models.ErrUserNotFound)
	})

	t.Run("duplicate in either direction", func(t *testing.T) {
		svc, _, _ := newFriendFixture()
		_, err := svc.Request(context.Background(), aliceID, bobID)
		require.NoError(t, err)
		_, err = svc.Request(context.Background(), aliceID, bobID)
		assert.ErrorIs(t, err, ErrAlreadyFriends)
		_, err = svc.Request(context.Background(), bobID, aliceID)
		assert.ErrorIs(t, err, ErrAlreadyFriends)
	})
}

func TestFriendAccept(t *testing.T) {
	t.Run("recipient accepts and requester is notified", func(t *testing.T) {
		svc, _, notifications := newFriendFixture()
		_, err := svc.Request(context.Background(), aliceID, bobID)
		require.NoError(t, err)

		rel, err := svc.Accept(context.Background(), bobID, aliceID)
		require.NoError(t, err)
		assert.Equal(t, models.FriendAccepted, rel.Status)

		calls := notifications.dispatched()
		require.Len(t, calls, 2)
		assert.Equal(t, aliceID, calls[1].Recipient)
		assert.Equal(t, models.NotificationFriendAccept, calls[1].Kind)
	})

	t.Run("requester cannot accept their own request", func(t *testing.T) {
		svc, _, _ := newFriendFixture()
		_, err := svc.Request(context.Background(), aliceID, bobID)
		require.NoError(t, err)

		_, err = svc.Accept(context.Background(), aliceID, bobID)
		assert.ErrorIs(t, err, ErrNoPendingInvite)
	})

	t.Run("no pending request", func(t *testing.T) {
		svc, _, _ := newFriendFixture()
		_, err := svc.Accept(context.Background(), bobID, aliceID)
		assert.ErrorIs(t, err, ErrNoPendingInvite)
	})
}

func TestFriendList(t *testing.T) {
	svc, _, _ := newFriendFixture()
	_, err := svc.Request(context.Background(), aliceID, bobID)
	require.NoError(t, err)
	_, err = svc.Accept(context.Background(), bobID, aliceID)
	require.NoError(t, err)
	_, err = svc.Request(context.Background(), caraID, aliceID)
	require.NoError(t, err)

	t.Run("accepted list joins the counterpart snapshot", func(t *testing.T) {
		views, err := svc.List(context.Background(), aliceID, models.FriendAccepted)
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, "bob", views[0].Profile.Username)
	})

	t.Run("counterpart works from both sides", func(t *testing.T) {
		views, err := svc.List(context.Background(), bobID, models.FriendAccepted)
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, "alice", views[0].Profile.Username)
	})

	t.Run("pending lists only requests addressed to the user", func(t *testing.T) {
		views, err := svc.List(context.Background(), aliceID, models.FriendPending)
		require.NoError(t, err)
		require.Len(t, views, 1)
		// Cara has no profile row; the placeholder snapshot stands in.
		assert.Equal(t, "deleted", views[0].Profile.Username)

		views, err = svc.List(context.Background(), caraID, models.FriendPending)
		require.NoError(t, err)
		assert.Empty(t, views)
	})
}
