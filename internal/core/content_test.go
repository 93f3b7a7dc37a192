package core

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manganime/pkg/models"
)

type fakeContents struct {
	mu       sync.Mutex
	rows     map[string]models.Content
	order    []string
	watchers map[string][]string
}

func newFakeContents() *fakeContents {
	return &fakeContents{
		rows:     map[string]models.Content{},
		watchers: map[string][]string{},
	}
}

func (f *fakeContents) Create(_ context.Context, content *models.Content) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	content.CreatedAt = time.Now()
	content.UpdatedAt = content.CreatedAt
	f.rows[content.ID] = *content
	f.order = append(f.order, content.ID)
	return nil
}

func (f *fakeContents) GetByID(_ context.Context, id string) (*models.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, models.ErrContentNotFound
	}
	return &row, nil
}

func (f *fakeContents) Search(_ context.Context, req models.ContentSearchRequest) ([]models.Content, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []models.Content
	for _, id := range f.order {
		row := f.rows[id]
		if req.Type != "" && row.Type != req.Type {
			continue
		}
		if req.Query != "" && !strings.Contains(strings.ToLower(row.Title), strings.ToLower(req.Query)) {
			continue
		}
		matched = append(matched, row)
	}

	total := len(matched)
	if req.Offset >= total {
		return []models.Content{}, total, nil
	}
	matched = matched[req.Offset:]
	if len(matched) > req.Limit {
		matched = matched[:req.Limit]
	}
	return matched, total, nil
}

func (f *fakeContents) SetTotalItems(_ context.Context, id string, total int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return models.ErrContentNotFound
	}
	row.TotalItems = &total
	f.rows[id] = row
	return nil
}

func (f *fakeContents) WatcherIDs(_ context.Context, contentID, _ string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.watchers[contentID]...), nil
}

func seedCatalog(t *testing.T, svc ContentService, contentType string, titles ...string) []string {
	t.Helper()
	ids := make([]string, 0, len(titles))
	for _, title := range titles {
		content, err := svc.Create(context.Background(), models.CreateContentRequest{
			Type:  contentType,
			Title: title,
		})
		require.NoError(t, err)
		ids = append(ids, content.ID)
	}
	return ids
}

func TestContentSearch(t *testing.T) {
	contents := newFakeContents()
	notifications := &recordingNotifications{}
	svc := NewContentService(contents, notifications)

	seedCatalog(t, svc, "manga", "One Piece", "One Punch Man", "Berserk")
	seedCatalog(t, svc, "anime", "One Piece")

	t.Run("pagination metadata reflects the full match count", func(t *testing.T) {
		resp, err := svc.Search(context.Background(), models.ContentSearchRequest{
			Query: "one", Type: "manga", Limit: 1, Offset: 0,
		})
		require.NoError(t, err)

		assert.Len(t, resp.Data, 1)
		assert.Equal(t, 2, resp.Pagination.Total)
		assert.Equal(t, 1, resp.Pagination.Limit)
		assert.Equal(t, 0, resp.Pagination.Offset)
		assert.True(t, resp.Pagination.HasMore)
	})

	t.Run("last page has no more", func(t *testing.T) {
		resp, err := svc.Search(context.Background(), models.ContentSearchRequest{
			Query: "one", Type: "manga", Limit: 1, Offset: 1,
		})
		require.NoError(t, err)

		assert.Len(t, resp.Data, 1)
		assert.Equal(t, 2, resp.Pagination.Total)
		assert.False(t, resp.Pagination.HasMore)
	})

	t.Run("zero limit falls back to the default", func(t *testing.T) {
		resp, err := svc.Search(context.Background(), models.ContentSearchRequest{})
		require.NoError(t, err)

		assert.Equal(t, 4, resp.Pagination.Total)
		assert.Equal(t, 20, resp.Pagination.Limit)
		assert.False(t, resp.Pagination.HasMore)
	})

	t.Run("unknown type is rejected", func(t *testing.T) {
		_, err := svc.Search(context.Background(), models.ContentSearchRequest{Type: "novel"})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})
}

func TestAddEpisodeAnnounces(t *testing.T) {
	contents := newFakeContents()
	notifications := &recordingNotifications{}
	svc := NewContentService(contents, notifications)

	ids := seedCatalog(t, svc, "manga", "One Piece")
	contents.watchers[ids[0]] = []string{aliceID, bobID}

	content, err := svc.AddEpisode(context.Background(), ids[0], models.AddEpisodeRequest{Number: 1101})
	require.NoError(t, err)
	require.NotNil(t, content.TotalItems)
	assert.Equal(t, 1101, *content.TotalItems)

	calls := notifications.dispatched()
	require.Len(t, calls, 2)
	for _, call := range calls {
		assert.Equal(t, models.NotificationNewChapter, call.Kind)
		assert.Equal(t, 1101, call.Context.EpisodeNum)
		assert.Equal(t, "One Piece", call.Context.ContentTitle)
	}

	t.Run("stale number does not regress the count", func(t *testing.T) {
		content, err := svc.AddEpisode(context.Background(), ids[0], models.AddEpisodeRequest{Number: 1100})
		require.NoError(t, err)
		assert.Equal(t, 1101, *content.TotalItems)
	})

	t.Run("non positive number is rejected", func(t *testing.T) {
		_, err := svc.AddEpisode(context.Background(), ids[0], models.AddEpisodeRequest{Number: 0})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})
}
