package library

import (
	"context"
	"fmt"
	"time"

	"manganime/internal/localstore"
	"manganime/pkg/logger"
	"manganime/pkg/models"
)

const cacheKey = "library"

// Service runs the dual-store library. Every write lands on the device cache
// first; the remote store is best-effort and a failed push degrades to
// models.ErrLocalOnly, never a rollback.
type Service struct {
	store  *localstore.Store
	remote RemoteStore // nil when no authenticated identity
	now    func() time.Time
}

// NewService creates a library service. remote may be nil for an anonymous
// session; the device cache then serves everything verbatim.
func NewService(store *localstore.Store, remote RemoteStore) *Service {
	return &Service{store: store, remote: remote, now: time.Now}
}

func (s *Service) readCache() []models.LibraryItem {
	var items []models.LibraryItem
	if _, err := s.store.GetJSON(cacheKey, &items); err != nil {
		logger.Warnf("library cache read failed: %v", err)
	}
	return items
}

func (s *Service) writeCache(items []models.LibraryItem) error {
	return s.store.PutJSON(cacheKey, items)
}

// GetAll returns the merged library.
//
// Without a remote store the device cache is returned verbatim. With one, the
// remote set is fetched and reconciled; a remote fetch failure falls back to
// the cache entirely, and entries pending push are synced in the background
// so the caller never waits on them.
func (s *Service) GetAll(ctx context.Context) ([]models.LibraryItem, error) {
	local := s.readCache()
	if s.remote == nil {
		return local, nil
	}

	remote, err := s.remote.FetchAll(ctx)
	if err != nil {
		logger.Warnf("remote library fetch failed, serving device cache: %v", err)
		return local, nil
	}

	merged, pending := Reconcile(local, remote)
	if err := s.writeCache(merged); err != nil {
		logger.Warnf("library cache write failed: %v", err)
	}
	for _, item := range pending {
		go s.pushAsync(item)
	}
	return merged, nil
}

func (s *Service) pushAsync(item models.LibraryItem) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := s.remote.Push(ctx, item)
	logger.Sync("push", item.Key(), err)
}

// mutate applies fn to the cached item for (contentType, contentID), creating
// it if absent, writes the cache, then attempts the remote push.
func (s *Service) mutate(ctx context.Context, contentType, contentID string, fn func(*models.LibraryItem)) (*models.LibraryItem, error) {
	items := s.readCache()

	idx := -1
	for i := range items {
		if items[i].ID == contentID && items[i].Type == contentType {
			idx = i
			break
		}
	}
	if idx == -1 {
		items = append(items, models.LibraryItem{ID: contentID, Type: contentType})
		idx = len(items) - 1
	}

	item := &items[idx]
	fn(item)
	item.LastUpdated = s.now()

	if err := s.writeCache(items); err != nil {
		return nil, fmt.Errorf("failed to save locally: %w", err)
	}

	if s.remote == nil {
		return item, nil
	}
	if err := s.remote.Push(ctx, *item); err != nil {
		logger.Sync("push", item.Key(), err)
		return item, models.ErrLocalOnly
	}
	return item, nil
}

// UpdateStatus sets the item's status. First transition to reading stamps
// startDate; completed stamps finishDate once progress has reached
// totalItems. Stamps are write-once. Transitions themselves are free.
func (s *Service) UpdateStatus(ctx context.Context, contentType, contentID string, status models.LibraryStatus) (*models.LibraryItem, error) {
	if !models.IsValidLibraryStatus(string(status)) {
		return nil, fmt.Errorf("%w: unknown status %q", models.ErrInvalidInput, status)
	}
	return s.mutate(ctx, contentType, contentID, func(item *models.LibraryItem) {
		item.Status = status
		s.stamp(item)
	})
}

// UpdateProgress sets the chapter/episode position.
func (s *Service) UpdateProgress(ctx context.Context, contentType, contentID string, progress int) (*models.LibraryItem, error) {
	if progress < 0 {
		return nil, fmt.Errorf("%w: progress cannot be negative", models.ErrInvalidInput)
	}
	return s.mutate(ctx, contentType, contentID, func(item *models.LibraryItem) {
		item.Progress = progress
		s.stamp(item)
	})
}

// UpdateScore sets the 0-10 score.
func (s *Service) UpdateScore(ctx context.Context, contentType, contentID string, score int) (*models.LibraryItem, error) {
	if !models.IsValidScore(score) {
		return nil, fmt.Errorf("%w: score must be between %d and %d", models.ErrInvalidInput, models.MinScore, models.MaxScore)
	}
	return s.mutate(ctx, contentType, contentID, func(item *models.LibraryItem) {
		item.Score = &score
	})
}

// Remove deletes the item locally and best-effort remotely.
func (s *Service) Remove(ctx context.Context, contentType, contentID string) error {
	items := s.readCache()
	kept := items[:0]
	for _, item := range items {
		if !(item.ID == contentID && item.Type == contentType) {
			kept = append(kept, item)
		}
	}
	if err := s.writeCache(kept); err != nil {
		return fmt.Errorf("failed to save locally: %w", err)
	}

	if s.remote == nil {
		return nil
	}
	if err := s.remote.Remove(ctx, contentType, contentID); err != nil {
		logger.Sync("remove", contentType+":"+contentID, err)
		return models.ErrLocalOnly
	}
	return nil
}

// stamp applies the write-once start/finish dates.
func (s *Service) stamp(item *models.LibraryItem) {
	now := s.now()
	if item.Status == models.StatusReading && item.StartDate == nil {
		item.StartDate = &now
	}
	if item.Status == models.StatusCompleted && item.FinishDate == nil &&
		item.TotalItems != nil && item.Progress >= *item.TotalItems {
		item.FinishDate = &now
	}
}
