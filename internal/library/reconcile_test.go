package library

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"manganime/pkg/models"
)

func item(id, contentType string, progress int, updated time.Time) models.LibraryItem {
	return models.LibraryItem{
		ID:          id,
		Type:        contentType,
		Status:      models.StatusReading,
		Progress:    progress,
		LastUpdated: updated,
	}
}

func TestReconcile(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("local-only entries are kept and pending", func(t *testing.T) {
		local := []models.LibraryItem{
			item("a", "manga", 3, base),
			item("b", "manga", 1, base),
		}
		remote := []models.LibraryItem{item("a", "manga", 3, base)}

		merged, pending := Reconcile(local, remote)
		assert.Len(t, merged, 2)
		assert.Len(t, pending, 1)
		assert.Equal(t, "b", pending[0].ID)
	})

	t.Run("newer local write wins the collision and is pushed", func(t *testing.T) {
		local := []models.LibraryItem{item("a", "manga", 5, base.Add(time.Hour))}
		remote := []models.LibraryItem{item("a", "manga", 3, base)}

		merged, pending := Reconcile(local, remote)
		assert.Len(t, merged, 1)
		assert.Equal(t, 5, merged[0].Progress)
		assert.Len(t, pending, 1)
		assert.Equal(t, 5, pending[0].Progress)
	})

	t.Run("remote wins stale collisions and ties", func(t *testing.T) {
		local := []models.LibraryItem{
			item("a", "manga", 5, base.Add(-time.Hour)),
			item("c", "anime", 2, base),
		}
		remote := []models.LibraryItem{
			item("a", "manga", 7, base),
			item("c", "anime", 2, base),
		}

		merged, pending := Reconcile(local, remote)
		assert.Len(t, merged, 2)
		for _, m := range merged {
			if m.ID == "a" {
				assert.Equal(t, 7, m.Progress)
			}
		}
		assert.Empty(t, pending)
	})

	t.Run("remote-only entries pass through", func(t *testing.T) {
		remote := []models.LibraryItem{item("r", "comics", 1, base)}

		merged, pending := Reconcile(nil, remote)
		assert.Len(t, merged, 1)
		assert.Equal(t, "r", merged[0].ID)
		assert.Empty(t, pending)
	})

	t.Run("same key different type is no collision", func(t *testing.T) {
		local := []models.LibraryItem{item("x", "manga", 1, base)}
		remote := []models.LibraryItem{item("x", "anime", 9, base)}

		merged, pending := Reconcile(local, remote)
		assert.Len(t, merged, 2)
		assert.Len(t, pending, 1)
	})

	t.Run("merged is sorted most recently updated first", func(t *testing.T) {
		local := []models.LibraryItem{item("old", "manga", 1, base.Add(-time.Hour))}
		remote := []models.LibraryItem{item("new", "manga", 1, base)}

		merged, _ := Reconcile(local, remote)
		assert.Equal(t, "new", merged[0].ID)
		assert.Equal(t, "old", merged[1].ID)
	})

	t.Run("pure: repeated calls agree", func(t *testing.T) {
		local := []models.LibraryItem{item("a", "manga", 5, base.Add(time.Hour)), item("b", "manga", 1, base)}
		remote := []models.LibraryItem{item("a", "manga", 3, base)}

		m1, p1 := Reconcile(local, remote)
		m2, p2 := Reconcile(local, remote)
		assert.Equal(t, m1, m2)
		assert.Equal(t, p1, p2)
	})
}
