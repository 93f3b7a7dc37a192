package models

import "time"

// LibraryStatus is the closed set of per-item reading/watching states.
// Transitions are free: no ordering is enforced between them.
type LibraryStatus string

const (
	StatusReading    LibraryStatus = "reading"
	StatusCompleted  LibraryStatus = "completed"
	StatusOnHold     LibraryStatus = "on_hold"
	StatusDropped    LibraryStatus = "dropped"
	StatusPlanToRead LibraryStatus = "plan_to_read"
	StatusUnset      LibraryStatus = ""
)

// IsValidLibraryStatus validates a status value (unset allowed).
func IsValidLibraryStatus(s string) bool {
	switch LibraryStatus(s) {
	case StatusReading, StatusCompleted, StatusOnHold, StatusDropped,
		StatusPlanToRead, StatusUnset:
		return true
	default:
		return false
	}
}

// LibraryItem is one user's relationship to one piece of content, keyed by
// (ID, Type). It exists in the device cache and the remote store at once;
// the library service reconciles the two.
type LibraryItem struct {
	ID          string        `json:"id" db:"content_id"`
	Type        string        `json:"type" db:"content_type"`
	Status      LibraryStatus `json:"status" db:"status"`
	Progress    int           `json:"progress" db:"progress"`
	TotalItems  *int          `json:"total_items,omitempty" db:"total_items"`
	Score       *int          `json:"score,omitempty" db:"score"`
	StartDate   *time.Time    `json:"start_date,omitempty" db:"start_date"`
	FinishDate  *time.Time    `json:"finish_date,omitempty" db:"finish_date"`
	LastUpdated time.Time     `json:"last_updated" db:"last_updated"`
}

// Key identifies a library item inside one user's library.
func (i *LibraryItem) Key() string {
	return i.Type + ":" + i.ID
}

// UpsertLibraryItemRequest is the remote store's write payload.
type UpsertLibraryItemRequest struct {
	LibraryItem
}

const (
	MinScore = 0
	MaxScore = 10
)

// IsValidScore checks the 0-10 score bound.
func IsValidScore(score int) bool {
	return score >= MinScore && score <= MaxScore
}
