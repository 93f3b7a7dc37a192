package models

import "time"

// ContentType is the closed set of media categories.
type ContentType string

const (
	ContentTypeAnime  ContentType = "anime"
	ContentTypeManga  ContentType = "manga"
	ContentTypeComics ContentType = "comics"
)

// IsValidContentType validates a content category.
func IsValidContentType(t string) bool {
	switch ContentType(t) {
	case ContentTypeAnime, ContentTypeManga, ContentTypeComics:
		return true
	default:
		return false
	}
}

// Content represents one catalog entry
type Content struct {
	ID          string    `json:"id" db:"id"`
	Type        string    `json:"type" db:"type"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	CoverURL    string    `json:"cover_url" db:"cover_url"`
	TotalItems  *int      `json:"total_items,omitempty" db:"total_items"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ContentSearchRequest represents catalog search parameters
type ContentSearchRequest struct {
	Query  string `json:"query" form:"query"`
	Type   string `json:"type" form:"type"`
	Limit  int    `json:"limit" form:"limit"`
	Offset int    `json:"offset" form:"offset"`
}

// Normalize clamps pagination to sane bounds.
func (r *ContentSearchRequest) Normalize() {
	if r.Limit <= 0 {
		r.Limit = 20
	}
	if r.Limit > 100 {
		r.Limit = 100
	}
	if r.Offset < 0 {
		r.Offset = 0
	}
}

// CreateContentRequest adds a catalog entry (admin only).
type CreateContentRequest struct {
	Type        string `json:"type" validate:"required,oneof=anime manga comics"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	CoverURL    string `json:"cover_url"`
	TotalItems  *int   `json:"total_items"`
}

// AddEpisodeRequest announces a new episode/chapter for existing content.
type AddEpisodeRequest struct {
	Number int `json:"number" validate:"required,min=1"`
}

// ContentListResponse represents paginated catalog results
type ContentListResponse struct {
	Data       []Content      `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}
