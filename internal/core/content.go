package core

import (
	"context"
	"fmt"
	"strings"

	"manganime/internal/repository"
	"manganime/pkg/models"
	"manganime/pkg/utils"
)

// ContentService manages the catalog and the new-release announcements that
// fan out to watchers.
type ContentService interface {
	Create(ctx context.Context, req models.CreateContentRequest) (*models.Content, error)
	GetByID(ctx context.Context, id string) (*models.Content, error)
	Search(ctx context.Context, req models.ContentSearchRequest) (*models.ContentListResponse, error)
	// AddEpisode records a new episode/chapter number and notifies every
	// user whose library references the content.
	AddEpisode(ctx context.Context, contentID string, req models.AddEpisodeRequest) (*models.Content, error)
}

type contentService struct {
	contents      repository.ContentRepository
	notifications NotificationService
}

// NewContentService creates a content catalog service
func NewContentService(contents repository.ContentRepository, notifications NotificationService) ContentService {
	return &contentService{contents: contents, notifications: notifications}
}

// Create adds a catalog entry
func (s *contentService) Create(ctx context.Context, req models.CreateContentRequest) (*models.Content, error) {
	if !models.IsValidContentType(req.Type) {
		return nil, fmt.Errorf("%w: unknown content type %q", models.ErrInvalidInput, req.Type)
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", models.ErrInvalidInput)
	}

	content := &models.Content{
		ID:          utils.NewID(),
		Type:        req.Type,
		Title:       title,
		Description: req.Description,
		CoverURL:    req.CoverURL,
		TotalItems:  req.TotalItems,
	}
	if err := s.contents.Create(ctx, content); err != nil {
		return nil, err
	}
	return content, nil
}

// GetByID loads one catalog entry
func (s *contentService) GetByID(ctx context.Context, id string) (*models.Content, error) {
	return s.contents.GetByID(ctx, id)
}

// Search runs a paginated catalog search
func (s *contentService) Search(ctx context.Context, req models.ContentSearchRequest) (*models.ContentListResponse, error) {
	req.Normalize()
	if req.Type != "" && !models.IsValidContentType(req.Type) {
		return nil, fmt.Errorf("%w: unknown content type %q", models.ErrInvalidInput, req.Type)
	}

	items, total, err := s.contents.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	return &models.ContentListResponse{
		Data:       items,
		Pagination: models.NewPaginationMeta(total, req.Limit, req.Offset),
	}, nil
}

// AddEpisode bumps total_items and announces the release to watchers
func (s *contentService) AddEpisode(ctx context.Context, contentID string, req models.AddEpisodeRequest) (*models.Content, error) {
	if req.Number < 1 {
		return nil, fmt.Errorf("%w: episode number must be positive", models.ErrInvalidInput)
	}

	content, err := s.contents.GetByID(ctx, contentID)
	if err != nil {
		return nil, err
	}

	if content.TotalItems == nil || req.Number > *content.TotalItems {
		if err := s.contents.SetTotalItems(ctx, contentID, req.Number); err != nil {
			return nil, err
		}
		content.TotalItems = &req.Number
	}

	kind := models.NotificationNewEpisode
	if content.Type == string(models.ContentTypeManga) || content.Type == string(models.ContentTypeComics) {
		kind = models.NotificationNewChapter
	}

	watchers, err := s.contents.WatcherIDs(ctx, contentID, content.Type)
	if err != nil {
		return nil, err
	}
	for _, watcherID := range watchers {
		s.notifications.Dispatch(watcherID, kind, models.NotificationContext{
			ContentID:    contentID,
			ContentTitle: content.Title,
			EpisodeNum:   req.Number,
		})
	}
	return content, nil
}
