package core

import (
	"context"
	"fmt"

	"manganime/internal/identity"
	"manganime/internal/repository"
	"manganime/pkg/models"
)

// LibraryService is the server side of the user library: the authoritative
// remote store the device-local cache reconciles against.
type LibraryService interface {
	List(ctx context.Context, userID string) ([]models.LibraryItem, error)
	Upsert(ctx context.Context, userID string, item models.LibraryItem) (*models.LibraryItem, error)
	Delete(ctx context.Context, userID, contentID, contentType string) error
}

type libraryService struct {
	library repository.LibraryRepository
}

// NewLibraryService creates a library service
func NewLibraryService(library repository.LibraryRepository) LibraryService {
	return &libraryService{library: library}
}

// List returns the user's whole library
func (s *libraryService) List(ctx context.Context, userID string) ([]models.LibraryItem, error) {
	return s.library.ListByUser(ctx, identity.Normalize(userID))
}

// Upsert validates and writes one item. start/finish stamps are write-once:
// the store keeps the first non-null value it ever saw.
func (s *libraryService) Upsert(ctx context.Context, userID string, item models.LibraryItem) (*models.LibraryItem, error) {
	if item.ID == "" {
		return nil, fmt.Errorf("%w: content id is required", models.ErrInvalidInput)
	}
	if !models.IsValidContentType(item.Type) {
		return nil, fmt.Errorf("%w: unknown content type %q", models.ErrInvalidInput, item.Type)
	}
	if !models.IsValidLibraryStatus(string(item.Status)) {
		return nil, fmt.Errorf("%w: unknown status %q", models.ErrInvalidInput, item.Status)
	}
	if item.Score != nil && !models.IsValidScore(*item.Score) {
		return nil, fmt.Errorf("%w: score must be between %d and %d", models.ErrInvalidInput, models.MinScore, models.MaxScore)
	}
	if item.Progress < 0 {
		return nil, fmt.Errorf("%w: progress cannot be negative", models.ErrInvalidInput)
	}

	if err := s.library.Upsert(ctx, identity.Normalize(userID), &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete removes one item from the user's library
func (s *libraryService) Delete(ctx context.Context, userID, contentID, contentType string) error {
	return s.library.Delete(ctx, identity.Normalize(userID), contentID, contentType)
}
