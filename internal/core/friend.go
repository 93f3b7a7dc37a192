package core

import (
	"context"
	"errors"
	"fmt"

	"manganime/internal/identity"
	"manganime/internal/repository"
	"manganime/pkg/models"
)

var (
	ErrSelfFriend      = errors.New("cannot friend yourself")
	ErrAlreadyFriends  = errors.New("friend relation already exists")
	ErrNoPendingInvite = errors.New("no pending request from this user")
)

// FriendService manages friend requests and confirmations.
type FriendService interface {
	Request(ctx context.Context, userID, friendID string) (*models.Friend, error)
	Accept(ctx context.Context, userID, requesterID string) (*models.Friend, error)
	// List returns relations joined with the other party's display
	// snapshot. Pending lists only requests addressed to the user.
	List(ctx context.Context, userID string, status models.FriendStatus) ([]models.FriendView, error)
}

type friendService struct {
	friends       repository.FriendRepository
	profiles      repository.ProfileRepository
	notifications NotificationService
}

// NewFriendService creates a friend service
func NewFriendService(
	friends repository.FriendRepository,
	profiles repository.ProfileRepository,
	notifications NotificationService,
) FriendService {
	return &friendService{
		friends:       friends,
		profiles:      profiles,
		notifications: notifications,
	}
}

// Request sends a friend request
func (s *friendService) Request(ctx context.Context, userID, friendID string) (*models.Friend, error) {
	userID = identity.Normalize(userID)
	friendID = identity.Normalize(friendID)
	if userID == friendID {
		return nil, ErrSelfFriend
	}

	if _, err := s.profiles.GetByID(ctx, friendID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUserNotFound
		}
		return nil, err
	}

	if existing, err := s.friends.Get(ctx, userID, friendID); err == nil && existing != nil {
		return nil, ErrAlreadyFriends
	} else if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	friend, err := s.friends.CreateRequest(ctx, userID, friendID)
	if err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return nil, ErrAlreadyFriends
		}
		return nil, err
	}

	senderName := s.displayName(ctx, userID)
	s.notifications.Dispatch(friendID, models.NotificationFriendRequest, models.NotificationContext{
		SenderUserID: userID,
		SenderName:   senderName,
	})
	return friend, nil
}

// Accept confirms a pending request addressed to the caller
func (s *friendService) Accept(ctx context.Context, userID, requesterID string) (*models.Friend, error) {
	userID = identity.Normalize(userID)
	requesterID = identity.Normalize(requesterID)

	friend, err := s.friends.Accept(ctx, userID, requesterID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrNoPendingInvite
		}
		return nil, err
	}

	s.notifications.Dispatch(requesterID, models.NotificationFriendAccept, models.NotificationContext{
		SenderUserID: userID,
		SenderName:   s.displayName(ctx, userID),
	})
	return friend, nil
}

// List joins relations with the counterpart profiles in one batched fetch
func (s *friendService) List(ctx context.Context, userID string, status models.FriendStatus) ([]models.FriendView, error) {
	userID = identity.Normalize(userID)

	relations, err := s.friends.ListByUser(ctx, userID, status)
	if err != nil {
		return nil, err
	}

	otherIDs := make([]string, 0, len(relations))
	for _, rel := range relations {
		otherIDs = append(otherIDs, counterpart(rel, userID))
	}
	profiles, err := s.profiles.GetByIDs(ctx, otherIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to join friend profiles: %w", err)
	}

	views := make([]models.FriendView, 0, len(relations))
	for _, rel := range relations {
		view := models.FriendView{Friend: rel}
		otherID := counterpart(rel, userID)
		if profile, ok := profiles[otherID]; ok {
			view.Profile = profile.Public()
		} else {
			placeholder := models.PlaceholderProfile(otherID)
			view.Profile = placeholder.Public()
		}
		views = append(views, view)
	}
	return views, nil
}

func counterpart(rel models.Friend, userID string) string {
	if rel.UserID == userID {
		return rel.FriendID
	}
	return rel.UserID
}

func (s *friendService) displayName(ctx context.Context, userID string) string {
	if profile, err := s.profiles.GetByID(ctx, userID); err == nil {
		return profile.DisplayName
	}
	return "Someone"
}
