package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"manganime/internal/identity"
	"manganime/internal/repository"
	"manganime/pkg/database"
	"manganime/pkg/logger"
	"manganime/pkg/models"
)

var (
	ErrEmptyComment   = errors.New("comment needs text or media")
	ErrCommentTooLong = fmt.Errorf("comment text exceeds %d characters", models.MaxCommentLength)
	ErrBadParent      = errors.New("parent comment does not belong to this content")
)

// CommentEvents receives comment mutations for live fan-out. Implemented by
// the websocket hub; a nil publisher disables events.
type CommentEvents interface {
	CommentPosted(contentType, contentID string, view *models.CommentView)
	CommentUpdated(contentType, contentID string, view *models.CommentView)
	CommentDeleted(contentType, contentID, commentID string)
}

// CommentService defines comment operations including the threaded listing.
type CommentService interface {
	Create(ctx context.Context, userID string, req models.CreateCommentRequest) (*models.CommentView, error)
	Update(ctx context.Context, commentID, userID string, req models.UpdateCommentRequest) (*models.CommentView, error)
	Delete(ctx context.Context, commentID, userID string) error
	// ListThreaded returns top-level comments newest first, each with its
	// replies oldest first. viewerID may be empty (anonymous listing).
	ListThreaded(ctx context.Context, contentID, contentType, viewerID string) ([]*models.CommentView, error)
	ListFlat(ctx context.Context, contentID, contentType string) ([]*models.Comment, error)
}

type commentService struct {
	comments      repository.CommentRepository
	likes         repository.LikeRepository
	profiles      repository.ProfileRepository
	notifications NotificationService
	events        CommentEvents
	caps          database.Capabilities
}

// NewCommentService creates a comment service. caps is the startup capability
// probe result; when threading is unsupported the flat list is served as
// top-level comments.
func NewCommentService(
	comments repository.CommentRepository,
	likes repository.LikeRepository,
	profiles repository.ProfileRepository,
	notifications NotificationService,
	events CommentEvents,
	caps database.Capabilities,
) CommentService {
	return &commentService{
		comments:      comments,
		likes:         likes,
		profiles:      profiles,
		notifications: notifications,
		events:        events,
		caps:          caps,
	}
}

// Create posts a top-level comment or a reply
func (s *commentService) Create(ctx context.Context, userID string, req models.CreateCommentRequest) (*models.CommentView, error) {
	if !req.Valid() {
		return nil, ErrEmptyComment
	}
	text := strings.TrimSpace(req.Text)
	if len(text) > models.MaxCommentLength {
		return nil, ErrCommentTooLong
	}
	if !models.IsValidContentType(req.ContentType) {
		return nil, fmt.Errorf("%w: unknown content type %q", models.ErrInvalidInput, req.ContentType)
	}

	userID = identity.Normalize(userID)

	var parent *models.Comment
	if req.ParentCommentID != nil && *req.ParentCommentID != "" {
		var err error
		parent, err = s.comments.GetByID(ctx, *req.ParentCommentID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, fmt.Errorf("parent comment: %w", models.ErrCommentNotFound)
			}
			return nil, err
		}
		if parent.ContentID != req.ContentID || parent.ContentType != req.ContentType {
			return nil, ErrBadParent
		}
		// One level of threading: a reply to a reply attaches to the
		// original top-level comment.
		if parent.IsReply() {
			req.ParentCommentID = parent.ParentCommentID
		}
	}

	comment := &models.Comment{
		UserID:          userID,
		ContentID:       req.ContentID,
		ContentType:     req.ContentType,
		Text:            text,
		MediaURL:        req.MediaURL,
		ParentCommentID: req.ParentCommentID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	view := &models.CommentView{Comment: *comment, Replies: []*models.CommentView{}}
	view.Author = s.authorSnapshot(ctx, userID, req)

	if parent != nil {
		s.notifications.Dispatch(parent.UserID, models.NotificationCommentReply, models.NotificationContext{
			SenderUserID: userID,
			SenderName:   view.Author.DisplayName,
			ContentID:    comment.ContentID,
			CommentID:    comment.ID,
		})
	}
	if s.events != nil {
		s.events.CommentPosted(comment.ContentType, comment.ContentID, view)
	}
	return view, nil
}

// authorSnapshot joins the author profile after insert, degrading to the
// caller-supplied display fields when the profile cannot be fetched.
func (s *commentService) authorSnapshot(ctx context.Context, userID string, req models.CreateCommentRequest) models.Profile {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err == nil {
		return *profile
	}
	if !errors.Is(err, models.ErrNotFound) {
		logger.Warnf("author profile fetch failed for %s: %v", userID, err)
	}
	fallback := models.PlaceholderProfile(userID)
	if req.DisplayName != "" {
		fallback.DisplayName = req.DisplayName
		fallback.Username = req.DisplayName
	}
	if req.AvatarURL != "" {
		fallback.AvatarURL = req.AvatarURL
	}
	return fallback
}

// Update edits the caller's own comment
func (s *commentService) Update(ctx context.Context, commentID, userID string, req models.UpdateCommentRequest) (*models.CommentView, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" && !(req.MediaURL.Set && req.MediaURL.Value != nil) {
		return nil, ErrEmptyComment
	}
	if len(text) > models.MaxCommentLength {
		return nil, ErrCommentTooLong
	}

	comment, err := s.comments.Update(ctx, commentID, identity.Normalize(userID), text, req.MediaURL)
	if err != nil {
		return nil, err
	}

	view := &models.CommentView{Comment: *comment, Replies: []*models.CommentView{}}
	if profile, perr := s.profiles.GetByID(ctx, comment.UserID); perr == nil {
		view.Author = *profile
	} else {
		view.Author = models.PlaceholderProfile(comment.UserID)
	}
	if s.events != nil {
		s.events.CommentUpdated(comment.ContentType, comment.ContentID, view)
	}
	return view, nil
}

// Delete removes the caller's own comment. Replies to a deleted top-level
// comment stay in the store; they disappear from threaded listings because
// their parent no longer anchors a thread.
func (s *commentService) Delete(ctx context.Context, commentID, userID string) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, commentID, identity.Normalize(userID)); err != nil {
		return err
	}
	if s.events != nil {
		s.events.CommentDeleted(comment.ContentType, comment.ContentID, commentID)
	}
	return nil
}

// ListFlat returns all comments newest first without joins
func (s *commentService) ListFlat(ctx context.Context, contentID, contentType string) ([]*models.Comment, error) {
	return s.comments.ListFlat(ctx, contentID, contentType)
}

// ListThreaded assembles the composed comment views for one subject
func (s *commentService) ListThreaded(ctx context.Context, contentID, contentType, viewerID string) ([]*models.CommentView, error) {
	if viewerID != "" {
		viewerID = identity.Normalize(viewerID)
	}

	var topLevel, replies []*models.Comment
	var err error

	if s.caps.ThreadedComments {
		topLevel, err = s.comments.ListTopLevel(ctx, contentID, contentType)
		if err != nil {
			return nil, err
		}
		parentIDs := make([]string, 0, len(topLevel))
		for _, c := range topLevel {
			parentIDs = append(parentIDs, c.ID)
		}
		replies, err = s.comments.ListReplies(ctx, parentIDs)
		if err != nil {
			return nil, err
		}
	} else {
		// Threading column absent: every comment is served top-level.
		topLevel, err = s.comments.ListFlat(ctx, contentID, contentType)
		if err != nil {
			return nil, err
		}
	}

	commentIDs := make([]string, 0, len(topLevel)+len(replies))
	authorSet := make(map[string]struct{})
	for _, c := range topLevel {
		commentIDs = append(commentIDs, c.ID)
		authorSet[c.UserID] = struct{}{}
	}
	for _, c := range replies {
		commentIDs = append(commentIDs, c.ID)
		authorSet[c.UserID] = struct{}{}
	}
	authorIDs := make([]string, 0, len(authorSet))
	for id := range authorSet {
		authorIDs = append(authorIDs, id)
	}

	// The three read-time joins are independent of each other; issue them
	// together and await jointly.
	var (
		wg          sync.WaitGroup
		profiles    map[string]models.Profile
		likeCounts  map[string]int
		viewerLikes map[string]bool
		profileErr  error
		countErr    error
		likedErr    error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		profiles, profileErr = s.profiles.GetByIDs(ctx, authorIDs)
	}()
	go func() {
		defer wg.Done()
		likeCounts, countErr = s.likes.CountByComments(ctx, commentIDs)
	}()
	go func() {
		defer wg.Done()
		viewerLikes, likedErr = s.likes.LikedByUser(ctx, commentIDs, viewerID)
	}()
	wg.Wait()

	if countErr != nil {
		return nil, countErr
	}
	if likedErr != nil {
		return nil, likedErr
	}
	if profileErr != nil {
		// Missing profiles degrade to placeholders rather than failing
		// the listing.
		logger.Warnf("profile batch fetch failed: %v", profileErr)
		profiles = map[string]models.Profile{}
	}

	compose := func(c *models.Comment) *models.CommentView {
		view := &models.CommentView{
			Comment:      *c,
			LikeCount:    likeCounts[c.ID],
			UserHasLiked: viewerLikes[c.ID],
			Replies:      []*models.CommentView{},
		}
		if profile, ok := profiles[c.UserID]; ok {
			view.Author = profile
		} else {
			view.Author = models.PlaceholderProfile(c.UserID)
		}
		return view
	}

	views := make([]*models.CommentView, 0, len(topLevel))
	byID := make(map[string]*models.CommentView, len(topLevel))
	for _, c := range topLevel {
		view := compose(c)
		views = append(views, view)
		byID[c.ID] = view
	}
	for _, c := range replies {
		parent, ok := byID[*c.ParentCommentID]
		if !ok {
			// Orphaned reply: parent deleted after the top-level fetch.
			continue
		}
		parent.Replies = append(parent.Replies, compose(c))
	}
	for _, view := range views {
		replies := view.Replies
		sort.SliceStable(replies, func(i, j int) bool {
			return replies[i].CreatedAt.Before(replies[j].CreatedAt)
		})
	}
	return views, nil
}
