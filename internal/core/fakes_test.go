package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"manganime/pkg/models"
	"manganime/pkg/utils"
)

// In-memory repository fakes shared by the service tests. They mirror the
// store's observable behavior: ownership filters read as not-found, duplicate
// like inserts report models.ErrDuplicate, batched reads return maps.

type fakeComments struct {
	mu   sync.Mutex
	rows map[string]models.Comment
	now  time.Time
}

func newFakeComments() *fakeComments {
	return &fakeComments{
		rows: make(map[string]models.Comment),
		now:  time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
	}
}

func (f *fakeComments) tick() time.Time {
	f.now = f.now.Add(time.Minute)
	return f.now
}

func (f *fakeComments) Create(_ context.Context, comment *models.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if comment.ID == "" {
		comment.ID = utils.NewID()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = f.tick()
	}
	comment.UpdatedAt = comment.CreatedAt
	f.rows[comment.ID] = *comment
	return nil
}

func (f *fakeComments) GetByID(_ context.Context, id string) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, fmt.Errorf("get_comment_by_id: %w", models.ErrNotFound)
	}
	return &row, nil
}

func (f *fakeComments) Update(_ context.Context, id, userID, text string, media models.NullableString) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok || row.UserID != userID {
		return nil, fmt.Errorf("update_comment: %w", models.ErrNotFound)
	}
	row.Text = text
	if media.Set {
		row.MediaURL = media.Value
	}
	row.UpdatedAt = f.tick()
	f.rows[id] = row
	return &row, nil
}

func (f *fakeComments) Delete(_ context.Context, id, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok || row.UserID != userID {
		return fmt.Errorf("delete_comment: %w", models.ErrNotFound)
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeComments) ListTopLevel(_ context.Context, contentID, contentType string) ([]*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Comment
	for _, row := range f.rows {
		if row.ContentID == contentID && row.ContentType == contentType && !row.IsReply() {
			r := row
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeComments) ListReplies(_ context.Context, parentIDs []string) ([]*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	parentSet := make(map[string]struct{}, len(parentIDs))
	for _, id := range parentIDs {
		parentSet[id] = struct{}{}
	}
	var out []*models.Comment
	for _, row := range f.rows {
		if row.IsReply() {
			if _, ok := parentSet[*row.ParentCommentID]; ok {
				r := row
				out = append(out, &r)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeComments) ListFlat(_ context.Context, contentID, contentType string) ([]*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Comment
	for _, row := range f.rows {
		if row.ContentID == contentID && row.ContentType == contentType {
			r := row
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeComments) WithTransaction(_ context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type fakeLikes struct {
	mu   sync.Mutex
	rows map[string]map[string]bool // commentID -> userID set
}

func newFakeLikes() *fakeLikes {
	return &fakeLikes{rows: make(map[string]map[string]bool)}
}

func (f *fakeLikes) Exists(_ context.Context, commentID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[commentID][userID], nil
}

func (f *fakeLikes) Insert(_ context.Context, commentID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rows[commentID] == nil {
		f.rows[commentID] = make(map[string]bool)
	}
	if f.rows[commentID][userID] {
		return fmt.Errorf("insert_like: %w", models.ErrDuplicate)
	}
	f.rows[commentID][userID] = true
	return nil
}

func (f *fakeLikes) Delete(_ context.Context, commentID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows[commentID], userID)
	return nil
}

func (f *fakeLikes) Count(_ context.Context, commentID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows[commentID]), nil
}

func (f *fakeLikes) CountByComments(_ context.Context, commentIDs []string) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[string]int)
	for _, id := range commentIDs {
		if n := len(f.rows[id]); n > 0 {
			counts[id] = n
		}
	}
	return counts, nil
}

func (f *fakeLikes) LikedByUser(_ context.Context, commentIDs []string, userID string) (map[string]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	liked := make(map[string]bool)
	if userID == "" {
		return liked, nil
	}
	for _, id := range commentIDs {
		if f.rows[id][userID] {
			liked[id] = true
		}
	}
	return liked, nil
}

type fakeProfiles struct {
	mu   sync.Mutex
	rows map[string]models.Profile
}

func newFakeProfiles(profiles ...models.Profile) *fakeProfiles {
	f := &fakeProfiles{rows: make(map[string]models.Profile)}
	for _, p := range profiles {
		f.rows[p.ID] = p
	}
	return f
}

func (f *fakeProfiles) Create(_ context.Context, profile *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.rows {
		if p.Username == profile.Username {
			return fmt.Errorf("create_profile: %w", models.ErrUsernameExists)
		}
	}
	profile.CreatedAt = time.Now()
	f.rows[profile.ID] = *profile
	return nil
}

func (f *fakeProfiles) GetByID(_ context.Context, id string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok {
		return nil, fmt.Errorf("get_profile: %w", models.ErrNotFound)
	}
	return &p, nil
}

func (f *fakeProfiles) GetByUsername(_ context.Context, username string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.rows {
		if p.Username == username {
			row := p
			return &row, nil
		}
	}
	return nil, fmt.Errorf("get_profile: %w", models.ErrNotFound)
}

func (f *fakeProfiles) GetByIDs(_ context.Context, ids []string) (map[string]models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]models.Profile)
	for _, id := range ids {
		if p, ok := f.rows[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (f *fakeProfiles) UsernameExists(_ context.Context, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.rows {
		if p.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeProfiles) Update(_ context.Context, profile *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[profile.ID] = *profile
	return nil
}

// recordingNotifications captures Dispatch calls synchronously.
type recordingNotifications struct {
	mu    sync.Mutex
	calls []dispatchCall
}

type dispatchCall struct {
	Recipient string
	Kind      models.NotificationType
	Context   models.NotificationContext
}

func (r *recordingNotifications) Dispatch(recipientID string, kind models.NotificationType, nctx models.NotificationContext) {
	if nctx.SenderUserID != "" && nctx.SenderUserID == recipientID {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, dispatchCall{Recipient: recipientID, Kind: kind, Context: nctx})
}

func (r *recordingNotifications) List(context.Context, string, int) ([]*models.Notification, error) {
	return nil, nil
}
func (r *recordingNotifications) MarkRead(context.Context, string, string) error   { return nil }
func (r *recordingNotifications) MarkAllRead(context.Context, string) error        { return nil }
func (r *recordingNotifications) CountUnread(context.Context, string) (int, error) { return 0, nil }

func (r *recordingNotifications) dispatched() []dispatchCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]dispatchCall(nil), r.calls...)
}
