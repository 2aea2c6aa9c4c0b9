package scan

import (
	"context"
	"strings"
)

// History exposes per-user access to stored scans.
type History struct {
	store Store
}

func NewHistory(store Store) *History {
	return &History{store: store}
}

// List returns the user's scans, newest first, at most HistoryPageSize.
// A user with no scans gets an empty slice.
func (h *History) List(ctx context.Context, userID string) ([]*Record, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserIDRequired
	}
	records, err := h.store.ListByUser(ctx, userID, HistoryPageSize)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*Record{}
	}
	return records, nil
}

// Get returns a scan by id. When userID is non-empty the scan must belong
// to that user, otherwise ErrForbidden is returned. An empty userID skips
// the ownership check so that direct links keep working.
func (h *History) Get(ctx context.Context, id, userID string) (*Record, error) {
	record, err := h.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if userID != "" && record.UserID != userID {
		return nil, ErrForbidden
	}
	return record, nil
}

// Delete removes every scan owned by userID and reports how many were removed.
func (h *History) Delete(ctx context.Context, userID string) (int64, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, ErrUserIDRequired
	}
	return h.store.DeleteByUser(ctx, userID)
}
