package scan

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRecords(t *testing.T, store Store, userID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, store.Save(context.Background(), &Record{
			ID:        fmt.Sprintf("%s-%d", userID, i),
			UserID:    userID,
			CreatedAt: fixtureTime.Add(time.Duration(i) * time.Minute),
		}))
	}
}

func TestHistoryList(t *testing.T) {
	store := newMemStore()
	seedRecords(t, store, "u1", 3)
	seedRecords(t, store, "u2", 2)
	h := NewHistory(store)

	records, err := h.List(context.Background(), "u1")
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, "u1-2", records[0].ID)
	for _, r := range records {
		assert.Equal(t, "u1", r.UserID)
	}
}

func TestHistoryList_PageSize(t *testing.T) {
	store := newMemStore()
	seedRecords(t, store, "u1", HistoryPageSize+5)

	records, err := NewHistory(store).List(context.Background(), "u1")
	require.NoError(t, err)

	assert.Len(t, records, HistoryPageSize)
}

func TestHistoryList_EmptyUser(t *testing.T) {
	records, err := NewHistory(newMemStore()).List(context.Background(), "nobody")
	require.NoError(t, err)

	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestHistoryList_RequiresUserID(t *testing.T) {
	_, err := NewHistory(newMemStore()).List(context.Background(), " ")
	assert.ErrorIs(t, err, ErrUserIDRequired)
}

func TestHistoryGet(t *testing.T) {
	store := newMemStore()
	seedRecords(t, store, "u1", 1)
	h := NewHistory(store)

	rec, err := h.Get(context.Background(), "u1-0", "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", rec.UserID)

	_, err = h.Get(context.Background(), "u1-0", "u2")
	assert.ErrorIs(t, err, ErrForbidden)

	rec, err = h.Get(context.Background(), "u1-0", "")
	require.NoError(t, err)
	assert.Equal(t, "u1-0", rec.ID)

	_, err = h.Get(context.Background(), "missing", "u1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHistoryDelete(t *testing.T) {
	store := newMemStore()
	seedRecords(t, store, "u1", 3)
	seedRecords(t, store, "u2", 1)
	h := NewHistory(store)

	n, err := h.Delete(context.Background(), "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	records, err := h.List(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = h.Get(context.Background(), "u1-0", "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	others, err := h.List(context.Background(), "u2")
	require.NoError(t, err)
	assert.Len(t, others, 1)

	_, err = h.Delete(context.Background(), "")
	assert.ErrorIs(t, err, ErrUserIDRequired)
}
