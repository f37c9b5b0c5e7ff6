package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "captures.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(db.Pool))
	return db
}

func TestMigrateIdempotent(t *testing.T) {
	db := testDB(t)
	require.NoError(t, Migrate(db.Pool))
}

func TestInsertAndGetCapture(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	id, err := InsertCapture(ctx, db.Pool, Capture{
		Title:       "Backend Engineer - Acme",
		URL:         "https://acme.example/jobs/42",
		Company:     "Acme",
		Description: "Full job description...",
		Outcome:     OutcomeSaved,
		RemoteID:    7,
	})
	require.NoError(t, err)
	require.Positive(t, id)

	got, err := GetCapture(ctx, db.Pool, id)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Company)
	assert.Equal(t, OutcomeSaved, got.Outcome)
	assert.Equal(t, int64(7), got.RemoteID)
	assert.NotEmpty(t, got.UID)
	assert.NotEmpty(t, got.CreatedAt)
}

func TestInsertCaptureRejectsBadOutcome(t *testing.T) {
	db := testDB(t)
	_, err := InsertCapture(context.Background(), db.Pool, Capture{
		Company: "Acme", Outcome: "pending",
	})
	require.Error(t, err)
}

func TestListCapturesFilters(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	for _, c := range []Capture{
		{Title: "a", URL: "https://x/1", Company: "X", Outcome: OutcomeSaved, RemoteID: 1},
		{Title: "b", URL: "https://x/2", Company: "X", Outcome: OutcomeFailed, Error: "500"},
		{Title: "c", URL: "https://x/3", Company: "Y", Outcome: OutcomeFailed, Error: "unreachable",
			CreatedAt: time.Now().UTC().Add(-30 * 24 * time.Hour).Format(time.RFC3339)},
	} {
		_, err := InsertCapture(ctx, db.Pool, c)
		require.NoError(t, err)
	}

	all, err := ListCaptures(ctx, db.Pool, ListCapturesOpts{Window: "all"})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	failed, err := ListCaptures(ctx, db.Pool, ListCapturesOpts{Window: "all", Outcome: OutcomeFailed})
	require.NoError(t, err)
	assert.Len(t, failed, 2)

	recent, err := ListCaptures(ctx, db.Pool, ListCapturesOpts{Window: "7d"})
	require.NoError(t, err)
	assert.Len(t, recent, 2, "the 30-day-old row falls out of the 7d window")
}

func TestListCapturesWindowBoundary(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	// 30h old: same-or-adjacent calendar day as the 24h cutoff, so a
	// format mismatch between stored timestamps and the cutoff would let
	// it slip through.
	_, err := InsertCapture(ctx, db.Pool, Capture{
		Title: "stale", URL: "https://x/stale", Company: "X", Outcome: OutcomeSaved,
		CreatedAt: time.Now().UTC().Add(-30 * time.Hour).Format(time.RFC3339),
	})
	require.NoError(t, err)

	_, err = InsertCapture(ctx, db.Pool, Capture{
		Title: "fresh", URL: "https://x/fresh", Company: "X", Outcome: OutcomeSaved,
		CreatedAt: time.Now().UTC().Add(-2 * time.Hour).Format(time.RFC3339),
	})
	require.NoError(t, err)

	day, err := ListCaptures(ctx, db.Pool, ListCapturesOpts{Window: "24h"})
	require.NoError(t, err)
	require.Len(t, day, 1)
	assert.Equal(t, "fresh", day[0].Title)

	week, err := ListCaptures(ctx, db.Pool, ListCapturesOpts{Window: "7d"})
	require.NoError(t, err)
	assert.Len(t, week, 2)
}

func TestListFailedIncludesDescription(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	_, err := InsertCapture(ctx, db.Pool, Capture{
		Title: "b", URL: "https://x/2", Company: "X",
		Description: "stored body", Outcome: OutcomeFailed, Error: "500",
	})
	require.NoError(t, err)

	failed, err := ListFailed(ctx, db.Pool, 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "stored body", failed[0].Description)
}

func TestMarkSavedClearsError(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	id, err := InsertCapture(ctx, db.Pool, Capture{
		Title: "b", URL: "https://x/2", Company: "X",
		Outcome: OutcomeFailed, Error: "unreachable",
	})
	require.NoError(t, err)

	require.NoError(t, MarkSaved(ctx, db.Pool, id, 55))

	got, err := GetCapture(ctx, db.Pool, id)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSaved, got.Outcome)
	assert.Equal(t, int64(55), got.RemoteID)
	assert.Empty(t, got.Error)
}

func TestDeleteCapture(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	id, err := InsertCapture(ctx, db.Pool, Capture{
		Title: "a", URL: "https://x/1", Company: "X", Outcome: OutcomeSaved,
	})
	require.NoError(t, err)

	require.NoError(t, DeleteCapture(ctx, db.Pool, id))
	_, err = GetCapture(ctx, db.Pool, id)
	require.Error(t, err)
}

func TestCleanupOldCaptures(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	_, err := InsertCapture(ctx, db.Pool, Capture{
		Title: "old", URL: "https://x/old", Company: "X", Outcome: OutcomeSaved,
		CreatedAt: time.Now().UTC().Add(-100 * 24 * time.Hour).Format(time.RFC3339),
	})
	require.NoError(t, err)
	_, err = InsertCapture(ctx, db.Pool, Capture{
		Title: "new", URL: "https://x/new", Company: "X", Outcome: OutcomeSaved,
	})
	require.NoError(t, err)

	n, err := CleanupOldCaptures(db.Pool, 90)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCleanupOldCapturesRetentionBoundary(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	for title, age := range map[string]time.Duration{
		"past-retention":   91 * 24 * time.Hour,
		"inside-retention": 89 * 24 * time.Hour,
	} {
		_, err := InsertCapture(ctx, db.Pool, Capture{
			Title: title, URL: "https://x/" + title, Company: "X", Outcome: OutcomeSaved,
			CreatedAt: time.Now().UTC().Add(-age).Format(time.RFC3339),
		})
		require.NoError(t, err)
	}

	n, err := CleanupOldCaptures(db.Pool, 90)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	kept, err := ListCaptures(ctx, db.Pool, ListCapturesOpts{Window: "all"})
	require.NoError(t, err)
	require.Len(t, kept, 1)
	assert.Equal(t, "inside-retention", kept[0].Title)
}
