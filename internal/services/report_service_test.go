package services_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	customerrors "github.com/axellelanca/trackit/internal/errors"
	"github.com/axellelanca/trackit/internal/services"
)

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total    int64
		size     int
		expected int
	}{
		{0, 25, 1},
		{1, 25, 1},
		{25, 25, 1},
		{26, 25, 2},
		{100, 25, 4},
		{101, 25, 5},
		{10, 0, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, services.TotalPages(tt.total, tt.size), "total=%d size=%d", tt.total, tt.size)
	}
}

func TestComputeWindow(t *testing.T) {
	tests := []struct {
		name       string
		current    int
		total      int
		start, end int
	}{
		{"first of ten", 1, 10, 1, 5},
		{"last of ten", 10, 10, 6, 10},
		{"middle of ten", 5, 10, 3, 7},
		{"second of ten", 2, 10, 1, 5},
		{"ninth of ten", 9, 10, 6, 10},
		{"single page", 1, 1, 1, 1},
		{"three pages", 2, 3, 1, 3},
		{"past the end", 12, 10, 6, 10},
		{"max int", math.MaxInt, 10, 6, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := services.ComputeWindow(tt.current, tt.total)
			assert.Equal(t, tt.start, w.Start)
			assert.Equal(t, tt.end, w.End)
		})
	}
}

func TestPageWindow_Pages(t *testing.T) {
	assert.Equal(t, []int{3, 4, 5, 6, 7}, services.PageWindow{Start: 3, End: 7}.Pages())
	assert.Nil(t, services.PageWindow{Start: 2, End: 1}.Pages())
}

func TestNormalizeAndClampPage(t *testing.T) {
	assert.Equal(t, 1, services.NormalizePage(0))
	assert.Equal(t, 1, services.NormalizePage(-4))
	assert.Equal(t, 7, services.NormalizePage(7))

	assert.Equal(t, 4, services.ClampPage(9, 4))
	assert.Equal(t, 1, services.ClampPage(0, 4))
	assert.Equal(t, 2, services.ClampPage(2, 4))
}

func TestDailyStats(t *testing.T) {
	store := newMemStore()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	for _, age := range []time.Duration{time.Hour, 48 * time.Hour, 40 * 24 * time.Hour} {
		store.now = func() time.Time { return now.Add(-age) }
		_, err := store.Insert(ctx, "http://example.com/", "")
		require.NoError(t, err)
	}
	store.now = func() time.Time { return now }

	stats, err := services.NewReportService(store, time.UTC, 0).DailyStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Last24h)
	assert.Equal(t, int64(2), stats.Last30d)
}

func TestDailyStats_StorageError(t *testing.T) {
	store := newMemStore()
	store.fail = true

	_, err := services.NewReportService(store, time.UTC, 0).DailyStats(context.Background())
	require.Error(t, err)
	assert.True(t, customerrors.IsStorageError(err))
}

func TestListPage(t *testing.T) {
	store := newMemStore()
	store.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		_, err := store.Insert(ctx, "https://example.com/p", "")
		require.NoError(t, err)
	}

	reports := services.NewReportService(store, time.UTC, 3)
	assert.Equal(t, 3, reports.PageSize())

	page, err := reports.ListPage(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, int64(7), page.TotalCount)
	require.Len(t, page.Rows, 3)
	assert.Equal(t, uint64(7), page.Rows[0].ID)
	assert.Equal(t, "02-01-2026", page.Rows[0].Day)
	assert.Equal(t, "03:04:05", page.Rows[0].Time)
	assert.False(t, page.HasPrevious())
	assert.True(t, page.HasNext())
	assert.Equal(t, services.PageWindow{Start: 1, End: 3}, page.Window)

	last, err := reports.ListPage(ctx, 3, 0)
	require.NoError(t, err)
	require.Len(t, last.Rows, 1)
	assert.Equal(t, uint64(1), last.Rows[0].ID)
	assert.True(t, last.HasPrevious())
	assert.False(t, last.HasNext())

	past, err := reports.ListPage(ctx, 9, 0)
	require.NoError(t, err)
	assert.Empty(t, past.Rows)
}

func TestListPage_HugePageNumber(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := store.Insert(ctx, "https://example.com/p", "")
		require.NoError(t, err)
	}

	page, err := services.NewReportService(store, time.UTC, 2).ListPage(ctx, math.MaxInt, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Rows)
	assert.Equal(t, 2, page.TotalPages)
	assert.False(t, page.HasNext())
	assert.True(t, page.HasPrevious())
	assert.Equal(t, services.PageWindow{Start: 1, End: 2}, page.Window)
}

func TestListPage_RendersInLocation(t *testing.T) {
	store := newMemStore()
	store.now = func() time.Time { return time.Date(2026, 1, 1, 23, 30, 0, 0, time.UTC) }
	_, err := store.Insert(context.Background(), "https://example.com/", "")
	require.NoError(t, err)

	loc := time.FixedZone("UTC+2", 2*60*60)
	page, err := services.NewReportService(store, loc, 10).ListPage(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, "02-01-2026", page.Rows[0].Day)
	assert.Equal(t, "01:30:00", page.Rows[0].Time)
}

func TestListPage_EmptyStore(t *testing.T) {
	page, err := services.NewReportService(newMemStore(), time.UTC, 25).ListPage(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Rows)
	assert.Equal(t, 1, page.TotalPages)
	assert.False(t, page.HasNext())
}
