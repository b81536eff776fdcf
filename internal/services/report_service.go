package services

import (
	"context"
	"fmt"
	"time"

	"github.com/axellelanca/trackit/internal/repository"
)

// DefaultPageSize is the listing page size used when none is configured.
const DefaultPageSize = 25

// Rolling windows of the daily stats.
const (
	window24h = 24 * time.Hour
	window30d = 30 * 24 * time.Hour
)

// pageWindowSpan is how many page links are shown around the current page.
const pageWindowSpan = 5

// Row date and time layouts.
const (
	dayLayout  = "02-01-2006"
	timeLayout = "15:04:05"
)

// DailyStats holds the rolling-window visit counts.
type DailyStats struct {
	Last24h int64 `json:"last_24h"`
	Last30d int64 `json:"last_30d"`
}

// VisitRow is one visit prepared for display.
type VisitRow struct {
	ID                  uint64 `json:"id"`
	Day                 string `json:"day"`
	Time                string `json:"time"`
	SourceURL           string `json:"source_url"`
	SourceCustomElement string `json:"source_custom_element"`
}

// PageWindow is the inclusive range of page numbers shown for navigation.
type PageWindow struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Pages lists every page number of the window.
func (w PageWindow) Pages() []int {
	if w.End < w.Start {
		return nil
	}
	pages := make([]int, 0, w.End-w.Start+1)
	for p := w.Start; p <= w.End; p++ {
		pages = append(pages, p)
	}
	return pages
}

// VisitPage is one page of the reverse-chronological listing.
type VisitPage struct {
	Rows        []VisitRow `json:"rows"`
	CurrentPage int        `json:"current_page"`
	TotalPages  int        `json:"total_pages"`
	TotalCount  int64      `json:"total_count"`
	PageSize    int        `json:"page_size"`
	Window      PageWindow `json:"window"`
}

// HasPrevious reports whether a previous page link is active.
func (p *VisitPage) HasPrevious() bool { return p.CurrentPage > 1 }

// HasNext reports whether a next page link is active.
func (p *VisitPage) HasNext() bool { return p.CurrentPage < p.TotalPages }

// ReportService computes the dashboard counters and listings.
// Storage errors are returned to the caller.
type ReportService struct {
	store    repository.VisitStore
	loc      *time.Location
	pageSize int
}

// NewReportService creates a ReportService rendering row times in loc.
func NewReportService(store repository.VisitStore, loc *time.Location, pageSize int) *ReportService {
	if loc == nil {
		loc = time.Local
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &ReportService{store: store, loc: loc, pageSize: pageSize}
}

// PageSize is the configured listing page size.
func (s *ReportService) PageSize() int {
	return s.pageSize
}

// DailyStats counts visits of the last 24 hours and the last 30 days.
func (s *ReportService) DailyStats(ctx context.Context) (DailyStats, error) {
	day, err := s.store.CountSince(ctx, window24h)
	if err != nil {
		return DailyStats{}, fmt.Errorf("count last 24h: %w", err)
	}
	month, err := s.store.CountSince(ctx, window30d)
	if err != nil {
		return DailyStats{}, fmt.Errorf("count last 30d: %w", err)
	}
	return DailyStats{Last24h: day, Last30d: month}, nil
}

// ListPage returns page pageNumber of the listing. Non-positive page numbers read
// as 1 and a non-positive pageSize uses the configured size. Pages past the end
// come back with no rows.
func (s *ReportService) ListPage(ctx context.Context, pageNumber, pageSize int) (*VisitPage, error) {
	pageNumber = NormalizePage(pageNumber)
	if pageSize <= 0 {
		pageSize = s.pageSize
	}

	visits, total, err := s.store.Page(ctx, pageNumber, pageSize)
	if err != nil {
		return nil, fmt.Errorf("list visits page %d: %w", pageNumber, err)
	}

	rows := make([]VisitRow, 0, len(visits))
	for _, v := range visits {
		local := v.VisitedAt.In(s.loc)
		rows = append(rows, VisitRow{
			ID:                  v.ID,
			Day:                 local.Format(dayLayout),
			Time:                local.Format(timeLayout),
			SourceURL:           v.SourceURL,
			SourceCustomElement: v.SourceCustomElement,
		})
	}

	totalPages := TotalPages(total, pageSize)
	return &VisitPage{
		Rows:        rows,
		CurrentPage: pageNumber,
		TotalPages:  totalPages,
		TotalCount:  total,
		PageSize:    pageSize,
		Window:      ComputeWindow(pageNumber, totalPages),
	}, nil
}

// TotalPages is ceil(total/pageSize), never less than 1.
func TotalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	pages := int((total + int64(pageSize) - 1) / int64(pageSize))
	if pages < 1 {
		return 1
	}
	return pages
}

// ComputeWindow centers a five-page window on current, clamped to [1, totalPages].
func ComputeWindow(current, totalPages int) PageWindow {
	// Any page past the end yields the same window as the last page.
	current = min(current, totalPages)
	start := max(1, min(current-2, totalPages-(pageWindowSpan-1)))
	end := min(totalPages, max(current+2, pageWindowSpan))
	return PageWindow{Start: start, End: end}
}

// NormalizePage maps non-positive page numbers to 1.
func NormalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// ClampPage restricts page to [1, totalPages].
func ClampPage(page, totalPages int) int {
	return max(1, min(page, totalPages))
}
