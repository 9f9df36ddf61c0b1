package audit

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"
)

// TimelineFilters narrows the audit timeline query.
type TimelineFilters struct {
	TenantID     int64
	From         time.Time
	To           time.Time
	Actor        int64
	Action       string
	ResourceType string
	Page         int
	PageSize     int
}

// PagingInfo describes the returned window.
type PagingInfo struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasNext  bool `json:"has_next"`
	PrevPage int  `json:"prev_page,omitempty"`
	NextPage int  `json:"next_page,omitempty"`
}

// Result wraps timeline rows with paging information.
type Result struct {
	Events []Event
	Paging PagingInfo
}

// TimelineRepository defines the query surface the service needs.
type TimelineRepository interface {
	Timeline(ctx context.Context, filters TimelineFilters, limit, offset int) ([]Event, error)
}

// Service coordinates audit timeline reads.
type Service struct {
	repo TimelineRepository
}

// NewService builds a timeline service.
func NewService(repo TimelineRepository) *Service {
	return &Service{repo: repo}
}

// Timeline fetches audit events with paging. One extra row is requested to
// detect whether a next page exists.
func (s *Service) Timeline(ctx context.Context, filters TimelineFilters) (Result, error) {
	if s.repo == nil {
		return Result{}, fmt.Errorf("audit: repository not configured")
	}
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 50 {
		pageSize = 50
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize

	rows, err := s.repo.Timeline(ctx, filters, pageSize+1, offset)
	if err != nil {
		return Result{}, err
	}
	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Events: rows, Paging: paging}, nil
}

// ExportCSV renders the filtered timeline as CSV, without paging.
func (s *Service) ExportCSV(ctx context.Context, filters TimelineFilters) ([]byte, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("audit: repository not configured")
	}
	const exportLimit = 10000
	rows, err := s.repo.Timeline(ctx, filters, exportLimit, 0)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"at", "actor", "action", "resource_type", "resource_id", "outcome"}); err != nil {
		return nil, err
	}
	for _, e := range rows {
		record := []string{
			e.At.UTC().Format(time.RFC3339),
			strconv.FormatInt(e.Actor, 10),
			e.Action,
			e.ResourceType,
			e.ResourceID,
			e.Outcome,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Timeline implements TimelineRepository on the PostgreSQL store.
func (s *Store) Timeline(ctx context.Context, filters TimelineFilters, limit, offset int) ([]Event, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, tenant_id, actor_id, action, resource_type, resource_id, outcome, occurred_at
		FROM audit_events
		WHERE tenant_id = $1
		  AND ($2::timestamptz IS NULL OR occurred_at >= $2)
		  AND ($3::timestamptz IS NULL OR occurred_at <= $3)
		  AND ($4::bigint = 0 OR actor_id = $4)
		  AND ($5::text = '' OR action = $5)
		  AND ($6::text = '' OR resource_type = $6)
		ORDER BY occurred_at DESC
		LIMIT $7 OFFSET $8`,
		filters.TenantID, nullableTime(filters.From), nullableTime(filters.To), filters.Actor,
		filters.Action, filters.ResourceType, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.TenantID, &e.Actor, &e.Action, &e.ResourceType, &e.ResourceID, &e.Outcome, &e.At); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
