package audit

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubTimeline struct {
	events  []Event
	filters TimelineFilters
	limit   int
	offset  int
	err     error
}

func (s *stubTimeline) Timeline(ctx context.Context, filters TimelineFilters, limit, offset int) ([]Event, error) {
	s.filters = filters
	s.limit = limit
	s.offset = offset
	if s.err != nil {
		return nil, s.err
	}
	if offset >= len(s.events) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.events) {
		end = len(s.events)
	}
	return s.events[offset:end], nil
}

func makeEvents(n int) []Event {
	out := make([]Event, n)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := range out {
		out[i] = Event{
			ID:           fmt.Sprintf("evt-%d", i),
			TenantID:     1,
			Actor:        int64(i%3 + 1),
			Action:       "file.lock",
			ResourceType: ResourceFile,
			ResourceID:   "100",
			Outcome:      OutcomeAllowed,
			At:           base.Add(-time.Duration(i) * time.Minute),
		}
	}
	return out
}

func TestTimelineDefaultPaging(t *testing.T) {
	repo := &stubTimeline{events: makeEvents(25)}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), TimelineFilters{TenantID: 1})
	require.NoError(t, err)
	require.Len(t, result.Events, 20)
	require.Equal(t, 1, result.Paging.Page)
	require.Equal(t, 20, result.Paging.PageSize)
	require.True(t, result.Paging.HasNext)
	require.Equal(t, 2, result.Paging.NextPage)
	require.Zero(t, result.Paging.PrevPage)
	require.Equal(t, 21, repo.limit, "one extra row probes for a next page")
}

func TestTimelineLastPage(t *testing.T) {
	repo := &stubTimeline{events: makeEvents(25)}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), TimelineFilters{TenantID: 1, Page: 2})
	require.NoError(t, err)
	require.Len(t, result.Events, 5)
	require.False(t, result.Paging.HasNext)
	require.Equal(t, 1, result.Paging.PrevPage)
	require.Equal(t, 20, repo.offset)
}

func TestTimelinePageSizeClamp(t *testing.T) {
	repo := &stubTimeline{events: makeEvents(120)}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), TimelineFilters{TenantID: 1, PageSize: 500})
	require.NoError(t, err)
	require.Equal(t, 50, result.Paging.PageSize)
	require.Len(t, result.Events, 50)
}

func TestExportCSV(t *testing.T) {
	events := makeEvents(2)
	events[1].Outcome = OutcomeDenied
	repo := &stubTimeline{events: events}
	svc := NewService(repo)

	data, err := svc.ExportCSV(context.Background(), TimelineFilters{TenantID: 1})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "at,actor,action,resource_type,resource_id,outcome", lines[0])
	require.Contains(t, lines[1], "file.lock")
	require.Contains(t, lines[2], OutcomeDenied)
	require.Equal(t, 10000, repo.limit)
	require.Zero(t, repo.offset, "export ignores paging")
}

func TestTimelineWithoutRepository(t *testing.T) {
	svc := NewService(nil)
	_, err := svc.Timeline(context.Background(), TimelineFilters{})
	require.Error(t, err)
	_, err = svc.ExportCSV(context.Background(), TimelineFilters{})
	require.Error(t, err)
}
