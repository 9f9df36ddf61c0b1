package files

import (
	"context"
	"strconv"

	"github.com/doctrove/doctrove/internal/audit"
	"github.com/doctrove/doctrove/internal/authz"
	"github.com/doctrove/doctrove/internal/shared"
)

// DecisionObserver receives the outcome of every explicit access check.
type DecisionObserver interface {
	ObserveDecision(operation, outcome string)
}

// Service answers access questions about file records. Decisions themselves
// are pure; the service adds scope-safe loading and audit emission around
// them.
type Service struct {
	repo     Repository
	recorder *audit.Recorder
	observer DecisionObserver
}

// NewService constructs a Service. observer may be nil.
func NewService(repo Repository, recorder *audit.Recorder, observer DecisionObserver) *Service {
	return &Service{repo: repo, recorder: recorder, observer: observer}
}

// Check decides one operation against one file. Files outside the caller's
// tenant scope surface as not found; in-scope denials carry the specific
// reason. Denied privileged operations are audited.
func (s *Service) Check(ctx context.Context, p authz.Principal, fileID int64, op authz.Operation) (authz.Decision, error) {
	if !op.Valid() {
		return authz.Decision{}, shared.ErrValidation
	}
	file, err := s.repo.GetFile(ctx, fileID)
	if err != nil {
		return authz.Decision{}, err
	}
	if !authz.InScope(p, file.TenantID) {
		return authz.Decision{}, shared.ErrNotFound
	}

	decision := authz.Evaluate(p, file.Info(), op)
	if s.observer != nil {
		outcome := "denied"
		if decision.Allowed {
			outcome = "allowed"
		}
		s.observer.ObserveDecision("files."+string(op), outcome)
	}
	if !decision.Allowed && op != authz.OpView && op != authz.OpDownload {
		s.recorder.Record(ctx, audit.Event{
			TenantID:     p.TenantID,
			Actor:        p.UserID,
			Action:       "file." + string(op),
			ResourceType: audit.ResourceFile,
			ResourceID:   strconv.FormatInt(fileID, 10),
			Outcome:      audit.OutcomeDenied,
		})
	}
	return decision, nil
}

// GetFile loads a file the principal may view.
func (s *Service) GetFile(ctx context.Context, p authz.Principal, fileID int64) (*File, error) {
	file, err := s.repo.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !authz.InScope(p, file.TenantID) {
		return nil, shared.ErrNotFound
	}
	if d := authz.Evaluate(p, file.Info(), authz.OpView); !d.Allowed {
		return nil, shared.ErrForbidden
	}
	return file, nil
}

// ListVisible returns the tenant's records filtered down to what the
// principal may view. Filtering happens server-side off the principal's
// resolved scope, never off client-supplied tenant ids.
func (s *Service) ListVisible(ctx context.Context, p authz.Principal) ([]File, error) {
	all, err := s.repo.ListFiles(ctx, p.TenantID)
	if err != nil {
		return nil, err
	}
	visible := make([]File, 0, len(all))
	for _, f := range all {
		if d := authz.Evaluate(p, f.Info(), authz.OpView); d.Allowed {
			visible = append(visible, f)
		}
	}
	return visible, nil
}
