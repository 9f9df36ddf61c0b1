package compliance

import (
	"context"
	"fmt"
	"strconv"

	"github.com/doctrove/doctrove/internal/audit"
	"github.com/doctrove/doctrove/internal/authz"
	"github.com/doctrove/doctrove/internal/shared"
)

// Service is the compliance policy overlay. It guards every settings write:
// locked fields reject changes from any role, and mode migration is the only
// path that rewrites the locked set, atomically with the mode itself.
type Service struct {
	repo     Repository
	recorder *audit.Recorder
}

// NewService constructs a Service.
func NewService(repo Repository, recorder *audit.Recorder) *Service {
	return &Service{repo: repo, recorder: recorder}
}

// GetSettings returns the caller's tenant settings.
func (s *Service) GetSettings(ctx context.Context, caller authz.Principal, tenantID int64) (*Settings, error) {
	if !authz.InScope(caller, tenantID) {
		return nil, shared.ErrNotFound
	}
	return s.repo.GetSettings(ctx, tenantID)
}

// UpdateSetting changes a single setting through the general path. Locked
// fields are rejected for every role, SuperAdmin included.
func (s *Service) UpdateSetting(ctx context.Context, caller authz.Principal, field string, value any) (*Settings, error) {
	if !KnownSetting(field) {
		return nil, fmt.Errorf("%w: unknown setting %q", shared.ErrValidation, field)
	}

	settings, err := s.repo.GetSettings(ctx, caller.TenantID)
	if err != nil {
		return nil, err
	}
	if settings.Locked(field) {
		s.audit(ctx, caller, "compliance.update."+field, audit.OutcomeDenied)
		return nil, shared.ErrComplianceLocked
	}

	if err := applySetting(settings, field, value); err != nil {
		return nil, err
	}
	if err := s.repo.SaveSettings(ctx, settings); err != nil {
		return nil, err
	}
	s.audit(ctx, caller, "compliance.update."+field, audit.OutcomeAllowed)
	return settings, nil
}

// ChangeMode migrates the tenant to a new compliance mode. SuperAdmin only.
// Forced values and the locked-field set are rederived in the same
// transaction as the mode write.
func (s *Service) ChangeMode(ctx context.Context, caller authz.Principal, tenantID int64, rawMode string) (*Settings, error) {
	if !authz.InScope(caller, tenantID) {
		return nil, shared.ErrNotFound
	}
	if caller.Role != authz.RoleSuperAdmin {
		s.audit(ctx, caller, "compliance.mode_change", audit.OutcomeDenied)
		return nil, shared.ErrForbidden
	}
	mode, ok := ParseMode(rawMode)
	if !ok {
		return nil, fmt.Errorf("%w: unknown compliance mode %q", shared.ErrValidation, rawMode)
	}

	settings, err := s.repo.ReplaceAtomically(ctx, tenantID, func(current *Settings) error {
		current.Enforce(mode)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.audit(ctx, caller, "compliance.mode_change."+string(mode), audit.OutcomeAllowed)
	return settings, nil
}

func (s *Service) audit(ctx context.Context, caller authz.Principal, action, outcome string) {
	s.recorder.Record(ctx, audit.Event{
		TenantID:     caller.TenantID,
		Actor:        caller.UserID,
		Action:       action,
		ResourceType: audit.ResourceCompliance,
		ResourceID:   strconv.FormatInt(caller.TenantID, 10),
		Outcome:      outcome,
	})
}

func applySetting(settings *Settings, field string, value any) error {
	switch field {
	case SettingMFARequired, SettingAuditLogging, SettingPublicSharing, SettingExportLogging:
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("%w: %s expects a boolean", shared.ErrValidation, field)
		}
		switch field {
		case SettingMFARequired:
			settings.MFARequired = b
		case SettingAuditLogging:
			settings.AuditLogging = b
		case SettingPublicSharing:
			settings.PublicSharing = b
		case SettingExportLogging:
			settings.ExportLogging = b
		}
	case SettingRetentionDays, SettingSessionTimeout:
		n, err := toInt(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s expects a non-negative integer", shared.ErrValidation, field)
		}
		if field == SettingRetentionDays {
			settings.RetentionDays = n
		} else {
			settings.SessionTimeoutMinutes = n
		}
	}
	return nil
}

func toInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		return strconv.Atoi(v)
	default:
		return 0, fmt.Errorf("not a number")
	}
}
