package files

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/doctrove/doctrove/internal/audit"
	"github.com/doctrove/doctrove/internal/authz"
	"github.com/doctrove/doctrove/internal/shared"
)

// RoleResolver maps a role name within a tenant to its hierarchy tier.
type RoleResolver interface {
	BaseRoleFor(ctx context.Context, tenantID int64, roleName string) (authz.BaseRole, error)
}

// LockManager owns the lock/unlock state machine. It is the only writer of
// a file's lock fields; both transitions are compare-and-set against the
// current lock state, so a lost race surfaces as a typed error rather than
// a silent overwrite.
type LockManager struct {
	repo     Repository
	catalog  RoleResolver
	recorder *audit.Recorder
}

// NewLockManager constructs a LockManager.
func NewLockManager(repo Repository, catalog RoleResolver, recorder *audit.Recorder) *LockManager {
	return &LockManager{repo: repo, catalog: catalog, recorder: recorder}
}

// Lock transitions a file from Unlocked to Locked. A password, when given,
// is stored as a bcrypt hash; plaintext is never persisted. requiredRole
// raises the unlock bar for principals other than the owner, the locker and
// SuperAdmin.
func (m *LockManager) Lock(ctx context.Context, p authz.Principal, fileID int64, password, requiredRole string) error {
	file, err := m.fileInScope(ctx, p, fileID)
	if err != nil {
		return err
	}

	if d := authz.Evaluate(p, file.Info(), authz.OpLock); !d.Allowed {
		m.audit(ctx, p, "file.lock", fileID, audit.OutcomeDenied)
		return denialError(d.Reason)
	}
	if file.IsLocked {
		return shared.ErrAlreadyLocked
	}

	requiredRole = strings.TrimSpace(requiredRole)
	if requiredRole != "" {
		if _, err := m.catalog.BaseRoleFor(ctx, file.TenantID, requiredRole); err != nil {
			return fmt.Errorf("%w: unknown lock role %q", shared.ErrValidation, requiredRole)
		}
	}

	var passwordHash string
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		passwordHash = string(hash)
	}

	acquired, err := m.repo.AcquireLock(ctx, fileID, p.UserID, requiredRole, passwordHash)
	if err != nil {
		return err
	}
	if !acquired {
		// Another principal won the race between our read and the update.
		m.audit(ctx, p, "file.lock", fileID, audit.OutcomeDenied)
		return shared.ErrAlreadyLocked
	}

	m.audit(ctx, p, "file.lock", fileID, audit.OutcomeAllowed)
	return nil
}

// Unlock transitions a file from Locked to Unlocked. Eligibility: owner,
// locker, SuperAdmin, or any principal whose tier meets the lock's required
// role. The required role only raises the bar for outsiders; it never
// excludes the owner or SuperAdmin. A wrong password leaves the lock fully
// intact no matter how often it is retried.
func (m *LockManager) Unlock(ctx context.Context, p authz.Principal, fileID int64, password string) error {
	file, err := m.fileInScope(ctx, p, fileID)
	if err != nil {
		return err
	}
	if !file.IsLocked {
		return shared.ErrNotLocked
	}

	eligible, err := m.unlockEligible(ctx, p, file)
	if err != nil {
		return err
	}
	if !eligible {
		m.audit(ctx, p, "file.unlock", fileID, audit.OutcomeDenied)
		return shared.ErrInsufficientRole
	}

	if file.LockPasswordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(file.LockPasswordHash), []byte(password)); err != nil {
			m.audit(ctx, p, "file.unlock", fileID, audit.OutcomeDenied)
			return shared.ErrWrongPassword
		}
	}

	released, err := m.repo.ReleaseLock(ctx, fileID)
	if err != nil {
		return err
	}
	if !released {
		return shared.ErrNotLocked
	}

	m.audit(ctx, p, "file.unlock", fileID, audit.OutcomeAllowed)
	return nil
}

func (m *LockManager) unlockEligible(ctx context.Context, p authz.Principal, file *File) (bool, error) {
	if p.UserID == file.OwnerID || p.UserID == file.LockedBy {
		return true, nil
	}
	if p.Role == authz.RoleSuperAdmin {
		return true, nil
	}
	if file.LockRequiredRole == "" {
		return false, nil
	}
	required, err := m.catalog.BaseRoleFor(ctx, file.TenantID, file.LockRequiredRole)
	if err != nil {
		return false, err
	}
	return p.Role.AtLeast(required), nil
}

// fileInScope loads a file and hides cross-tenant rows behind not-found so
// existence never leaks across a tenant boundary.
func (m *LockManager) fileInScope(ctx context.Context, p authz.Principal, fileID int64) (*File, error) {
	file, err := m.repo.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !authz.InScope(p, file.TenantID) {
		return nil, shared.ErrNotFound
	}
	return file, nil
}

func (m *LockManager) audit(ctx context.Context, p authz.Principal, action string, fileID int64, outcome string) {
	m.recorder.Record(ctx, audit.Event{
		TenantID:     p.TenantID,
		Actor:        p.UserID,
		Action:       action,
		ResourceType: audit.ResourceFile,
		ResourceID:   strconv.FormatInt(fileID, 10),
		Outcome:      outcome,
	})
}

// denialError maps an evaluator reason to the matching sentinel.
func denialError(reason authz.DenyReason) error {
	switch reason {
	case authz.DenyOutOfScope:
		return shared.ErrNotFound
	case authz.DenyLocked:
		return shared.ErrAlreadyLocked
	case authz.DenyInsufficientRole:
		return shared.ErrInsufficientRole
	default:
		return shared.ErrForbidden
	}
}
