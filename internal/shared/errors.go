package shared

import "errors"

// Engine error taxonomy. All of these are recoverable, caller-facing
// conditions; none should terminate the process.
var (
	// ErrNotFound covers both absent resources and resources outside the
	// caller's tenant scope. The two cases must stay indistinguishable.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates an in-scope resource with insufficient permission.
	ErrForbidden = errors.New("forbidden")
	// ErrAlreadyLocked indicates a lock attempt on a file that is locked.
	ErrAlreadyLocked = errors.New("file already locked")
	// ErrNotLocked indicates an unlock attempt on a file that is not locked.
	ErrNotLocked = errors.New("file not locked")
	// ErrWrongPassword indicates a failed lock password verification.
	ErrWrongPassword = errors.New("wrong lock password")
	// ErrInsufficientRole indicates the principal does not meet the role bar.
	ErrInsufficientRole = errors.New("insufficient role")
	// ErrComplianceLocked indicates an attempt to change a compliance-locked setting.
	ErrComplianceLocked = errors.New("setting locked by compliance mode")
	// ErrValidation indicates malformed role or permission input.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
