package compliance

// Mode is a tenant-wide regulatory posture.
type Mode string

const (
	ModeStandard Mode = "standard"
	ModeHIPAA    Mode = "hipaa"
	ModeSOX      Mode = "sox"
	ModeGDPR     Mode = "gdpr"
)

// ParseMode resolves a mode by name.
func ParseMode(raw string) (Mode, bool) {
	switch Mode(raw) {
	case ModeStandard, ModeHIPAA, ModeSOX, ModeGDPR:
		return Mode(raw), true
	}
	return ModeStandard, false
}

// Setting field names.
const (
	SettingMFARequired    = "mfa_required"
	SettingAuditLogging   = "audit_logging"
	SettingPublicSharing  = "public_sharing"
	SettingExportLogging  = "export_logging"
	SettingRetentionDays  = "retention_days"
	SettingSessionTimeout = "session_timeout_minutes"
)

var settingFields = map[string]struct{}{
	SettingMFARequired:    {},
	SettingAuditLogging:   {},
	SettingPublicSharing:  {},
	SettingExportLogging:  {},
	SettingRetentionDays:  {},
	SettingSessionTimeout: {},
}

// KnownSetting reports whether the field name is part of the closed set.
func KnownSetting(field string) bool {
	_, ok := settingFields[field]
	return ok
}

// Settings is one tenant's compliance posture. A field listed in
// LockedFields cannot be altered by any role, SuperAdmin included; only a
// mode migration changes it.
type Settings struct {
	TenantID              int64
	Mode                  Mode
	MFARequired           bool
	AuditLogging          bool
	PublicSharing         bool
	ExportLogging         bool
	RetentionDays         int
	SessionTimeoutMinutes int
	LockedFields          map[string]struct{}
}

// Locked reports whether a field is compliance-locked.
func (s *Settings) Locked(field string) bool {
	_, ok := s.LockedFields[field]
	return ok
}

// modePolicy describes what one mode forces.
type modePolicy struct {
	forceMFA          bool
	forceAuditLogging bool
	forceExportLog    bool
	disableSharing    bool
	minRetentionDays  int
	locked            []string
}

var modePolicies = map[Mode]modePolicy{
	ModeStandard: {},
	ModeHIPAA: {
		forceMFA:          true,
		forceAuditLogging: true,
		disableSharing:    true,
		minRetentionDays:  2190,
		locked:            []string{SettingMFARequired, SettingAuditLogging, SettingPublicSharing, SettingRetentionDays},
	},
	ModeSOX: {
		forceMFA:          true,
		forceAuditLogging: true,
		disableSharing:    true,
		minRetentionDays:  2555,
		locked:            []string{SettingMFARequired, SettingAuditLogging, SettingPublicSharing, SettingRetentionDays},
	},
	ModeGDPR: {
		forceExportLog:   true,
		minRetentionDays: 365,
		locked:           []string{SettingExportLogging, SettingRetentionDays},
	},
}

// Enforce applies the mode's forced values to the settings and rederives
// LockedFields. Mode and enforcement always change together; there is no
// intermediate state with the new mode but old locks.
func (s *Settings) Enforce(mode Mode) {
	policy := modePolicies[mode]
	s.Mode = mode
	if policy.forceMFA {
		s.MFARequired = true
	}
	if policy.forceAuditLogging {
		s.AuditLogging = true
	}
	if policy.forceExportLog {
		s.ExportLogging = true
	}
	if policy.disableSharing {
		s.PublicSharing = false
	}
	if s.RetentionDays < policy.minRetentionDays {
		s.RetentionDays = policy.minRetentionDays
	}
	s.LockedFields = make(map[string]struct{}, len(policy.locked))
	for _, field := range policy.locked {
		s.LockedFields[field] = struct{}{}
	}
}
