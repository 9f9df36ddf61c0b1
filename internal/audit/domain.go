package audit

import "time"

// Event is one structured audit record. Every lock/unlock, every denied
// privileged operation and every compliance-mode change emits exactly one.
type Event struct {
	ID           string    `json:"id"`
	TenantID     int64     `json:"tenant_id"`
	Actor        int64     `json:"actor"`
	Action       string    `json:"action"`
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id"`
	Outcome      string    `json:"outcome"`
	At           time.Time `json:"at"`
}

// Outcomes.
const (
	OutcomeAllowed = "allowed"
	OutcomeDenied  = "denied"
)

// Resource types.
const (
	ResourceFile       = "file"
	ResourceRole       = "role"
	ResourceCompliance = "compliance_settings"
)
