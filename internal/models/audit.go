package models

import "time"

// AuditEntry is one append-only trail record. Details is free-form but by
// convention carries the acting session, the experiment number and, for
// practice-level actions, the practice code.
type AuditEntry struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details"`
}
