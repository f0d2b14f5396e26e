package model

import "time"

// AuditEntry is an append-only record of a security-relevant action.
type AuditEntry struct {
	ID        int64
	Username  string
	Action    string
	CreatedAt time.Time
}
