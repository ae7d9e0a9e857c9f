package models

import "time"

// AuditAction is the closed set of recorded lifecycle events.
type AuditAction string

const (
	ActionCreated          AuditAction = "created"
	ActionStatusChanged    AuditAction = "status_changed"
	ActionDecryptAttempted AuditAction = "decrypt_attempted"
)

// Detail values for decrypt attempts. Both outcomes are recorded so
// repeated unauthorized probing stays visible.
const (
	DetailGranted = "granted"
	DetailDenied  = "denied"
)

// AuditEntry is one immutable fact about a package lifecycle event. The
// actor role is denormalized at write time so the trail stays readable
// after the actor is deleted or changes role. Detail is free-form and
// must never carry PII.
//
// Entries are append-only: the trail defines no update or delete, and the
// canonical order is (Timestamp, Seq) with Seq breaking timestamp ties by
// insertion order.
type AuditEntry struct {
	ID        string
	Seq       int64
	PackageID string
	ActorID   string
	ActorRole Role
	Action    AuditAction
	Detail    string
	Timestamp time.Time
}
