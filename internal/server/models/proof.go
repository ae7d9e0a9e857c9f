package models

import "time"

// Proof is a delivery-proof attachment slot: a key in the object store
// plus a flag flipped once the client completes the presigned upload.
// The photo itself never passes through this service.
type Proof struct {
	ID         string
	PackageID  string
	AgentID    string
	StorageKey string
	Uploaded   bool
	CreatedAt  time.Time
}
