package models

import "time"

// RefreshToken is an opaque, single-use token exchanged for a new access
// token. Rotated on every refresh.
type RefreshToken struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}
