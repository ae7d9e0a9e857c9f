package models

import "time"

// User is a directory entry: credentials plus the single role the account
// holds. Passwords are stored as argon2id hashes, never in the clear.
type User struct {
	ID           string
	UserName     string
	Role         Role
	Salt         []byte
	PasswordHash []byte
	CreatedAt    time.Time
}
