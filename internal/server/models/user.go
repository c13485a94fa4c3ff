// Package models defines the persisted domain types shared by repositories,
// services and the HTTP layer.
package models

import "time"

// User is a registered identity. Email is stored lowercased and is unique
// case-insensitively. PasswordHash is a bcrypt hash and must never appear in
// API responses.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
