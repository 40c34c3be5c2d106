package domain

import "time"

// User is the identity record owned by the user store.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	BirthAt      *time.Time
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
