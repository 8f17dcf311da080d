package models

import (
	"time"

	"github.com/google/uuid"
)

// Provider represents the OAuth provider type
type Provider string

const (
	ProviderGitHub Provider = "GITHUB"
	ProviderGoogle Provider = "GOOGLE"
)

// User represents a user in the system
type User struct {
	ID         uuid.UUID `db:"id" json:"id"`
	ProviderID string    `db:"providerId" json:"providerId"`
	Provider   Provider  `db:"provider" json:"provider"`
	Email      string    `db:"email" json:"email"`
	Name       string    `db:"name" json:"name"`
	// Language is the ISO 639-1 code used for the "my language" option
	Language  string    `db:"language" json:"language"`
	CreatedAt time.Time `db:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `db:"updatedAt" json:"updatedAt"`
}

// LanguageInput is the request body for changing the user's language
type LanguageInput struct {
	Language string `json:"language" validate:"required,len=2,alpha,lowercase"`
}

// String returns the string representation of Provider
func (p Provider) String() string {
	return string(p)
}

// IsValid checks if the provider is valid
func (p Provider) IsValid() bool {
	return p == ProviderGitHub || p == ProviderGoogle
}
