package identity

import "time"

// Provider names the mechanism an identity authenticates with.
type Provider string

const (
	ProviderPassword Provider = "password"
	ProviderGoogle   Provider = "google"
)

// Identity is the domain representation of an authenticated account.
// It mirrors the identities table and carries no JSON annotations so it
// can be reused by different presentation layers.
type Identity struct {
	UID          string
	Email        string
	DisplayName  string
	PhotoURL     string
	Provider     Provider
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// GoogleClaims holds the subset of a verified Google ID token the gateway
// cares about.
type GoogleClaims struct {
	Subject string
	Email   string
	Name    string
	Picture string
}
