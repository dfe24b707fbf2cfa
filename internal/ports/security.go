package ports

import "time"

// ServiceClaims identifies the collaborator service behind a bearer token.
type ServiceClaims struct {
	ServiceID string
	IssuedAt  time.Time
	ExpiresAt time.Time
	KeyID     string
}

// TokenVerifier validates collaborator service tokens on mutating routes.
type TokenVerifier interface {
	ParseAndValidate(token string) (ServiceClaims, error)
}
