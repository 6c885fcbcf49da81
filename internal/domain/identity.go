package domain

import "time"

// TokenIssuer issues tokens (e.g. JWT) for an authenticated subject. Identity
// provisioning itself lives outside the scheduling core; the core only issues
// and verifies the tokens its HTTP surface requires.
type TokenIssuer interface {
	Issue(subjectID, email string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the authenticated subject ID.
type TokenVerifier interface {
	Verify(token string) (subjectID string, err error)
}
