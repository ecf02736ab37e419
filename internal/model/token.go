package model

import "time"

// TokenCodec converts a session secret to and from its wire representation.
type TokenCodec interface {
	Encode(secret []byte, issuedAt, expiresAt time.Time) (string, error)
	Decode(token string) ([]byte, error)
}

// IssuedToken is a freshly issued session token.
type IssuedToken struct {
	Value     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenStatus is the outcome of a token verification.
type TokenStatus int

const (
	// TokenUnknown means no live session matches the token.
	TokenUnknown TokenStatus = iota
	// TokenExpired means the session existed but its lifetime is over.
	TokenExpired
	// TokenValid means the session is live.
	TokenValid
)

func (s TokenStatus) String() string {
	switch s {
	case TokenValid:
		return "valid"
	case TokenExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Verification is the result of verifying a presented token.
type Verification struct {
	Status            TokenStatus
	AccountIdentifier string
	ExpiresAt         time.Time
}
