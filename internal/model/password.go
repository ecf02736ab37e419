package model

import "context"

// PasswordHasher derives and checks password verifiers. Implementations must
// honour ctx so that slow hashing can be abandoned by the caller.
type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) ([]byte, error)
	Compare(ctx context.Context, plaintext string, verifier []byte) (bool, error)
}
