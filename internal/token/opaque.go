// Package token encodes session secrets into bearer token strings.
package token

import (
	"encoding/base64"
	"time"

	"github.com/dtroode/gophauth-server/internal/model"
)

// SecretSize is the length in bytes of a session secret.
const SecretSize = 32

// Opaque encodes the secret as unpadded base64url and nothing else.
type Opaque struct{}

// NewOpaque creates an opaque token codec.
func NewOpaque() model.TokenCodec {
	return Opaque{}
}

func (Opaque) Encode(secret []byte, _, _ time.Time) (string, error) {
	if len(secret) != SecretSize {
		return "", model.ErrTokenMalformed
	}
	return base64.RawURLEncoding.EncodeToString(secret), nil
}

func (Opaque) Decode(token string) ([]byte, error) {
	return decodeSecret(token)
}

func decodeSecret(s string) ([]byte, error) {
	secret, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil || len(secret) != SecretSize {
		return nil, model.ErrTokenMalformed
	}
	return secret, nil
}
