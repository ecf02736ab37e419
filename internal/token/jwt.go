package token

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dtroode/gophauth-server/internal/model"
)

// JWT implements TokenCodec as an HS256-signed JWT whose ID claim carries the
// session secret. Expiry is not enforced here: the session record decides,
// so revocation still applies to unexpired JWTs.
type JWT struct {
	secretKey []byte
}

// NewJWT creates a new JWT token codec with the provided signing key.
func NewJWT(secretKey string) model.TokenCodec {
	return &JWT{secretKey: []byte(secretKey)}
}

// Encode signs a token carrying secret.
func (j *JWT) Encode(secret []byte, issuedAt, expiresAt time.Time) (string, error) {
	if len(secret) != SecretSize {
		return "", model.ErrTokenMalformed
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        base64.RawURLEncoding.EncodeToString(secret),
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})

	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Decode checks the signature and extracts the session secret.
func (j *JWT) Decode(tokenString string) ([]byte, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return j.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, model.ErrTokenSignature
		}
		return nil, model.ErrTokenMalformed
	}

	return decodeSecret(claims.ID)
}
