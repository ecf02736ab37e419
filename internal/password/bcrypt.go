package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptMaxPasswordLen is the number of input bytes bcrypt actually uses.
const bcryptMaxPasswordLen = 72

// Bcrypt implements Hasher with bcrypt.
type Bcrypt struct {
	cost int
}

// NewBcrypt creates a bcrypt hasher; a zero cost falls back to bcrypt.DefaultCost.
func NewBcrypt(cost int) *Bcrypt {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

func (h *Bcrypt) Algorithm() string { return AlgorithmBcrypt }

func (h *Bcrypt) Hash(plaintext string) ([]byte, error) {
	if plaintext == "" {
		return nil, ErrEmptyPassword
	}
	if len(plaintext) > bcryptMaxPasswordLen {
		return nil, ErrPasswordTooLong
	}

	verifier, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, ErrPasswordTooLong
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return verifier, nil
}

func (h *Bcrypt) Compare(plaintext string, verifier []byte) bool {
	return bcrypt.CompareHashAndPassword(verifier, []byte(plaintext)) == nil
}
