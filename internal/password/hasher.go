// Package password turns plaintext passwords into salted verifiers and checks
// candidates against them.
package password

import (
	"errors"
	"strings"

	"github.com/dtroode/gophauth-server/internal/logger"
)

// Algorithm identifiers embedded in verifiers.
const (
	AlgorithmArgon2id = "argon2id"
	AlgorithmBcrypt   = "bcrypt"
)

var (
	ErrEmptyPassword        = errors.New("password cannot be empty")
	ErrPasswordTooLong      = errors.New("password is too long")
	ErrUnsupportedAlgorithm = errors.New("unsupported hash algorithm")
	ErrParamsOutOfRange     = errors.New("hash parameters out of range")
)

// Hasher hashes and compares passwords for a single algorithm.
type Hasher interface {
	Algorithm() string
	// Hash returns a fresh verifier; two calls never yield the same bytes.
	Hash(plaintext string) ([]byte, error)
	// Compare fails closed: any malformed verifier yields false.
	Compare(plaintext string, verifier []byte) bool
}

// Registry hashes with a default algorithm and compares against any
// registered one, selected by the algorithm id inside the verifier.
type Registry struct {
	primary Hasher
	hashers map[string]Hasher
	logger  *logger.Logger
}

// NewRegistry creates a Registry hashing with primary. Additional hashers are
// only used to compare verifiers produced earlier under other algorithms.
func NewRegistry(primary Hasher, logger *logger.Logger, others ...Hasher) *Registry {
	r := &Registry{
		primary: primary,
		hashers: map[string]Hasher{primary.Algorithm(): primary},
		logger:  logger,
	}
	for _, h := range others {
		r.hashers[h.Algorithm()] = h
	}
	return r
}

// New builds the Hasher for the configured algorithm name.
func New(algorithm string, params Params) (Hasher, error) {
	switch algorithm {
	case AlgorithmArgon2id, "":
		if params.Cost > Argon2MaxTime || params.MemoryKiB > Argon2MaxMemoryKiB {
			return nil, ErrParamsOutOfRange
		}
		return NewArgon2id(params), nil
	case AlgorithmBcrypt:
		return NewBcrypt(params.Cost), nil
	default:
		return nil, ErrUnsupportedAlgorithm
	}
}

// Params carries the tunables of every supported algorithm. Cost is bcrypt's
// cost factor and argon2id's iteration count.
type Params struct {
	Cost        int
	MemoryKiB   uint32
	Parallelism uint8
}

func (r *Registry) Algorithm() string {
	return r.primary.Algorithm()
}

func (r *Registry) Hash(plaintext string) ([]byte, error) {
	return r.primary.Hash(plaintext)
}

func (r *Registry) Compare(plaintext string, verifier []byte) bool {
	algorithm := AlgorithmOf(verifier)
	h, ok := r.hashers[algorithm]
	if !ok {
		r.logger.Warn("Password registry: verifier integrity concern, unknown algorithm",
			"algorithm", algorithm)
		return false
	}
	return h.Compare(plaintext, verifier)
}

// AlgorithmOf extracts the algorithm id from a verifier without validating it.
func AlgorithmOf(verifier []byte) string {
	s := string(verifier)
	if !strings.HasPrefix(s, "$") {
		return ""
	}
	parts := strings.SplitN(s[1:], "$", 2)
	switch parts[0] {
	case "2a", "2b", "2y":
		return AlgorithmBcrypt
	default:
		return parts[0]
	}
}
