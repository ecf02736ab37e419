package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// OWASP-recommended argon2id defaults.
const (
	argon2DefaultTime    = 1
	argon2DefaultMemory  = 64 * 1024
	argon2DefaultThreads = 4
	argon2SaltLen        = 16
	argon2KeyLen         = 32
)

// Upper bounds accepted from stored verifiers and configuration. Anything
// larger would let one verifier exhaust memory or stall a worker.
const (
	Argon2MaxMemoryKiB = 1 << 20
	Argon2MaxTime      = 16
	argon2MaxKeyLen    = 64
)

// Argon2id implements Hasher with argon2id and PHC-encoded verifiers:
// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
type Argon2id struct {
	time    uint32
	memory  uint32
	threads uint8
}

// NewArgon2id creates an argon2id hasher; zero params fall back to defaults.
func NewArgon2id(p Params) *Argon2id {
	h := &Argon2id{
		time:    argon2DefaultTime,
		memory:  argon2DefaultMemory,
		threads: argon2DefaultThreads,
	}
	if p.Cost > 0 {
		h.time = uint32(p.Cost)
	}
	if p.MemoryKiB > 0 {
		h.memory = p.MemoryKiB
	}
	if p.Parallelism > 0 {
		h.threads = p.Parallelism
	}
	return h
}

func (h *Argon2id) Algorithm() string { return AlgorithmArgon2id }

func (h *Argon2id) Hash(plaintext string) ([]byte, error) {
	if plaintext == "" {
		return nil, ErrEmptyPassword
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, h.time, h.memory, h.threads, argon2KeyLen)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.memory,
		h.time,
		h.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	return []byte(encoded), nil
}

func (h *Argon2id) Compare(plaintext string, verifier []byte) bool {
	d, err := decodeArgon2id(string(verifier))
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(plaintext), d.salt, d.time, d.memory, d.threads, uint32(len(d.key)))
	return subtle.ConstantTimeCompare(computed, d.key) == 1
}

type argon2Verifier struct {
	time    uint32
	memory  uint32
	threads uint8
	salt    []byte
	key     []byte
}

func decodeArgon2id(encoded string) (argon2Verifier, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != AlgorithmArgon2id {
		return argon2Verifier{}, fmt.Errorf("invalid argon2id verifier format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return argon2Verifier{}, fmt.Errorf("failed to parse version: %w", err)
	}
	if version != argon2.Version {
		return argon2Verifier{}, fmt.Errorf("unsupported argon2 version %d", version)
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return argon2Verifier{}, fmt.Errorf("failed to parse parameters: %w", err)
	}
	if time == 0 || memory == 0 || threads == 0 || threads > 255 ||
		time > Argon2MaxTime || memory > Argon2MaxMemoryKiB {
		return argon2Verifier{}, fmt.Errorf("invalid argon2 parameters")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) < argon2SaltLen {
		return argon2Verifier{}, fmt.Errorf("invalid salt")
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 || len(key) > argon2MaxKeyLen {
		return argon2Verifier{}, fmt.Errorf("invalid key")
	}

	return argon2Verifier{
		time:    time,
		memory:  memory,
		threads: uint8(threads),
		salt:    salt,
		key:     key,
	}, nil
}
