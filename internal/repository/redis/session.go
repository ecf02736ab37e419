// Package redis stores sessions in Redis with native key expiry.
package redis

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"

	"github.com/dtroode/gophauth-server/internal/logger"
	"github.com/dtroode/gophauth-server/internal/model"
)

const (
	sessionKeyPrefix = "gophauth:session:"
	accountKeyPrefix = "gophauth:account_sessions:"

	// minKeyTTL keeps already-expired sessions around long enough to be
	// reported as expired instead of unknown.
	minKeyTTL = time.Second
)

var _ model.SessionStore = (*SessionRepository)(nil)

// createScript stores the session and indexes it under its account in one
// atomic step. The index is written first so that a failed script never
// leaves a session key DeleteByAccount cannot find.
// KEYS: session key, account index. ARGV: payload, ttl ms, index member.
var createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('SADD', KEYS[2], ARGV[3])
if redis.call('PTTL', KEYS[2]) < tonumber(ARGV[2]) then
	redis.call('PEXPIRE', KEYS[2], ARGV[2])
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
return 1
`)

type sessionRecord struct {
	ID                uuid.UUID `json:"id"`
	AccountIdentifier string    `json:"account_identifier"`
	IssuedAt          time.Time `json:"issued_at"`
	ExpiresAt         time.Time `json:"expires_at"`
}

// SessionRepository keeps each session under its own key, which Redis drops
// retention after the session expires. A per-account set indexes the keys.
type SessionRepository struct {
	rdb       *redis.Client
	retention time.Duration
	now       func() time.Time
}

func NewSessionRepository(rdb *redis.Client, retention time.Duration) *SessionRepository {
	return &SessionRepository{
		rdb:       rdb,
		retention: retention,
		now:       time.Now,
	}
}

// NewClient connects to url and waits until the server answers PING.
func NewClient(ctx context.Context, url string, logger *logger.Logger) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	rdb := redis.NewClient(opt)

	backoff := retry.WithMaxRetries(5, retry.NewExponential(200*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis: server not ready, retrying", "error", err.Error())
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return rdb, nil
}

func (r *SessionRepository) Create(ctx context.Context, session model.Session) error {
	payload, err := json.Marshal(sessionRecord{
		ID:                session.ID,
		AccountIdentifier: session.AccountIdentifier,
		IssuedAt:          session.IssuedAt,
		ExpiresAt:         session.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ttl := keyTTL(session.ExpiresAt, r.retention, r.now())
	keys := []string{sessionKey(session.TokenHash), accountKey(session.AccountIdentifier)}

	created, err := createScript.Run(ctx, r.rdb, keys,
		payload, ttl.Milliseconds(), hex.EncodeToString(session.TokenHash)).Int()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	if created == 0 {
		return model.ErrAlreadyExists
	}

	return nil
}

func (r *SessionRepository) GetByTokenHash(ctx context.Context, tokenHash []byte) (model.Session, error) {
	data, err := r.rdb.Get(ctx, sessionKey(tokenHash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.Session{}, model.ErrNotFound
		}
		return model.Session{}, fmt.Errorf("failed to get session: %w", err)
	}

	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.Session{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return model.Session{
		ID:                rec.ID,
		TokenHash:         tokenHash,
		AccountIdentifier: rec.AccountIdentifier,
		IssuedAt:          rec.IssuedAt,
		ExpiresAt:         rec.ExpiresAt,
	}, nil
}

func (r *SessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash []byte) error {
	data, err := r.rdb.GetDel(ctx, sessionKey(tokenHash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("failed to unmarshal session: %w", err)
	}

	// The session is already gone; a member left behind in the index points
	// at a missing key and is ignored by DeleteByAccount.
	if err := r.rdb.SRem(ctx, accountKey(rec.AccountIdentifier), hex.EncodeToString(tokenHash)).Err(); err != nil {
		return fmt.Errorf("failed to unindex session: %w", err)
	}
	return nil
}

func (r *SessionRepository) DeleteByAccount(ctx context.Context, accountIdentifier string) (int64, error) {
	index := accountKey(accountIdentifier)

	members, err := r.rdb.SMembers(ctx, index).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list account sessions: %w", err)
	}
	if len(members) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(members))
	for _, m := range members {
		keys = append(keys, sessionKeyPrefix+m)
	}

	var deleted *redis.IntCmd
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, keys...)
		pipe.Del(ctx, index)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete account sessions: %w", err)
	}

	return deleted.Val(), nil
}

// DeleteExpired is a no-op: Redis expires session keys itself.
func (r *SessionRepository) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (r *SessionRepository) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func keyTTL(expiresAt time.Time, retention time.Duration, now time.Time) time.Duration {
	ttl := expiresAt.Add(retention).Sub(now)
	if ttl < minKeyTTL {
		return minKeyTTL
	}
	return ttl
}

func sessionKey(tokenHash []byte) string {
	return sessionKeyPrefix + hex.EncodeToString(tokenHash)
}

func accountKey(identifier string) string {
	return accountKeyPrefix + identifier
}
