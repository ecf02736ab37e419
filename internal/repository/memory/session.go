package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dtroode/gophauth-server/internal/model"
)

var _ model.SessionStore = (*SessionRepository)(nil)

// SessionRepository keeps sessions in a map keyed by token hash.
type SessionRepository struct {
	mu       sync.Mutex
	sessions map[string]model.Session
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]model.Session)}
}

func (r *SessionRepository) Create(ctx context.Context, session model.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := string(session.TokenHash)
	if _, ok := r.sessions[key]; ok {
		return model.ErrAlreadyExists
	}
	r.sessions[key] = session
	return nil
}

func (r *SessionRepository) GetByTokenHash(ctx context.Context, tokenHash []byte) (model.Session, error) {
	if err := ctx.Err(); err != nil {
		return model.Session{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[string(tokenHash)]
	if !ok {
		return model.Session{}, model.ErrNotFound
	}
	return session, nil
}

func (r *SessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, string(tokenHash))
	return nil
}

func (r *SessionRepository) DeleteByAccount(ctx context.Context, accountIdentifier string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for key, s := range r.sessions {
		if s.AccountIdentifier == accountIdentifier {
			delete(r.sessions, key)
			n++
		}
	}
	return n, nil
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for key, s := range r.sessions {
		if !s.ExpiresAt.After(cutoff) {
			delete(r.sessions, key)
			n++
		}
	}
	return n, nil
}

// Ping always succeeds.
func (r *SessionRepository) Ping(context.Context) error {
	return nil
}
