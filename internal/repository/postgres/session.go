package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dtroode/gophauth-server/internal/model"
)

var _ model.SessionStore = (*SessionRepository)(nil)

type SessionRepository struct {
	db *Connection
}

func NewSessionRepository(db *Connection) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session model.Session) error {
	const query = `
        INSERT INTO sessions (token_hash, id, account_identifier, issued_at, expires_at)
        VALUES ($1, $2, $3, $4, $5)
    `

	err := r.db.WithTx(ctx, func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, query,
			session.TokenHash, session.ID, session.AccountIdentifier, session.IssuedAt, session.ExpiresAt,
		)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByTokenHash(ctx context.Context, tokenHash []byte) (model.Session, error) {
	const query = `
        SELECT token_hash, id, account_identifier, issued_at, expires_at
        FROM sessions WHERE token_hash = $1
    `

	var s model.Session
	err := r.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&s.TokenHash, &s.ID, &s.AccountIdentifier, &s.IssuedAt, &s.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Session{}, model.ErrNotFound
		}
		return model.Session{}, fmt.Errorf("failed to get session by token hash: %w", err)
	}
	return s, nil
}

func (r *SessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash []byte) error {
	const query = `DELETE FROM sessions WHERE token_hash = $1`

	if _, err := r.db.ExecContext(ctx, query, tokenHash); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *SessionRepository) DeleteByAccount(ctx context.Context, accountIdentifier string) (int64, error) {
	const query = `DELETE FROM sessions WHERE account_identifier = $1`

	res, err := r.db.ExecContext(ctx, query, accountIdentifier)
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions by account: %w", err)
	}
	return rowsAffected(res)
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM sessions WHERE expires_at <= $1`

	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return rowsAffected(res)
}

func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}
