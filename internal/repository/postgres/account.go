package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dtroode/gophauth-server/internal/model"
)

var _ model.AccountStore = (*AccountRepository)(nil)

type AccountRepository struct {
	db *Connection
}

func NewAccountRepository(db *Connection) *AccountRepository {
	return &AccountRepository{
		db: db,
	}
}

func (r *AccountRepository) GetByIdentifier(ctx context.Context, identifier string) (model.Account, error) {
	const query = `SELECT id, identifier, verifier, created_at FROM accounts WHERE identifier = $1`

	var account model.Account
	err := r.db.QueryRowContext(ctx, query, identifier).Scan(
		&account.ID, &account.Identifier, &account.Verifier, &account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to get account by identifier: %w", err)
	}

	return account, nil
}

// Create inserts account. The unique constraint on identifier decides
// concurrent registrations.
func (r *AccountRepository) Create(ctx context.Context, account model.Account) (model.Account, error) {
	const query = `INSERT INTO accounts (id, identifier, verifier, created_at)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id, identifier, verifier, created_at`

	var saved model.Account
	err := r.db.WithTx(ctx, func(ctx context.Context, tx DBTX) error {
		return tx.QueryRowContext(ctx, query,
			account.ID, account.Identifier, account.Verifier, account.CreatedAt,
		).Scan(&saved.ID, &saved.Identifier, &saved.Verifier, &saved.CreatedAt)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return model.Account{}, model.ErrAlreadyExists
		}
		return model.Account{}, fmt.Errorf("failed to create account: %w", err)
	}

	return saved, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
