// Package memory provides process-local stores for single-instance
// deployments and tests.
package memory

import (
	"context"
	"sync"

	"github.com/dtroode/gophauth-server/internal/model"
)

var _ model.AccountStore = (*AccountRepository)(nil)

// AccountRepository keeps accounts in a map keyed by identifier.
type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]model.Account
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{accounts: make(map[string]model.Account)}
}

// Create inserts account; the existence check and the insert happen under
// one lock.
func (r *AccountRepository) Create(ctx context.Context, account model.Account) (model.Account, error) {
	if err := ctx.Err(); err != nil {
		return model.Account{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[account.Identifier]; ok {
		return model.Account{}, model.ErrAlreadyExists
	}

	account.Verifier = append([]byte(nil), account.Verifier...)
	r.accounts[account.Identifier] = account
	return account, nil
}

func (r *AccountRepository) GetByIdentifier(ctx context.Context, identifier string) (model.Account, error) {
	if err := ctx.Err(); err != nil {
		return model.Account{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[identifier]
	if !ok {
		return model.Account{}, model.ErrNotFound
	}
	return account, nil
}

// Ping always succeeds.
func (r *AccountRepository) Ping(context.Context) error {
	return nil
}
