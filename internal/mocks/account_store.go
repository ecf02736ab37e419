// Package mocks contains testify mocks of the model interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/gophauth-server/internal/model"
)

var _ model.AccountStore = (*AccountStore)(nil)

// AccountStore is a mock of model.AccountStore.
type AccountStore struct {
	mock.Mock
}

func (m *AccountStore) Create(ctx context.Context, account model.Account) (model.Account, error) {
	ret := m.Called(ctx, account)
	return ret.Get(0).(model.Account), ret.Error(1)
}

func (m *AccountStore) GetByIdentifier(ctx context.Context, identifier string) (model.Account, error) {
	ret := m.Called(ctx, identifier)
	return ret.Get(0).(model.Account), ret.Error(1)
}

// NewAccountStore creates a AccountStore mock that asserts its expectations on cleanup.
func NewAccountStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *AccountStore {
	m := &AccountStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
