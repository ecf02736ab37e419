package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/gophauth-server/internal/model"
)

var _ model.SessionStore = (*SessionStore)(nil)

// SessionStore is a mock of model.SessionStore.
type SessionStore struct {
	mock.Mock
}

func (m *SessionStore) Create(ctx context.Context, session model.Session) error {
	return m.Called(ctx, session).Error(0)
}

func (m *SessionStore) GetByTokenHash(ctx context.Context, tokenHash []byte) (model.Session, error) {
	ret := m.Called(ctx, tokenHash)
	return ret.Get(0).(model.Session), ret.Error(1)
}

func (m *SessionStore) DeleteByTokenHash(ctx context.Context, tokenHash []byte) error {
	return m.Called(ctx, tokenHash).Error(0)
}

func (m *SessionStore) DeleteByAccount(ctx context.Context, accountIdentifier string) (int64, error) {
	ret := m.Called(ctx, accountIdentifier)
	return ret.Get(0).(int64), ret.Error(1)
}

func (m *SessionStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	ret := m.Called(ctx, cutoff)
	return ret.Get(0).(int64), ret.Error(1)
}

// NewSessionStore creates a SessionStore mock that asserts its expectations on cleanup.
func NewSessionStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *SessionStore {
	m := &SessionStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
