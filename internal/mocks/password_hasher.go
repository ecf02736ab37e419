package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/gophauth-server/internal/model"
)

var _ model.PasswordHasher = (*PasswordHasher)(nil)

// PasswordHasher is a mock of model.PasswordHasher.
type PasswordHasher struct {
	mock.Mock
}

func (m *PasswordHasher) Hash(ctx context.Context, plaintext string) ([]byte, error) {
	ret := m.Called(ctx, plaintext)
	var verifier []byte
	if v := ret.Get(0); v != nil {
		verifier = v.([]byte)
	}
	return verifier, ret.Error(1)
}

func (m *PasswordHasher) Compare(ctx context.Context, plaintext string, verifier []byte) (bool, error) {
	ret := m.Called(ctx, plaintext, verifier)
	return ret.Bool(0), ret.Error(1)
}

// NewPasswordHasher creates a PasswordHasher mock that asserts its expectations on cleanup.
func NewPasswordHasher(t interface {
	mock.TestingT
	Cleanup(func())
}) *PasswordHasher {
	m := &PasswordHasher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
