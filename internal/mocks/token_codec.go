package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/gophauth-server/internal/model"
)

var _ model.TokenCodec = (*TokenCodec)(nil)

// TokenCodec is a mock of model.TokenCodec.
type TokenCodec struct {
	mock.Mock
}

func (m *TokenCodec) Encode(secret []byte, issuedAt, expiresAt time.Time) (string, error) {
	ret := m.Called(secret, issuedAt, expiresAt)
	return ret.String(0), ret.Error(1)
}

func (m *TokenCodec) Decode(token string) ([]byte, error) {
	ret := m.Called(token)
	var secret []byte
	if v := ret.Get(0); v != nil {
		secret = v.([]byte)
	}
	return secret, ret.Error(1)
}

// NewTokenCodec creates a TokenCodec mock that asserts its expectations on cleanup.
func NewTokenCodec(t interface {
	mock.TestingT
	Cleanup(func())
}) *TokenCodec {
	m := &TokenCodec{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
