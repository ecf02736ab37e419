package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/gophauth-server/internal/model"
)

// AuthService is a mock of the auth service as seen by the transports.
type AuthService struct {
	mock.Mock
}

func (m *AuthService) Register(ctx context.Context, creds model.Credentials) error {
	ret := m.Called(ctx, creds)
	return ret.Error(0)
}

func (m *AuthService) Login(ctx context.Context, creds model.Credentials) (model.LoginResult, error) {
	ret := m.Called(ctx, creds)
	return ret.Get(0).(model.LoginResult), ret.Error(1)
}

func (m *AuthService) Logout(ctx context.Context, token string) error {
	ret := m.Called(ctx, token)
	return ret.Error(0)
}

func (m *AuthService) LogoutAll(ctx context.Context, identifier string) (int64, error) {
	ret := m.Called(ctx, identifier)
	return ret.Get(0).(int64), ret.Error(1)
}

func (m *AuthService) Authenticate(ctx context.Context, token string) (string, error) {
	ret := m.Called(ctx, token)
	return ret.String(0), ret.Error(1)
}

// NewAuthService creates an AuthService mock that asserts its expectations on cleanup.
func NewAuthService(t interface {
	mock.TestingT
	Cleanup(func())
}) *AuthService {
	m := &AuthService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
