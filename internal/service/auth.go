package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	apiErrors "github.com/dtroode/gophauth-server/internal/api/errors"
	"github.com/dtroode/gophauth-server/internal/logger"
	"github.com/dtroode/gophauth-server/internal/metrics"
	"github.com/dtroode/gophauth-server/internal/model"
	"github.com/dtroode/gophauth-server/internal/password"
)

// Input limits, in bytes.
const (
	MaxIdentifierLength = 256
	MaxPasswordLength   = 1024
)

// DefaultOperationTimeout bounds a single register, login or logout call.
const DefaultOperationTimeout = 10 * time.Second

type Auth struct {
	accounts      model.AccountStore
	hasher        model.PasswordHasher
	tokenService  *TokenService
	timeout       time.Duration
	dummyVerifier []byte
	now           func() time.Time
	logger        *logger.Logger
	metrics       *metrics.Metrics
}

// NewAuth creates the auth service. It hashes a throwaway password once so
// that logins for unknown identifiers can spend the same time comparing.
func NewAuth(
	ctx context.Context,
	accounts model.AccountStore,
	hasher model.PasswordHasher,
	tokenService *TokenService,
	operationTimeout time.Duration,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) (*Auth, error) {
	if operationTimeout <= 0 {
		operationTimeout = DefaultOperationTimeout
	}

	dummy, err := hasher.Hash(ctx, uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy verifier: %w", err)
	}

	return &Auth{
		accounts:      accounts,
		hasher:        hasher,
		tokenService:  tokenService,
		timeout:       operationTimeout,
		dummyVerifier: dummy,
		now:           time.Now,
		logger:        logger,
		metrics:       metrics,
	}, nil
}

// Register creates an account. It does not log the caller in.
func (a *Auth) Register(ctx context.Context, creds model.Credentials) error {
	const op = "register"

	a.logger.Debug("Auth service: starting registration", "identifier", creds)

	if err := validateCredentials(creds); err != nil {
		a.metrics.RecordAuthOperation(op, metrics.OutcomeFailure)
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	_, err := a.accounts.GetByIdentifier(ctx, creds.Identifier)
	switch {
	case err == nil:
		a.logger.Info("Auth service: identifier already exists", "identifier", creds)
		a.metrics.RecordAuthOperation(op, metrics.OutcomeFailure)
		return apiErrors.NewErrDuplicateIdentifier(creds.Identifier)
	case !errors.Is(err, model.ErrNotFound):
		return a.fail(op, "get account", err)
	}

	started := time.Now()
	verifier, err := a.hasher.Hash(ctx, creds.Password)
	a.metrics.ObserveHash("hash", time.Since(started))
	if errors.Is(err, password.ErrPasswordTooLong) {
		a.metrics.RecordAuthOperation(op, metrics.OutcomeFailure)
		return apiErrors.NewErrValidation("password is too long")
	}
	if err != nil {
		return a.fail(op, "hash password", err)
	}

	account, err := a.accounts.Create(ctx, model.Account{
		ID:         uuid.New(),
		Identifier: creds.Identifier,
		Verifier:   verifier,
		CreatedAt:  a.now(),
	})
	if errors.Is(err, model.ErrAlreadyExists) {
		a.logger.Info("Auth service: identifier registered concurrently", "identifier", creds)
		a.metrics.RecordAuthOperation(op, metrics.OutcomeFailure)
		return apiErrors.NewErrDuplicateIdentifier(creds.Identifier)
	}
	if err != nil {
		return a.fail(op, "create account", err)
	}

	a.logger.Info("Auth service: account registered", "account", account)
	a.metrics.RecordAuthOperation(op, metrics.OutcomeSuccess)

	return nil
}

// Login checks credentials and issues a session token. Unknown identifiers
// and wrong passwords produce the same error.
func (a *Auth) Login(ctx context.Context, creds model.Credentials) (model.LoginResult, error) {
	const op = "login"

	a.logger.Debug("Auth service: starting login", "identifier", creds)

	if err := validateCredentials(creds); err != nil {
		a.metrics.RecordAuthOperation(op, metrics.OutcomeFailure)
		return model.LoginResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	account, err := a.accounts.GetByIdentifier(ctx, creds.Identifier)
	found := err == nil
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return model.LoginResult{}, a.fail(op, "get account", err)
	}

	verifier := account.Verifier
	if !found {
		verifier = a.dummyVerifier
	}

	started := time.Now()
	match, err := a.hasher.Compare(ctx, creds.Password, verifier)
	a.metrics.ObserveHash("compare", time.Since(started))
	if err != nil {
		return model.LoginResult{}, a.fail(op, "compare password", err)
	}

	if !found || !match {
		a.logger.Info("Auth service: invalid credentials", "identifier", creds)
		a.metrics.RecordAuthOperation(op, metrics.OutcomeFailure)
		return model.LoginResult{}, apiErrors.NewErrInvalidCredentials()
	}

	issued, err := a.tokenService.Issue(ctx, account.Identifier)
	if err != nil {
		return model.LoginResult{}, a.fail(op, "issue session", err)
	}

	a.logger.Info("Auth service: login succeeded", "identifier", creds)
	a.metrics.RecordAuthOperation(op, metrics.OutcomeSuccess)

	return model.LoginResult{
		Token:      issued.Value,
		Identifier: account.Identifier,
		ExpiresAt:  issued.ExpiresAt,
	}, nil
}

// Logout revokes the session behind token. Revoking an unknown token succeeds.
func (a *Auth) Logout(ctx context.Context, token string) error {
	const op = "logout"

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := a.tokenService.Revoke(ctx, token); err != nil {
		return a.fail(op, "revoke session", err)
	}

	a.metrics.RecordAuthOperation(op, metrics.OutcomeSuccess)
	return nil
}

// LogoutAll revokes every session of identifier.
func (a *Auth) LogoutAll(ctx context.Context, identifier string) (int64, error) {
	const op = "logout_all"

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	n, err := a.tokenService.RevokeAll(ctx, identifier)
	if err != nil {
		return 0, a.fail(op, "revoke sessions", err)
	}

	a.metrics.RecordAuthOperation(op, metrics.OutcomeSuccess)
	return n, nil
}

// Authenticate resolves a bearer token to the identifier it is bound to.
func (a *Auth) Authenticate(ctx context.Context, token string) (string, error) {
	const op = "authenticate"

	if token == "" {
		return "", apiErrors.NewErrMissingToken()
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	v, err := a.tokenService.Verify(ctx, token)
	if err != nil {
		return "", a.fail(op, "verify session", err)
	}

	if v.Status != model.TokenValid {
		a.logger.Debug("Auth service: rejected token",
			"status", v.Status.String(),
			"identifier", v.AccountIdentifier)
		return "", apiErrors.NewErrTokenInvalid(v.Status.String())
	}

	return v.AccountIdentifier, nil
}

// fail logs a failure that is not the caller's fault. Store errors, timeouts
// and cancellations become StoreUnavailable; anything else stays internal.
func (a *Auth) fail(op, step string, err error) error {
	a.metrics.RecordAuthOperation(op, metrics.OutcomeError)

	var wrapped error
	if step == "hash password" && !isContextError(err) {
		wrapped = fmt.Errorf("failed to %s: %w", step, err)
	} else {
		wrapped = apiErrors.NewErrStoreUnavailable(step, err)
	}

	a.logger.LogError("Auth service: "+op+" failed", wrapped)
	return wrapped
}

func isContextError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

func validateCredentials(creds model.Credentials) error {
	switch {
	case creds.Identifier == "":
		return apiErrors.NewErrValidation("identifier is required")
	case creds.Password == "":
		return apiErrors.NewErrValidation("password is required")
	case len(creds.Identifier) > MaxIdentifierLength:
		return apiErrors.NewErrValidation(fmt.Sprintf("identifier must be at most %d bytes", MaxIdentifierLength))
	case len(creds.Password) > MaxPasswordLength:
		return apiErrors.NewErrValidation(fmt.Sprintf("password must be at most %d bytes", MaxPasswordLength))
	}
	return nil
}
