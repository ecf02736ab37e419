// Package errors defines the error kinds exposed to API clients and their
// mapping to HTTP and gRPC status codes.
package errors

import (
	"net/http"

	"github.com/samber/oops"
	"google.golang.org/grpc/codes"
)

// Kind is a stable machine-checkable error kind.
type Kind string

const (
	KindValidation          Kind = "VALIDATION_ERROR"
	KindDuplicateIdentifier Kind = "DUPLICATE_IDENTIFIER"
	KindInvalidCredentials  Kind = "INVALID_CREDENTIALS"
	KindTokenInvalid        Kind = "TOKEN_INVALID"
	KindStoreUnavailable    Kind = "STORE_UNAVAILABLE"
	KindInternal            Kind = "INTERNAL"
)

const (
	msgDuplicateIdentifier = "identifier already exists"
	msgInvalidCredentials  = "invalid credentials"
	msgTokenInvalid        = "invalid or expired token"
	msgStoreUnavailable    = "service temporarily unavailable"
	msgInternal            = "internal server error"
)

// NewErrValidation reports user-fixable malformed input. msg is shown to the client.
func NewErrValidation(msg string) error {
	return oops.Code(KindValidation).Public(msg).New(msg)
}

// NewErrDuplicateIdentifier reports that the identifier is already registered.
func NewErrDuplicateIdentifier(identifier string) error {
	return oops.Code(KindDuplicateIdentifier).
		Public(msgDuplicateIdentifier).
		With("identifier", identifier).
		Errorf("identifier %q already exists", identifier)
}

// NewErrInvalidCredentials reports a failed login. It is identical for an
// unknown identifier and a wrong password.
func NewErrInvalidCredentials() error {
	return oops.Code(KindInvalidCredentials).Public(msgInvalidCredentials).New(msgInvalidCredentials)
}

// NewErrTokenInvalid reports an unknown or expired bearer token.
func NewErrTokenInvalid(reason string) error {
	return oops.Code(KindTokenInvalid).
		Public(msgTokenInvalid).
		With("reason", reason).
		Errorf("token is %s", reason)
}

// NewErrMissingToken reports a request without bearer credentials.
func NewErrMissingToken() error {
	return oops.Code(KindTokenInvalid).
		Public("authorization token is required").
		With("reason", "missing").
		New("authorization token is required")
}

// NewErrStoreUnavailable wraps an infrastructure failure. The cause is kept
// for logs and never shown to clients.
func NewErrStoreUnavailable(operation string, cause error) error {
	return oops.Code(KindStoreUnavailable).
		Public(msgStoreUnavailable).
		With("operation", operation).
		Wrapf(cause, "failed to %s", operation)
}

// KindOf returns the kind carried by err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return KindInternal
	}
	kind, ok := oopsErr.Code().(Kind)
	if !ok {
		return KindInternal
	}
	return kind
}

// PublicMessage returns the client-safe message for err.
func PublicMessage(err error) string {
	kind := KindOf(err)
	if kind == KindInternal {
		return msgInternal
	}
	if oopsErr, ok := oops.AsOops(err); ok && oopsErr.Public() != "" {
		return oopsErr.Public()
	}
	return defaultMessage(kind)
}

func defaultMessage(kind Kind) string {
	switch kind {
	case KindDuplicateIdentifier:
		return msgDuplicateIdentifier
	case KindInvalidCredentials:
		return msgInvalidCredentials
	case KindTokenInvalid:
		return msgTokenInvalid
	case KindStoreUnavailable:
		return msgStoreUnavailable
	case KindValidation:
		return "invalid request"
	default:
		return msgInternal
	}
}

// HTTPStatus maps a kind to its HTTP status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindDuplicateIdentifier:
		return http.StatusConflict
	case KindInvalidCredentials, KindTokenInvalid:
		return http.StatusUnauthorized
	case KindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// GRPCCode maps a kind to its gRPC status code.
func GRPCCode(kind Kind) codes.Code {
	switch kind {
	case KindValidation:
		return codes.InvalidArgument
	case KindDuplicateIdentifier:
		return codes.AlreadyExists
	case KindInvalidCredentials, KindTokenInvalid:
		return codes.Unauthenticated
	case KindStoreUnavailable:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

// Response is the JSON body of every failed HTTP response.
type Response struct {
	Kind Kind   `json:"kind"`
	Msg  string `json:"msg"`
}

// NewResponse builds the client-facing body for err.
func NewResponse(err error) Response {
	return Response{Kind: KindOf(err), Msg: PublicMessage(err)}
}

func (k Kind) String() string {
	return string(k)
}
