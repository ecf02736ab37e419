package model

import "context"

// ContextManager carries the authenticated account identifier through a request context.
type ContextManager interface {
	SetIdentifierToContext(ctx context.Context, identifier string) context.Context
	GetIdentifierFromContext(ctx context.Context) (string, bool)
}
