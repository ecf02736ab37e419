package handler

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	apiErrors "github.com/dtroode/gophauth-server/internal/api/errors"
)

// trailerRecorder captures trailers set through grpc.SetTrailer.
type trailerRecorder struct {
	trailer metadata.MD
}

func (r *trailerRecorder) Method() string { return LoginFullMethod }

func (r *trailerRecorder) SetHeader(metadata.MD) error { return nil }

func (r *trailerRecorder) SendHeader(metadata.MD) error { return nil }

func (r *trailerRecorder) SetTrailer(md metadata.MD) error {
	r.trailer = metadata.Join(r.trailer, md)
	return nil
}

func TestHandleError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		in       error
		wantCode codes.Code
		wantKind apiErrors.Kind
		wantMsg  string
	}{
		{
			name:     "validation message reaches the client",
			in:       apiErrors.NewErrValidation("password is required"),
			wantCode: codes.InvalidArgument,
			wantKind: apiErrors.KindValidation,
			wantMsg:  "password is required",
		},
		{
			name:     "duplicate does not echo the identifier",
			in:       apiErrors.NewErrDuplicateIdentifier("alice"),
			wantCode: codes.AlreadyExists,
			wantKind: apiErrors.KindDuplicateIdentifier,
			wantMsg:  "identifier already exists",
		},
		{
			name:     "wrapped invalid credentials",
			in:       fmt.Errorf("login: %w", apiErrors.NewErrInvalidCredentials()),
			wantCode: codes.Unauthenticated,
			wantKind: apiErrors.KindInvalidCredentials,
			wantMsg:  "invalid credentials",
		},
		{
			name:     "expired token",
			in:       apiErrors.NewErrTokenInvalid("expired"),
			wantCode: codes.Unauthenticated,
			wantKind: apiErrors.KindTokenInvalid,
			wantMsg:  "invalid or expired token",
		},
		{
			name:     "store outage hides the cause",
			in:       apiErrors.NewErrStoreUnavailable("get account", errors.New("dial tcp: refused")),
			wantCode: codes.Unavailable,
			wantKind: apiErrors.KindStoreUnavailable,
			wantMsg:  "service temporarily unavailable",
		},
		{
			name:     "unclassified error",
			in:       errors.New("boom"),
			wantCode: codes.Internal,
			wantKind: apiErrors.KindInternal,
			wantMsg:  "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := &trailerRecorder{}
			ctx := grpc.NewContextWithServerTransportStream(context.Background(), rec)

			st, ok := status.FromError(handleError(ctx, tt.in))
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, st.Code())
			assert.Equal(t, tt.wantMsg, st.Message())
			assert.Equal(t, []string{tt.wantKind.String()}, rec.trailer.Get(ErrorKindTrailer))
		})
	}
}

func TestHandleError_NoStream(t *testing.T) {
	err := handleError(context.Background(), apiErrors.NewErrInvalidCredentials())
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}
