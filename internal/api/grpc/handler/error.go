package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	apiErrors "github.com/dtroode/gophauth-server/internal/api/errors"
)

// ErrorKindTrailer carries the error kind of a failed call.
const ErrorKindTrailer = "x-error-kind"

// handleError converts err to a gRPC status with the client-safe message and
// reports the error kind in the trailer.
func handleError(ctx context.Context, err error) error {
	kind := apiErrors.KindOf(err)
	_ = grpc.SetTrailer(ctx, metadata.Pairs(ErrorKindTrailer, kind.String()))
	return status.Error(apiErrors.GRPCCode(kind), apiErrors.PublicMessage(err))
}
