package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/travelbuddy/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus translates service errors into gRPC statuses. Validation
// messages are passed through; anything unexpected is logged and hidden
// behind a generic internal error.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, "already exists")
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	case errors.Is(err, common.ErrRefreshTokenExpired):
		return status.Error(codes.Unauthenticated, common.ErrRefreshTokenExpired.Error())
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, common.ErrImagesMissing):
		return status.Error(codes.FailedPrecondition, common.ErrImagesMissing.Error())
	case errors.Is(err, common.ErrVerificationInProgress):
		return status.Error(codes.Aborted, common.ErrVerificationInProgress.Error())
	case errors.Is(err, common.ErrPersistence):
		s.logger.Error(ctx, "Persistence failure", "error", err)
		return status.Error(codes.Unavailable, common.ErrPersistence.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	s.logger.Error(ctx, "Request failed", "error", err)
	return status.Error(codes.Internal, common.ErrorInternal.Error())
}
