package handler

import (
	"errors"

	"github.com/ogurasousui/probation-workflow/internal/core/employee"
	"github.com/ogurasousui/probation-workflow/internal/core/probation"
	"github.com/ogurasousui/probation-workflow/internal/platform/auth"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func toStatusError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, probation.ErrValidation), errors.Is(err, probation.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, employee.ErrEmployeeCodeAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, probation.ErrState):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, probation.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, probation.ErrPermission):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
