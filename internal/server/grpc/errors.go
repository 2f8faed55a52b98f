package grpc

import (
	"github.com/dmitrijs2005/gophauth/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var errMalformedRequest = status.Error(codes.InvalidArgument, "malformed request")

// toStatus converts a service error into a gRPC status carrying only the
// caller-safe message.
func toStatus(err error) error {
	msg := common.PublicMessage(err)
	switch common.KindOf(err) {
	case common.ErrValidation:
		return status.Error(codes.InvalidArgument, msg)
	case common.ErrConflict:
		return status.Error(codes.AlreadyExists, msg)
	case common.ErrUnauthorized:
		return status.Error(codes.Unauthenticated, msg)
	case common.ErrForbidden:
		return status.Error(codes.PermissionDenied, msg)
	case common.ErrNotFound:
		return status.Error(codes.NotFound, msg)
	}
	return status.Error(codes.Internal, common.ErrorInternal.Error())
}
