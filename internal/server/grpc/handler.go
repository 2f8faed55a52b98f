package grpc

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/common"
	pb "github.com/dmitrijs2005/gophauth/internal/proto"
	"github.com/dmitrijs2005/gophauth/internal/server/guard"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/dmitrijs2005/gophauth/internal/server/views"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *GRPCServer) reply(ctx context.Context, v any) (*structpb.Struct, error) {
	out, err := pb.ToStruct(v)
	if err != nil {
		s.logger.Error(ctx, "encode response", "error", err)
		return nil, status.Error(codes.Internal, common.ErrorInternal.Error())
	}
	return out, nil
}

func principal(ctx context.Context) (*models.User, error) {
	u, ok := guard.PrincipalFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "not authenticated")
	}
	return u, nil
}

func (s *GRPCServer) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in pb.RegisterRequest
	if err := pb.FromStruct(req, &in); err != nil {
		return nil, errMalformedRequest
	}

	tokens, err := s.identity.Register(ctx, views.RegisterInput(in))
	if err != nil {
		return nil, toStatus(err)
	}

	s.logger.Info(ctx, "Registered", "username", in.Username)
	return s.reply(ctx, views.Tokens(tokens))
}

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in pb.LoginRequest
	if err := pb.FromStruct(req, &in); err != nil {
		return nil, errMalformedRequest
	}

	tokens, err := s.identity.Login(ctx, in.Email, in.Password)
	if err != nil {
		return nil, toStatus(err)
	}
	return s.reply(ctx, views.Tokens(tokens))
}

func (s *GRPCServer) Refresh(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in pb.RefreshRequest
	if err := pb.FromStruct(req, &in); err != nil {
		return nil, errMalformedRequest
	}

	access, err := s.identity.Refresh(ctx, in.RefreshToken)
	if err != nil {
		return nil, toStatus(err)
	}
	return s.reply(ctx, views.Access(access))
}

func (s *GRPCServer) ChangePassword(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	u, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	var in pb.ChangePasswordRequest
	if err := pb.FromStruct(req, &in); err != nil {
		return nil, errMalformedRequest
	}

	if err := s.identity.ChangePassword(ctx, u.ID, in.OldPassword, in.NewPassword); err != nil {
		return nil, toStatus(err)
	}
	return s.reply(ctx, pb.StatusResponse{Success: true, Message: "Password changed successfully"})
}

func (s *GRPCServer) Logout(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	u, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.identity.Logout(ctx, u); err != nil {
		return nil, toStatus(err)
	}
	return s.reply(ctx, pb.StatusResponse{Success: true, Message: "Logged out successfully"})
}

func (s *GRPCServer) GetMe(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	u, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	return s.reply(ctx, views.User(u))
}

func (s *GRPCServer) UpdateMe(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	u, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	var in pb.UpdateMeRequest
	if err := pb.FromStruct(req, &in); err != nil {
		return nil, errMalformedRequest
	}

	updated, err := s.identity.UpdateProfile(ctx, u.ID, views.ProfileUpdate(in))
	if err != nil {
		return nil, toStatus(err)
	}
	return s.reply(ctx, views.User(updated))
}

func (s *GRPCServer) ListUsers(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in pb.ListUsersRequest
	if err := pb.FromStruct(req, &in); err != nil {
		return nil, errMalformedRequest
	}

	limit := services.DefaultListLimit
	if in.Limit != nil {
		limit = *in.Limit
	}

	list, err := s.identity.ListUsers(ctx, in.Skip, limit)
	if err != nil {
		return nil, toStatus(err)
	}
	return s.reply(ctx, views.Users(list))
}

func (s *GRPCServer) GetUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in pb.UserIDRequest
	if err := pb.FromStruct(req, &in); err != nil {
		return nil, errMalformedRequest
	}

	u, err := s.identity.GetUser(ctx, in.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return s.reply(ctx, views.User(u))
}

func (s *GRPCServer) DeactivateUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in pb.UserIDRequest
	if err := pb.FromStruct(req, &in); err != nil {
		return nil, errMalformedRequest
	}

	if err := s.identity.Deactivate(ctx, in.ID); err != nil {
		return nil, toStatus(err)
	}
	return s.reply(ctx, pb.StatusResponse{Success: true, Message: "User deactivated successfully"})
}

func (s *GRPCServer) Ping(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return s.reply(ctx, pb.PingResponse{Status: "OK"})
}
