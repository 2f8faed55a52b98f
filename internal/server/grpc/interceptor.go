package grpc

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
	pb "github.com/dmitrijs2005/gophauth/internal/proto"
	"github.com/dmitrijs2005/gophauth/internal/server/guard"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// methodLevels maps each RPC to the access it requires. Methods missing from
// the table require Admin.
var methodLevels = map[string]guard.Level{
	pb.FullMethod(pb.MethodRegister):       guard.Public,
	pb.FullMethod(pb.MethodLogin):          guard.Public,
	pb.FullMethod(pb.MethodRefresh):        guard.Public,
	pb.FullMethod(pb.MethodPing):           guard.Public,
	pb.FullMethod(pb.MethodLogout):         guard.Active,
	pb.FullMethod(pb.MethodChangePassword): guard.Active,
	pb.FullMethod(pb.MethodGetMe):          guard.Active,
	pb.FullMethod(pb.MethodUpdateMe):       guard.Active,
	pb.FullMethod(pb.MethodListUsers):      guard.Admin,
	pb.FullMethod(pb.MethodGetUser):        guard.Admin,
	pb.FullMethod(pb.MethodDeactivateUser): guard.Admin,
}

func levelFor(fullMethod string) guard.Level {
	if l, ok := methodLevels[fullMethod]; ok {
		return l
	}
	return guard.Admin
}

// tokenFromMetadata reads the access token from the access_token key, falling
// back to an "authorization: Bearer <token>" entry.
func tokenFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get(common.AccessTokenHeaderName); len(values) > 0 && values[0] != "" {
		return values[0]
	}
	for _, v := range md.Get(common.AuthorizationHeaderName) {
		if len(v) > 7 && strings.EqualFold(v[:7], "bearer ") {
			return strings.TrimSpace(v[7:])
		}
	}
	return ""
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	level := levelFor(info.FullMethod)

	u, err := s.guard.Authorize(ctx, tokenFromMetadata(ctx), level)
	if err != nil {
		s.logger.Debug(ctx, "access denied", "method", info.FullMethod, "level", level.String(), "reason", err)
		return nil, toStatus(err)
	}
	if u != nil {
		ctx = guard.WithPrincipal(ctx, u)
	}

	return handler(ctx, req)
}
