// Package grpc exposes IdentityService over gRPC.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	pb "github.com/dmitrijs2005/gophauth/internal/proto"
	"github.com/dmitrijs2005/gophauth/internal/server/guard"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"google.golang.org/grpc"
)

// Identity is the part of services.IdentityService the transport needs.
type Identity interface {
	guard.AccessVerifier
	Register(ctx context.Context, in services.RegisterInput) (*services.TokenPair, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*services.AccessToken, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	Logout(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, in services.ProfileUpdate) (*models.User, error)
	ListUsers(ctx context.Context, offset, limit int) ([]*models.User, error)
	Deactivate(ctx context.Context, userID string) error
}

var _ Identity = (*services.IdentityService)(nil)

type GRPCServer struct {
	address  string
	identity Identity
	guard    *guard.Guard
	logger   logging.Logger
}

var _ pb.IdentityServiceServer = (*GRPCServer)(nil)

func NewGRPCServer(a string, l logging.Logger, identity Identity) (*GRPCServer, error) {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		identity: identity,
		guard:    guard.New(identity),
	}, nil
}

// newServer builds the grpc.Server with the access interceptor and the
// service registered.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))
	pb.RegisterIdentityServiceServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.serve(ctx, listen)
}

func (s *GRPCServer) serve(ctx context.Context, listen net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
