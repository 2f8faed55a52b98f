// Package client is the gRPC client identctl uses to talk to the gophauth
// server. It keeps the token pair from the last login and refreshes the access
// token once when a call is rejected as unauthenticated.
package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	pb "github.com/dmitrijs2005/gophauth/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// publicMethods never carry an access token and are never retried.
var publicMethods = map[string]struct{}{
	pb.FullMethod(pb.MethodRegister): {},
	pb.FullMethod(pb.MethodLogin):    {},
	pb.FullMethod(pb.MethodRefresh):  {},
	pb.FullMethod(pb.MethodPing):     {},
}

type GRPCClient struct {
	endpointURL string
	timeout     time.Duration
	conn        *grpc.ClientConn
	client      pb.IdentityServiceClient

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) tokens() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.refreshToken
}

func (s *GRPCClient) setTokens(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = access
	if refresh != "" {
		s.refreshToken = refresh
	}
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	if _, ok := publicMethods[method]; ok {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	access, refresh := s.tokens()
	err := invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
	if status.Code(err) != codes.Unauthenticated || refresh == "" {
		return err
	}

	var refreshed pb.RefreshResponse
	if rerr := s.call(ctx, pb.MethodRefresh, pb.RefreshRequest{RefreshToken: refresh}, &refreshed); rerr != nil {
		return err
	}
	s.setTokens(refreshed.AccessToken, "")

	// access token refreshed, retry once
	return invoker(withAccessToken(ctx, refreshed.AccessToken), method, req, reply, cc, opts...)
}

func NewIdentityClient(endpointURL string, timeout time.Duration) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, timeout: timeout}
	err := c.InitGRPCClient()
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = pb.NewIdentityServiceClient(conn)
	return nil
}

// call sends in and decodes the reply into out. Either may be nil.
func (s *GRPCClient) call(ctx context.Context, method string, in, out any) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var req *structpb.Struct
	if in != nil {
		var err error
		if req, err = pb.ToStruct(in); err != nil {
			return err
		}
	}

	resp, err := s.client.Call(ctx, method, req)
	if err != nil {
		return err
	}
	if out != nil {
		return pb.FromStruct(resp, out)
	}
	return nil
}

func (s *GRPCClient) Register(ctx context.Context, req pb.RegisterRequest) error {
	var resp pb.TokenResponse
	if err := s.call(ctx, pb.MethodRegister, req, &resp); err != nil {
		return s.mapError(err)
	}
	s.setTokens(resp.AccessToken, resp.RefreshToken)
	return nil
}

func (s *GRPCClient) Login(ctx context.Context, email, password string) error {
	var resp pb.TokenResponse
	if err := s.call(ctx, pb.MethodLogin, pb.LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return s.mapError(err)
	}
	s.setTokens(resp.AccessToken, resp.RefreshToken)
	return nil
}

func (s *GRPCClient) IsLoggedIn() bool {
	access, _ := s.tokens()
	return access != ""
}

// Logout notifies the server and forgets the token pair either way.
func (s *GRPCClient) Logout(ctx context.Context) error {
	if !s.IsLoggedIn() {
		return ErrNotLoggedIn
	}
	err := s.call(ctx, pb.MethodLogout, nil, nil)

	s.mu.Lock()
	s.accessToken, s.refreshToken = "", ""
	s.mu.Unlock()

	return s.mapError(err)
}

func (s *GRPCClient) Me(ctx context.Context) (*pb.UserResponse, error) {
	var resp pb.UserResponse
	if err := s.call(ctx, pb.MethodGetMe, nil, &resp); err != nil {
		return nil, s.mapError(err)
	}
	return &resp, nil
}

func (s *GRPCClient) ListUsers(ctx context.Context, skip, limit int) ([]pb.UserResponse, error) {
	var resp pb.UserListResponse
	if err := s.call(ctx, pb.MethodListUsers, pb.ListUsersRequest{Skip: skip, Limit: &limit}, &resp); err != nil {
		return nil, s.mapError(err)
	}
	return resp.Users, nil
}

func (s *GRPCClient) Deactivate(ctx context.Context, id string) error {
	if err := s.call(ctx, pb.MethodDeactivateUser, pb.UserIDRequest{ID: id}, nil); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	var resp pb.PingResponse
	if err := s.call(ctx, pb.MethodPing, nil, &resp); err != nil {
		return s.mapError(err)
	}

	if resp.Status != "OK" {
		return ErrUnavailable
	}

	return nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

// mapError keeps the server's message for errors the operator can act on.
func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrForbidden, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.InvalidArgument, codes.AlreadyExists, codes.NotFound:
		return errors.New(st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
