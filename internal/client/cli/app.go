// Package cli implements identctl, an interactive operator console for the
// gophauth gRPC API.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
	pb "github.com/dmitrijs2005/gophauth/internal/proto"
)

// identityClient is the client surface the console drives.
type identityClient interface {
	Register(ctx context.Context, req pb.RegisterRequest) error
	Login(ctx context.Context, email, password string) error
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*pb.UserResponse, error)
	ListUsers(ctx context.Context, skip, limit int) ([]pb.UserResponse, error)
	Deactivate(ctx context.Context, id string) error
	IsLoggedIn() bool
	Close() error
}

var _ identityClient = (*client.GRPCClient)(nil)

type App struct {
	config *config.Config
	client identityClient
	reader *bufio.Reader
	out    io.Writer
	email  string
}

func NewApp(c *config.Config) (*App, error) {
	apiClient, err := client.NewIdentityClient(c.ServerEndpointAddr, c.RequestTimeout)
	if err != nil {
		return nil, err
	}

	return &App{config: c, client: apiClient, reader: bufio.NewReader(os.Stdin), out: os.Stdout}, nil
}

func (a *App) isLoggedIn() bool {
	return a.client.IsLoggedIn()
}

func (a *App) status() string {
	if a.isLoggedIn() && a.email != "" {
		return a.email
	}
	return "anonymous"
}

func (a *App) Run(ctx context.Context) {
	defer a.client.Close()

	fmt.Fprintf(a.out, "identctl connected to %s (type 'help' for commands)\n", a.config.ServerEndpointAddr)
	runREPL(ctx, a, a.status, a.reader)
}
