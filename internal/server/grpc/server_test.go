package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv, err := NewGRPCServer("127.0.0.1:0", logging.Nop{}, (*services.IdentityService)(nil))
	if err != nil {
		t.Fatalf("NewGRPCServer error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on graceful stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	srv, err := NewGRPCServer("127.0.0.1:99999", logging.Nop{}, (*services.IdentityService)(nil))
	if err != nil {
		t.Fatalf("NewGRPCServer error (constructor should not fail here): %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Run(ctx); err == nil {
		t.Fatal("expected error from Run on bad address, got nil")
	}
}
