// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

package services

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/zonevalue/internal/session"
)

var (
	_ suture.Service = (*HTTPServerService)(nil)
	_ suture.Service = (*SessionKeepaliveService)(nil)
	_ suture.Service = (*CloserService)(nil)
)

// mockHTTPServer is a test double for HTTPServer.
type mockHTTPServer struct {
	listenErr     error
	block         bool
	shutdownErr   error
	listenCount   atomic.Int32
	shutdownCount atomic.Int32
	started       chan struct{}
	stopCh        chan struct{}
}

func newMockHTTPServer() *mockHTTPServer {
	return &mockHTTPServer{
		started: make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
	}
}

func (m *mockHTTPServer) ListenAndServe() error {
	m.listenCount.Add(1)
	select {
	case m.started <- struct{}{}:
	default:
	}
	if m.listenErr != nil {
		return m.listenErr
	}
	if m.block {
		<-m.stopCh
		return http.ErrServerClosed
	}
	return nil
}

func (m *mockHTTPServer) Shutdown(context.Context) error {
	m.shutdownCount.Add(1)
	close(m.stopCh)
	return m.shutdownErr
}

func TestNewHTTPServerService_DefaultTimeout(t *testing.T) {
	for _, timeout := range []time.Duration{0, -5 * time.Second} {
		svc := NewHTTPServerService(newMockHTTPServer(), ":8080", timeout)
		if svc.shutdownTimeout != 10*time.Second {
			t.Errorf("timeout %v: got %v, want 10s", timeout, svc.shutdownTimeout)
		}
	}
}

func TestHTTPServerService_Serve(t *testing.T) {
	t.Run("shuts down gracefully on context cancellation", func(t *testing.T) {
		server := newMockHTTPServer()
		server.block = true
		svc := NewHTTPServerService(server, ":8080", time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()

		select {
		case <-server.started:
		case <-time.After(time.Second):
			t.Fatal("server did not start")
		}
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve did not return after cancellation")
		}
		if server.shutdownCount.Load() != 1 {
			t.Errorf("Shutdown calls = %d, want 1", server.shutdownCount.Load())
		}
	})

	t.Run("returns error on startup failure", func(t *testing.T) {
		bindErr := errors.New("bind: address already in use")
		server := newMockHTTPServer()
		server.listenErr = bindErr

		err := NewHTTPServerService(server, ":8080", time.Second).Serve(context.Background())
		if !errors.Is(err, bindErr) {
			t.Errorf("expected %v, got %v", bindErr, err)
		}
	})

	t.Run("returns shutdown error", func(t *testing.T) {
		shutdownErr := errors.New("shutdown timeout")
		server := newMockHTTPServer()
		server.block = true
		server.shutdownErr = shutdownErr
		svc := NewHTTPServerService(server, ":8080", time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()
		<-server.started
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, shutdownErr) {
				t.Errorf("expected shutdown error, got %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve did not return")
		}
	})
}

type countingAuthorizer struct {
	calls atomic.Int32
	err   error
}

func (a *countingAuthorizer) EnsureAuthorization(ctx context.Context) (session.State, error) {
	a.calls.Add(1)
	if a.err != nil {
		return session.State{}, a.err
	}
	return session.State{Cookies: map[string]string{"AGS_ROLES": "x"}, AcquiredAt: time.Now()}, nil
}

func TestSessionKeepaliveService_Ticks(t *testing.T) {
	auth := &countingAuthorizer{}
	svc := NewSessionKeepaliveService(auth, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 75*time.Millisecond)
	defer cancel()

	err := svc.Serve(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() = %v, want DeadlineExceeded", err)
	}
	// One immediate refresh plus several ticks.
	if n := auth.calls.Load(); n < 3 {
		t.Errorf("EnsureAuthorization calls = %d, want >= 3", n)
	}
}

func TestSessionKeepaliveService_ErrorsDoNotStopLoop(t *testing.T) {
	auth := &countingAuthorizer{err: errors.New("gateway down")}
	svc := NewSessionKeepaliveService(auth, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()

	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() = %v", err)
	}
	if n := auth.calls.Load(); n < 2 {
		t.Errorf("calls = %d, want the loop to keep going after failures", n)
	}
}

func TestSessionKeepaliveService_Disabled(t *testing.T) {
	auth := &countingAuthorizer{}
	svc := NewSessionKeepaliveService(auth, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() = %v", err)
	}
	if auth.calls.Load() != 0 {
		t.Error("disabled keep-alive must not prime")
	}
	if svc.String() != "session-keepalive" {
		t.Errorf("String() = %q", svc.String())
	}
}

type fakeCloser struct {
	closed atomic.Int32
	err    error
}

func (f *fakeCloser) Close() error {
	f.closed.Add(1)
	return f.err
}

func TestCloserService(t *testing.T) {
	t.Run("closes on shutdown", func(t *testing.T) {
		c := &fakeCloser{}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := NewCloserService("outcome-cache", c).Serve(ctx)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v", err)
		}
		if c.closed.Load() != 1 {
			t.Errorf("Close calls = %d", c.closed.Load())
		}
	})

	t.Run("reports close failure", func(t *testing.T) {
		closeErr := errors.New("flush failed")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := NewCloserService("outcome-cache", &fakeCloser{err: closeErr}).Serve(ctx)
		if !errors.Is(err, closeErr) {
			t.Errorf("Serve() = %v, want %v", err, closeErr)
		}
	})
}

func TestHTTPServerService_WithSupervisor(t *testing.T) {
	server := newMockHTTPServer()
	server.block = true

	sup := suture.New("test-sup", suture.Spec{
		FailureThreshold: 3,
		FailureBackoff:   10 * time.Millisecond,
		Timeout:          2 * time.Second,
	})
	sup.Add(NewHTTPServerService(server, ":8080", time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	errCh := sup.ServeBackground(ctx)

	select {
	case <-server.started:
	case <-time.After(time.Second):
		t.Fatal("server did not start")
	}
	cancel()
	<-errCh

	if server.shutdownCount.Load() < 1 {
		t.Error("server Shutdown was not called")
	}
}
