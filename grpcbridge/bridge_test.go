// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package grpcbridge_test

import (
	"errors"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"code.hybscloud.com/rpcq"
	"code.hybscloud.com/rpcq/grpcbridge"
)

const bufSize = 1 << 20

// nopHandler satisfies rpcq.Handler for lifecycle tests.
type nopHandler struct {
	cloned int
}

func (h *nopHandler) Process(r *rpcq.Request) {}
func (h *nopHandler) Clone(r *rpcq.Request)   { h.cloned++ }

func TestBuildListenerLifecycle(t *testing.T) {
	lis := bufconn.Listen(bufSize)
	registered := false
	srv := grpcbridge.BuildListener(lis, nil, func(grpc.ServiceRegistrar) {
		registered = true
	})
	if !registered {
		t.Fatalf("register callback: got %v, want %v", registered, true)
	}
	if srv.GRPC() == nil {
		t.Fatal("grpc accessor: got nil, want server")
	}
	if got := srv.Completions().Cap(); got != grpcbridge.DefaultRingCapacity {
		t.Fatalf("ring capacity: got %d, want %d", got, grpcbridge.DefaultRingCapacity)
	}
	if err := srv.Run(); err != nil {
		t.Fatalf("run: unexpected error %v", err)
	}
	if err := srv.Run(); !errors.Is(err, rpcq.ErrClosed) {
		t.Fatalf("second run: got %v, want %v", err, rpcq.ErrClosed)
	}

	// A handler posting a completion reaches the awaiting consumer.
	h := &nopHandler{}
	r := rpcq.NewRequest(srv.Service(), h)
	if err := srv.Completions().Post(r, true); err != nil {
		t.Fatalf("post: unexpected error %v", err)
	}
	got, err := srv.Service().Await()
	if err != nil {
		t.Fatalf("await: unexpected error %v", err)
	}
	if got != r {
		t.Fatalf("await: got %p, want %p", got, r)
	}

	srv.Stop()
	srv.Stop() // idempotent
	if _, err := srv.Service().Await(); !errors.Is(err, rpcq.ErrClosed) {
		t.Fatalf("await after stop: got %v, want %v", err, rpcq.ErrClosed)
	}
	if err := srv.Completions().Post(r, true); !errors.Is(err, rpcq.ErrClosed) {
		t.Fatalf("post after stop: got %v, want %v", err, rpcq.ErrClosed)
	}
}

func TestBuildLoopback(t *testing.T) {
	srv, err := grpcbridge.Build("127.0.0.1:0", insecure.NewCredentials(), nil)
	if err != nil {
		t.Fatalf("build: unexpected error %v", err)
	}
	if srv.Addr() == nil {
		t.Fatal("addr: got nil, want bound address")
	}
	if err := srv.Run(); err != nil {
		t.Fatalf("run: unexpected error %v", err)
	}
	srv.Stop()
}

func TestBuildBadAddr(t *testing.T) {
	if _, err := grpcbridge.Build("256.256.256.256:1", nil, nil); err == nil {
		t.Fatal("build with bad address: expected error")
	}
}

func TestStopReleasesAwaitingConsumer(t *testing.T) {
	srv := grpcbridge.BuildListener(bufconn.Listen(bufSize), nil, nil)
	if err := srv.Run(); err != nil {
		t.Fatalf("run: unexpected error %v", err)
	}
	done := make(chan error, 1)
	go func() {
		_, err := srv.Service().Await()
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	srv.Stop()
	select {
	case err := <-done:
		if !errors.Is(err, rpcq.ErrClosed) {
			t.Fatalf("await during stop: got %v, want %v", err, rpcq.ErrClosed)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("await did not return after stop")
	}
}

func TestNewServerHostNilPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("nil server: expected panic")
		}
	}()
	_ = grpcbridge.NewServerHost(nil)
}
