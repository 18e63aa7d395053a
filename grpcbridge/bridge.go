// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package grpcbridge binds a gRPC server to an rpcq bridge.
//
// The core rpcq primitive is transport-agnostic; this package supplies
// the one-time bootstrapping the primitive treats as external: building
// the server, binding the address, and coupling both lifecycles so a
// single Stop tears down the server, the completion ring, and the
// poller in order.
//
// Handlers report completions by posting to [Server.Completions]; the
// application's consumer drives them via [rpcq.Service.Await].
package grpcbridge

import (
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"code.hybscloud.com/rpcq"
)

// DefaultRingCapacity is the completion ring capacity used by Build.
const DefaultRingCapacity = 1024

// ServerHost adapts a *grpc.Server to the rpcq.Host contract.
// Shutdown performs a graceful stop: it drains in-flight RPCs before
// returning, so the completion ring sees every final post.
type ServerHost struct {
	srv *grpc.Server
}

// NewServerHost wraps srv. Panics if srv is nil.
func NewServerHost(srv *grpc.Server) *ServerHost {
	if srv == nil {
		panic("grpcbridge: nil server")
	}
	return &ServerHost{srv: srv}
}

// Shutdown gracefully stops the wrapped server.
func (h *ServerHost) Shutdown() {
	h.srv.GracefulStop()
}

// Server couples a gRPC server, its listener, a completion ring, and the
// bridge service into one lifecycle.
type Server struct {
	srv *grpc.Server
	lis net.Listener
	src *rpcq.RingSource
	svc *rpcq.Service
}

// Build constructs a server listening on addr. creds may be nil for an
// insecure server; register, if non-nil, registers service
// implementations before the listener is bound. Remaining options are
// passed through to grpc.NewServer.
func Build(addr string, creds credentials.TransportCredentials, register func(grpc.ServiceRegistrar), opts ...grpc.ServerOption) (*Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return BuildListener(lis, creds, register, opts...), nil
}

// BuildListener is Build for a caller-provided listener (e.g. bufconn in
// tests). The listener is owned by the returned Server.
func BuildListener(lis net.Listener, creds credentials.TransportCredentials, register func(grpc.ServiceRegistrar), opts ...grpc.ServerOption) *Server {
	if creds != nil {
		opts = append(opts, grpc.Creds(creds))
	}
	srv := grpc.NewServer(opts...)
	if register != nil {
		register(srv)
	}
	src := rpcq.NewRingSource(DefaultRingCapacity)
	svc := rpcq.New(src).
		Host(NewServerHost(srv)).
		Executor(rpcq.GoExecutor{}).
		Build()
	return &Server{srv: srv, lis: lis, src: src, svc: svc}
}

// Run starts serving and spawns the bridge poller. Returns ErrClosed if
// the bridge was already started or stopped.
func (s *Server) Run() error {
	if err := s.svc.Start(); err != nil {
		return err
	}
	go func() { _ = s.srv.Serve(s.lis) }()
	return nil
}

// Stop tears everything down in order: the gRPC server drains
// gracefully, the completion ring shuts down and is drained by the
// poller, and the poller is joined. Idempotent.
func (s *Server) Stop() {
	s.svc.Stop()
	_ = s.lis.Close()
}

// GRPC returns the underlying gRPC server, e.g. for late registration
// before Run.
func (s *Server) GRPC() *grpc.Server {
	return s.srv
}

// Service returns the bridge service consumers await on.
func (s *Server) Service() *rpcq.Service {
	return s.svc
}

// Completions returns the completion ring handlers post to.
func (s *Server) Completions() *rpcq.RingSource {
	return s.src
}

// Addr returns the bound listener address.
func (s *Server) Addr() net.Addr {
	return s.lis.Addr()
}
