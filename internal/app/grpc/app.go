package grpcapp

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/ports"
	grpcHandler "github.com/sm8ta/webike_rental_microservice_nikita/internal/grpc"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const healthInterval = 15 * time.Second

type App struct {
	log        ports.LoggerPort
	gRPCServer *grpc.Server
	health     *grpcHandler.HealthWatcher
	port       int
	ctx        context.Context
	cancel     context.CancelFunc
}

// New gRPC server app exposing the standard health service.
func New(
	log ports.LoggerPort,
	store ports.StorePinger,
	port int,
) *App {
	loggingOpts := []logging.Option{
		logging.WithLogOnEvents(logging.FinishCall),
	}

	recoveryOpts := []recovery.Option{
		recovery.WithRecoveryHandler(func(p interface{}) (err error) {
			log.Error("Recovered from panic in gRPC handler", map[string]interface{}{
				"panic": p,
			})
			return status.Errorf(codes.Internal, "internal error")
		}),
	}

	gRPCServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			recovery.UnaryServerInterceptor(recoveryOpts...),
			logging.UnaryServerInterceptor(grpcHandler.InterceptorLogger(log), loggingOpts...),
		),
		grpc.ChainStreamInterceptor(
			recovery.StreamServerInterceptor(recoveryOpts...),
			logging.StreamServerInterceptor(grpcHandler.InterceptorLogger(log), loggingOpts...),
		),
	)

	ctx, cancel := context.WithCancel(context.Background())

	return &App{
		log:        log,
		gRPCServer: gRPCServer,
		health:     grpcHandler.Register(gRPCServer, store, log),
		port:       port,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// MustRun runs gRPC server and panics if any error occurs.
func (a *App) MustRun() {
	if err := a.Run(); err != nil {
		panic(err)
	}
}

// Run runs gRPC server.
func (a *App) Run() error {
	const op = "grpcapp.Run"

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", a.port))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return a.Serve(listener)
}

// Serve runs the server on an existing listener until Stop.
func (a *App) Serve(listener net.Listener) error {
	const op = "grpcapp.Serve"

	go a.health.Watch(a.ctx, healthInterval)

	a.log.Info("Starting gRPC server", map[string]interface{}{
		"addr": listener.Addr().String(),
	})

	if err := a.gRPCServer.Serve(listener); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Stop stops gRPC server.
func (a *App) Stop() {
	const op = "grpcapp.Stop"

	a.log.Info("Stopping gRPC server", map[string]interface{}{
		"op":   op,
		"port": a.port,
	})

	a.cancel()
	a.gRPCServer.GracefulStop()
}
