package api

import (
	"context"
	"fmt"
	"net"
	"time"

	"shareit/internal/config"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// grpcServiceName is the health service name reported next to the overall ("") status.
const grpcServiceName = "shareit"

// GRPCServer serves the standard gRPC health protocol. Status follows the
// database ping done by CheckHealth.
type GRPCServer struct {
	cfg    config.APIGRPCConfig
	db     Pinger
	server *grpc.Server
	health *health.Server
	logger *zerolog.Logger
}

func NewGRPCServer(cfg config.APIGRPCConfig, db Pinger, logger *zerolog.Logger) *GRPCServer {
	s := &GRPCServer{cfg: cfg, db: db, logger: logger, health: health.NewServer()}

	s.server = grpc.NewServer(grpc.ChainUnaryInterceptor(
		s.loggingUnaryInterceptor,
		s.recoverUnaryInterceptor,
	))
	healthpb.RegisterHealthServer(s.server, s.health)
	if cfg.Reflection {
		reflection.Register(s.server)
	}

	// До первой проверки считаем сервис недоступным
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

func (s *GRPCServer) setStatus(st healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(grpcServiceName, st)
}

// CheckHealth pings the database and publishes the result. The error is
// returned so that the scheduler logs failed checks.
func (s *GRPCServer) CheckHealth(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.db.HealthCheck(ctx); err != nil {
		s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
		return fmt.Errorf("database ping: %w", err)
	}
	s.setStatus(healthpb.HealthCheckResponse_SERVING)
	return nil
}

// Serve blocks serving on lis until Shutdown.
func (s *GRPCServer) Serve(lis net.Listener) error {
	s.logger.Info().Str("addr", lis.Addr().String()).Msg("gRPC health listening")
	return s.server.Serve(lis)
}

func (s *GRPCServer) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc listen %s: %w", addr, err)
	}
	return s.Serve(lis)
}

func (s *GRPCServer) Shutdown(ctx context.Context) {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn().Msg("gRPC graceful shutdown timed out; forcing stop")
		s.server.Stop()
	}
}

func (s *GRPCServer) loggingUnaryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Debug().
		Str("method", info.FullMethod).
		Str("code", status.Code(err).String()).
		Dur("took", time.Since(start)).
		Msg("grpc request")
	return resp, err
}

func (s *GRPCServer) recoverUnaryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Str("method", info.FullMethod).Msg("grpc handler panic")
			err = status.Error(codes.Internal, "internal error")
		}
	}()
	return handler(ctx, req)
}
