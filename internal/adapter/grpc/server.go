package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Server is the gRPC endpoint orchestrators probe. It carries the standard
// health service and reflection.
type Server struct {
	grpc    *grpc.Server
	health  *health.Server
	service string
	logger  *logger.Logger
}

func NewServer(serviceName string, appLogger *logger.Logger) *Server {
	log := appLogger.Named("GRPC")
	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(LoggingInterceptor(log)),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	hs.SetServingStatus(serviceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Server{grpc: srv, health: hs, service: serviceName, logger: log}
}

// SetServing flips both the overall and the per-service health status.
func (s *Server) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(s.service, st)
}

// Serve blocks until the listener fails or Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("gRPC server listening", zap.String("addr", lis.Addr().String()))
	s.SetServing(true)
	if err := s.grpc.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

func (s *Server) Stop() {
	s.SetServing(false)
	s.health.Shutdown()
	s.logger.Info("Calling gRPC server's GracefulStop...")
	s.grpc.GracefulStop()
	s.logger.Info("gRPC server GracefulStop completed.")
}

func LoggingInterceptor(log *logger.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if err != nil {
			log.Warn("gRPC request failed", zap.String("method", info.FullMethod), zap.Duration("duration", time.Since(start)), zap.Error(err))
		} else {
			log.Debug("gRPC request completed", zap.String("method", info.FullMethod), zap.Duration("duration", time.Since(start)))
		}
		return resp, err
	}
}
