package grpc

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/patelashutosh/bloom-store/internal/identity"
)

// NewServer returns a server with the orders service and the standard health
// service registered. The returned health server reports SERVING for both.
func NewServer(log *zap.Logger, auth *identity.Authenticator, orders OrderReader) (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			LoggingInterceptor(log),
			AuthInterceptor(auth),
		),
	)

	RegisterOrdersServiceServer(srv, NewOrdersHandler(orders))

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	return srv, hs
}
