package grpc

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/patelashutosh/bloom-store/internal/identity"
	"github.com/patelashutosh/bloom-store/pkg/logger"
)

// LoggingInterceptor stores a per-call logger in the context and logs the
// outcome of every unary call.
func LoggingInterceptor(base *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		l := base.With(zap.String("grpc_method", info.FullMethod))
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if ids := md.Get("request-id"); len(ids) > 0 {
				l = l.With(zap.String("request_id", ids[0]))
			}
		}
		ctx = logger.WithContext(ctx, l)

		start := time.Now()
		resp, err := handler(ctx, req)
		logger.FromContext(ctx).Info("grpc request",
			zap.String("code", status.Code(err).String()),
			zap.Duration("duration", time.Since(start)))
		return resp, err
	}
}

// AuthInterceptor reads a bearer token from the "authorization" metadata.
// Calls without one continue anonymously.
func AuthInterceptor(auth *identity.Authenticator) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		var header string
		if values := md.Get("authorization"); len(values) > 0 {
			header = values[0]
		}

		token, ok, err := identity.BearerToken(header)
		if !ok {
			return handler(ctx, req)
		}
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "malformed authorization metadata")
		}

		id, err := auth.Verify(token)
		if err != nil {
			logger.FromContext(ctx).Info("rejected bearer token", zap.Error(err))
			return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
		}
		return handler(identity.WithIdentity(ctx, id), req)
	}
}
