package grpc

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"liyu1981.xyz/glucose-watch-service/pkg/apperr"
	"liyu1981.xyz/glucose-watch-service/pkg/auth"
	"liyu1981.xyz/glucose-watch-service/pkg/common"
	"liyu1981.xyz/glucose-watch-service/pkg/monitor"
)

type GlucoseServer struct {
	Monitor          *monitor.Monitor
	Signer           *auth.Signer
	RateLimiterStore *monitor.RateLimiterStore

	// BaseContext ends open Watch streams when cancelled, so GracefulStop
	// does not wait on them forever.
	BaseContext context.Context
}

func (s *GlucoseServer) CheckUserLimiter(key string) bool {
	if s.RateLimiterStore == nil {
		return true
	}
	return s.RateLimiterStore.Allow(key)
}

// NewServer builds a grpc.Server with auth and per-user rate limiting and
// registers the glucose service on it.
func (s *GlucoseServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts,
		grpc.ChainUnaryInterceptor(
			s.AuthUnaryInterceptor(),
			s.CreateRateLimitInterceptor([]string{GetStatusFullMethod}),
		),
		grpc.ChainStreamInterceptor(
			s.AuthStreamInterceptor(),
			s.CreateStreamRateLimitInterceptor([]string{WatchFullMethod}),
		),
	)
	server := grpc.NewServer(opts...)
	RegisterGlucoseServiceServer(server, s)
	return server
}

func (s *GlucoseServer) baseDone() <-chan struct{} {
	if s.BaseContext == nil {
		return nil
	}
	return s.BaseContext.Done()
}

// toStatusError maps a service error onto a gRPC status. Internal causes are
// logged and replaced by a generic message.
func toStatusError(err error) error {
	code := apperr.GRPCCode(err)
	if code == codes.Internal {
		common.GetLoggerWith(common.LoggerNameGrpcServer).Error("Call failed", zap.Error(err))
	}
	return status.Error(code, apperr.PublicMessage(err))
}
