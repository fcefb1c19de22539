package interceptors

import (
	middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	"google.golang.org/grpc"
)

// UnaryInterceptor chains panic recovery, call logging and, when enabled,
// sentry error reporting for unary calls.
func UnaryInterceptor(sentryEnabled bool) grpc.ServerOption {
	interceptors := []grpc.UnaryServerInterceptor{
		unaryRecoveryInterceptor(sentryEnabled),
		unaryLogger,
	}
	if sentryEnabled {
		interceptors = append(interceptors, unarySentryErrorReporter)
	}
	return grpc.UnaryInterceptor(middleware.ChainUnaryServer(interceptors...))
}

// StreamInterceptor is the streaming counterpart of UnaryInterceptor.
func StreamInterceptor(sentryEnabled bool) grpc.ServerOption {
	interceptors := []grpc.StreamServerInterceptor{
		streamRecoveryInterceptor(sentryEnabled),
		streamLogger,
	}
	if sentryEnabled {
		interceptors = append(interceptors, streamSentryErrorReporter)
	}
	return grpc.StreamInterceptor(middleware.ChainStreamServer(interceptors...))
}
