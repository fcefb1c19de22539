package interceptors

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func unaryRecoveryInterceptor(sentryEnabled bool) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler,
	) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				recoverPanic(r, info.FullMethod, "grpc_unary", sentryEnabled)
				err = status.Errorf(codes.Internal, "Internal server error")
			}
		}()

		return handler(ctx, req)
	}
}

func streamRecoveryInterceptor(sentryEnabled bool) grpc.StreamServerInterceptor {
	return func(
		srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler,
	) (err error) {
		defer func() {
			if r := recover(); r != nil {
				recoverPanic(r, info.FullMethod, "grpc_stream", sentryEnabled)
				err = status.Errorf(codes.Internal, "Internal server error")
			}
		}()

		return handler(srv, ss)
	}
}

func recoverPanic(r any, method, kind string, sentryEnabled bool) {
	stackTrace := string(debug.Stack())
	fields := log.Fields{
		"method":      method,
		"panic":       r,
		"stack_trace": stackTrace,
	}

	if sentryEnabled {
		sentry.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("method", method)
			scope.SetTag("type", kind)
			scope.SetExtra("stack_trace", stackTrace)
			sentry.CaptureException(fmt.Errorf("panic: %v", r))
		})
		// already reported
		fields["skip_sentry"] = true
	}

	log.WithFields(fields).Errorf("panic recovered in %s handler", kind)
}
