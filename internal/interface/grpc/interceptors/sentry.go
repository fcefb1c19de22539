package interceptors

import (
	"context"

	"github.com/getsentry/sentry-go"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func unarySentryErrorReporter(
	ctx context.Context,
	req interface{},
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (interface{}, error) {
	resp, err := handler(ctx, req)
	reportError(err, info.FullMethod)
	return resp, err
}

func streamSentryErrorReporter(
	srv interface{},
	stream grpc.ServerStream,
	info *grpc.StreamServerInfo,
	handler grpc.StreamHandler,
) error {
	err := handler(srv, stream)
	reportError(err, info.FullMethod)
	return err
}

// reportError sends to sentry only failures on the server side. Canceled
// calls and errors caused by the caller are left out.
func reportError(err error, method string) {
	if err == nil {
		return
	}
	switch status.Code(err) {
	case codes.Canceled, codes.InvalidArgument, codes.NotFound,
		codes.PermissionDenied, codes.FailedPrecondition, codes.Unimplemented:
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("method", method)
		sentry.CaptureException(err)
	})
}
