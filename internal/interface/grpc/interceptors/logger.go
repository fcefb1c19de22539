package interceptors

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

func unaryLogger(
	ctx context.Context,
	req interface{},
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	logCall(info.FullMethod, start, err)
	return resp, err
}

func streamLogger(
	srv interface{},
	stream grpc.ServerStream,
	info *grpc.StreamServerInfo,
	handler grpc.StreamHandler,
) error {
	start := time.Now()
	err := handler(srv, stream)
	logCall(info.FullMethod, start, err)
	return err
}

func logCall(method string, start time.Time, err error) {
	entry := log.WithFields(log.Fields{
		"method":  method,
		"latency": time.Since(start).String(),
	})
	if err != nil {
		entry.WithField("code", status.Code(err).String()).WithError(err).Debug("grpc call failed")
		return
	}
	entry.Trace("grpc call served")
}
