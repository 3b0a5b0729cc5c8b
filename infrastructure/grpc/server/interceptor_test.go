package server

import (
	"bytes"
	"log/slog"
	"testing"

	"ephemeral-chat/errors"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
)

func TestStreamLoggingInterceptor_Logs_Open_And_Close(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	logger := logs.GetLoggerFromBufferWithLogger(&buf, slog.LevelDebug)
	info := &grpc.StreamServerInfo{FullMethod: "/test.Service/Connect", IsClientStream: true, IsServerStream: true}

	// Given a handler ending the stream as unauthenticated
	called := false
	handler := func(srv any, stream grpc.ServerStream) error {
		called = true
		return errors.MapToGRPCError(errors.ErrInvalidToken)
	}

	// When the stream goes through the interceptor
	err := StreamLoggingInterceptor(logger)(nil, nil, info, handler)

	// Then the handler error is returned untouched and both ends are logged
	req.True(called)
	req.Error(err)
	output := buf.String()
	req.Contains(output, "stream opened")
	req.Contains(output, "stream closed")
	req.Contains(output, info.FullMethod)
	req.Contains(output, "Unauthenticated")
	req.NotContains(output, "invalid token")
}

func TestStreamLoggingInterceptor_Logs_OK_On_Success(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	logger := logs.GetLoggerFromBufferWithLogger(&buf, slog.LevelDebug)
	info := &grpc.StreamServerInfo{FullMethod: "/test.Service/Connect"}

	err := StreamLoggingInterceptor(logger)(nil, nil, info, func(any, grpc.ServerStream) error { return nil })

	req.NoError(err)
	req.Contains(buf.String(), "OK")
}
