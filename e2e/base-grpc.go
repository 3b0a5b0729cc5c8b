package e2e

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ephemeral-chat/client"
	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

const password = "Sup3r-Secret!"

type BaseGrpcSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseGrpcSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.GRPCAddr == "" {
		s.T().Skip("E2E_GRPC_ADDR is not set")
	}
}

// GrpcConn initializes a gRPC connection that logs every stream and, with
// E2E_DEBUG_JSON, every frame.
func (s *BaseGrpcSuite) GrpcConn(t *testing.T, name string) *grpc.ClientConn {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)

	marshaler := protojson.MarshalOptions{Multiline: true, EmitUnpopulated: true}
	conn, err := grpc.NewClient(s.Config.GRPCAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStreamInterceptor(func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string,
			streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
			start := time.Now()
			stream, err := streamer(ctx, desc, cc, method, opts...)
			t.Logf("GRPC %s [%s] opened in %v", method, status.Code(err), time.Since(start))
			if err != nil || !s.Config.DebugJSON {
				return stream, err
			}
			return &loggingStream{ClientStream: stream, t: t, marshaler: marshaler}, nil
		}),
	)
	s.Require().NoError(err, "Failed to connect to gRPC server at "+s.Config.GRPCAddr)
	return conn
}

type loggingStream struct {
	grpc.ClientStream
	t         *testing.T
	marshaler protojson.MarshalOptions
}

func (l *loggingStream) SendMsg(m any) error {
	l.t.Log("SEND:\n" + l.marshaler.Format(m.(proto.Message)))
	return l.ClientStream.SendMsg(m)
}

func (l *loggingStream) RecvMsg(m any) error {
	err := l.ClientStream.RecvMsg(m)
	if err == nil {
		l.t.Log("RECV:\n" + l.marshaler.Format(m.(proto.Message)))
	}
	return err
}

// NewUser registers a fresh account.
func (s *BaseGrpcSuite) NewUser(ctx context.Context) *client.Client {
	c := client.New(s.Config.HTTPAddr)
	s.Require().NoError(c.Register(ctx, uuid.NewString()+"@e2e.test", password))
	return c
}

// WithSession provides an authenticated realtime session within a contextual test step
func (s *BaseGrpcSuite) WithSession(name string, user *client.Client, fn func(ctx context.Context, session *client.Session)) {
	conn := s.GrpcConn(s.T(), name)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	session, err := client.Connect(ctx, conn)
	s.Require().NoError(err)
	s.Require().NoError(session.Authenticate(user.Token))
	fn(ctx, session)
}
