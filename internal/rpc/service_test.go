package rpc

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

// stubServer implements only what the tests call; anything else panics on
// the nil embedded interface.
type stubServer struct {
	TravelBuddyServer
	flows []string
}

func (s *stubServer) Ping(context.Context, *PingRequest) (*PingResponse, error) {
	return &PingResponse{Status: "OK"}, nil
}

func (s *stubServer) Login(_ context.Context, in *LoginRequest) (*LoginResponse, error) {
	if in.Password != "secret" {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}
	return &LoginResponse{AccessToken: "a:" + in.Email, RefreshToken: "r", SessionID: "s"}, nil
}

func (s *stubServer) WatchFlow(_ *WatchFlowRequest, stream grpc.ServerStreamingServer[FlowUpdate]) error {
	for _, f := range s.flows {
		if err := stream.Send(&FlowUpdate{Flow: f, At: time.Unix(0, 0).UTC()}); err != nil {
			return err
		}
	}
	return nil
}

func dial(t *testing.T, srv TravelBuddyServer, opts ...grpc.ServerOption) TravelBuddyClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer(opts...)
	RegisterTravelBuddyServer(s, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return NewTravelBuddyClient(conn)
}

func TestClient_Unary(t *testing.T) {
	c := dial(t, &stubServer{})
	ctx := context.Background()

	ping, err := c.Ping(ctx, &PingRequest{})
	require.NoError(t, err)
	assert.Equal(t, "OK", ping.Status)

	login, err := c.Login(ctx, &LoginRequest{Email: "a@b.c", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "a:a@b.c", login.AccessToken)

	_, err = c.Login(ctx, &LoginRequest{Email: "a@b.c", Password: "nope"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestClient_WatchFlowStream(t *testing.T) {
	c := dial(t, &stubServer{flows: []string{"profile_creation", "main"}})

	stream, err := c.WatchFlow(context.Background(), &WatchFlowRequest{})
	require.NoError(t, err)

	var got []string
	for {
		u, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, u.Flow)
	}
	assert.Equal(t, []string{"profile_creation", "main"}, got)
}

func TestUnaryHandler_PassesFullMethodToInterceptor(t *testing.T) {
	seen := make(chan string, 1)
	intercept := func(ctx context.Context, req any, info *grpc.UnaryServerInfo, h grpc.UnaryHandler) (any, error) {
		seen <- info.FullMethod
		return h(ctx, req)
	}
	c := dial(t, &stubServer{}, grpc.UnaryInterceptor(intercept))

	_, err := c.Ping(context.Background(), &PingRequest{})
	require.NoError(t, err)
	assert.Equal(t, MethodPing, <-seen)
}

func TestJSONCodec(t *testing.T) {
	var c jsonCodec
	assert.Equal(t, CodecName, c.Name())

	var req LoginRequest
	require.NoError(t, c.Unmarshal(nil, &req), "empty payload decodes to the zero message")

	b, err := c.Marshal(&FlowUpdate{Flow: "main"})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"flow":"main"`)
}
