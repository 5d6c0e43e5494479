// Package api is the terminal client's view of the travelbuddy server. It
// keeps the tokens of the signed-in user and refreshes the access token
// transparently when it expires.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/travelbuddy/internal/common"
	"github.com/dmitrijs2005/travelbuddy/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      rpc.TravelBuddyClient

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func isTokenExpired(err error) bool {
	st, ok := status.FromError(err)
	return ok && st.Code() == codes.Unauthenticated && st.Message() == common.ErrTokenExpired.Error()
}

func (s *GRPCClient) tokens() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.refreshToken
}

func (s *GRPCClient) setTokens(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken, s.refreshToken = access, refresh
}

// refresh trades the refresh token for a new pair.
func (s *GRPCClient) refresh(ctx context.Context) error {
	_, refreshToken := s.tokens()
	if refreshToken == "" {
		return ErrUnauthorized
	}

	resp, err := s.client.RefreshToken(ctx, &rpc.RefreshTokenRequest{RefreshToken: refreshToken})
	if err != nil {
		if status.Code(err) == codes.Unauthenticated {
			s.setTokens("", "")
			return ErrSessionExpired
		}
		return err
	}

	s.setTokens(resp.AccessToken, resp.RefreshToken)
	return nil
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if rpc.PublicMethods[method] {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	accessToken, _ := s.tokens()
	err := invoker(withAccessToken(ctx, accessToken), method, req, reply, cc, opts...)
	if err == nil || !isTokenExpired(err) {
		return err
	}

	if err := s.refresh(ctx); err != nil {
		return err
	}

	// tokens refreshed, retry with the new access token
	accessToken, _ = s.tokens()
	return invoker(withAccessToken(ctx, accessToken), method, req, reply, cc, opts...)
}

func (s *GRPCClient) streamAccessTokenInterceptor(
	ctx context.Context,
	desc *grpc.StreamDesc,
	cc *grpc.ClientConn,
	method string,
	streamer grpc.Streamer,
	opts ...grpc.CallOption,
) (grpc.ClientStream, error) {
	accessToken, _ := s.tokens()
	return streamer(withAccessToken(ctx, accessToken), desc, cc, method, opts...)
}

func NewTravelBuddyClientService(endpointURL string) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

// InitGRPCClient creates the connection. Extra options are appended to
// the defaults.
func (s *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
		grpc.WithStreamInterceptor(s.streamAccessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = rpc.NewTravelBuddyClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// SignedIn reports whether the client holds tokens.
func (s *GRPCClient) SignedIn() bool {
	access, _ := s.tokens()
	return access != ""
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.client.Ping(ctx, &rpc.PingRequest{})
	if err != nil {
		return s.mapError(err)
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) Register(ctx context.Context, email, password string) error {
	_, err := s.client.Register(ctx, &rpc.RegisterRequest{Email: email, Password: password})
	return s.mapError(err)
}

func (s *GRPCClient) Login(ctx context.Context, email, password string) error {
	resp, err := s.client.Login(ctx, &rpc.LoginRequest{Email: email, Password: password})
	if err != nil {
		return s.mapError(err)
	}
	s.setTokens(resp.AccessToken, resp.RefreshToken)
	return nil
}

// Logout ends the session on the server and forgets the tokens. The tokens
// are dropped even when the server cannot be reached.
func (s *GRPCClient) Logout(ctx context.Context) error {
	_, err := s.client.Logout(ctx, &rpc.LogoutRequest{})
	s.setTokens("", "")
	return s.mapError(err)
}

// GetProfile returns the stored profile or nil when none was saved yet.
func (s *GRPCClient) GetProfile(ctx context.Context) (*rpc.Profile, error) {
	resp, err := s.client.GetProfile(ctx, &rpc.GetProfileRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Profile, nil
}

func (s *GRPCClient) SaveProfile(ctx context.Context, form rpc.ProfileForm) (*rpc.Profile, error) {
	resp, err := s.client.SaveProfile(ctx, &rpc.SaveProfileRequest{Form: form})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Profile, nil
}

func (s *GRPCClient) RequestImageUpload(ctx context.Context, kind string) (string, string, error) {
	resp, err := s.client.RequestImageUpload(ctx, &rpc.RequestImageUploadRequest{Kind: kind})
	if err != nil {
		return "", "", s.mapError(err)
	}
	return resp.Handle, resp.UploadURL, nil
}

func (s *GRPCClient) ConfirmImageUpload(ctx context.Context, handle string) (*rpc.ConfirmImageUploadResponse, error) {
	resp, err := s.client.ConfirmImageUpload(ctx, &rpc.ConfirmImageUploadRequest{Handle: handle})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) VerificationStatus(ctx context.Context) (*rpc.VerificationStatus, error) {
	resp, err := s.client.GetVerificationStatus(ctx, &rpc.GetVerificationStatusRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return &resp.Status, nil
}

func (s *GRPCClient) SubmitVerification(ctx context.Context) (*rpc.VerificationResult, error) {
	resp, err := s.client.SubmitVerification(ctx, &rpc.SubmitVerificationRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return &resp.Result, nil
}

func (s *GRPCClient) ResetVerification(ctx context.Context) error {
	_, err := s.client.ResetVerification(ctx, &rpc.ResetVerificationRequest{})
	return s.mapError(err)
}

// WatchFlow calls fn with every flow pushed by the server until the stream
// ends, ctx is done or fn returns an error. An expired access token is
// refreshed once.
func (s *GRPCClient) WatchFlow(ctx context.Context, fn func(flow string) error) error {
	refreshed := false
	for {
		err := s.watch(ctx, fn)
		if isTokenExpired(err) && !refreshed {
			if err := s.refresh(ctx); err != nil {
				return s.mapError(err)
			}
			refreshed = true
			continue
		}
		return s.mapError(err)
	}
}

func (s *GRPCClient) watch(ctx context.Context, fn func(flow string) error) error {
	stream, err := s.client.WatchFlow(ctx, &rpc.WatchFlowRequest{})
	if err != nil {
		return err
	}
	for {
		u, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(u.Flow); err != nil {
			return err
		}
	}
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidInput, st.Message())
	case codes.NotFound:
		return ErrNotFound
	case codes.AlreadyExists:
		return ErrAlreadyExists
	case codes.FailedPrecondition:
		return fmt.Errorf("%w: %s", ErrNotReady, st.Message())
	case codes.Aborted:
		return ErrBusy
	case codes.Canceled:
		return context.Canceled
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
