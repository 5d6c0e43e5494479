package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// TravelBuddyClient is the client API. Every call is sent with the JSON
// codec.
type TravelBuddyClient interface {
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error)
	Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error)
	Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error)
	RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*RefreshTokenResponse, error)
	Logout(ctx context.Context, in *LogoutRequest, opts ...grpc.CallOption) (*LogoutResponse, error)
	GetProfile(ctx context.Context, in *GetProfileRequest, opts ...grpc.CallOption) (*GetProfileResponse, error)
	SaveProfile(ctx context.Context, in *SaveProfileRequest, opts ...grpc.CallOption) (*SaveProfileResponse, error)
	RequestImageUpload(ctx context.Context, in *RequestImageUploadRequest, opts ...grpc.CallOption) (*RequestImageUploadResponse, error)
	ConfirmImageUpload(ctx context.Context, in *ConfirmImageUploadRequest, opts ...grpc.CallOption) (*ConfirmImageUploadResponse, error)
	GetVerificationStatus(ctx context.Context, in *GetVerificationStatusRequest, opts ...grpc.CallOption) (*GetVerificationStatusResponse, error)
	SubmitVerification(ctx context.Context, in *SubmitVerificationRequest, opts ...grpc.CallOption) (*SubmitVerificationResponse, error)
	ResetVerification(ctx context.Context, in *ResetVerificationRequest, opts ...grpc.CallOption) (*ResetVerificationResponse, error)
	WatchFlow(ctx context.Context, in *WatchFlowRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[FlowUpdate], error)
}

type travelBuddyClient struct {
	cc grpc.ClientConnInterface
}

func NewTravelBuddyClient(cc grpc.ClientConnInterface) TravelBuddyClient {
	return &travelBuddyClient{cc: cc}
}

func callOptions(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	if err := cc.Invoke(ctx, method, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *travelBuddyClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, MethodPing, in, opts)
}

func (c *travelBuddyClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	return invoke[RegisterResponse](ctx, c.cc, MethodRegister, in, opts)
}

func (c *travelBuddyClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	return invoke[LoginResponse](ctx, c.cc, MethodLogin, in, opts)
}

func (c *travelBuddyClient) RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*RefreshTokenResponse, error) {
	return invoke[RefreshTokenResponse](ctx, c.cc, MethodRefreshToken, in, opts)
}

func (c *travelBuddyClient) Logout(ctx context.Context, in *LogoutRequest, opts ...grpc.CallOption) (*LogoutResponse, error) {
	return invoke[LogoutResponse](ctx, c.cc, MethodLogout, in, opts)
}

func (c *travelBuddyClient) GetProfile(ctx context.Context, in *GetProfileRequest, opts ...grpc.CallOption) (*GetProfileResponse, error) {
	return invoke[GetProfileResponse](ctx, c.cc, MethodGetProfile, in, opts)
}

func (c *travelBuddyClient) SaveProfile(ctx context.Context, in *SaveProfileRequest, opts ...grpc.CallOption) (*SaveProfileResponse, error) {
	return invoke[SaveProfileResponse](ctx, c.cc, MethodSaveProfile, in, opts)
}

func (c *travelBuddyClient) RequestImageUpload(ctx context.Context, in *RequestImageUploadRequest, opts ...grpc.CallOption) (*RequestImageUploadResponse, error) {
	return invoke[RequestImageUploadResponse](ctx, c.cc, MethodRequestImageUpload, in, opts)
}

func (c *travelBuddyClient) ConfirmImageUpload(ctx context.Context, in *ConfirmImageUploadRequest, opts ...grpc.CallOption) (*ConfirmImageUploadResponse, error) {
	return invoke[ConfirmImageUploadResponse](ctx, c.cc, MethodConfirmImageUpload, in, opts)
}

func (c *travelBuddyClient) GetVerificationStatus(ctx context.Context, in *GetVerificationStatusRequest, opts ...grpc.CallOption) (*GetVerificationStatusResponse, error) {
	return invoke[GetVerificationStatusResponse](ctx, c.cc, MethodGetVerificationStatus, in, opts)
}

func (c *travelBuddyClient) SubmitVerification(ctx context.Context, in *SubmitVerificationRequest, opts ...grpc.CallOption) (*SubmitVerificationResponse, error) {
	return invoke[SubmitVerificationResponse](ctx, c.cc, MethodSubmitVerification, in, opts)
}

func (c *travelBuddyClient) ResetVerification(ctx context.Context, in *ResetVerificationRequest, opts ...grpc.CallOption) (*ResetVerificationResponse, error) {
	return invoke[ResetVerificationResponse](ctx, c.cc, MethodResetVerification, in, opts)
}

func (c *travelBuddyClient) WatchFlow(ctx context.Context, in *WatchFlowRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[FlowUpdate], error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], MethodWatchFlow, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[WatchFlowRequest, FlowUpdate]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
