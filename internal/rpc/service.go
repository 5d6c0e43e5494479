package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "travelbuddy.v1.TravelBuddy"

// Full method names.
const (
	MethodPing                  = "/" + ServiceName + "/Ping"
	MethodRegister              = "/" + ServiceName + "/Register"
	MethodLogin                 = "/" + ServiceName + "/Login"
	MethodRefreshToken          = "/" + ServiceName + "/RefreshToken"
	MethodLogout                = "/" + ServiceName + "/Logout"
	MethodGetProfile            = "/" + ServiceName + "/GetProfile"
	MethodSaveProfile           = "/" + ServiceName + "/SaveProfile"
	MethodRequestImageUpload    = "/" + ServiceName + "/RequestImageUpload"
	MethodConfirmImageUpload    = "/" + ServiceName + "/ConfirmImageUpload"
	MethodGetVerificationStatus = "/" + ServiceName + "/GetVerificationStatus"
	MethodSubmitVerification    = "/" + ServiceName + "/SubmitVerification"
	MethodResetVerification     = "/" + ServiceName + "/ResetVerification"
	MethodWatchFlow             = "/" + ServiceName + "/WatchFlow"
)

// PublicMethods can be called without an access token.
var PublicMethods = map[string]bool{
	MethodPing:         true,
	MethodRegister:     true,
	MethodLogin:        true,
	MethodRefreshToken: true,
}

// TravelBuddyServer is the server API.
type TravelBuddyServer interface {
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*RefreshTokenResponse, error)
	Logout(context.Context, *LogoutRequest) (*LogoutResponse, error)
	GetProfile(context.Context, *GetProfileRequest) (*GetProfileResponse, error)
	SaveProfile(context.Context, *SaveProfileRequest) (*SaveProfileResponse, error)
	RequestImageUpload(context.Context, *RequestImageUploadRequest) (*RequestImageUploadResponse, error)
	ConfirmImageUpload(context.Context, *ConfirmImageUploadRequest) (*ConfirmImageUploadResponse, error)
	GetVerificationStatus(context.Context, *GetVerificationStatusRequest) (*GetVerificationStatusResponse, error)
	SubmitVerification(context.Context, *SubmitVerificationRequest) (*SubmitVerificationResponse, error)
	ResetVerification(context.Context, *ResetVerificationRequest) (*ResetVerificationResponse, error)
	WatchFlow(*WatchFlowRequest, grpc.ServerStreamingServer[FlowUpdate]) error
}

// RegisterTravelBuddyServer registers srv on s.
func RegisterTravelBuddyServer(s grpc.ServiceRegistrar, srv TravelBuddyServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func unary[Req, Resp any](method string, call func(TravelBuddyServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(TravelBuddyServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(TravelBuddyServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func watchFlowHandler(srv any, stream grpc.ServerStream) error {
	in := new(WatchFlowRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(TravelBuddyServer).WatchFlow(in, &grpc.GenericServerStream[WatchFlowRequest, FlowUpdate]{ServerStream: stream})
}

// ServiceDesc describes the TravelBuddy service for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TravelBuddyServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Ping", Handler: unary(MethodPing, TravelBuddyServer.Ping)},
		{MethodName: "Register", Handler: unary(MethodRegister, TravelBuddyServer.Register)},
		{MethodName: "Login", Handler: unary(MethodLogin, TravelBuddyServer.Login)},
		{MethodName: "RefreshToken", Handler: unary(MethodRefreshToken, TravelBuddyServer.RefreshToken)},
		{MethodName: "Logout", Handler: unary(MethodLogout, TravelBuddyServer.Logout)},
		{MethodName: "GetProfile", Handler: unary(MethodGetProfile, TravelBuddyServer.GetProfile)},
		{MethodName: "SaveProfile", Handler: unary(MethodSaveProfile, TravelBuddyServer.SaveProfile)},
		{MethodName: "RequestImageUpload", Handler: unary(MethodRequestImageUpload, TravelBuddyServer.RequestImageUpload)},
		{MethodName: "ConfirmImageUpload", Handler: unary(MethodConfirmImageUpload, TravelBuddyServer.ConfirmImageUpload)},
		{MethodName: "GetVerificationStatus", Handler: unary(MethodGetVerificationStatus, TravelBuddyServer.GetVerificationStatus)},
		{MethodName: "SubmitVerification", Handler: unary(MethodSubmitVerification, TravelBuddyServer.SubmitVerification)},
		{MethodName: "ResetVerification", Handler: unary(MethodResetVerification, TravelBuddyServer.ResetVerification)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "WatchFlow", Handler: watchFlowHandler, ServerStreams: true},
	},
	Metadata: "travelbuddy/v1/travelbuddy.json",
}
