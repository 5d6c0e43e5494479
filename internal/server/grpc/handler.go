package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/travelbuddy/internal/common"
	"github.com/dmitrijs2005/travelbuddy/internal/rpc"
	"github.com/dmitrijs2005/travelbuddy/internal/server/gate"
	"github.com/dmitrijs2005/travelbuddy/internal/server/models"
	"github.com/dmitrijs2005/travelbuddy/internal/server/services"
	"github.com/dmitrijs2005/travelbuddy/internal/server/verification"
	"google.golang.org/grpc"
)

type userSvc interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Authenticate(ctx context.Context, accessToken string) (*services.Identity, error)
	Logout(ctx context.Context, sessionID string) error
}

type profileSvc interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
	Save(ctx context.Context, userID string, form *models.ProfileForm) (*models.Profile, error)
}

type imageSvc interface {
	RequestUpload(ctx context.Context, userID string, kind models.ImageKind) (*models.ImageUploadTask, error)
	ConfirmUpload(ctx context.Context, userID, handle string) (*models.Image, error)
	Discard(ctx context.Context, handle string) error
}

type verificationSvc interface {
	AttachImage(ctx context.Context, userID string, kind models.ImageKind, handle string) (*verification.Status, error)
	Status(ctx context.Context, userID string) (*verification.Status, error)
	Submit(ctx context.Context, userID string) (*models.VerificationResult, error)
	Reset(ctx context.Context, userID string) error
}

type flowWatcher interface {
	Watch(ctx context.Context, sessionID string, emit func(gate.Flow) error) error
}

func (s *GRPCServer) Ping(ctx context.Context, req *rpc.PingRequest) (*rpc.PingResponse, error) {
	return &rpc.PingResponse{Status: "OK"}, nil
}

func (s *GRPCServer) Register(ctx context.Context, req *rpc.RegisterRequest) (*rpc.RegisterResponse, error) {
	s.logger.Info(ctx, "Registration request")

	user, err := s.users.Register(ctx, req.Email, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "Registered", "user_id", user.ID)
	return &rpc.RegisterResponse{UserID: user.ID}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *rpc.LoginRequest) (*rpc.LoginResponse, error) {
	tokens, err := s.users.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.LoginResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken, SessionID: tokens.SessionID}, nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *rpc.RefreshTokenRequest) (*rpc.RefreshTokenResponse, error) {
	tokens, err := s.users.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.RefreshTokenResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
}

func (s *GRPCServer) Logout(ctx context.Context, req *rpc.LogoutRequest) (*rpc.LogoutResponse, error) {
	id, err := identityFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.users.Logout(ctx, id.SessionID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.LogoutResponse{}, nil
}

func (s *GRPCServer) GetProfile(ctx context.Context, req *rpc.GetProfileRequest) (*rpc.GetProfileResponse, error) {
	id, err := identityFromContext(ctx)
	if err != nil {
		return nil, err
	}

	p, err := s.profiles.Get(ctx, id.UserID)
	if errors.Is(err, common.ErrorNotFound) {
		return &rpc.GetProfileResponse{}, nil
	}
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.GetProfileResponse{Profile: profileToRPC(p)}, nil
}

func (s *GRPCServer) SaveProfile(ctx context.Context, req *rpc.SaveProfileRequest) (*rpc.SaveProfileResponse, error) {
	id, err := identityFromContext(ctx)
	if err != nil {
		return nil, err
	}

	form, err := formFromRPC(&req.Form)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	p, err := s.profiles.Save(ctx, id.UserID, form)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.SaveProfileResponse{Profile: profileToRPC(p)}, nil
}

func (s *GRPCServer) RequestImageUpload(ctx context.Context, req *rpc.RequestImageUploadRequest) (*rpc.RequestImageUploadResponse, error) {
	id, err := identityFromContext(ctx)
	if err != nil {
		return nil, err
	}

	task, err := s.images.RequestUpload(ctx, id.UserID, models.ImageKind(req.Kind))
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.RequestImageUploadResponse{Handle: task.Handle, UploadURL: task.URL}, nil
}

// ConfirmImageUpload marks an upload as done. ID and selfie images are
// attached to the verification attempt right away. An image the attempt
// refuses is discarded.
func (s *GRPCServer) ConfirmImageUpload(ctx context.Context, req *rpc.ConfirmImageUploadRequest) (*rpc.ConfirmImageUploadResponse, error) {
	id, err := identityFromContext(ctx)
	if err != nil {
		return nil, err
	}

	img, err := s.images.ConfirmUpload(ctx, id.UserID, req.Handle)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	resp := &rpc.ConfirmImageUploadResponse{Handle: img.Handle, Kind: string(img.Kind)}
	if img.Kind == models.ImageKindID || img.Kind == models.ImageKindSelfie {
		st, err := s.verifier.AttachImage(ctx, id.UserID, img.Kind, img.Handle)
		if err != nil {
			if derr := s.images.Discard(ctx, img.Handle); derr != nil {
				s.logger.Warn(ctx, "Failed to discard rejected image", "user_id", id.UserID, "handle", img.Handle, "error", derr)
			}
			return nil, s.toStatus(ctx, err)
		}
		resp.Verification = statusToRPC(st)
	}
	return resp, nil
}

func (s *GRPCServer) GetVerificationStatus(ctx context.Context, req *rpc.GetVerificationStatusRequest) (*rpc.GetVerificationStatusResponse, error) {
	id, err := identityFromContext(ctx)
	if err != nil {
		return nil, err
	}

	st, err := s.verifier.Status(ctx, id.UserID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.GetVerificationStatusResponse{Status: *statusToRPC(st)}, nil
}

func (s *GRPCServer) SubmitVerification(ctx context.Context, req *rpc.SubmitVerificationRequest) (*rpc.SubmitVerificationResponse, error) {
	id, err := identityFromContext(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.verifier.Submit(ctx, id.UserID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.SubmitVerificationResponse{Result: *resultToRPC(res)}, nil
}

func (s *GRPCServer) ResetVerification(ctx context.Context, req *rpc.ResetVerificationRequest) (*rpc.ResetVerificationResponse, error) {
	id, err := identityFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.verifier.Reset(ctx, id.UserID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.ResetVerificationResponse{}, nil
}

// WatchFlow streams the flow the client should show until the session ends
// or the client goes away.
func (s *GRPCServer) WatchFlow(req *rpc.WatchFlowRequest, stream grpc.ServerStreamingServer[rpc.FlowUpdate]) error {
	ctx := stream.Context()
	id, err := identityFromContext(ctx)
	if err != nil {
		return err
	}

	err = s.flows.Watch(ctx, id.SessionID, func(f gate.Flow) error {
		return stream.Send(&rpc.FlowUpdate{Flow: string(f), At: s.now()})
	})
	if err != nil {
		return s.toStatus(ctx, err)
	}
	return nil
}
