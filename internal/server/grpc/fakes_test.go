package grpc

import (
	"context"

	"github.com/dmitrijs2005/travelbuddy/internal/common"
	"github.com/dmitrijs2005/travelbuddy/internal/logging"
	"github.com/dmitrijs2005/travelbuddy/internal/server/gate"
	"github.com/dmitrijs2005/travelbuddy/internal/server/models"
	"github.com/dmitrijs2005/travelbuddy/internal/server/services"
	"github.com/dmitrijs2005/travelbuddy/internal/server/verification"
)

type fakeUser struct {
	regResp *models.User
	regErr  error

	loginResp *services.TokenPair
	loginErr  error

	refreshResp *services.TokenPair
	refreshErr  error

	// access token -> identity
	tokens  map[string]*services.Identity
	authErr error

	loggedOut []string
	logoutErr error
}

func (f *fakeUser) Register(context.Context, string, string) (*models.User, error) {
	return f.regResp, f.regErr
}

func (f *fakeUser) Login(context.Context, string, string) (*services.TokenPair, error) {
	return f.loginResp, f.loginErr
}

func (f *fakeUser) RefreshToken(context.Context, string) (*services.TokenPair, error) {
	return f.refreshResp, f.refreshErr
}

func (f *fakeUser) Authenticate(_ context.Context, token string) (*services.Identity, error) {
	if f.authErr != nil {
		return nil, f.authErr
	}
	id, ok := f.tokens[token]
	if !ok {
		return nil, common.ErrInvalidToken
	}
	return id, nil
}

func (f *fakeUser) Logout(_ context.Context, sessionID string) error {
	f.loggedOut = append(f.loggedOut, sessionID)
	return f.logoutErr
}

type fakeProfiles struct {
	profile *models.Profile
	getErr  error

	saved   *models.ProfileForm
	saveErr error
}

func (f *fakeProfiles) Get(context.Context, string) (*models.Profile, error) {
	return f.profile, f.getErr
}

func (f *fakeProfiles) Save(_ context.Context, userID string, form *models.ProfileForm) (*models.Profile, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.saved = form
	return &models.Profile{UserID: userID, ProfileCreated: true, FullName: form.FullName, DateOfBirth: form.DateOfBirth}, nil
}

type fakeImages struct {
	task       *models.ImageUploadTask
	requestErr error

	confirmed  *models.Image
	confirmErr error

	discarded []string
}

func (f *fakeImages) RequestUpload(context.Context, string, models.ImageKind) (*models.ImageUploadTask, error) {
	return f.task, f.requestErr
}

func (f *fakeImages) ConfirmUpload(context.Context, string, string) (*models.Image, error) {
	return f.confirmed, f.confirmErr
}

func (f *fakeImages) Discard(_ context.Context, handle string) error {
	f.discarded = append(f.discarded, handle)
	return nil
}

type fakeVerification struct {
	attached  []string
	attachErr error

	status *verification.Status

	result    *models.VerificationResult
	submitErr error

	resets int
}

func (f *fakeVerification) AttachImage(_ context.Context, _ string, kind models.ImageKind, handle string) (*verification.Status, error) {
	if f.attachErr != nil {
		return nil, f.attachErr
	}
	f.attached = append(f.attached, string(kind)+":"+handle)
	return &verification.Status{State: verification.StateCapturing, HasIDImage: kind == models.ImageKindID}, nil
}

func (f *fakeVerification) Status(context.Context, string) (*verification.Status, error) {
	return f.status, nil
}

func (f *fakeVerification) Submit(context.Context, string) (*models.VerificationResult, error) {
	return f.result, f.submitErr
}

func (f *fakeVerification) Reset(context.Context, string) error {
	f.resets++
	return nil
}

type fakeFlows struct {
	flows []gate.Flow
	err   error
}

func (f *fakeFlows) Watch(_ context.Context, _ string, emit func(gate.Flow) error) error {
	for _, fl := range f.flows {
		if err := emit(fl); err != nil {
			return err
		}
	}
	return f.err
}

type fixture struct {
	users    *fakeUser
	profiles *fakeProfiles
	images   *fakeImages
	verifier *fakeVerification
	flows    *fakeFlows
}

func newFixture() *fixture {
	return &fixture{
		users:    &fakeUser{tokens: map[string]*services.Identity{"good": {UserID: "u1", SessionID: "s1"}}},
		profiles: &fakeProfiles{},
		images:   &fakeImages{},
		verifier: &fakeVerification{},
		flows:    &fakeFlows{},
	}
}

func (f *fixture) server() *GRPCServer {
	return NewGRPCServer("127.0.0.1:0", logging.Nop{}, f.users, f.profiles, f.images, f.verifier, f.flows)
}

func authed() context.Context {
	return withIdentity(context.Background(), &services.Identity{UserID: "u1", SessionID: "s1"})
}
