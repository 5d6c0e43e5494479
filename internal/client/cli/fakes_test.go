package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/travelbuddy/internal/rpc"
)

type fakeAPI struct {
	mu sync.Mutex

	signedIn bool

	regEmail, regPass string
	regErr            error

	loginEmail, loginPass string
	loginErr              error

	logoutCalled bool
	logoutErr    error

	profile    *rpc.Profile
	profileErr error
	saved      []rpc.ProfileForm
	saveErr    error

	status    *rpc.VerificationStatus
	result    *rpc.VerificationResult
	submitErr error
	resetErr  error
	resets    int

	// flows are pushed by WatchFlow, which then blocks until ctx is done
	flows []string
}

func (f *fakeAPI) Ping(context.Context) error { return nil }
func (f *fakeAPI) Close() error               { return nil }

func (f *fakeAPI) SignedIn() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signedIn
}

func (f *fakeAPI) Register(_ context.Context, email, password string) error {
	f.regEmail, f.regPass = email, password
	return f.regErr
}

func (f *fakeAPI) Login(_ context.Context, email, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginEmail, f.loginPass = email, password
	if f.loginErr == nil {
		f.signedIn = true
	}
	return f.loginErr
}

func (f *fakeAPI) Logout(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutCalled = true
	f.signedIn = false
	return f.logoutErr
}

func (f *fakeAPI) GetProfile(context.Context) (*rpc.Profile, error) {
	return f.profile, f.profileErr
}

func (f *fakeAPI) SaveProfile(_ context.Context, form rpc.ProfileForm) (*rpc.Profile, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.saved = append(f.saved, form)
	return &rpc.Profile{ProfileForm: form, ProfileCreated: true}, nil
}

func (f *fakeAPI) VerificationStatus(context.Context) (*rpc.VerificationStatus, error) {
	return f.status, nil
}

func (f *fakeAPI) SubmitVerification(context.Context) (*rpc.VerificationResult, error) {
	return f.result, f.submitErr
}

func (f *fakeAPI) ResetVerification(context.Context) error {
	f.resets++
	return f.resetErr
}

func (f *fakeAPI) WatchFlow(ctx context.Context, fn func(string) error) error {
	for _, flow := range f.flows {
		if err := fn(flow); err != nil {
			return err
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

type fakeAcquirer struct {
	kind, path string
	resp       *rpc.ConfirmImageUploadResponse
	err        error
}

func (f *fakeAcquirer) Acquire(_ context.Context, kind, path string) (*rpc.ConfirmImageUploadResponse, error) {
	f.kind, f.path = kind, path
	if f.err != nil {
		return nil, f.err
	}
	if f.resp != nil {
		return f.resp, nil
	}
	return &rpc.ConfirmImageUploadResponse{Handle: "h-" + kind, Kind: kind}, nil
}

func readerFromLines(lines ...string) *bufio.Reader {
	lines = append(lines, "")
	return bufio.NewReader(strings.NewReader(strings.Join(lines, "\n")))
}

func newTestApp(f *fakeAPI, acq *fakeAcquirer, r *bufio.Reader) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	if r == nil {
		r = readerFromLines()
	}
	return &App{api: f, images: acq, reader: r, out: &out}, &out
}

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	orig := getPassword
	getPassword = func(_ io.Writer) ([]byte, error) { return []byte(pw), nil }
	t.Cleanup(func() { getPassword = orig })
}
