package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/travelbuddy/internal/client/acquire"
	"github.com/dmitrijs2005/travelbuddy/internal/client/api"
	"github.com/dmitrijs2005/travelbuddy/internal/client/config"
	"github.com/dmitrijs2005/travelbuddy/internal/rpc"
)

// Flows pushed by the server.
const (
	FlowAuth            = "auth"
	FlowProfileCreation = "profile_creation"
	FlowMain            = "main"
)

// verifyTimeout covers two detections and one verification on the server.
const verifyTimeout = 2 * time.Minute

// watchRetryDelay is the pause before the flow watcher reconnects.
var watchRetryDelay = 3 * time.Second

type apiService interface {
	Ping(ctx context.Context) error
	Register(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, password string) error
	Logout(ctx context.Context) error
	SignedIn() bool
	GetProfile(ctx context.Context) (*rpc.Profile, error)
	SaveProfile(ctx context.Context, form rpc.ProfileForm) (*rpc.Profile, error)
	VerificationStatus(ctx context.Context) (*rpc.VerificationStatus, error)
	SubmitVerification(ctx context.Context) (*rpc.VerificationResult, error)
	ResetVerification(ctx context.Context) error
	WatchFlow(ctx context.Context, fn func(flow string) error) error
	Close() error
}

type imageAcquirer interface {
	Acquire(ctx context.Context, kind, path string) (*rpc.ConfirmImageUploadResponse, error)
}

type App struct {
	config *config.Config
	api    apiService
	images imageAcquirer
	reader *bufio.Reader
	out    io.Writer

	userName string
	// profile picture uploaded before the profile exists
	pendingProfileImage string

	mu        sync.Mutex
	flow      string
	stopWatch context.CancelFunc
	watchDone chan struct{}
}

func NewApp(c *config.Config) (*App, error) {
	apiClient, err := api.NewTravelBuddyClientService(c.ServerEndpointAddr)
	if err != nil {
		return nil, err
	}

	return &App{
		config: c,
		api:    apiClient,
		images: acquire.NewAcquirer(apiClient, c.MaxImageEdge, c.JPEGQuality),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}, nil
}

func (a *App) Run(ctx context.Context) {
	defer func() {
		a.stopFlowWatcher()
		if err := a.api.Close(); err != nil {
			log.Printf("error closing connection: %v", err)
		}
	}()
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.api.SignedIn()
}

func (a *App) setFlow(flow string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.flow != flow {
		a.flow = flow
		log.Printf("Switched to %s flow\n", flow)
	}
}

// currentFlow is auth for a signed-out client and the last pushed flow
// otherwise. It is empty until the first push arrives.
func (a *App) currentFlow() string {
	if !a.isLoggedIn() {
		return FlowAuth
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.flow
}

func (a *App) requestTimeout() time.Duration {
	if a.config == nil || a.config.RequestTimeout <= 0 {
		return 15 * time.Second
	}
	return a.config.RequestTimeout
}

// startFlowWatcher follows the server-selected flow until the user logs
// out. A dropped stream is reopened after watchRetryDelay.
func (a *App) startFlowWatcher(ctx context.Context) {
	a.stopFlowWatcher()

	wctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	a.mu.Lock()
	a.stopWatch, a.watchDone = cancel, done
	a.mu.Unlock()

	go func() {
		defer close(done)
		for {
			err := a.api.WatchFlow(wctx, func(flow string) error {
				a.setFlow(flow)
				return nil
			})
			if wctx.Err() != nil {
				return
			}
			if errors.Is(err, api.ErrSessionExpired) || errors.Is(err, api.ErrUnauthorized) {
				log.Printf("Session ended, please log in again")
				a.setFlow(FlowAuth)
				return
			}
			if a.currentFlow() == FlowAuth {
				return
			}
			if err != nil {
				log.Printf("flow watcher: %v", err)
			}

			select {
			case <-time.After(watchRetryDelay):
			case <-wctx.Done():
				return
			}
		}
	}()
}

func (a *App) stopFlowWatcher() {
	a.mu.Lock()
	cancel, done := a.stopWatch, a.watchDone
	a.stopWatch, a.watchDone = nil, nil
	a.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}
