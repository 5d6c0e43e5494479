package cli

import (
	"bytes"
	"context"
	"log"
	"testing"
	"time"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := log.Default().Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(old) })
	return &buf
}

func TestCurrentFlow_SignedOutIsAuth(t *testing.T) {
	app := &App{api: &fakeAPI{}, flow: FlowMain}
	if got := app.currentFlow(); got != FlowAuth {
		t.Fatalf("expected %q, got %q", FlowAuth, got)
	}
}

func TestCurrentFlow_SignedInFollowsPush(t *testing.T) {
	app := &App{api: &fakeAPI{signedIn: true}}
	if got := app.currentFlow(); got != "" {
		t.Fatalf("expected empty flow before the first push, got %q", got)
	}
	app.flow = FlowProfileCreation
	if got := app.currentFlow(); got != FlowProfileCreation {
		t.Fatalf("expected %q, got %q", FlowProfileCreation, got)
	}
}

func TestSetFlow_ChangesAndLogsOnce(t *testing.T) {
	app := &App{}
	buf := captureLog(t)

	app.setFlow(FlowMain)
	if app.flow != FlowMain {
		t.Fatalf("expected flow to be %q, got %q", FlowMain, app.flow)
	}
	if buf.String() == "" {
		t.Fatalf("expected log output on flow change, got empty")
	}

	buf.Reset()
	app.setFlow(FlowMain)
	if got := buf.String(); got != "" {
		t.Fatalf("expected no log output when flow doesn't change, got: %q", got)
	}
}

func TestGetStatus(t *testing.T) {
	tests := []struct {
		name string
		app  *App
		want string
	}{
		{"signed out", &App{api: &fakeAPI{}}, "(auth)"},
		{"waiting for flow", &App{api: &fakeAPI{signedIn: true}, userName: "alice"}, "(alice )"},
		{"main", &App{api: &fakeAPI{signedIn: true}, userName: "alice", flow: FlowMain}, "(alice main)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.app.getStatus(); got != tt.want {
				t.Fatalf("want %q, got %q", tt.want, got)
			}
		})
	}
}

func waitFlow(t *testing.T, a *App, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		a.mu.Lock()
		got := a.flow
		a.mu.Unlock()
		if got == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("flow %q not reached", want)
}

func TestFlowWatcher_StartStop(t *testing.T) {
	captureLog(t)

	f := &fakeAPI{signedIn: true, flows: []string{FlowProfileCreation, FlowMain}}
	app, _ := newTestApp(f, nil, nil)

	app.startFlowWatcher(context.Background())
	waitFlow(t, app, FlowMain)

	app.stopFlowWatcher()
	if app.stopWatch != nil || app.watchDone != nil {
		t.Fatalf("watcher not cleared")
	}
	// idempotent
	app.stopFlowWatcher()
}

type expiringAPI struct {
	fakeAPI
}

func (e *expiringAPI) WatchFlow(context.Context, func(string) error) error {
	return errSessionExpiredForTest
}

func TestFlowWatcher_SessionExpired(t *testing.T) {
	captureLog(t)

	f := &expiringAPI{fakeAPI{signedIn: true}}
	app := &App{api: f, flow: FlowMain}

	app.startFlowWatcher(context.Background())
	waitFlow(t, app, FlowAuth)
	app.stopFlowWatcher()
}
