package ops

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/travelbuddy/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, readiness) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body readiness
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHealthz(t *testing.T) {
	s := NewServer(":0", logging.Nop{}, Check{Name: "db", Run: func(context.Context) error { return errors.New("down") }})

	rec, body := get(t, s.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body.Status, "liveness ignores dependencies")
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestReadyz(t *testing.T) {
	ok := Check{Name: "database", Run: func(context.Context) error { return nil }}
	bad := Check{Name: "face_api", Run: func(context.Context) error { return errors.New("face api endpoint is not configured") }}

	rec, body := get(t, NewServer(":0", logging.Nop{}, ok).Handler(), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"database": "ok"}, body.Checks)

	rec, body = get(t, NewServer(":0", logging.Nop{}, ok, bad).Handler(), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unavailable", body.Status)
	assert.Equal(t, "face api endpoint is not configured", body.Checks["face_api"])
	assert.Equal(t, "ok", body.Checks["database"])
}

func TestReadyz_CheckGetsDeadline(t *testing.T) {
	var hasDeadline bool
	c := Check{Name: "redis", Run: func(ctx context.Context) error {
		_, hasDeadline = ctx.Deadline()
		return nil
	}}

	get(t, NewServer(":0", logging.Nop{}, c).Handler(), "/readyz")
	assert.True(t, hasDeadline)
}

func TestRoutes_MethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	NewServer(":0", logging.Nop{}).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	s := NewServer("127.0.0.1:0", logging.Nop{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("ops server did not stop")
	}
}
