package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/doctrove/doctrove/internal/authz"
	"github.com/doctrove/doctrove/internal/shared"
)

type panickyResolver struct{}

func (panickyResolver) ResolvePrincipal(ctx context.Context, userID int64) (authz.Principal, error) {
	panic("resolver exploded")
}

func applyStack(stack []func(http.Handler) http.Handler, final http.Handler) http.Handler {
	h := final
	for i := len(stack) - 1; i >= 0; i-- {
		h = stack[i](h)
	}
	return h
}

// A panic during principal resolution must surface as a 500, not tear
// down the connection.
func TestStackRecoversPanicsInPrincipalResolution(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sm := shared.NewSessionManager(client, "doctrove_session", time.Hour, false)

	ctx := context.Background()
	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.Authenticate(7)
	seed := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, seed, sess))
	var cookie *http.Cookie
	for _, c := range seed.Result().Cookies() {
		if c.Name == "doctrove_session" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	stack := MiddlewareStack(MiddlewareConfig{
		Logger:         logger,
		SessionManager: sm,
		CSRFManager:    shared.NewCSRFManager("test-secret"),
		Principals:     panickyResolver{},
	})
	handler := applyStack(stack, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rr := httptest.NewRecorder()
	require.NotPanics(t, func() { handler.ServeHTTP(rr, req) })
	require.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestStackRecoversPanicsInHandlers(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sm := shared.NewSessionManager(client, "doctrove_session", time.Hour, false)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	stack := MiddlewareStack(MiddlewareConfig{
		Logger:         logger,
		SessionManager: sm,
		CSRFManager:    shared.NewCSRFManager("test-secret"),
	})
	handler := applyStack(stack, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("handler exploded")
	}))

	rr := httptest.NewRecorder()
	require.NotPanics(t, func() { handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil)) })
	require.Equal(t, http.StatusInternalServerError, rr.Code)
}
