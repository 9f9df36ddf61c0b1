package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func testSessionManager(t *testing.T) *SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "doctrove_session", time.Hour, false)
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == "doctrove_session" {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestSessionLoadWithoutCookieIsAnonymous(t *testing.T) {
	sm := testSessionManager(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	require.Zero(t, sess.UserID())
	require.Empty(t, sess.User())
}

func TestSessionAuthenticateRoundTrip(t *testing.T) {
	sm := testSessionManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.Authenticate(42)

	rr := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rr, sess))
	cookie := sessionCookie(t, rr)
	require.True(t, cookie.HttpOnly)
	require.NotEmpty(t, cookie.Value)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	loaded, err := sm.Load(ctx, req)
	require.NoError(t, err)
	require.Equal(t, int64(42), loaded.UserID())
	require.Equal(t, "42", loaded.User())
}

func TestSessionCommitSkipsCleanSessions(t *testing.T) {
	sm := testSessionManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rr, sess))
	require.Empty(t, rr.Result().Cookies(), "untouched sessions write nothing")
}

func TestSessionDestroy(t *testing.T) {
	sm := testSessionManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.Authenticate(42)
	rr := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rr, sess))
	cookie := sessionCookie(t, rr)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	loaded, err := sm.Load(ctx, req)
	require.NoError(t, err)
	loaded.Destroy()

	rr2 := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rr2, loaded))
	cleared := sessionCookie(t, rr2)
	require.Empty(t, cleared.Value)
	require.Negative(t, cleared.MaxAge)

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.AddCookie(cookie)
	after, err := sm.Load(ctx, req2)
	require.NoError(t, err)
	require.Zero(t, after.UserID(), "server-side state is gone even with the old cookie")
}

func TestSessionContextHelpers(t *testing.T) {
	ctx := context.Background()
	require.Nil(t, SessionFromContext(ctx))

	sess := &Session{}
	ctx = ContextWithSession(ctx, sess)
	require.Same(t, sess, SessionFromContext(ctx))
}
