package middleware_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/directory/memory"
	"github.com/MrEthical07/authcore/jwt"
	"github.com/MrEthical07/authcore/middleware"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newGuardFixture(t *testing.T) (*authcore.Manager, http.Handler) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := authcore.DefaultConfig()
	cfg.Token.Secret = testSecret
	cfg.Password = authcore.PasswordConfig{
		Memory:      8192,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}

	m, err := authcore.NewManager(cfg, memory.New(), rdb)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			t.Error("guarded handler reached without a userID in context")
		}
		io.WriteString(w, uid)
	})
	return m, middleware.Guard(m)(echo)
}

func loginUser(t *testing.T, m *authcore.Manager) (*authcore.User, *authcore.Credentials) {
	t.Helper()
	ctx := context.Background()
	user, err := m.Register(ctx, "John Doe", "me@me.com", "password")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	_, creds, err := m.Login(ctx, "me@me.com", "password")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return user, creds
}

// expiredAccessToken mints a correctly signed token whose expiry has passed.
func expiredAccessToken(t *testing.T, userID string) string {
	t.Helper()
	codec, err := jwt.NewManager(jwt.Config{
		Secret:    testSecret,
		AccessTTL: time.Minute,
		Issuer:    "authcore",
	})
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	token, err := codec.MintAt(userID, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	return token
}

func TestGuardAllowsValidAccessToken(t *testing.T) {
	m, h := newGuardFixture(t)
	user, creds := loginUser(t, m)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(m.Cookies().Access(creds.AccessToken))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Body.String(); got != user.ID {
		t.Fatalf("handler saw uid %q, want %q", got, user.ID)
	}
}

func TestGuardDeniesWithoutCookie(t *testing.T) {
	_, h := newGuardFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestGuardDeniesGarbageToken(t *testing.T) {
	m, h := newGuardFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(m.Cookies().Access("not.a.jwt"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestGuardRefreshesExpiredAccessToken(t *testing.T) {
	m, h := newGuardFixture(t)
	user, creds := loginUser(t, m)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(m.Cookies().Access(expiredAccessToken(t, user.ID)))
	req.AddCookie(m.Cookies().Refresh(creds.RefreshToken))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != user.ID {
		t.Fatalf("handler saw uid %q, want %q", got, user.ID)
	}

	// A replacement access cookie rides on the response.
	var replaced bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == authcore.AccessCookieName && c.Value != "" {
			replaced = true
			if uid, err := m.Authenticate(c.Value); err != nil || uid != user.ID {
				t.Fatalf("replacement access cookie invalid: %q %v", uid, err)
			}
		}
	}
	if !replaced {
		t.Fatal("expected a fresh access cookie on the response")
	}
}

func TestGuardDeniesExpiredWithoutRefreshCookie(t *testing.T) {
	m, h := newGuardFixture(t)
	user, _ := loginUser(t, m)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(m.Cookies().Access(expiredAccessToken(t, user.ID)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestGuardDeniesExpiredWithRevokedRefresh(t *testing.T) {
	m, h := newGuardFixture(t)
	user, creds := loginUser(t, m)

	if err := m.Logout(context.Background(), creds.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(m.Cookies().Access(expiredAccessToken(t, user.ID)))
	req.AddCookie(m.Cookies().Refresh(creds.RefreshToken))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestGuardDeniesNilManager(t *testing.T) {
	h := middleware.Guard(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
