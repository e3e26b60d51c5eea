package authcore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/directory/memory"
	"github.com/MrEthical07/authcore/jwt"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

// testConfig lowers the argon2 cost so the suite stays fast.
func testConfig() authcore.Config {
	cfg := authcore.DefaultConfig()
	cfg.Token.Secret = testSecret
	cfg.Password = authcore.PasswordConfig{
		Memory:      8192,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
	return cfg
}

func newTestManager(t *testing.T, cfg authcore.Config) (*authcore.Manager, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	m, err := authcore.NewManager(cfg, memory.New(), rdb)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m, mr
}

func mustRegister(t *testing.T, m *authcore.Manager) *authcore.User {
	t.Helper()
	user, err := m.Register(context.Background(), "John Doe", "me@me.com", "password")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return user
}

func TestRegisterAndLogin(t *testing.T) {
	m, _ := newTestManager(t, testConfig())
	ctx := context.Background()

	user := mustRegister(t, m)
	if user.ID == "" {
		t.Fatal("expected a generated user id")
	}
	if user.Email != "me@me.com" {
		t.Fatalf("unexpected email %q", user.Email)
	}

	got, creds, err := m.Login(ctx, "Me@Me.com", "password")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("login returned user %q, want %q", got.ID, user.ID)
	}
	if creds.AccessToken == "" || creds.RefreshToken == "" {
		t.Fatal("expected both tokens on login")
	}

	uid, err := m.Authenticate(creds.AccessToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if uid != user.ID {
		t.Fatalf("access token carries %q, want %q", uid, user.ID)
	}
}

func TestRegisterValidation(t *testing.T) {
	m, _ := newTestManager(t, testConfig())
	ctx := context.Background()

	tests := []struct {
		name     string
		userName string
		email    string
		pass     string
	}{
		{"short name", "J", "a@b.c", "password"},
		{"missing at", "John", "nobody", "password"},
		{"at first", "John", "@b.c", "password"},
		{"at last", "John", "a@", "password"},
		{"whitespace email", "John", "a b@c.d", "password"},
		{"short password", "John", "a@b.c", "1234567"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.Register(ctx, tc.userName, tc.email, tc.pass)
			if !errors.Is(err, authcore.ErrRegistrationInvalid) {
				t.Fatalf("expected ErrRegistrationInvalid, got %v", err)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	m, _ := newTestManager(t, testConfig())
	ctx := context.Background()

	mustRegister(t, m)
	_, err := m.Register(ctx, "Jane Doe", "ME@me.com", "password2")
	if !errors.Is(err, authcore.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLoginUniformFailure(t *testing.T) {
	m, _ := newTestManager(t, testConfig())
	ctx := context.Background()

	mustRegister(t, m)

	// Unknown email and wrong password are indistinguishable.
	_, _, err := m.Login(ctx, "nobody@me.com", "password")
	if !errors.Is(err, authcore.ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
	_, _, err = m.Login(ctx, "me@me.com", "wrong-password")
	if !errors.Is(err, authcore.ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateRejects(t *testing.T) {
	m, _ := newTestManager(t, testConfig())

	if _, err := m.Authenticate(""); !errors.Is(err, authcore.ErrUnauthenticated) {
		t.Fatalf("empty token: expected ErrUnauthenticated, got %v", err)
	}
	if _, err := m.Authenticate("not.a.token"); !errors.Is(err, authcore.ErrUnauthenticated) {
		t.Fatalf("garbage token: expected ErrUnauthenticated, got %v", err)
	}
}

func TestAuthenticateExpired(t *testing.T) {
	cfg := testConfig()
	m, _ := newTestManager(t, cfg)

	codec, err := jwt.NewManager(jwt.Config{
		Secret:    testSecret,
		AccessTTL: cfg.Token.AccessTTL,
		Issuer:    cfg.Token.Issuer,
	})
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	stale, err := codec.MintAt("user-1", time.Now().Add(-2*cfg.Token.AccessTTL))
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	if _, err := m.Authenticate(stale); !errors.Is(err, authcore.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestRefreshMintsNewAccess(t *testing.T) {
	m, _ := newTestManager(t, testConfig())
	ctx := context.Background()

	user := mustRegister(t, m)
	_, creds, err := m.Login(ctx, "me@me.com", "password")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	fresh, err := m.Refresh(ctx, creds.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if fresh.RefreshToken != "" {
		t.Fatal("refresh must not rotate the refresh token")
	}
	uid, err := m.Authenticate(fresh.AccessToken)
	if err != nil || uid != user.ID {
		t.Fatalf("refreshed access token invalid: %q %v", uid, err)
	}
}

func TestRefreshRejects(t *testing.T) {
	m, _ := newTestManager(t, testConfig())
	ctx := context.Background()

	for _, value := range []string{"", "not-base64!!", "dG9vLXNob3J0"} {
		if _, err := m.Refresh(ctx, value); !errors.Is(err, authcore.ErrSessionExpired) {
			t.Fatalf("value %q: expected ErrSessionExpired, got %v", value, err)
		}
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	m, _ := newTestManager(t, testConfig())
	ctx := context.Background()

	mustRegister(t, m)
	_, creds, err := m.Login(ctx, "me@me.com", "password")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := m.Logout(ctx, creds.RefreshToken); err != nil {
		t.Fatalf("first logout: %v", err)
	}
	if err := m.Logout(ctx, creds.RefreshToken); err != nil {
		t.Fatalf("second logout: %v", err)
	}
	if err := m.Logout(ctx, ""); err != nil {
		t.Fatalf("logout without cookie: %v", err)
	}
	if err := m.Logout(ctx, "garbage-value"); err != nil {
		t.Fatalf("logout with malformed cookie: %v", err)
	}
}

func TestRefreshAfterLogout(t *testing.T) {
	m, _ := newTestManager(t, testConfig())
	ctx := context.Background()

	mustRegister(t, m)
	_, creds, err := m.Login(ctx, "me@me.com", "password")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := m.Logout(ctx, creds.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, err := m.Refresh(ctx, creds.RefreshToken); !errors.Is(err, authcore.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired after logout, got %v", err)
	}

	// The outstanding access token is not individually revoked; it runs
	// out its own expiry.
	if _, err := m.Authenticate(creds.AccessToken); err != nil {
		t.Fatalf("access token rejected after logout: %v", err)
	}
}

func TestRefreshAfterNaturalExpiry(t *testing.T) {
	cfg := testConfig()
	cfg.Token.AccessTTL = time.Millisecond
	cfg.Refresh.TTL = 30 * time.Millisecond
	m, _ := newTestManager(t, cfg)
	ctx := context.Background()

	mustRegister(t, m)
	_, creds, err := m.Login(ctx, "me@me.com", "password")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	if _, err := m.Refresh(ctx, creds.RefreshToken); !errors.Is(err, authcore.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired after expiry, got %v", err)
	}
}

func TestLogoutAll(t *testing.T) {
	m, _ := newTestManager(t, testConfig())
	ctx := context.Background()

	user := mustRegister(t, m)
	_, first, err := m.Login(ctx, "me@me.com", "password")
	if err != nil {
		t.Fatalf("login 1: %v", err)
	}
	_, second, err := m.Login(ctx, "me@me.com", "password")
	if err != nil {
		t.Fatalf("login 2: %v", err)
	}

	if err := m.LogoutAll(ctx, user.ID); err != nil {
		t.Fatalf("logout all: %v", err)
	}

	if _, err := m.Refresh(ctx, first.RefreshToken); !errors.Is(err, authcore.ErrSessionExpired) {
		t.Fatalf("session 1 survived logout-all: %v", err)
	}
	if _, err := m.Refresh(ctx, second.RefreshToken); !errors.Is(err, authcore.ErrSessionExpired) {
		t.Fatalf("session 2 survived logout-all: %v", err)
	}
}

func TestUpdateUser(t *testing.T) {
	m, _ := newTestManager(t, testConfig())
	ctx := context.Background()

	user := mustRegister(t, m)

	updated, err := m.UpdateUser(ctx, user.ID, "Johnny Doe")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Johnny Doe" {
		t.Fatalf("unexpected name %q", updated.Name)
	}

	if _, err := m.UpdateUser(ctx, user.ID, "J"); !errors.Is(err, authcore.ErrRegistrationInvalid) {
		t.Fatalf("short name: expected ErrRegistrationInvalid, got %v", err)
	}
	if _, err := m.UpdateUser(ctx, "ghost", "Johnny Doe"); !errors.Is(err, authcore.ErrUserNotFound) {
		t.Fatalf("unknown id: expected ErrUserNotFound, got %v", err)
	}
}

func TestPingReportsStoreState(t *testing.T) {
	m, mr := newTestManager(t, testConfig())
	ctx := context.Background()

	if err := m.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	mr.Close()
	if err := m.Ping(ctx); !errors.Is(err, authcore.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestLoginWithStoreDown(t *testing.T) {
	m, mr := newTestManager(t, testConfig())
	ctx := context.Background()

	mustRegister(t, m)
	mr.Close()

	_, _, err := m.Login(ctx, "me@me.com", "password")
	if !errors.Is(err, authcore.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
