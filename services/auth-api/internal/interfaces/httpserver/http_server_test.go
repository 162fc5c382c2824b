package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chatter-server/packages/go-common/testhelpers"
	"chatter-server/services/auth-api/internal/config"
	"chatter-server/services/auth-api/internal/domain/user"
	"chatter-server/services/auth-api/internal/infrastructure/tokens"
	"chatter-server/services/auth-api/internal/interfaces/httpserver"
)

// memoryUserRepo is an in-memory user.Repository.
type memoryUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*user.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[uuid.UUID]*user.User)}
}

func (r *memoryUserRepo) Create(ctx context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return user.ErrDuplicate
		}
	}
	stored := *u
	r.users[u.ID] = &stored
	return nil
}

func (r *memoryUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	copy := *u
	return &copy, nil
}

func (r *memoryUserRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, user.ErrNotFound
}

func (r *memoryUserRepo) FindByUsernames(ctx context.Context, usernames []string) ([]*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*user.User
	for _, name := range usernames {
		for _, u := range r.users {
			if u.Username == name {
				copy := *u
				out = append(out, &copy)
			}
		}
	}
	return out, nil
}

func (r *memoryUserRepo) SetOTP(ctx context.Context, id uuid.UUID, otp int, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.OTP = &otp
	u.OTPExpiresAt = &expiresAt
	return nil
}

func (r *memoryUserRepo) MarkVerified(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.IsVerified = true
	u.OTP = nil
	u.OTPExpiresAt = nil
	return nil
}

func (r *memoryUserRepo) ClearExpiredOTPs(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func (r *memoryUserRepo) otpFor(id uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok && u.OTP != nil {
		return *u.OTP
	}
	return 0
}

// memoryDenylist is an in-memory user.TokenDenylist.
type memoryDenylist struct {
	mu   sync.Mutex
	jtis map[string]struct{}
}

func newMemoryDenylist() *memoryDenylist {
	return &memoryDenylist{jtis: make(map[string]struct{})}
}

func (d *memoryDenylist) Revoke(ctx context.Context, t *user.RevokedToken) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.jtis[t.JTI] = struct{}{}
	return nil
}

func (d *memoryDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.jtis[jti]
	return ok, nil
}

func (d *memoryDenylist) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type nopMailer struct{}

func (nopMailer) SendOTP(ctx context.Context, email string, otp int) error { return nil }

const testServiceKey = "svc-secret"

func newServer(t *testing.T) (*httptest.Server, *memoryUserRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		ServiceName:     "auth-api",
		Environment:     "test",
		JWTSecret:       "test-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		ServiceKey:      testServiceKey,
		OTPTTL:          10 * time.Minute,
		ShutdownTimeout: time.Second,
	}

	repo := newMemoryUserRepo()
	svc := user.NewService(repo, newMemoryDenylist(), tokens.NewManager(cfg), nopMailer{}, cfg.OTPTTL, zerolog.Nop())

	s := httpserver.New(cfg, zerolog.Nop(), svc)
	server := httptest.NewServer(s.Engine())
	t.Cleanup(server.Close)
	return server, repo
}

func doJSON(t *testing.T, method, url string, headers map[string]string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func registerUser(t *testing.T, serverURL, username, email, password string) map[string]any {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, serverURL+"/users/create-user/", nil, map[string]any{
		"username": username,
		"email":    email,
		"password": password,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register returned %d: %v", resp.StatusCode, body)
	}
	return body
}

func login(t *testing.T, serverURL, email, password string) (string, string) {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, serverURL+"/users/token/", nil, map[string]any{
		"email":    email,
		"password": password,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login returned %d: %v", resp.StatusCode, body)
	}
	access, _ := body["access"].(string)
	refresh, _ := body["refresh"].(string)
	if access == "" || refresh == "" {
		t.Fatalf("incomplete token pair: %v", body)
	}
	return access, refresh
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newServer(t)
	if err := testhelpers.CheckHealth(server.URL); err != nil {
		t.Fatalf("health check failed: %v", err)
	}
}

func TestRegisterLoginProfileFlow(t *testing.T) {
	server, _ := newServer(t)

	registerUser(t, server.URL, "alice", "alice@example.com", "correct horse")
	access, _ := login(t, server.URL, "alice@example.com", "correct horse")

	resp, body := doJSON(t, http.MethodGet, server.URL+"/users/profile/", map[string]string{
		"Authorization": "Bearer " + access,
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile returned %d: %v", resp.StatusCode, body)
	}
	profile, _ := body["user"].(map[string]any)
	if profile["username"] != "alice" || profile["email"] != "alice@example.com" {
		t.Fatalf("wrong profile: %v", profile)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	server, _ := newServer(t)

	registerUser(t, server.URL, "alice", "alice@example.com", "correct horse")
	resp, _ := doJSON(t, http.MethodPost, server.URL+"/users/create-user/", nil, map[string]any{
		"username": "alice",
		"email":    "other@example.com",
		"password": "correct horse",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestRegisterValidatesPayload(t *testing.T) {
	server, _ := newServer(t)

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/users/create-user/", nil, map[string]any{
		"username": "alice",
		"email":    "not-an-email",
		"password": "short",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestProfileRequiresToken(t *testing.T) {
	server, _ := newServer(t)

	resp, _ := doJSON(t, http.MethodGet, server.URL+"/users/profile/", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestVerifyOTPFlow(t *testing.T) {
	server, repo := newServer(t)

	body := registerUser(t, server.URL, "alice", "alice@example.com", "correct horse")
	data, _ := body["data"].(map[string]any)
	idStr, _ := data["id"].(string)
	userID, err := uuid.Parse(idStr)
	if err != nil {
		t.Fatalf("register response carries no user id: %v", body)
	}

	access, _ := login(t, server.URL, "alice@example.com", "correct horse")
	auth := map[string]string{"Authorization": "Bearer " + access}

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/users/verify-user/", auth, map[string]any{"otp": 1})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("wrong otp must return 400, got %d", resp.StatusCode)
	}

	otp := repo.otpFor(userID)
	if otp == 0 {
		t.Fatal("no otp stored at registration")
	}
	resp, respBody := doJSON(t, http.MethodPost, server.URL+"/users/verify-user/", auth, map[string]any{"otp": otp})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("verify returned %d: %v", resp.StatusCode, respBody)
	}

	u, err := repo.FindByID(context.Background(), userID)
	if err != nil || !u.IsVerified {
		t.Fatalf("account not verified: %v %v", u, err)
	}
}

func TestLogoutRevokesRefresh(t *testing.T) {
	server, _ := newServer(t)

	registerUser(t, server.URL, "alice", "alice@example.com", "correct horse")
	access, refresh := login(t, server.URL, "alice@example.com", "correct horse")
	auth := map[string]string{"Authorization": "Bearer " + access}

	// Refresh works before logout.
	resp, body := doJSON(t, http.MethodPost, server.URL+"/users/token/refresh/", nil, map[string]any{"refresh": refresh})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("refresh returned %d: %v", resp.StatusCode, body)
	}

	resp, _ = doJSON(t, http.MethodPost, server.URL+"/users/logout/", auth, map[string]any{"refresh": refresh})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout returned %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPost, server.URL+"/users/token/refresh/", nil, map[string]any{"refresh": refresh})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("revoked refresh must return 401, got %d", resp.StatusCode)
	}
}

func TestVerifyTokenRequiresServiceKey(t *testing.T) {
	server, _ := newServer(t)

	resp, body := doJSON(t, http.MethodPost, server.URL+"/users/verify-token/", nil, map[string]any{"token": "x"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without service key, got %d", resp.StatusCode)
	}
	if body["error"] != "Unauthorized service" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestVerifyTokenOracle(t *testing.T) {
	server, _ := newServer(t)
	key := map[string]string{"X-Service-Key": testServiceKey}

	registerUser(t, server.URL, "alice", "alice@example.com", "correct horse")
	access, _ := login(t, server.URL, "alice@example.com", "correct horse")

	// Missing token is a 400.
	resp, _ := doJSON(t, http.MethodPost, server.URL+"/users/verify-token/", key, map[string]any{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing token, got %d", resp.StatusCode)
	}

	// A valid access token resolves to the account.
	resp, body := doJSON(t, http.MethodPost, server.URL+"/users/verify-token/", key, map[string]any{"token": access})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("verify-token returned %d: %v", resp.StatusCode, body)
	}
	if body["valid"] != true {
		t.Fatalf("expected valid:true, got %v", body)
	}
	u, _ := body["user"].(map[string]any)
	if u["username"] != "alice" {
		t.Fatalf("wrong user: %v", u)
	}

	// Garbage degrades to valid:false with 401.
	resp, body = doJSON(t, http.MethodPost, server.URL+"/users/verify-token/", key, map[string]any{"token": "garbage"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", resp.StatusCode)
	}
	if body["valid"] != false {
		t.Fatalf("expected valid:false, got %v", body)
	}
}

func TestSearchByUsername(t *testing.T) {
	server, _ := newServer(t)

	registerUser(t, server.URL, "alice", "alice@example.com", "correct horse")
	registerUser(t, server.URL, "bob", "bob@example.com", "correct horse")

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/users/search-by-username/", nil, map[string]any{"usernames": []string{}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty list, got %d", resp.StatusCode)
	}

	resp, body := doJSON(t, http.MethodPost, server.URL+"/users/search-by-username/", nil, map[string]any{
		"usernames": []string{"alice", "ghost"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search returned %d: %v", resp.StatusCode, body)
	}
	if body["valid"] != true {
		t.Fatalf("expected valid:true, got %v", body)
	}
	users, _ := body["users"].([]any)
	if len(users) != 1 {
		t.Fatalf("expected 1 match, got %v", body["users"])
	}
	match, _ := users[0].(map[string]any)
	if match["username"] != "alice" {
		t.Fatalf("wrong match: %v", match)
	}
}
