package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/taskdeck/internal/metrics"
	"github.com/hitoshi/taskdeck/internal/model"
	"github.com/hitoshi/taskdeck/internal/session"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, nil))
}

// memStore はテスト用のインメモリセッションストア。
type memStore struct {
	mu      sync.Mutex
	creds   *model.Credentials
	cleared bool
}

func (s *memStore) Load() (*model.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), nil
}

func (s *memStore) Set(creds *model.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *creds
	s.creds = &c
	return nil
}

func (s *memStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = nil
	s.cleared = true
	return nil
}

func (s *memStore) Current() *model.Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *memStore) CurrentRole() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.creds.Valid() {
		return ""
	}
	return s.creds.User.Role
}

func (s *memStore) snapshot() *model.Credentials {
	if s.creds == nil {
		return nil
	}
	c := *s.creds
	return &c
}

func (s *memStore) wasCleared() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleared
}

func authedStore() *memStore {
	return &memStore{creds: &model.Credentials{
		Token:        "expired-token",
		RefreshToken: "refresh-1",
		User:         model.User{ID: "u-1", Name: "Tanaka", Role: model.RoleManager},
	}}
}

func newTestGateway(t *testing.T, serverURL string, store session.Store) *Gateway {
	t.Helper()
	var buf bytes.Buffer
	return NewGateway(serverURL, &http.Client{}, store, nil, metrics.Noop{}, newTestLogger(&buf))
}

// TestDo_AttachesBearerToken はセッション保持時にbearerヘッダーが
// 付与されることを検証する。
func TestDo_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	gw := newTestGateway(t, server.URL, authedStore())

	_, status, err := gw.Do(context.Background(), http.MethodGet, "project", nil)
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if status != http.StatusOK {
		t.Errorf("status = %d, want 200", status)
	}
	if gotAuth != "Bearer expired-token" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer expired-token")
	}
}

// TestDo_NoSession_SendsUnauthenticated はトークンがない場合に
// 未認証のまま送信されることを検証する。
func TestDo_NoSession_SendsUnauthenticated(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	gw := newTestGateway(t, server.URL, &memStore{})

	if _, _, err := gw.Do(context.Background(), http.MethodGet, "project", nil); err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization = %q, want empty", gotAuth)
	}
}

// TestDo_ExpiredToken_RefreshesOnceAndReplays は期限切れトークンでの
// 401に対し、ちょうど1回のリフレッシュと新トークンでの再送が行われ、
// 呼び出し側が再送のレスポンスを受け取ることを検証する。
func TestDo_ExpiredToken_RefreshesOnceAndReplays(t *testing.T) {
	var refreshCalls atomic.Int32
	var authHeaders []string
	var mu sync.Mutex

	r := chi.NewRouter()
	r.Get("/project", func(w http.ResponseWriter, req *http.Request) {
		mu.Lock()
		authHeaders = append(authHeaders, req.Header.Get("Authorization"))
		mu.Unlock()

		if req.Header.Get("Authorization") != "Bearer fresh-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[{"_id":"p-1","name":"Alpha"}]`)
	})
	r.Post("/user/refresh-token", func(w http.ResponseWriter, req *http.Request) {
		refreshCalls.Add(1)

		var payload struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil || payload.RefreshToken != "refresh-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"token":"fresh-token"}`)
	})
	server := httptest.NewServer(r)
	defer server.Close()

	store := authedStore()
	gw := newTestGateway(t, server.URL, store)

	body, status, err := gw.Do(context.Background(), http.MethodGet, "project", nil)
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if status != http.StatusOK {
		t.Errorf("status = %d, want 200 (replayed response)", status)
	}
	if !bytes.Contains(body, []byte(`"p-1"`)) {
		t.Errorf("body = %s, want replayed project list", body)
	}
	if got := refreshCalls.Load(); got != 1 {
		t.Errorf("refresh calls = %d, want exactly 1", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(authHeaders) != 2 {
		t.Fatalf("request attempts = %d, want 2 (original + replay)", len(authHeaders))
	}
	if authHeaders[0] != "Bearer expired-token" {
		t.Errorf("first attempt auth = %q, want old token", authHeaders[0])
	}
	if authHeaders[1] != "Bearer fresh-token" {
		t.Errorf("replay auth = %q, want new token", authHeaders[1])
	}

	// セッションはローテーションされ、リフレッシュトークンとユーザーは維持される
	creds := store.Current()
	if creds.Token != "fresh-token" {
		t.Errorf("stored token = %q, want %q", creds.Token, "fresh-token")
	}
	if creds.RefreshToken != "refresh-1" {
		t.Errorf("RefreshToken = %q, want preserved", creds.RefreshToken)
	}
	if creds.User.ID != "u-1" {
		t.Errorf("User.ID = %q, want preserved", creds.User.ID)
	}
}

// TestDo_RefreshFailure_ClearsSessionAndPropagatesError はリフレッシュ
// 自体の失敗時に、セッションがクリアされ、未認証エントリポイントへの
// フックが呼ばれ、エラーが呼び出し側に返る（ハングしない）ことを検証する。
func TestDo_RefreshFailure_ClearsSessionAndPropagatesError(t *testing.T) {
	var refreshCalls atomic.Int32

	r := chi.NewRouter()
	r.Get("/project", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	r.Post("/user/refresh-token", func(w http.ResponseWriter, req *http.Request) {
		refreshCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	server := httptest.NewServer(r)
	defer server.Close()

	store := authedStore()
	gw := newTestGateway(t, server.URL, store)

	var loggedOut atomic.Bool
	gw.SetOnSessionInvalid(func() { loggedOut.Store(true) })

	_, _, err := gw.Do(context.Background(), http.MethodGet, "project", nil)
	if err == nil {
		t.Fatal("expected error after refresh failure")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeSessionExpired {
		t.Errorf("expected SESSION_EXPIRED in error chain, got %v", err)
	}
	if got := refreshCalls.Load(); got != 1 {
		t.Errorf("refresh calls = %d, want 1", got)
	}
	if !store.wasCleared() {
		t.Error("session store must be cleared after refresh failure")
	}
	if store.Current() != nil {
		t.Error("credentials must be gone after refresh failure")
	}
	if !loggedOut.Load() {
		t.Error("OnSessionInvalid hook must be invoked")
	}
}

// TestDo_ReplayStill401_NoSecondRefresh は再送が再び401になっても
// 2回目のリフレッシュを行わず、結果をそのまま返すことを検証する。
func TestDo_ReplayStill401_NoSecondRefresh(t *testing.T) {
	var refreshCalls, projectCalls atomic.Int32

	r := chi.NewRouter()
	r.Get("/project", func(w http.ResponseWriter, req *http.Request) {
		projectCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	r.Post("/user/refresh-token", func(w http.ResponseWriter, req *http.Request) {
		refreshCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"token":"fresh-token"}`)
	})
	server := httptest.NewServer(r)
	defer server.Close()

	gw := newTestGateway(t, server.URL, authedStore())

	_, status, err := gw.Do(context.Background(), http.MethodGet, "project", nil)
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if status != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 surfaced from replay", status)
	}
	if got := refreshCalls.Load(); got != 1 {
		t.Errorf("refresh calls = %d, want exactly 1", got)
	}
	if got := projectCalls.Load(); got != 2 {
		t.Errorf("project calls = %d, want 2 (original + single replay)", got)
	}
}

// TestDo_NonAuthFailure_NoRefresh は認証以外の失敗ではリフレッシュを
// 行わないことを検証する。
func TestDo_NonAuthFailure_NoRefresh(t *testing.T) {
	var refreshCalls atomic.Int32

	r := chi.NewRouter()
	r.Get("/project", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	r.Post("/user/refresh-token", func(w http.ResponseWriter, req *http.Request) {
		refreshCalls.Add(1)
	})
	server := httptest.NewServer(r)
	defer server.Close()

	gw := newTestGateway(t, server.URL, authedStore())

	_, status, err := gw.Do(context.Background(), http.MethodGet, "project", nil)
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", status)
	}
	if got := refreshCalls.Load(); got != 0 {
		t.Errorf("refresh calls = %d, want 0", got)
	}
}

// TestDo_401WithoutSession_NoRefresh は未認証リクエストの401では
// リフレッシュを試みないことを検証する。
func TestDo_401WithoutSession_NoRefresh(t *testing.T) {
	var refreshCalls atomic.Int32

	r := chi.NewRouter()
	r.Get("/project", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	r.Post("/user/refresh-token", func(w http.ResponseWriter, req *http.Request) {
		refreshCalls.Add(1)
	})
	server := httptest.NewServer(r)
	defer server.Close()

	gw := newTestGateway(t, server.URL, &memStore{})

	_, status, err := gw.Do(context.Background(), http.MethodGet, "project", nil)
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if status != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", status)
	}
	if got := refreshCalls.Load(); got != 0 {
		t.Errorf("refresh calls = %d, want 0", got)
	}
}

// TestDo_TransportFailure_Propagates はトランスポート障害がそのまま
// 伝播することを検証する。
func TestDo_TransportFailure_Propagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // 即座に閉じて接続エラーを発生させる

	gw := newTestGateway(t, server.URL, authedStore())

	_, _, err := gw.Do(context.Background(), http.MethodGet, "project", nil)
	if err == nil {
		t.Fatal("expected transport error")
	}
}

// TestDo_ReplayRebuildsRequestBody は再送時にリクエストボディが
// 保持済みバイト列から再構築されることを検証する。
func TestDo_ReplayRebuildsRequestBody(t *testing.T) {
	var bodies []string
	var mu sync.Mutex

	r := chi.NewRouter()
	r.Post("/project", func(w http.ResponseWriter, req *http.Request) {
		raw, _ := io.ReadAll(req.Body)
		mu.Lock()
		bodies = append(bodies, string(raw))
		mu.Unlock()

		if req.Header.Get("Authorization") != "Bearer fresh-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})
	r.Post("/user/refresh-token", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"token":"fresh-token"}`)
	})
	server := httptest.NewServer(r)
	defer server.Close()

	gw := newTestGateway(t, server.URL, authedStore())

	payload := []byte(`{"name":"New Project"}`)
	_, status, err := gw.Do(context.Background(), http.MethodPost, "project", payload)
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if status != http.StatusCreated {
		t.Errorf("status = %d, want 201", status)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(bodies) != 2 {
		t.Fatalf("attempts = %d, want 2", len(bodies))
	}
	if bodies[0] != string(payload) || bodies[1] != string(payload) {
		t.Errorf("replay body = %q, want identical to original %q", bodies[1], payload)
	}
}

func TestCheckStatus_MapsDomainErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
	}{
		{"403は権限エラー", http.StatusForbidden, "", model.ErrCodePermissionDenied},
		{"401は認証エラー", http.StatusUnauthorized, "", model.ErrCodeInvalidCredentials},
		{"500は一般失敗", http.StatusInternalServerError, `{"message":"db down"}`, model.ErrCodeRequestFailed},
		{"400は一般失敗", http.StatusBadRequest, "plain text error", model.ErrCodeRequestFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkStatus(http.MethodGet, "project", tt.status, []byte(tt.body))
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", apiErr.Code, tt.wantCode)
			}
		})
	}

	if err := checkStatus(http.MethodGet, "project", http.StatusOK, nil); err != nil {
		t.Errorf("2xx must not produce an error, got %v", err)
	}
}

func TestErrorDetail_PrefersJSONMessage(t *testing.T) {
	if got := errorDetail([]byte(`{"message":"budget invalid"}`)); got != "budget invalid" {
		t.Errorf("errorDetail = %q, want %q", got, "budget invalid")
	}
	if got := errorDetail([]byte("  raw body  ")); got != "raw body" {
		t.Errorf("errorDetail = %q, want %q", got, "raw body")
	}
}
