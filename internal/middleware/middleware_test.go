package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/R-Vicente/watchnext/internal/models"
)

type fakeSessions struct {
	ids     map[string]uuid.UUID
	deleted []string
}

func (f *fakeSessions) Get(_ context.Context, sessionID string) (uuid.UUID, error) {
	id, ok := f.ids[sessionID]
	if !ok {
		return uuid.Nil, errors.New("session not found")
	}
	return id, nil
}

func (f *fakeSessions) Delete(_ context.Context, sessionID string) error {
	f.deleted = append(f.deleted, sessionID)
	return nil
}

type fakeUsers map[uuid.UUID]*models.User

func (f fakeUsers) Get(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, errors.New("no rows")
	}
	return u, nil
}

func TestRequireAuth(t *testing.T) {
	alice := &models.User{ID: uuid.New(), Name: "alice"}
	ghost := uuid.New()
	sessions := &fakeSessions{ids: map[string]uuid.UUID{"good": alice.ID, "orphan": ghost}}
	m := NewAuthMiddleware(sessions, fakeUsers{alice.ID: alice}, "", false)

	var seen *models.User
	h := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetUserFromContext(r.Context())
		if id, ok := GetUserIDFromContext(r.Context()); !ok || id != alice.ID {
			t.Errorf("user id in context = %v, %v", id, ok)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		cookie     string
		wantStatus int
	}{
		{name: "no cookie", wantStatus: http.StatusUnauthorized},
		{name: "unknown session", cookie: "bad", wantStatus: http.StatusUnauthorized},
		{name: "deleted user", cookie: "orphan", wantStatus: http.StatusUnauthorized},
		{name: "valid session", cookie: "good", wantStatus: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "session", Value: tt.cookie})
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}

	if seen != alice {
		t.Errorf("user in context = %v, want alice", seen)
	}
	if len(sessions.deleted) != 1 || sessions.deleted[0] != "orphan" {
		t.Errorf("deleted sessions = %v, want [orphan]", sessions.deleted)
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	h := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Info().Msg("inside")
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/brew", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != "req-1" {
		t.Errorf("response request id = %q, want req-1", got)
	}
	out := buf.String()
	if strings.Count(out, `"request_id":"req-1"`) != 2 {
		t.Errorf("log output = %q, want both lines tagged with the request id", out)
	}
	if !strings.Contains(out, `"status":418`) {
		t.Errorf("log output = %q, want status 418", out)
	}
}

func TestRateLimiter_DisabledOutsideProduction(t *testing.T) {
	rl := NewRateLimiter(nil, 1, 0, false, zerolog.Nop())
	h := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, rec.Code)
		}
	}
}

func TestRateLimiter_Identifier(t *testing.T) {
	rl := NewRateLimiter(nil, 1, 0, false, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := rl.getIdentifier(req); got != "ip:203.0.113.7" {
		t.Errorf("getIdentifier() = %q, want ip:203.0.113.7", got)
	}

	id := uuid.New()
	req = req.WithContext(WithUser(req.Context(), &models.User{ID: id}))
	if got := rl.getIdentifier(req); got != "user:"+id.String() {
		t.Errorf("getIdentifier() = %q, want user id", got)
	}
}
