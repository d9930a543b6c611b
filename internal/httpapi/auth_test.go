package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, secret, subject string, expiresAt time.Time, method jwt.SigningMethod) string {
	t.Helper()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestWithAuthMiddleware(t *testing.T) {
	r := &Router{
		cfg:    RouterConfig{JWTSecret: "test-secret-key"},
		logger: testLogger(),
	}

	testHandler := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(getClientID(req.Context())))
	})
	protected := r.withAuth(testHandler)

	valid := signToken(t, "test-secret-key", "device-1", time.Now().Add(time.Hour), jwt.SigningMethodHS256)
	expired := signToken(t, "test-secret-key", "device-1", time.Now().Add(-time.Hour), jwt.SigningMethodHS256)
	wrongSecret := signToken(t, "other-secret", "device-1", time.Now().Add(time.Hour), jwt.SigningMethodHS256)

	tests := []struct {
		name       string
		header     string
		query      string
		wantStatus int
		wantBody   string
	}{
		{name: "missing authorization header", wantStatus: http.StatusUnauthorized},
		{name: "invalid authorization format", header: "InvalidFormat", wantStatus: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer invalid-token", wantStatus: http.StatusUnauthorized},
		{name: "expired token", header: "Bearer " + expired, wantStatus: http.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + wrongSecret, wantStatus: http.StatusUnauthorized},
		{name: "valid bearer token", header: "Bearer " + valid, wantStatus: http.StatusOK, wantBody: "device-1"},
		{name: "valid query token", query: "?access_token=" + valid, wantStatus: http.StatusOK, wantBody: "device-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			protected(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestWithAuthRejectsNonHMAC(t *testing.T) {
	r := &Router{cfg: RouterConfig{JWTSecret: "test-secret-key"}, logger: testLogger()}
	protected := r.withAuth(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "x"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to build unsigned token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+unsigned)
	rec := httptest.NewRecorder()
	protected(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestWithAuthDisabledWithoutSecret(t *testing.T) {
	r := &Router{logger: testLogger()}
	protected := r.withAuth(func(w http.ResponseWriter, req *http.Request) {
		if id := getClientID(req.Context()); id != "" {
			t.Errorf("client id = %q, want empty when auth is disabled", id)
		}
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	protected(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}
