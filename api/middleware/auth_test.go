package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/nearbuy-backend/pkg/auth"
	"github.com/angelmondragon/nearbuy-backend/pkg/config"
	"github.com/angelmondragon/nearbuy-backend/pkg/remote"
)

func TestAuthRejectsMissingToken(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}
	handler := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}
	handler := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthAllowsValidToken(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}
	customerID := uuid.New()
	token := mintTestToken(t, cfg, customerID)

	var (
		captured  Customer
		found     bool
		forwarded string
	)
	handler := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, found = CustomerFromContext(r.Context())
		forwarded = remote.TokenFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !found || captured.ID != customerID {
		t.Fatalf("expected customer %s in context, got %+v", customerID, captured)
	}
	if captured.Name != "Asha" || captured.Phone != "9876543210" {
		t.Fatalf("unexpected profile %+v", captured)
	}
	if forwarded != token {
		t.Fatal("expected token forwarded to the remote store")
	}
}

func TestCustomerFromEmptyContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := CustomerFromContext(req.Context()); ok {
		t.Fatal("expected no customer")
	}
	if got := CustomerIDFromContext(req.Context()); got != "" {
		t.Fatalf("expected empty id got %q", got)
	}
}

func mintTestToken(t *testing.T, cfg config.JWTConfig, customerID uuid.UUID) string {
	t.Helper()
	payload := auth.AccessTokenPayload{
		CustomerID: customerID,
		Name:       "Asha",
		Phone:      "9876543210",
		JTI:        uuid.NewString(),
	}
	token, err := auth.MintAccessToken(cfg, time.Now(), payload)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}
