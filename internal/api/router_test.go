package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/ecosrev/ecosrev-api/internal/api/middleware"
	"github.com/ecosrev/ecosrev-api/internal/core/domain"
	"github.com/ecosrev/ecosrev-api/internal/core/ports"
	"github.com/ecosrev/ecosrev-api/internal/core/service"
	"github.com/ecosrev/ecosrev-api/internal/infrastructure/config"
	"github.com/ecosrev/ecosrev-api/internal/infrastructure/http/handlers"
)

type benefitsStub struct {
	ports.BenefitService
	created bool
}

func (s *benefitsStub) List(context.Context, domain.ListOptions) ([]domain.Benefit, error) {
	return []domain.Benefit{{ID: 1, Name: "Desconto cinema"}}, nil
}

func (s *benefitsStub) Create(context.Context, *domain.Benefit) (int64, error) {
	s.created = true
	return 1, nil
}

type routerFixture struct {
	e        *echo.Echo
	tokens   *service.TokenService
	benefits *benefitsStub
}

func newRouterFixture(t *testing.T, health ...handlers.Dependency) *routerFixture {
	t.Helper()
	tokens := service.NewTokenService(service.TokenConfig{Secret: "secret", TTL: time.Hour})
	benefits := &benefitsStub{}
	reg := prometheus.NewRegistry()

	e := NewRouter(Deps{
		Config:     &config.Config{Version: "1.0.0", RequestTimeout: 5 * time.Second},
		Log:        zerolog.Nop(),
		Verifier:   tokens,
		Benefits:   benefits,
		Health:     health,
		Registerer: reg,
		Gatherer:   reg,
	})
	return &routerFixture{e: e, tokens: tokens, benefits: benefits}
}

func (f *routerFixture) do(t *testing.T, method, target, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set(middleware.CredentialHeader, token)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func (f *routerFixture) token(t *testing.T, role string) string {
	t.Helper()
	tok, err := f.tokens.Issue(domain.Identity{ID: 9, Role: role})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return tok
}

func TestRouter_Root(t *testing.T) {
	f := newRouterFixture(t)

	for _, target := range []string{"/api", "/api/"} {
		rec, body := f.do(t, http.MethodGet, target, "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", target, rec.Code)
		}
		if body["version"] != "1.0.0" || body["message"] == "" {
			t.Fatalf("%s: unexpected body %+v", target, body)
		}
	}
}

func TestRouter_GateMissingCredential(t *testing.T) {
	f := newRouterFixture(t)

	rec, body := f.do(t, http.MethodGet, "/api/beneficio", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if body["msg"] != "Acesso negado. É obrigatório o envio do token JWT" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestRouter_GateInvalidCredential(t *testing.T) {
	f := newRouterFixture(t)

	rec, body := f.do(t, http.MethodGet, "/api/beneficio", "not-a-token", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if body["error"] != "Token inválido" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestRouter_GateAdmitsValidCredential(t *testing.T) {
	f := newRouterFixture(t)

	rec, _ := f.do(t, http.MethodGet, "/api/beneficio", f.token(t, domain.RoleCliente), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_AdminOnlyRoutes(t *testing.T) {
	f := newRouterFixture(t)
	payload := `{"nome":"Desconto cinema","endereco":"Rua das Flores, 10","pontos":300,"data":"2999-12-31","quantidade":5}`

	rec, _ := f.do(t, http.MethodPost, "/api/beneficio", f.token(t, domain.RoleCliente), payload)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for Cliente, got %d", rec.Code)
	}
	if f.benefits.created {
		t.Fatalf("Cliente must not reach the service")
	}

	rec, _ = f.do(t, http.MethodPost, "/api/beneficio", f.token(t, domain.RoleAdmin), payload)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 for Admin, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_Health(t *testing.T) {
	f := newRouterFixture(t, handlers.Dependency{
		Name: "postgres",
		Ping: func(context.Context) error { return errors.New("down") },
	})

	rec, _ := f.do(t, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("liveness: expected 200, got %d", rec.Code)
	}

	rec, body := f.do(t, http.MethodGet, "/health/ready", "", "")
	if rec.Code != http.StatusServiceUnavailable || body["status"] != "degraded" {
		t.Fatalf("readiness: unexpected %d %+v", rec.Code, body)
	}
}

func TestRouter_Metrics(t *testing.T) {
	f := newRouterFixture(t)
	f.do(t, http.MethodGet, "/api", "", "")

	rec, _ := f.do(t, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	f := newRouterFixture(t)

	rec, body := f.do(t, http.MethodGet, "/api/nada", "", "")
	if rec.Code != http.StatusNotFound || body["error"] == nil {
		t.Fatalf("unexpected %d %+v", rec.Code, body)
	}
}

func TestRun_SkipsListeningUnderTest(t *testing.T) {
	f := newRouterFixture(t)
	cfg := &config.Config{Env: "test", Port: "0"}

	if err := Run(context.Background(), f.e, cfg, zerolog.Nop()); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	f := newRouterFixture(t)
	cfg := &config.Config{Env: "development", Port: "0"}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, f.e, cfg, zerolog.Nop()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not shut down")
	}
}
