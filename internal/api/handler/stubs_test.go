package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/ecosrev/ecosrev-api/internal/api/middleware"
	"github.com/ecosrev/ecosrev-api/internal/core/domain"
	"github.com/ecosrev/ecosrev-api/internal/core/ports"
)

// ── Benefit service stub ──────────────────────────────────────────────────────

type stubBenefitService struct {
	ports.BenefitService
	listFn   func(ctx context.Context, opts domain.ListOptions) ([]domain.Benefit, error)
	rangeFn  func(ctx context.Context, r domain.PointsRange, opts domain.ListOptions) ([]domain.Benefit, error)
	getFn    func(ctx context.Context, id int64) (*domain.Benefit, error)
	createFn func(ctx context.Context, b *domain.Benefit) (int64, error)
	redeemFn func(ctx context.Context, id int64, quantity int) (int64, error)
	deleteFn func(ctx context.Context, id int64) error
}

func (s *stubBenefitService) List(ctx context.Context, opts domain.ListOptions) ([]domain.Benefit, error) {
	return s.listFn(ctx, opts)
}

func (s *stubBenefitService) ListInPointsRange(ctx context.Context, r domain.PointsRange, opts domain.ListOptions) ([]domain.Benefit, error) {
	return s.rangeFn(ctx, r, opts)
}

func (s *stubBenefitService) Get(ctx context.Context, id int64) (*domain.Benefit, error) {
	return s.getFn(ctx, id)
}

func (s *stubBenefitService) Create(ctx context.Context, b *domain.Benefit) (int64, error) {
	return s.createFn(ctx, b)
}

func (s *stubBenefitService) Redeem(ctx context.Context, id int64, quantity int) (int64, error) {
	return s.redeemFn(ctx, id, quantity)
}

func (s *stubBenefitService) Delete(ctx context.Context, id int64) error {
	return s.deleteFn(ctx, id)
}

// ── User service stub ─────────────────────────────────────────────────────────

type stubUserService struct {
	ports.UserService
	registerFn   func(ctx context.Context, u *domain.User, password string) (int64, error)
	emailTakenFn func(ctx context.Context, email string) (bool, error)
	loginFn      func(ctx context.Context, email, password string) (*ports.LoginResult, error)
	getFn        func(ctx context.Context, id int64) (*domain.User, error)
	setPointsFn  func(ctx context.Context, id int64, points int) error
	changeFn     func(ctx context.Context, id int64, current, next string) error
	forgotFn     func(ctx context.Context, email string) error
}

func (s *stubUserService) Register(ctx context.Context, u *domain.User, password string) (int64, error) {
	return s.registerFn(ctx, u, password)
}

func (s *stubUserService) EmailTaken(ctx context.Context, email string) (bool, error) {
	if s.emailTakenFn == nil {
		return false, nil
	}
	return s.emailTakenFn(ctx, email)
}

func (s *stubUserService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubUserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	return s.getFn(ctx, id)
}

func (s *stubUserService) SetPoints(ctx context.Context, id int64, points int) error {
	return s.setPointsFn(ctx, id, points)
}

func (s *stubUserService) ChangePassword(ctx context.Context, id int64, current, next string) error {
	return s.changeFn(ctx, id, current, next)
}

func (s *stubUserService) ForgotPassword(ctx context.Context, email string) error {
	return s.forgotFn(ctx, email)
}

// ── History service stub ──────────────────────────────────────────────────────

type stubHistoryService struct {
	ports.HistoryService
	redeemFn      func(ctx context.Context, e domain.PointsEntry) error
	transactionFn func(ctx context.Context, t domain.Transaction) error
	userFn        func(ctx context.Context, userID int64, r domain.DateRange) ([]domain.HistoryItem, error)
}

func (s *stubHistoryService) RedeemCoupon(ctx context.Context, e domain.PointsEntry) error {
	return s.redeemFn(ctx, e)
}

func (s *stubHistoryService) RecordTransaction(ctx context.Context, t domain.Transaction) error {
	return s.transactionFn(ctx, t)
}

func (s *stubHistoryService) UserHistory(ctx context.Context, userID int64, r domain.DateRange) ([]domain.HistoryItem, error) {
	return s.userFn(ctx, userID, r)
}

// ── Image service stub ────────────────────────────────────────────────────────

type stubImageService struct {
	ports.ImageService
	uploadFn func(ctx context.Context, userID int64, in ports.ImageUpload) (*ports.ImageResult, error)
	getFn    func(ctx context.Context, id int64) (*domain.Image, error)
	deleteFn func(ctx context.Context, id int64) error
	apkFn    func(ctx context.Context) (string, error)
}

func (s *stubImageService) Upload(ctx context.Context, userID int64, in ports.ImageUpload) (*ports.ImageResult, error) {
	return s.uploadFn(ctx, userID, in)
}

func (s *stubImageService) Get(ctx context.Context, id int64) (*domain.Image, error) {
	return s.getFn(ctx, id)
}

func (s *stubImageService) Delete(ctx context.Context, id int64) error {
	return s.deleteFn(ctx, id)
}

func (s *stubImageService) APKDownloadURL(ctx context.Context) (string, error) {
	return s.apkFn(ctx)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

// newContext builds a context for method and target with an optional JSON body.
func newContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withCaller(c echo.Context, id int64, role string) {
	c.Set(middleware.IdentityKey, domain.Identity{ID: id, Role: role})
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return body
}

// firstErrorMsg returns errors[0].msg of an errors envelope.
func firstErrorMsg(t *testing.T, body map[string]any) string {
	t.Helper()
	errs, ok := body["errors"].([]any)
	if !ok || len(errs) == 0 {
		t.Fatalf("expected errors array, got %+v", body)
	}
	entry, _ := errs[0].(map[string]any)
	msg, _ := entry["msg"].(string)
	return msg
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}
