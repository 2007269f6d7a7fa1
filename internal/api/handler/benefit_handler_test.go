package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ecosrev/ecosrev-api/internal/api/metrics"
	"github.com/ecosrev/ecosrev-api/internal/core/domain"
)

const validBenefit = `{"nome":"Desconto cinema","endereco":"Rua das Flores, 10","pontos":300,"data":"2999-12-31","quantidade":5}`

func TestBenefitHandler_Create_Success(t *testing.T) {
	e := newTestEcho()
	h := NewBenefitHandler(&stubBenefitService{
		createFn: func(ctx context.Context, b *domain.Benefit) (int64, error) {
			if b.Name != "Desconto cinema" || b.Points != 300 || b.Quantity != 5 {
				t.Fatalf("unexpected benefit: %+v", b)
			}
			return 7, nil
		},
	})

	c, rec := newContext(e, http.MethodPost, "/api/beneficio", validBenefit)
	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	expectStatus(t, rec, http.StatusCreated)
	body := decodeBody(t, rec)
	if body["insertId"] != float64(7) || body["nome"] != "Desconto cinema" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestBenefitHandler_Create_ShortName(t *testing.T) {
	e := newTestEcho()
	h := NewBenefitHandler(&stubBenefitService{
		createFn: func(context.Context, *domain.Benefit) (int64, error) {
			t.Fatalf("service must not be called")
			return 0, nil
		},
	})

	c, rec := newContext(e, http.MethodPost, "/api/beneficio",
		`{"nome":"abc","endereco":"Rua das Flores, 10","pontos":300,"data":"2999-12-31","quantidade":5}`)
	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	expectStatus(t, rec, http.StatusBadRequest)
	if msg := firstErrorMsg(t, decodeBody(t, rec)); msg != "O nome é muito curto. Mínimo de 5" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestBenefitHandler_Create_PointsNotANumber(t *testing.T) {
	e := newTestEcho()
	h := NewBenefitHandler(&stubBenefitService{})

	c, rec := newContext(e, http.MethodPost, "/api/beneficio",
		`{"nome":"Desconto cinema","endereco":"Rua das Flores, 10","pontos":"muitos","data":"2999-12-31","quantidade":5}`)
	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	expectStatus(t, rec, http.StatusBadRequest)
	if msg := firstErrorMsg(t, decodeBody(t, rec)); msg != "Os pontos devem ser um número" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestBenefitHandler_Create_PastDate(t *testing.T) {
	e := newTestEcho()
	h := NewBenefitHandler(&stubBenefitService{})

	c, rec := newContext(e, http.MethodPost, "/api/beneficio",
		`{"nome":"Desconto cinema","endereco":"Rua das Flores, 10","pontos":300,"data":"2000-01-01","quantidade":5}`)
	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	expectStatus(t, rec, http.StatusBadRequest)
	if msg := firstErrorMsg(t, decodeBody(t, rec)); msg != "A data deve ser maior do que o dia de hoje" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestBenefitHandler_Delete_Twice(t *testing.T) {
	e := newTestEcho()
	stored := map[int64]bool{4: true}
	h := NewBenefitHandler(&stubBenefitService{
		deleteFn: func(ctx context.Context, id int64) error {
			if !stored[id] {
				return domain.ErrBenefitNotFound
			}
			delete(stored, id)
			return nil
		},
	})

	c, rec := newContext(e, http.MethodDelete, "/api/beneficio/4", "")
	c.SetParamNames("id")
	c.SetParamValues("4")
	if err := h.Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	expectStatus(t, rec, http.StatusOK)
	if body := decodeBody(t, rec); body["msg"] != "Benefício excluído com sucesso" {
		t.Fatalf("unexpected body: %+v", body)
	}

	c, rec = newContext(e, http.MethodDelete, "/api/beneficio/4", "")
	c.SetParamNames("id")
	c.SetParamValues("4")
	if err := h.Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	expectStatus(t, rec, http.StatusNotFound)
	if msg := firstErrorMsg(t, decodeBody(t, rec)); msg != "Erro ao excluir o benefício" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestBenefitHandler_Get_NotFound(t *testing.T) {
	e := newTestEcho()
	h := NewBenefitHandler(&stubBenefitService{
		getFn: func(context.Context, int64) (*domain.Benefit, error) {
			return nil, domain.ErrBenefitNotFound
		},
	})

	c, rec := newContext(e, http.MethodGet, "/api/beneficio/id/99", "")
	c.SetParamNames("id")
	c.SetParamValues("99")
	if err := h.Get(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	expectStatus(t, rec, http.StatusNotFound)
	if body := decodeBody(t, rec); body["msg"] != "Benefício não encontrado" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestBenefitHandler_List_Defaults(t *testing.T) {
	e := newTestEcho()
	h := NewBenefitHandler(&stubBenefitService{
		listFn: func(ctx context.Context, opts domain.ListOptions) ([]domain.Benefit, error) {
			if opts.Limit != domain.DefaultListLimit || opts.Skip != 0 || opts.Order != domain.DefaultOrder {
				t.Fatalf("unexpected options: %+v", opts)
			}
			return []domain.Benefit{{ID: 1, Name: "Desconto cinema"}}, nil
		},
	})

	c, rec := newContext(e, http.MethodGet, "/api/beneficio", "")
	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	expectStatus(t, rec, http.StatusOK)
}

func TestBenefitHandler_List_ZeroLimitUsesDefault(t *testing.T) {
	e := newTestEcho()
	h := NewBenefitHandler(&stubBenefitService{
		listFn: func(ctx context.Context, opts domain.ListOptions) ([]domain.Benefit, error) {
			if opts.Limit != domain.DefaultListLimit || opts.Skip != 2 {
				t.Fatalf("unexpected options: %+v", opts)
			}
			return []domain.Benefit{}, nil
		},
	})

	c, rec := newContext(e, http.MethodGet, "/api/beneficio?limit=0&skip=2", "")
	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	expectStatus(t, rec, http.StatusOK)
}

func TestBenefitHandler_List_BadOrder(t *testing.T) {
	e := newTestEcho()
	h := NewBenefitHandler(&stubBenefitService{})

	c, rec := newContext(e, http.MethodGet, "/api/beneficio?order=senha", "")
	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestBenefitHandler_List_Failure(t *testing.T) {
	e := newTestEcho()
	h := NewBenefitHandler(&stubBenefitService{
		listFn: func(context.Context, domain.ListOptions) ([]domain.Benefit, error) {
			return nil, errors.New("db down")
		},
	})

	c, rec := newContext(e, http.MethodGet, "/api/beneficio", "")
	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	expectStatus(t, rec, http.StatusInternalServerError)
	body := decodeBody(t, rec)
	if body["message"] != msgBenefitListFailed || body["error"] != "db down" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestBenefitHandler_ListInRange_Defaults(t *testing.T) {
	e := newTestEcho()
	h := NewBenefitHandler(&stubBenefitService{
		rangeFn: func(ctx context.Context, r domain.PointsRange, opts domain.ListOptions) ([]domain.Benefit, error) {
			if r != domain.DefaultPointsRange {
				t.Fatalf("unexpected range: %+v", r)
			}
			return nil, nil
		},
	})

	c, rec := newContext(e, http.MethodGet, "/api/beneficio/gt", "")
	if err := h.ListInRange(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	expectStatus(t, rec, http.StatusOK)
}

func TestBenefitHandler_Redeem_CountsMetric(t *testing.T) {
	e := newTestEcho()
	h := NewBenefitHandler(&stubBenefitService{
		redeemFn: func(ctx context.Context, id int64, quantity int) (int64, error) {
			if id != 3 || quantity != 4 {
				t.Fatalf("unexpected args: %d %d", id, quantity)
			}
			return 1, nil
		},
	})
	before := testutil.ToFloat64(metrics.BenefitsRedeemedTotal)

	c, rec := newContext(e, http.MethodPut, "/api/beneficio/resgate", `{"id":3,"quantidade":4}`)
	if err := h.Redeem(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	expectStatus(t, rec, http.StatusAccepted)
	if body := decodeBody(t, rec); body["affectedRows"] != float64(1) {
		t.Fatalf("unexpected body: %+v", body)
	}
	if got := testutil.ToFloat64(metrics.BenefitsRedeemedTotal); got != before+1 {
		t.Fatalf("expected metric %v, got %v", before+1, got)
	}
}

func TestBenefitHandler_Redeem_NegativeQuantity(t *testing.T) {
	e := newTestEcho()
	h := NewBenefitHandler(&stubBenefitService{})

	c, rec := newContext(e, http.MethodPut, "/api/beneficio/resgate", `{"id":3,"quantidade":-1}`)
	if err := h.Redeem(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	expectStatus(t, rec, http.StatusBadRequest)
	if msg := firstErrorMsg(t, decodeBody(t, rec)); msg != "A quantidade não pode ser negativa" {
		t.Fatalf("unexpected message %q", msg)
	}
}
