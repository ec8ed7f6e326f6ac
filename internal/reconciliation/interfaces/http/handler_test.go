package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/casadecor/backoffice/internal/reconciliation/application"
	"github.com/casadecor/backoffice/internal/reconciliation/domain"
	"github.com/casadecor/backoffice/internal/reconciliation/infrastructure/persistence/memory"
	reconhttp "github.com/casadecor/backoffice/internal/reconciliation/interfaces/http"
)

func setupRouter(t *testing.T) (*gin.Engine, *memory.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	svc, err := application.NewService(application.Config{
		Scoring:        domain.DefaultScoringConfig(),
		LinkTimeout:    2 * time.Second,
		LinkMaxRetries: 3,
	}, application.Repositories{
		Transactions: store,
		Invoices:     store.Invoices(),
		Receivables:  store,
		Runs:         store,
		UoW:          memory.UnitOfWork{Store: store},
	}, nil, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	router := gin.New()
	reconhttp.NewHandler(svc).RegisterRoutes(router.Group("/api/v1"))
	return router, store
}

func seed(store *memory.Store) {
	created := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	store.SeedInvoice(&domain.Invoice{
		InvoiceID:   "ORC-001",
		TenantID:    "casadecor",
		Code:        "2026-0142",
		ClientName:  "Maria Silva",
		TotalAmount: decimal.NewFromInt(1000),
		Status:      domain.InvoiceSent,
		CreatedAt:   created,
	})
	store.SeedTransaction(&domain.Transaction{
		TransactionID: "TXN-1",
		TenantID:      "casadecor",
		Description:   "PIX RECEBIDO MARIA SILVA",
		Amount:        decimal.NewFromInt(500),
		Direction:     domain.DirectionInflow,
		Date:          created.AddDate(0, 0, 2),
	})
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandler_PreviewMatches(t *testing.T) {
	router, store := setupRouter(t)
	seed(store)

	w := doJSON(t, router, http.MethodGet, "/api/v1/reconciliation/transactions/TXN-1/matches?tenant_id=casadecor", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var body struct {
		Data application.MatchPreviewDTO `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data.Candidates) != 1 {
		t.Fatalf("candidates = %d, want 1", len(body.Data.Candidates))
	}
	if body.Data.Candidates[0].InvoiceID != "ORC-001" {
		t.Errorf("top candidate = %s, want ORC-001", body.Data.Candidates[0].InvoiceID)
	}
}

func TestHandler_LinkAndConflict(t *testing.T) {
	router, store := setupRouter(t)
	seed(store)

	cmd := application.LinkCommand{
		TenantID:      "casadecor",
		ActorID:       "operator-1",
		TransactionID: "TXN-1",
		InvoiceID:     "ORC-001",
	}
	w := doJSON(t, router, http.MethodPost, "/api/v1/reconciliation/links", cmd)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	// Linking the same transaction again is a conflict, not a silent rewrite.
	w = doJSON(t, router, http.MethodPost, "/api/v1/reconciliation/links", cmd)
	if w.Code != http.StatusConflict {
		t.Fatalf("relink status = %d, want 409", w.Code)
	}
}

func TestHandler_UnknownTransactionIs404(t *testing.T) {
	router, store := setupRouter(t)
	seed(store)

	w := doJSON(t, router, http.MethodGet, "/api/v1/reconciliation/transactions/TXN-404/matches?tenant_id=casadecor", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestHandler_IgnoreValidation(t *testing.T) {
	router, store := setupRouter(t)
	seed(store)

	w := doJSON(t, router, http.MethodPost, "/api/v1/reconciliation/transactions/ignore", application.IgnoreCommand{
		TenantID:       "casadecor",
		TransactionIDs: []string{"TXN-1"},
		Reason:         "NOT_A_REASON",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body = %s", w.Code, w.Body.String())
	}
}

func TestHandler_BatchRunAndReport(t *testing.T) {
	router, store := setupRouter(t)
	seed(store)

	w := doJSON(t, router, http.MethodPost, "/api/v1/reconciliation/batch/run", map[string]string{
		"tenant_id": "casadecor",
		"actor_id":  "operator-1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var body struct {
		Data application.RunReportDTO `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.LinkedCount != 1 {
		t.Fatalf("linked = %d, want 1", body.Data.LinkedCount)
	}

	w = doJSON(t, router, http.MethodGet, "/api/v1/reconciliation/runs/"+body.Data.RunID+"?tenant_id=casadecor", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get run status = %d", w.Code)
	}
}
