// Package http exposes the reconciliation engine over gin.
package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/casadecor/backoffice/internal/reconciliation/application"
	"github.com/casadecor/backoffice/internal/reconciliation/domain"
	"github.com/casadecor/backoffice/pkg/logging"
	"github.com/casadecor/backoffice/pkg/response"
)

// Handler carries the application facade into the route tree.
type Handler struct {
	svc *application.Service
}

func NewHandler(svc *application.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts every reconciliation endpoint under rg.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/reconciliation")
	g.GET("/transactions/:id/matches", h.PreviewMatches)
	g.GET("/orphans", h.ListOrphans)
	g.POST("/links", h.Link)
	g.POST("/batch/preview", h.PreviewBatch)
	g.POST("/batch/run", h.RunBatch)
	g.POST("/transactions/ignore", h.IgnoreTransactions)
	g.POST("/transactions/restore", h.RestoreTransactions)
	g.GET("/runs/:id", h.GetRun)
}

// parseStatuses reads a comma separated invoice status filter; empty means
// the default eligible set.
func parseStatuses(raw string) []domain.InvoiceStatus {
	if raw == "" {
		return nil
	}
	var out []domain.InvoiceStatus
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, domain.InvoiceStatus(strings.ToUpper(s)))
		}
	}
	return out
}

// PreviewMatches returns the ranked invoice candidates for one transaction.
func (h *Handler) PreviewMatches(c *gin.Context) {
	tenantID := c.Query("tenant_id")
	transactionID := c.Param("id")

	preview, err := h.svc.PreviewMatches(c.Request.Context(), tenantID, transactionID,
		parseStatuses(c.Query("statuses"))...)
	if err != nil {
		logging.Error(c.Request.Context(), "preview matches failed", "transaction_id", transactionID, "error", err)
		response.Error(c, err)
		return
	}
	response.Success(c, preview)
}

// ListOrphans returns the unmatched pool with suggestions.
func (h *Handler) ListOrphans(c *gin.Context) {
	includeIgnored, _ := strconv.ParseBool(c.DefaultQuery("include_ignored", "false"))
	q := application.OrphanQuery{
		TenantID:       c.Query("tenant_id"),
		Direction:      domain.Direction(c.Query("direction")),
		IncludeIgnored: includeIgnored,
		Search:         c.Query("search"),
		Statuses:       parseStatuses(c.Query("statuses")),
	}

	orphans, err := h.svc.ListOrphans(c.Request.Context(), q)
	if err != nil {
		logging.Error(c.Request.Context(), "list orphans failed", "tenant_id", q.TenantID, "error", err)
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"orphans": orphans, "total": len(orphans)})
}

// Link confirms one transaction-invoice pair.
func (h *Handler) Link(c *gin.Context) {
	var cmd application.LinkCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	res, err := h.svc.Link(c.Request.Context(), cmd)
	if err != nil {
		logging.Error(c.Request.Context(), "link failed",
			"transaction_id", cmd.TransactionID, "invoice_id", cmd.InvoiceID, "error", err)
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

type batchRequest struct {
	TenantID string `json:"tenant_id" binding:"required"`
	ActorID  string `json:"actor_id"`
}

// PreviewBatch returns the selections a batch run would confirm.
func (h *Handler) PreviewBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	selections, err := h.svc.PreviewBatch(c.Request.Context(), req.TenantID)
	if err != nil {
		logging.Error(c.Request.Context(), "batch preview failed", "tenant_id", req.TenantID, "error", err)
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"selections": selections, "total": len(selections)})
}

// RunBatch applies the current best matches and returns the run report.
func (h *Handler) RunBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	triggeredBy := req.ActorID
	if triggeredBy == "" {
		triggeredBy = "api"
	}

	report, err := h.svc.RunBatch(c.Request.Context(), req.TenantID, triggeredBy, false)
	if err != nil {
		logging.Error(c.Request.Context(), "batch run failed", "tenant_id", req.TenantID, "error", err)
		response.Error(c, err)
		return
	}
	response.Success(c, report)
}

// IgnoreTransactions parks a selection of orphans in the ignored pool.
func (h *Handler) IgnoreTransactions(c *gin.Context) {
	var cmd application.IgnoreCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	res, err := h.svc.IgnoreTransactions(c.Request.Context(), cmd)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// RestoreTransactions returns ignored transactions to the orphan pool.
func (h *Handler) RestoreTransactions(c *gin.Context) {
	var cmd application.RestoreCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	res, err := h.svc.RestoreTransactions(c.Request.Context(), cmd)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// GetRun fetches a persisted batch run report.
func (h *Handler) GetRun(c *gin.Context) {
	report, err := h.svc.GetRun(c.Request.Context(), c.Query("tenant_id"), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, report)
}
