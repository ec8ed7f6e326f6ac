// Package response standardizes the HTTP response envelope and the mapping
// from domain errors to status codes.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/casadecor/backoffice/internal/reconciliation/domain"
)

// Body is the uniform response envelope.
type Body struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// Success writes a 200 envelope with data.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Body{Code: 0, Message: "ok", Data: data})
}

// ErrorWithStatus writes an explicit status with message and detail.
func ErrorWithStatus(c *gin.Context, status int, message, detail string) {
	c.JSON(status, Body{Code: status, Message: message, Detail: detail})
}

// Error maps domain errors onto HTTP status codes. Unknown errors surface as
// 500 so persistence failures are never mistaken for client mistakes.
func Error(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrTransactionNotFound),
		errors.Is(err, domain.ErrInvoiceNotFound),
		errors.Is(err, domain.ErrRunNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyLinked),
		errors.Is(err, domain.ErrTransactionIgnored),
		errors.Is(err, domain.ErrNotIgnored):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrConcurrencyConflict):
		status = http.StatusConflict
	}
	c.JSON(status, Body{Code: status, Message: err.Error()})
}
