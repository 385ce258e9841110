package http

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/invoice-service/internal/domain/money"
	"github.com/garyjia/invoice-service/internal/export"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	deps   Dependencies
	logger Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(deps Dependencies, logger Logger) *Handlers {
	return &Handlers{deps: deps, logger: logger}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	if h.deps.Health != nil {
		if err := h.deps.Health(c.Request.Context()); err != nil {
			h.logger.Error("Health check failed", "error", err)
			response.Status = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, Response{Success: false, Data: response})
			return
		}
	}

	ok(c, http.StatusOK, response)
}

// CreateInvoice handles POST /api/invoices
func (h *Handlers) CreateInvoice(c *gin.Context) {
	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, bindError(err))
		return
	}

	inv, err := h.deps.Invoices.Create(c.Request.Context(), currentUser(c), req.toInput(), req.TemplateID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	ok(c, http.StatusCreated, inv)
}

// ListInvoices handles GET /api/invoices
func (h *Handlers) ListInvoices(c *gin.Context) {
	var req ListInvoicesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		abortWithError(c, bindError(err))
		return
	}

	invoices, err := h.deps.Invoices.List(c.Request.Context(), currentUser(c), req.toFilter())
	if err != nil {
		abortWithError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"invoices": invoices,
		"count":    len(invoices),
		"limit":    req.Limit,
		"offset":   req.Offset,
	})
}

// GetInvoice handles GET /api/invoices/:id
func (h *Handlers) GetInvoice(c *gin.Context) {
	inv, err := h.deps.Invoices.Get(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	ok(c, http.StatusOK, inv)
}

// PatchInvoice handles PATCH /api/invoices/:id
func (h *Handlers) PatchInvoice(c *gin.Context) {
	var req PatchInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, bindError(err))
		return
	}

	inv, err := h.deps.Invoices.Patch(c.Request.Context(), currentUser(c), c.Param("id"), req.toPatch())
	if err != nil {
		abortWithError(c, err)
		return
	}
	ok(c, http.StatusOK, inv)
}

// PayInvoice handles POST /api/invoices/:id/pay
func (h *Handlers) PayInvoice(c *gin.Context) {
	inv, err := h.deps.Invoices.MarkPaid(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	ok(c, http.StatusOK, inv)
}

// VoidInvoice handles POST /api/invoices/:id/void
func (h *Handlers) VoidInvoice(c *gin.Context) {
	inv, err := h.deps.Invoices.Void(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	ok(c, http.StatusOK, inv)
}

// PreviewTotals handles POST /api/invoices/preview-totals
func (h *Handlers) PreviewTotals(c *gin.Context) {
	var req PreviewTotalsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, bindError(err))
		return
	}

	totals, err := h.deps.Invoices.PreviewTotals(toLineItems(req.Items), req.TaxRate)
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp := TotalsResponse{Subtotal: totals.Subtotal, Tax: totals.Tax, Total: totals.Total}
	if req.Currency != "" {
		resp.FormattedSubtotal = money.Format(totals.Subtotal, req.Currency)
		resp.FormattedTax = money.Format(totals.Tax, req.Currency)
		resp.FormattedTotal = money.Format(totals.Total, req.Currency)
	}
	ok(c, http.StatusOK, resp)
}

// DownloadInvoicePDF handles GET /api/invoices/:id/pdf
func (h *Handlers) DownloadInvoicePDF(c *gin.Context) {
	doc, err := h.deps.Documents.Download(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+doc.FileName+`"`)
	c.Data(http.StatusOK, "application/pdf", doc.Data)
}

// ShareInvoice handles POST /api/invoices/:id/share
func (h *Handlers) ShareInvoice(c *gin.Context) {
	link, err := h.deps.Documents.Share(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	ok(c, http.StatusOK, link)
}

// PreviewInvoice handles GET /api/invoices/:id/preview
func (h *Handlers) PreviewInvoice(c *gin.Context) {
	img, err := h.deps.Documents.Preview(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}

// SendInvoice handles POST /api/invoices/:id/send
func (h *Handlers) SendInvoice(c *gin.Context) {
	var req SendInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		abortWithError(c, bindError(err))
		return
	}

	result, err := h.deps.Notifications.SendInvoice(c.Request.Context(), currentUser(c), c.Param("id"), req.To)
	if err != nil {
		abortWithError(c, err)
		return
	}
	ok(c, http.StatusOK, result)
}

// ExportInvoices handles GET /api/invoices/export.xlsx
func (h *Handlers) ExportInvoices(c *gin.Context) {
	var req ListInvoicesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		abortWithError(c, bindError(err))
		return
	}

	data, err := h.deps.Exports.Invoices(c.Request.Context(), currentUser(c), req.toFilter())
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="invoices.xlsx"`)
	c.Data(http.StatusOK, export.ContentType, data)
}

// DownloadSignedFile handles GET /files/:bucket/*path
func (h *Handlers) DownloadSignedFile(c *gin.Context) {
	bucket := c.Param("bucket")
	path := strings.TrimPrefix(c.Param("path"), "/")

	data, err := h.deps.Files.ReadSigned(c.Request.Context(), bucket, path, c.Query("expires"), c.Query("signature"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	contentType := "application/octet-stream"
	if strings.HasSuffix(path, ".pdf") {
		contentType = "application/pdf"
	}
	c.Data(http.StatusOK, contentType, data)
}
