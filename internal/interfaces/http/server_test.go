package http

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/invoice-service/internal/application/service"
	"github.com/garyjia/invoice-service/internal/artifact"
	"github.com/garyjia/invoice-service/internal/domain/apperror"
	"github.com/garyjia/invoice-service/internal/domain/entity"
	"github.com/garyjia/invoice-service/internal/domain/invoice"
	"github.com/garyjia/invoice-service/internal/domain/money"
)

type mockLogger struct{}

func (mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (mockLogger) Error(msg string, keysAndValues ...interface{}) {}

type mockVerifier struct{}

func (mockVerifier) Verify(_ context.Context, token string) (string, error) {
	if token == "good-token" {
		return "user-1", nil
	}
	return "", apperror.New(apperror.KindUnauthenticated, "invalid token")
}

type mockInvoiceService struct {
	service.InvoiceService

	createFunc   func(ctx context.Context, userID string, in invoice.CreateInput, templateID string) (*entity.Invoice, error)
	getFunc      func(ctx context.Context, userID, id string) (*entity.Invoice, error)
	listFunc     func(ctx context.Context, userID string, filter entity.InvoiceFilter) ([]*entity.Invoice, error)
	patchFunc    func(ctx context.Context, userID, id string, p invoice.Patch) (*entity.Invoice, error)
	markPaidFunc func(ctx context.Context, userID, id string) (*entity.Invoice, error)
}

func (m *mockInvoiceService) Create(ctx context.Context, userID string, in invoice.CreateInput, templateID string) (*entity.Invoice, error) {
	return m.createFunc(ctx, userID, in, templateID)
}

func (m *mockInvoiceService) Get(ctx context.Context, userID, id string) (*entity.Invoice, error) {
	return m.getFunc(ctx, userID, id)
}

func (m *mockInvoiceService) List(ctx context.Context, userID string, filter entity.InvoiceFilter) ([]*entity.Invoice, error) {
	return m.listFunc(ctx, userID, filter)
}

func (m *mockInvoiceService) Patch(ctx context.Context, userID, id string, p invoice.Patch) (*entity.Invoice, error) {
	return m.patchFunc(ctx, userID, id, p)
}

func (m *mockInvoiceService) MarkPaid(ctx context.Context, userID, id string) (*entity.Invoice, error) {
	return m.markPaidFunc(ctx, userID, id)
}

func (m *mockInvoiceService) PreviewTotals(items []entity.LineItem, taxRate float64) (money.Totals, error) {
	return money.ComputeTotals(items, taxRate)
}

type mockDocumentService struct {
	service.DocumentService

	downloadFunc func(ctx context.Context, userID, id string) (*artifact.Artifact, error)
	shareFunc    func(ctx context.Context, userID, id string) (*artifact.ShareLink, error)
}

func (m *mockDocumentService) Download(ctx context.Context, userID, id string) (*artifact.Artifact, error) {
	return m.downloadFunc(ctx, userID, id)
}

func (m *mockDocumentService) Share(ctx context.Context, userID, id string) (*artifact.ShareLink, error) {
	return m.shareFunc(ctx, userID, id)
}

type mockFiles struct {
	data map[string][]byte
}

func (m *mockFiles) ReadSigned(_ context.Context, bucket, path, expires, signature string) ([]byte, error) {
	if signature != "valid" {
		return nil, apperror.New(apperror.KindUnauthenticated, "download link is invalid or expired")
	}
	data, ok := m.data[bucket+"/"+path]
	if !ok {
		return nil, apperror.New(apperror.KindNotFound, "object not found")
	}
	return data, nil
}

func newTestServer(deps Dependencies) *Server {
	if deps.Verifier == nil {
		deps.Verifier = mockVerifier{}
	}
	return NewServer(DefaultServerConfig(), deps, mockLogger{})
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer good-token")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *ErrorBody      `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(Dependencies{})

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode(t, rec).Success)
}

func TestHealthCheck_Unhealthy(t *testing.T) {
	s := newTestServer(Dependencies{Health: func(context.Context) error {
		return apperror.New(apperror.KindStorageUnavailable, "db down")
	}})

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestServer(Dependencies{Invoices: &mockInvoiceService{
		getFunc: func(_ context.Context, userID, id string) (*entity.Invoice, error) {
			return &entity.Invoice{ID: id, UserID: userID}, nil
		},
	}})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer good-token", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/invoices/inv-1", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			s.Router().ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Equal(t, "UNAUTHENTICATED", decode(t, rec).Error.Kind)
			}
		})
	}
}

func TestCreateInvoice(t *testing.T) {
	var gotInput invoice.CreateInput
	var gotTemplate string
	s := newTestServer(Dependencies{Invoices: &mockInvoiceService{
		createFunc: func(_ context.Context, userID string, in invoice.CreateInput, templateID string) (*entity.Invoice, error) {
			gotInput, gotTemplate = in, templateID
			return &entity.Invoice{ID: "inv-1", UserID: userID, Amount: 2310, Currency: in.Currency, Customer: in.Customer}, nil
		},
	}})

	rec := do(t, s, http.MethodPost, "/api/invoices", `{
		"currency": "usd",
		"customer": "Acme",
		"template_id": "tpl-1",
		"items": [{"description": "Consulting", "quantity": 2, "rate": 10.5}],
		"tax_rate": 10
	}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "tpl-1", gotTemplate)
	assert.Equal(t, []entity.LineItem{{Description: "Consulting", Quantity: 2, Rate: 10.5}}, gotInput.Items)
	require.NotNil(t, gotInput.TaxRate)
	assert.Equal(t, 10.0, *gotInput.TaxRate)

	var inv entity.Invoice
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &inv))
	assert.Equal(t, int64(2310), inv.Amount)
	assert.Equal(t, "user-1", inv.UserID)
}

func TestCreateInvoice_BindingErrors(t *testing.T) {
	s := newTestServer(Dependencies{Invoices: &mockInvoiceService{}})

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"customer":`},
		{"missing customer", `{"currency": "usd", "amount": 100}`},
		{"bad item", `{"customer": "Acme", "items": [{"description": "", "quantity": 1, "rate": 1}]}`},
		{"bad tax", `{"customer": "Acme", "amount": 100, "tax_rate": 101}`},
		{"bad email", `{"customer": "Acme", "amount": 100, "client_email": "nope"}`},
		{"bad date", `{"customer": "Acme", "amount": 100, "due_date": "01/04/2024"}`},
		{"bad kind", `{"customer": "Acme", "amount": 100, "template_kind": "fancy"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/invoices", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "VALIDATION_FAILED", decode(t, rec).Error.Kind)
		})
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{apperror.New(apperror.KindInvalidAmount, "amount must be greater than zero"), http.StatusUnprocessableEntity, "amount must be greater than zero"},
		{apperror.New(apperror.KindNotFound, "invoice x not found"), http.StatusNotFound, "invoice x not found"},
		{apperror.New(apperror.KindStorageUnavailable, "dial tcp 10.0.0.1:5432"), http.StatusServiceUnavailable, "storage unavailable"},
		{apperror.New(apperror.KindRenderFailed, "panic: index out of range"), http.StatusInternalServerError, "failed to render document"},
		{assert.AnError, http.StatusInternalServerError, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			s := newTestServer(Dependencies{Invoices: &mockInvoiceService{
				getFunc: func(context.Context, string, string) (*entity.Invoice, error) { return nil, tt.err },
			}})

			rec := do(t, s, http.MethodGet, "/api/invoices/inv-1", "")
			assert.Equal(t, tt.status, rec.Code)
			env := decode(t, rec)
			assert.False(t, env.Success)
			assert.Equal(t, tt.message, env.Error.Message)
		})
	}
}

func TestErrorMapping_RowStoreFailure(t *testing.T) {
	s := newTestServer(Dependencies{Invoices: &mockInvoiceService{
		getFunc: func(context.Context, string, string) (*entity.Invoice, error) {
			return nil, fmt.Errorf("get invoice: %w",
				apperror.Wrap(apperror.KindStorageUnavailable, sql.ErrConnDone, "failed to get invoice"))
		},
	}})

	rec := do(t, s, http.MethodGet, "/api/invoices/inv-1", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "STORAGE_UNAVAILABLE", env.Error.Kind)
	assert.Equal(t, "storage unavailable", env.Error.Message)
}

func TestPatchInvoice_EmptyItemsClear(t *testing.T) {
	var got invoice.Patch
	s := newTestServer(Dependencies{Invoices: &mockInvoiceService{
		patchFunc: func(_ context.Context, _, id string, p invoice.Patch) (*entity.Invoice, error) {
			got = p
			return &entity.Invoice{ID: id}, nil
		},
	}})

	rec := do(t, s, http.MethodPatch, "/api/invoices/inv-1", `{"items": [], "tax_rate": 8}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got.Items)
	assert.Empty(t, *got.Items)
	assert.Nil(t, got.Customer)

	rec = do(t, s, http.MethodPatch, "/api/invoices/inv-1", `{"notes": "updated"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, got.Items)
	assert.False(t, got.IsMoneyPatch())
}

func TestListInvoices(t *testing.T) {
	var got entity.InvoiceFilter
	s := newTestServer(Dependencies{Invoices: &mockInvoiceService{
		listFunc: func(_ context.Context, _ string, filter entity.InvoiceFilter) ([]*entity.Invoice, error) {
			got = filter
			return []*entity.Invoice{{ID: "inv-1"}}, nil
		},
	}})

	rec := do(t, s, http.MethodGet, "/api/invoices?status=paid&limit=10&offset=20", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, entity.InvoiceFilter{Status: "paid", Limit: 10, Offset: 20}, got)

	rec = do(t, s, http.MethodGet, "/api/invoices?status=archived", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPayInvoice(t *testing.T) {
	s := newTestServer(Dependencies{Invoices: &mockInvoiceService{
		markPaidFunc: func(_ context.Context, userID, id string) (*entity.Invoice, error) {
			return &entity.Invoice{ID: id, UserID: userID, Status: entity.StatusPaid}, nil
		},
	}})

	rec := do(t, s, http.MethodPost, "/api/invoices/inv-1/pay", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"paid"`)
}

func TestPreviewTotals(t *testing.T) {
	s := newTestServer(Dependencies{Invoices: &mockInvoiceService{}})

	rec := do(t, s, http.MethodPost, "/api/invoices/preview-totals",
		`{"items": [{"description": "a", "quantity": 2, "rate": 10.5}], "tax_rate": 10, "currency": "usd"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var totals TotalsResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &totals))
	assert.Equal(t, TotalsResponse{
		Subtotal: 2100, Tax: 210, Total: 2310,
		FormattedSubtotal: "$21.00", FormattedTax: "$2.10", FormattedTotal: "$23.10",
	}, totals)

	rec = do(t, s, http.MethodPost, "/api/invoices/preview-totals", `{"items": [], "tax_rate": 10}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestDownloadInvoicePDF(t *testing.T) {
	s := newTestServer(Dependencies{Documents: &mockDocumentService{
		downloadFunc: func(context.Context, string, string) (*artifact.Artifact, error) {
			return &artifact.Artifact{FileName: "invoice-acme-2024-03-09-3f2b8c1a.pdf", Data: []byte("%PDF-1.3")}, nil
		},
	}})

	rec := do(t, s, http.MethodGet, "/api/invoices/inv-1/pdf", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "invoice-acme-2024-03-09-3f2b8c1a.pdf")
	assert.Equal(t, "%PDF-1.3", rec.Body.String())
}

func TestShareInvoice(t *testing.T) {
	s := newTestServer(Dependencies{Documents: &mockDocumentService{
		shareFunc: func(context.Context, string, string) (*artifact.ShareLink, error) {
			return &artifact.ShareLink{URL: "https://files.test/x.pdf", ExpiresIn: 604800}, nil
		},
	}})

	rec := do(t, s, http.MethodPost, "/api/invoices/inv-1/share", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var link artifact.ShareLink
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &link))
	assert.Equal(t, int64(604800), link.ExpiresIn)
}

func TestDownloadSignedFile(t *testing.T) {
	s := newTestServer(Dependencies{Files: &mockFiles{data: map[string][]byte{
		"invoices/user-1/a.pdf": []byte("%PDF"),
	}}})

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := get("/files/invoices/user-1/a.pdf?expires=1&signature=valid")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))

	assert.Equal(t, http.StatusUnauthorized, get("/files/invoices/user-1/a.pdf?expires=1&signature=forged").Code)
	assert.Equal(t, http.StatusNotFound, get("/files/invoices/user-1/b.pdf?expires=1&signature=valid").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := newTestServer(Dependencies{Registry: reg})

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `invoice_http_request_duration_seconds_count{method="GET",route="/health",status="200"} 1`))
}
