package service

import (
	"context"
	"sync"

	"github.com/garyjia/invoice-service/internal/application/port"
	"github.com/garyjia/invoice-service/internal/artifact"
	"github.com/garyjia/invoice-service/internal/domain/entity"
)

type mockLogger struct{}

func (mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (mockLogger) Error(msg string, keysAndValues ...interface{}) {}

// mockInvoiceRepo keeps invoices in memory, scoped by owner
type mockInvoiceRepo struct {
	mu       sync.Mutex
	invoices      map[string]*entity.Invoice
	updates       int
	statusUpdates int

	// beforeStatusUpdate runs just ahead of the compare-and-set, holding the lock
	beforeStatusUpdate func(stored *entity.Invoice)
	listFunc           func(ctx context.Context, userID string, filter entity.InvoiceFilter) ([]*entity.Invoice, error)
}

func newMockInvoiceRepo() *mockInvoiceRepo {
	return &mockInvoiceRepo{invoices: make(map[string]*entity.Invoice)}
}

func (m *mockInvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invoices[inv.ID] = inv.Clone()
	return nil
}

func (m *mockInvoiceRepo) GetByID(ctx context.Context, id, userID string) (*entity.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok || inv.UserID != userID {
		return nil, nil
	}
	return inv.Clone(), nil
}

func (m *mockInvoiceRepo) Update(ctx context.Context, inv *entity.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	stored, ok := m.invoices[inv.ID]
	if !ok || stored.UserID != inv.UserID {
		return nil
	}
	next := inv.Clone()
	next.Status = stored.Status
	m.invoices[inv.ID] = next
	return nil
}

func (m *mockInvoiceRepo) UpdateStatus(ctx context.Context, inv *entity.Invoice, from string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.invoices[inv.ID]
	if !ok || stored.UserID != inv.UserID {
		return false, nil
	}
	if m.beforeStatusUpdate != nil {
		m.beforeStatusUpdate(stored)
	}
	if stored.Status != from {
		return false, nil
	}
	m.statusUpdates++
	stored.Status = inv.Status
	stored.UpdatedAt = inv.UpdatedAt
	return true, nil
}

func (m *mockInvoiceRepo) List(ctx context.Context, userID string, filter entity.InvoiceFilter) ([]*entity.Invoice, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, userID, filter)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Invoice
	for _, inv := range m.invoices {
		if inv.UserID == userID {
			out = append(out, inv.Clone())
		}
	}
	return out, nil
}

type mockTemplateRepo struct {
	templates  map[string]*entity.Template
	deleteFunc func(ctx context.Context, id, userID string) error
}

func newMockTemplateRepo() *mockTemplateRepo {
	return &mockTemplateRepo{templates: make(map[string]*entity.Template)}
}

func (m *mockTemplateRepo) Create(ctx context.Context, tpl *entity.Template) error {
	m.templates[tpl.ID] = tpl
	return nil
}

func (m *mockTemplateRepo) GetByID(ctx context.Context, id, userID string) (*entity.Template, error) {
	tpl, ok := m.templates[id]
	if !ok || tpl.UserID != userID {
		return nil, nil
	}
	return tpl, nil
}

func (m *mockTemplateRepo) Update(ctx context.Context, tpl *entity.Template) error {
	m.templates[tpl.ID] = tpl
	return nil
}

func (m *mockTemplateRepo) Delete(ctx context.Context, id, userID string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id, userID)
	}
	delete(m.templates, id)
	return nil
}

func (m *mockTemplateRepo) List(ctx context.Context, userID string) ([]*entity.Template, error) {
	var out []*entity.Template
	for _, tpl := range m.templates {
		if tpl.UserID == userID {
			out = append(out, tpl)
		}
	}
	return out, nil
}

type mockProfileRepo struct {
	profiles map[string]*entity.Profile
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{profiles: make(map[string]*entity.Profile)}
}

func (m *mockProfileRepo) Get(ctx context.Context, userID string) (*entity.Profile, error) {
	return m.profiles[userID], nil
}

func (m *mockProfileRepo) Upsert(ctx context.Context, profile *entity.Profile) error {
	m.profiles[profile.UserID] = profile
	return nil
}

type credit struct {
	userID   string
	currency string
	amount   int64
}

type mockWalletRepo struct {
	credits   []credit
	creditErr error
}

func (m *mockWalletRepo) Credit(ctx context.Context, userID, currency string, amount int64) error {
	if m.creditErr != nil {
		return m.creditErr
	}
	m.credits = append(m.credits, credit{userID, currency, amount})
	return nil
}

func (m *mockWalletRepo) List(ctx context.Context, userID string) ([]*entity.Wallet, error) {
	var out []*entity.Wallet
	for _, c := range m.credits {
		if c.userID == userID {
			out = append(out, &entity.Wallet{UserID: userID, Currency: c.currency, Balance: c.amount})
		}
	}
	return out, nil
}

type mockTxManager struct {
	calls int
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

type mockCache struct {
	getOrRenderFunc func(ctx context.Context, inv *entity.Invoice, branding entity.Branding, fetch bool) (*artifact.Artifact, error)
	shareFunc       func(ctx context.Context, inv *entity.Invoice, branding entity.Branding) (*artifact.ShareLink, error)
}

func (m *mockCache) GetOrRender(ctx context.Context, inv *entity.Invoice, branding entity.Branding, fetch bool) (*artifact.Artifact, error) {
	if m.getOrRenderFunc != nil {
		return m.getOrRenderFunc(ctx, inv, branding, fetch)
	}
	return &artifact.Artifact{Key: artifact.StorageKey(inv), Data: []byte("%PDF")}, nil
}

func (m *mockCache) CreateShareLink(ctx context.Context, inv *entity.Invoice, branding entity.Branding) (*artifact.ShareLink, error) {
	if m.shareFunc != nil {
		return m.shareFunc(ctx, inv, branding)
	}
	return &artifact.ShareLink{URL: "https://files.test/" + artifact.StorageKey(inv), ExpiresIn: 604800}, nil
}

type mockPreviewer struct {
	got []byte
}

func (m *mockPreviewer) PNG(pdf []byte) ([]byte, error) {
	m.got = pdf
	return []byte("png"), nil
}

type mockMailer struct {
	sent    []port.MailMessage
	sendErr error
}

func (m *mockMailer) Send(ctx context.Context, msg port.MailMessage) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, msg)
	return nil
}
