package repository

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/garyjia/invoice-service/internal/domain/apperror"
	"github.com/garyjia/invoice-service/internal/domain/entity"
	"github.com/garyjia/invoice-service/internal/infrastructure/persistence/sqlstore"
	"github.com/garyjia/invoice-service/migrations"
	"github.com/garyjia/invoice-service/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *sqlstore.DB {
	t.Helper()
	store, _ := newTestDatabase(t)
	return store
}

func newTestDatabase(t *testing.T) (*sqlstore.DB, *database.DB) {
	t.Helper()
	logger := zap.NewNop()

	raw, err := database.New(database.Config{
		Driver:          "sqlite3",
		Path:            filepath.Join(t.TempDir(), "repo.db"),
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })

	_, err = database.NewMigrator(raw, logger).RunMigrations(migrations.FS)
	require.NoError(t, err)

	return sqlstore.New(raw, logger), raw
}

func sampleInvoice(id, userID string, created time.Time) *entity.Invoice {
	tax := 8.0
	return &entity.Invoice{
		ID:           id,
		UserID:       userID,
		Amount:       2268,
		Currency:     "usd",
		Customer:     "Acme & Co.",
		Status:       entity.StatusPending,
		Items:        []entity.LineItem{{Description: "Consulting", Quantity: 2, Rate: 10.5}},
		TaxRate:      &tax,
		Notes:        "Thanks",
		ClientEmail:  "billing@acme.test",
		DueDate:      "2024-04-08",
		TemplateKind: entity.TemplateSimple,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
}

func TestInvoiceRepository_CreateGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewInvoiceRepository(newTestStore(t), zap.NewNop())
	created := time.Date(2024, 3, 9, 15, 4, 5, 0, time.UTC)

	inv := sampleInvoice("inv-1", "user-1", created)
	require.NoError(t, repo.Create(ctx, inv))

	got, err := repo.GetByID(ctx, "inv-1", "user-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, inv.Items, got.Items)
	require.NotNil(t, got.TaxRate)
	assert.Equal(t, 8.0, *got.TaxRate)
	assert.Equal(t, int64(2268), got.Amount)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Equal(t, "2024-04-08", got.DueDate)
}

func TestInvoiceRepository_ItemlessInvoiceKeepsNulls(t *testing.T) {
	ctx := context.Background()
	repo := NewInvoiceRepository(newTestStore(t), zap.NewNop())

	inv := sampleInvoice("inv-1", "user-1", time.Now().UTC())
	inv.Items = nil
	inv.TaxRate = nil
	require.NoError(t, repo.Create(ctx, inv))

	got, err := repo.GetByID(ctx, "inv-1", "user-1")
	require.NoError(t, err)
	assert.Nil(t, got.Items)
	assert.Nil(t, got.TaxRate)
}

func TestInvoiceRepository_OwnerScoping(t *testing.T) {
	ctx := context.Background()
	repo := NewInvoiceRepository(newTestStore(t), zap.NewNop())
	inv := sampleInvoice("inv-1", "user-1", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, inv))

	got, err := repo.GetByID(ctx, "inv-1", "user-2")
	require.NoError(t, err)
	assert.Nil(t, got)

	inv.UserID = "user-2"
	err = repo.Update(ctx, inv)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestInvoiceRepository_UpdateLeavesStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewInvoiceRepository(newTestStore(t), zap.NewNop())
	inv := sampleInvoice("inv-1", "user-1", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, inv))

	inv.Items = nil
	inv.TaxRate = nil
	inv.Amount = 5000
	inv.Status = entity.StatusPaid
	require.NoError(t, repo.Update(ctx, inv))

	got, err := repo.GetByID(ctx, "inv-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), got.Amount)
	assert.Equal(t, entity.StatusPending, got.Status)
	assert.Nil(t, got.Items)
	assert.Nil(t, got.TaxRate)
}

func TestInvoiceRepository_UpdateStatusCompareAndSet(t *testing.T) {
	ctx := context.Background()
	repo := NewInvoiceRepository(newTestStore(t), zap.NewNop())
	inv := sampleInvoice("inv-1", "user-1", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, inv))

	paid := *inv
	paid.Status = entity.StatusPaid
	swapped, err := repo.UpdateStatus(ctx, &paid, entity.StatusPending)
	require.NoError(t, err)
	assert.True(t, swapped)

	// a second writer that also read pending loses
	voided := *inv
	voided.Status = entity.StatusVoid
	swapped, err = repo.UpdateStatus(ctx, &voided, entity.StatusPending)
	require.NoError(t, err)
	assert.False(t, swapped)

	other := paid
	other.UserID = "user-2"
	swapped, err = repo.UpdateStatus(ctx, &other, entity.StatusPaid)
	require.NoError(t, err)
	assert.False(t, swapped)

	got, err := repo.GetByID(ctx, "inv-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPaid, got.Status)
}

func TestInvoiceRepository_StalePatchKeepsPayment(t *testing.T) {
	ctx := context.Background()
	repo := NewInvoiceRepository(newTestStore(t), zap.NewNop())
	require.NoError(t, repo.Create(ctx, sampleInvoice("inv-1", "user-1", time.Now().UTC())))

	stale, err := repo.GetByID(ctx, "inv-1", "user-1")
	require.NoError(t, err)
	require.Equal(t, entity.StatusPending, stale.Status)

	paid := stale.Clone()
	paid.Status = entity.StatusPaid
	swapped, err := repo.UpdateStatus(ctx, paid, entity.StatusPending)
	require.NoError(t, err)
	require.True(t, swapped)

	stale.Notes = "Net 30"
	require.NoError(t, repo.Update(ctx, stale))

	got, err := repo.GetByID(ctx, "inv-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPaid, got.Status)
	assert.Equal(t, "Net 30", got.Notes)
}

func TestRepositories_ClosedDatabaseIsStorageUnavailable(t *testing.T) {
	ctx := context.Background()
	store, raw := newTestDatabase(t)
	invoices := NewInvoiceRepository(store, zap.NewNop())
	templates := NewTemplateRepository(store, zap.NewNop())
	profiles := NewProfileRepository(store, zap.NewNop())
	wallets := NewWalletRepository(store, zap.NewNop())
	require.NoError(t, raw.Close())

	_, err := invoices.GetByID(ctx, "inv-1", "user-1")
	assert.Equal(t, apperror.KindStorageUnavailable, apperror.KindOf(err))

	_, err = invoices.List(ctx, "user-1", entity.InvoiceFilter{})
	assert.Equal(t, apperror.KindStorageUnavailable, apperror.KindOf(err))

	_, err = templates.List(ctx, "user-1")
	assert.Equal(t, apperror.KindStorageUnavailable, apperror.KindOf(err))

	_, err = profiles.Get(ctx, "user-1")
	assert.Equal(t, apperror.KindStorageUnavailable, apperror.KindOf(err))

	err = wallets.Credit(ctx, "user-1", "usd", 100)
	assert.Equal(t, apperror.KindStorageUnavailable, apperror.KindOf(err))

	err = store.WithTransaction(ctx, func(ctx context.Context) error { return nil })
	assert.Equal(t, apperror.KindStorageUnavailable, apperror.KindOf(err))
}

func TestInvoiceRepository_ListFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	repo := NewInvoiceRepository(newTestStore(t), zap.NewNop())
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		inv := sampleInvoice(id, "user-1", base.Add(time.Duration(i)*time.Hour))
		if id == "b" {
			inv.Status = entity.StatusPaid
			inv.Customer = "Globex"
		}
		require.NoError(t, repo.Create(ctx, inv))
	}
	require.NoError(t, repo.Create(ctx, sampleInvoice("other", "user-2", base)))

	all, err := repo.List(ctx, "user-1", entity.InvoiceFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID)
	assert.Equal(t, "a", all[2].ID)

	paid, err := repo.List(ctx, "user-1", entity.InvoiceFilter{Status: entity.StatusPaid})
	require.NoError(t, err)
	require.Len(t, paid, 1)
	assert.Equal(t, "b", paid[0].ID)

	byCustomer, err := repo.List(ctx, "user-1", entity.InvoiceFilter{Customer: "acme"})
	require.NoError(t, err)
	assert.Len(t, byCustomer, 2)

	page, err := repo.List(ctx, "user-1", entity.InvoiceFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "b", page[0].ID)
}

func TestTemplateRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewTemplateRepository(newTestStore(t), zap.NewNop())
	now := time.Now().UTC()
	tax := 20.0

	tpl := &entity.Template{
		ID: "tpl-1", UserID: "user-1", Name: "Monthly retainer", Kind: entity.TemplateDetailed,
		Currency: "gbp", TaxRate: &tax,
		Items:     []entity.LineItem{{Description: "Retainer", Quantity: 1, Rate: 1500}},
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repo.Create(ctx, tpl))

	got, err := repo.GetByID(ctx, "tpl-1", "user-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, tpl.Items, got.Items)

	tpl.Name = "Quarterly retainer"
	require.NoError(t, repo.Update(ctx, tpl))

	list, err := repo.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Quarterly retainer", list[0].Name)

	require.NoError(t, repo.Delete(ctx, "tpl-1", "user-1"))
	err = repo.Delete(ctx, "tpl-1", "user-1")
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestProfileRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository(newTestStore(t), zap.NewNop())

	missing, err := repo.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	name := "Initech"
	require.NoError(t, repo.Upsert(ctx, &entity.Profile{UserID: "user-1", Name: &name, Email: "a@initech.test"}))
	require.NoError(t, repo.Upsert(ctx, &entity.Profile{UserID: "user-1", Email: "b@initech.test"}))

	got, err := repo.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, got.Name)
	assert.Equal(t, "b@initech.test", got.Email)
}

func TestWalletRepository_ConcurrentCredits(t *testing.T) {
	ctx := context.Background()
	repo := NewWalletRepository(newTestStore(t), zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.Credit(ctx, "user-1", "USD", 250))
		}()
	}
	wg.Wait()
	require.NoError(t, repo.Credit(ctx, "user-1", "eur", 100))

	wallets, err := repo.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, wallets, 2)
	assert.Equal(t, "eur", wallets[0].Currency)
	assert.Equal(t, int64(100), wallets[0].Balance)
	assert.Equal(t, "usd", wallets[1].Currency)
	assert.Equal(t, int64(2500), wallets[1].Balance)
}
