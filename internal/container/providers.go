package container

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/garyjia/invoice-service/internal/application/port"
	"github.com/garyjia/invoice-service/internal/application/service"
	"github.com/garyjia/invoice-service/internal/artifact"
	"github.com/garyjia/invoice-service/internal/document"
	"github.com/garyjia/invoice-service/internal/domain/invoice"
	"github.com/garyjia/invoice-service/internal/infrastructure/auth"
	infraLark "github.com/garyjia/invoice-service/internal/infrastructure/external/lark"
	"github.com/garyjia/invoice-service/internal/infrastructure/external/mail"
	"github.com/garyjia/invoice-service/internal/infrastructure/persistence/repository"
	"github.com/garyjia/invoice-service/internal/infrastructure/persistence/sqlstore"
	"github.com/garyjia/invoice-service/internal/infrastructure/storage"
	"github.com/garyjia/invoice-service/migrations"
	"github.com/garyjia/invoice-service/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB    *database.DB
	Store *sqlstore.DB
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Invoice  port.InvoiceRepository
	Template port.TemplateRepository
	Profile  port.ProfileRepository
	Wallet   port.WalletRepository
}

// StorageBundle holds storage-related components.
// Local is nil when objects live in S3.
type StorageBundle struct {
	Store port.BlobStore
	Local *storage.LocalBlobStore
}

// ExternalBundle holds clients for systems outside the service.
type ExternalBundle struct {
	Mailer   port.Mailer
	Verifier *auth.HMACTokenVerifier
}

// DocumentBundle holds the renderer, previewer and artifact cache.
type DocumentBundle struct {
	Renderer  *document.Renderer
	Previewer *document.Previewer
	Cache     *artifact.Cache
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Invoice      service.InvoiceService
	Document     service.DocumentService
	Notification service.NotificationService
	Template     service.TemplateService
	Account      service.AccountService
	Export       service.ExportService
}

// ServiceDeps holds everything ProvideServices wires together.
type ServiceDeps struct {
	Repos     *RepositoryBundle
	TxManager port.TransactionManager
	Documents *DocumentBundle
	Mailer    port.Mailer
	Logger    *zap.Logger
}

// ProvideDatabase opens the database and applies pending migrations.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Driver:          cfg.Driver,
		Path:            cfg.Path,
		DSN:             cfg.DSN,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if _, err := database.NewMigrator(db, logger).RunMigrations(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		DB:    db,
		Store: sqlstore.New(db, logger),
	}, nil
}

// ProvideRepositories creates all repositories on top of the row store.
func ProvideRepositories(store *sqlstore.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if store == nil {
		return nil, fmt.Errorf("database store is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Invoice:  repository.NewInvoiceRepository(store, logger),
		Template: repository.NewTemplateRepository(store, logger),
		Profile:  repository.NewProfileRepository(store, logger),
		Wallet:   repository.NewWalletRepository(store, logger),
	}, nil
}

// ProvideStorage creates the blob store selected by cfg.Driver.
func ProvideStorage(cfg *StorageConfig, logger *zap.Logger) (*StorageBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("storage config is required")
	}

	bundle := &StorageBundle{}
	switch cfg.Driver {
	case "local":
		signer := storage.NewURLSigner(cfg.SigningSecret, cfg.PublicBaseURL)
		bundle.Local = storage.NewLocalBlobStore(cfg.BaseDir, signer, logger)
		bundle.Store = bundle.Local
	case "s3":
		s3Store, err := storage.NewS3BlobStore(storage.S3Config{
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			ForcePathStyle:  cfg.S3ForcePathStyle,
		}, logger)
		if err != nil {
			return nil, err
		}
		bundle.Store = s3Store
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}

	return bundle, nil
}

// ProvideExternalClients creates the mailer and the bearer token verifier.
// With mail disabled, messages are written to the log instead of sent.
func ProvideExternalClients(cfg *ExternalConfig, logger *zap.Logger) (*ExternalBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("external config is required")
	}

	var mailer port.Mailer
	if cfg.MailEnabled {
		client := infraLark.NewSDKClient(infraLark.Config{
			AppID:      cfg.LarkAppID,
			AppSecret:  cfg.LarkAppSecret,
			APITimeout: cfg.LarkAPITimeout,
		})
		mailer = infraLark.NewMailer(client.Im.Message, cfg.SenderName, logger)
	} else {
		mailer = mail.NewLogMailer(logger)
	}

	return &ExternalBundle{
		Mailer:   mailer,
		Verifier: auth.NewHMACTokenVerifier(cfg.TokenSecret, logger),
	}, nil
}

// ProvideRegistry creates the metrics registry shared by the cache and the HTTP server.
func ProvideRegistry(runtimeCollectors bool) *prometheus.Registry {
	registry := prometheus.NewRegistry()
	if runtimeCollectors {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return registry
}

// ProvideDocuments creates the PDF renderer, previewer and artifact cache.
func ProvideDocuments(store port.BlobStore, bucket string, registry prometheus.Registerer, logger *zap.Logger) (*DocumentBundle, error) {
	if store == nil {
		return nil, fmt.Errorf("blob store is required")
	}

	renderer := document.NewRenderer(logger)
	return &DocumentBundle{
		Renderer:  renderer,
		Previewer: document.NewPreviewer(),
		Cache:     artifact.NewCache(store, renderer, bucket, artifact.NewMetrics(registry), logger),
	}, nil
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil || deps.Repos == nil || deps.Documents == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Mailer == nil {
		return nil, fmt.Errorf("mailer is required")
	}

	logger := &zapLoggerAdapter{logger: deps.Logger}
	repos := deps.Repos

	invoices := service.NewInvoiceService(
		repos.Invoice,
		repos.Template,
		repos.Wallet,
		deps.TxManager,
		invoice.NewReconciler(nil),
		logger,
	)
	documents := service.NewDocumentService(
		invoices,
		repos.Profile,
		deps.Documents.Cache,
		deps.Documents.Previewer,
		logger,
	)

	return &ServiceBundle{
		Invoice:      invoices,
		Document:     documents,
		Notification: service.NewNotificationService(invoices, documents, repos.Profile, deps.Mailer, logger),
		Template:     service.NewTemplateService(repos.Template, logger),
		Account:      service.NewAccountService(repos.Profile, repos.Wallet, logger),
		Export:       service.NewExportService(invoices, logger),
	}, nil
}
