package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/garyjia/invoice-service/internal/application/service"
	"github.com/garyjia/invoice-service/internal/infrastructure/persistence/sqlstore"
	httpiface "github.com/garyjia/invoice-service/internal/interfaces/http"
	"github.com/garyjia/invoice-service/pkg/database"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and torn down in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure - Data
	db           *database.DB
	store        *sqlstore.DB
	repositories *RepositoryBundle

	// Infrastructure - Storage
	storage *StorageBundle

	// Infrastructure - External
	external *ExternalBundle

	// Documents
	registry  *prometheus.Registry
	documents *DocumentBundle

	// Application
	services *ServiceBundle

	// Lifecycle
	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components.
// Components are initialized in dependency order:
// 1. Database, migrations and repositories
// 2. Blob storage
// 3. External clients (mailer, token verifier)
// 4. Renderer, previewer and artifact cache
// 5. Application services
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}

	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	// Step 1: Initialize database and repositories
	if err := c.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized", zap.String("driver", c.config.Database.Driver))

	// Step 2: Initialize storage
	if err := c.initStorage(); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.logger.Info("Storage initialized", zap.String("driver", c.config.Storage.Driver))

	// Step 3: Initialize external clients
	if err := c.initExternalClients(); err != nil {
		return fmt.Errorf("failed to initialize external clients: %w", err)
	}
	c.logger.Info("External clients initialized", zap.Bool("mail_enabled", c.config.External.MailEnabled))

	// Step 4: Initialize document rendering and the artifact cache
	if err := c.initDocuments(ctx); err != nil {
		return fmt.Errorf("failed to initialize documents: %w", err)
	}
	c.logger.Info("Document cache initialized", zap.String("bucket", c.documents.Cache.Bucket()))

	// Step 5: Initialize application services
	if err := c.initServices(); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.logger.Info("Application services initialized")

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	// Services, documents, clients and storage hold no resources of their own
	c.services = nil
	c.documents = nil
	c.external = nil
	c.storage = nil

	// Close database last (reverse of step 1)
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	mark := func(name string, health ComponentHealth) {
		status.Components[name] = health
		if !health.Healthy {
			status.Overall = false
		}
	}

	// Check database
	switch {
	case c.store == nil:
		mark("database", ComponentHealth{Healthy: false, Message: "not initialized"})
	default:
		if err := c.store.Ping(ctx); err != nil {
			mark("database", ComponentHealth{Healthy: false, Message: fmt.Sprintf("ping failed: %v", err)})
		} else {
			mark("database", ComponentHealth{Healthy: true})
		}
	}

	if c.storage != nil {
		mark("storage", ComponentHealth{Healthy: true, Message: c.config.Storage.Driver})
	} else {
		mark("storage", ComponentHealth{Healthy: false, Message: "not initialized"})
	}

	if c.services != nil {
		mark("services", ComponentHealth{Healthy: true})
	} else {
		mark("services", ComponentHealth{Healthy: false, Message: "not initialized"})
	}

	return status
}

// initDatabase initializes the database and all repositories using providers.
func (c *Container) initDatabase() error {
	dbBundle, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return err
	}

	c.db = dbBundle.DB
	c.store = dbBundle.Store

	repos, err := ProvideRepositories(c.store, c.logger)
	if err != nil {
		c.db.Close()
		return err
	}

	c.repositories = repos
	return nil
}

// initStorage initializes the blob store using providers.
func (c *Container) initStorage() error {
	storageBundle, err := ProvideStorage(&c.config.Storage, c.logger)
	if err != nil {
		return err
	}

	c.storage = storageBundle
	return nil
}

// initExternalClients initializes the mailer and token verifier using providers.
func (c *Container) initExternalClients() error {
	external, err := ProvideExternalClients(&c.config.External, c.logger)
	if err != nil {
		return err
	}

	c.external = external
	return nil
}

// initDocuments initializes the renderer and artifact cache, then makes sure
// the document bucket exists.
func (c *Container) initDocuments(ctx context.Context) error {
	c.registry = ProvideRegistry(c.config.RuntimeCollectors)

	documents, err := ProvideDocuments(c.storage.Store, c.config.Storage.Bucket, c.registry, c.logger)
	if err != nil {
		return err
	}

	if err := documents.Cache.EnsureBucket(ctx); err != nil {
		return err
	}

	c.documents = documents
	return nil
}

// initServices initializes all application services using providers.
func (c *Container) initServices() error {
	services, err := ProvideServices(&ServiceDeps{
		Repos:     c.repositories,
		TxManager: c.store,
		Documents: c.documents,
		Mailer:    c.external.Mailer,
		Logger:    c.logger,
	})
	if err != nil {
		return err
	}

	c.services = services
	return nil
}

// HTTPDependencies assembles what the HTTP server routes to.
func (c *Container) HTTPDependencies() httpiface.Dependencies {
	c.mu.RLock()
	defer c.mu.RUnlock()

	deps := httpiface.Dependencies{
		Invoices:      c.services.Invoice,
		Documents:     c.services.Document,
		Notifications: c.services.Notification,
		Templates:     c.services.Template,
		Accounts:      c.services.Account,
		Exports:       c.services.Export,
		Verifier:      c.external.Verifier,
		Health: func(ctx context.Context) error {
			if status := c.Health(ctx); !status.Overall {
				return fmt.Errorf("unhealthy components: %v", status.Components)
			}
			return nil
		},
		Registry: c.registry,
	}
	// A nil *LocalBlobStore must not become a non-nil interface
	if c.storage.Local != nil {
		deps.Files = c.storage.Local
	}
	return deps
}

// Getters for accessing container components

// Documents returns the renderer, previewer and artifact cache.
func (c *Container) Documents() *DocumentBundle {
	return c.documents
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Registry returns the metrics registry.
func (c *Container) Registry() *prometheus.Registry {
	return c.registry
}

// ServiceLogger adapts the container's zap logger to the narrow
// Info/Error interface used by services and the HTTP layer.
func (c *Container) ServiceLogger() service.Logger {
	return &zapLoggerAdapter{logger: c.logger}
}

// zapLoggerAdapter adapts zap.Logger to the service.Logger interface.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	fields := convertToZapFields(keysAndValues...)
	a.logger.Info(msg, fields...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	fields := convertToZapFields(keysAndValues...)
	a.logger.Error(msg, fields...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, isErr := keysAndValues[i+1].(error); isErr {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
