// Package artifact stores rendered invoice PDFs under deterministic keys and hands out share links.
package artifact

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/garyjia/invoice-service/internal/application/port"
	"github.com/garyjia/invoice-service/internal/domain/apperror"
	"github.com/garyjia/invoice-service/internal/domain/entity"
)

const (
	// ShareTTL is how long a share link stays valid
	ShareTTL = 7 * 24 * time.Hour

	pdfContentType = "application/pdf"
)

// Artifact is a stored invoice PDF. Data is nil when the caller asked only for the key.
type Artifact struct {
	Key      string
	FileName string
	Data     []byte
	Rendered bool
}

// ShareLink is a time-limited download URL
type ShareLink struct {
	URL       string `json:"url"`
	ExpiresIn int64  `json:"expires_in"`
}

// Cache renders each invoice at most once per storage key.
// Stored artifacts are never invalidated: edits made after the first render keep the old PDF.
type Cache struct {
	store    port.BlobStore
	renderer port.DocumentRenderer
	bucket   string
	metrics  *Metrics
	logger   *zap.Logger
	group    singleflight.Group
	now      func() time.Time
}

// NewCache creates a cache over store; metrics may be nil
func NewCache(store port.BlobStore, renderer port.DocumentRenderer, bucket string, metrics *Metrics, logger *zap.Logger) *Cache {
	if bucket == "" {
		bucket = entity.DocumentBucket
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		store:    store,
		renderer: renderer,
		bucket:   bucket,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Bucket returns the bucket artifacts are stored in
func (c *Cache) Bucket() string {
	return c.bucket
}

// EnsureBucket creates the artifact bucket when it does not exist yet
func (c *Cache) EnsureBucket(ctx context.Context) error {
	if err := c.store.CreateBucketIfMissing(ctx, c.bucket); err != nil {
		return apperror.Wrap(apperror.KindStorageUnavailable, err, "failed to ensure bucket %s", c.bucket)
	}
	return nil
}

// GetOrRender returns the stored artifact for inv, rendering and uploading it on a miss.
// On a hit the bytes are downloaded only when fetch is set.
func (c *Cache) GetOrRender(ctx context.Context, inv *entity.Invoice, branding entity.Branding, fetch bool) (*Artifact, error) {
	key := StorageKey(inv)
	flightKey := fmt.Sprintf("%s|%t", key, fetch)

	// the flight outlives any single caller, so it runs detached from ctx
	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(flightKey, func() (interface{}, error) {
		return c.getOrRender(flightCtx, inv, branding, key, fetch)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Debug("Coalesced artifact request", zap.String("key", key))
		}
		return res.Val.(*Artifact), nil
	}
}

func (c *Cache) getOrRender(ctx context.Context, inv *entity.Invoice, branding entity.Branding, key string, fetch bool) (*Artifact, error) {
	name := FileName(inv)

	found, err := c.exists(ctx, inv.UserID, name)
	if err != nil {
		return nil, err
	}

	if found {
		c.metrics.hit()
		artifact := &Artifact{Key: key, FileName: name}
		if !fetch {
			return artifact, nil
		}
		data, err := c.store.Get(ctx, c.bucket, key)
		if err != nil {
			return nil, wrapStorage(err, "failed to download %s", key)
		}
		artifact.Data = data
		return artifact, nil
	}

	c.metrics.miss()
	started := c.now()
	data, err := c.renderer.Render(inv, branding)
	c.metrics.observeRender(c.now().Sub(started), err)
	if err != nil {
		c.logger.Error("Failed to render invoice",
			zap.String("invoice_id", inv.ID),
			zap.Error(err))
		if apperror.KindOf(err) == "" {
			err = apperror.Wrap(apperror.KindRenderFailed, err, "failed to render invoice")
		}
		return nil, err
	}

	if err := c.store.Put(ctx, c.bucket, key, data, pdfContentType, true); err != nil {
		return nil, wrapStorage(err, "failed to upload %s", key)
	}

	c.logger.Info("Invoice artifact stored",
		zap.String("invoice_id", inv.ID),
		zap.String("key", key),
		zap.Int("bytes", len(data)))

	return &Artifact{Key: key, FileName: name, Data: data, Rendered: true}, nil
}

// exists looks for an exact object name match in the owner's folder
func (c *Cache) exists(ctx context.Context, owner, name string) (bool, error) {
	objects, err := c.store.List(ctx, c.bucket, owner, name)
	if err != nil {
		return false, wrapStorage(err, "failed to list %s/%s", c.bucket, owner)
	}
	for _, obj := range objects {
		if obj.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// CreateShareLink makes sure the artifact exists and signs a download URL for it
func (c *Cache) CreateShareLink(ctx context.Context, inv *entity.Invoice, branding entity.Branding) (*ShareLink, error) {
	artifact, err := c.GetOrRender(ctx, inv, branding, false)
	if err != nil {
		return nil, err
	}

	url, err := c.store.CreateSignedURL(ctx, c.bucket, artifact.Key, ShareTTL)
	if err != nil {
		return nil, wrapStorage(err, "failed to sign %s", artifact.Key)
	}

	return &ShareLink{URL: url, ExpiresIn: int64(ShareTTL / time.Second)}, nil
}

// wrapStorage keeps kinds assigned by the store and marks everything else unavailable
func wrapStorage(err error, format string, args ...interface{}) error {
	if apperror.KindOf(err) != "" {
		return err
	}
	return apperror.Wrap(apperror.KindStorageUnavailable, err, format, args...)
}
