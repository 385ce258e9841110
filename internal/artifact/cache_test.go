package artifact

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/invoice-service/internal/application/port"
	"github.com/garyjia/invoice-service/internal/domain/apperror"
	"github.com/garyjia/invoice-service/internal/domain/entity"
)

// memoryStore is an in-memory BlobStore
type memoryStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	puts     int32
	buckets  map[string]bool
	ListFunc func(bucket, prefix, search string) ([]port.BlobObject, error)
	PutErr   error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string][]byte), buckets: make(map[string]bool)}
}

func (s *memoryStore) Put(ctx context.Context, bucket, path string, data []byte, _ string, _ bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.PutErr != nil {
		return s.PutErr
	}
	atomic.AddInt32(&s.puts, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[bucket+"/"+path] = append([]byte(nil), data...)
	return nil
}

func (s *memoryStore) Get(_ context.Context, bucket, path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[bucket+"/"+path]
	if !ok {
		return nil, apperror.New(apperror.KindNotFound, "object not found")
	}
	return data, nil
}

func (s *memoryStore) List(_ context.Context, bucket, prefix, search string) ([]port.BlobObject, error) {
	if s.ListFunc != nil {
		return s.ListFunc(bucket, prefix, search)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []port.BlobObject
	dir := bucket + "/" + prefix + "/"
	for k, v := range s.objects {
		if !strings.HasPrefix(k, dir) {
			continue
		}
		name := strings.TrimPrefix(k, dir)
		if strings.HasPrefix(name, search) {
			out = append(out, port.BlobObject{Name: name, Path: strings.TrimPrefix(k, bucket+"/"), Size: int64(len(v))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memoryStore) CreateSignedURL(_ context.Context, bucket, path string, ttl time.Duration) (string, error) {
	return "https://files.test/" + bucket + "/" + path + "?ttl=" + ttl.String(), nil
}

func (s *memoryStore) CreateBucketIfMissing(_ context.Context, bucket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buckets[bucket] = true
	return nil
}

// countingRenderer returns the customer name as the document body
type countingRenderer struct {
	calls int32
	gate  chan struct{}
	err   error
}

func (r *countingRenderer) Render(inv *entity.Invoice, _ entity.Branding) ([]byte, error) {
	atomic.AddInt32(&r.calls, 1)
	if r.gate != nil {
		<-r.gate
	}
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF " + inv.Customer), nil
}

func testInvoice() *entity.Invoice {
	return &entity.Invoice{
		ID:        "3f2b8c1a-9d4e-4f00-8000-000000000001",
		UserID:    "user-1",
		Customer:  "Acme",
		Amount:    2310,
		Currency:  "usd",
		Status:    entity.StatusPending,
		CreatedAt: time.Date(2024, 3, 9, 15, 4, 5, 0, time.UTC),
	}
}

func counterValue(t *testing.T, reg *prometheus.Registry, name, result string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if result == "" {
				return m.GetCounter().GetValue()
			}
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "result" && lp.GetValue() == result {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func newTestCache() (*Cache, *memoryStore, *countingRenderer, *prometheus.Registry) {
	store := newMemoryStore()
	renderer := &countingRenderer{}
	reg := prometheus.NewRegistry()
	return NewCache(store, renderer, "", NewMetrics(reg), nil), store, renderer, reg
}

func TestGetOrRender_RendersOnceThenHits(t *testing.T) {
	cache, store, renderer, reg := newTestCache()
	ctx := context.Background()
	inv := testInvoice()

	first, err := cache.GetOrRender(ctx, inv, entity.Branding{}, true)
	require.NoError(t, err)
	assert.True(t, first.Rendered)
	assert.Equal(t, []byte("%PDF Acme"), first.Data)
	assert.Equal(t, StorageKey(inv), first.Key)

	second, err := cache.GetOrRender(ctx, inv, entity.Branding{}, true)
	require.NoError(t, err)
	assert.False(t, second.Rendered)
	assert.Equal(t, first.Data, second.Data)

	assert.Equal(t, int32(1), atomic.LoadInt32(&renderer.calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&store.puts))
	assert.Equal(t, 1.0, counterValue(t, reg, "invoice_artifact_lookups_total", "miss"))
	assert.Equal(t, 1.0, counterValue(t, reg, "invoice_artifact_lookups_total", "hit"))
}

func TestGetOrRender_HitWithoutFetchSkipsDownload(t *testing.T) {
	cache, _, _, _ := newTestCache()
	ctx := context.Background()

	_, err := cache.GetOrRender(ctx, testInvoice(), entity.Branding{}, false)
	require.NoError(t, err)

	hit, err := cache.GetOrRender(ctx, testInvoice(), entity.Branding{}, false)
	require.NoError(t, err)
	assert.Nil(t, hit.Data)
	assert.Equal(t, StorageKey(testInvoice()), hit.Key)
}

func TestGetOrRender_RequiresExactNameMatch(t *testing.T) {
	cache, store, renderer, _ := newTestCache()
	inv := testInvoice()
	store.objects[entity.DocumentBucket+"/user-1/old-"+FileName(inv)] = []byte("other")

	_, err := cache.GetOrRender(context.Background(), inv, entity.Branding{}, false)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&renderer.calls))
}

// Edits after the first render do not change the stored PDF while the key stays the same.
func TestGetOrRender_StaleArtifactIsServed(t *testing.T) {
	cache, _, renderer, _ := newTestCache()
	ctx := context.Background()
	inv := testInvoice()

	_, err := cache.GetOrRender(ctx, inv, entity.Branding{}, true)
	require.NoError(t, err)

	edited := inv.Clone()
	edited.Amount = 9999
	edited.Notes = "updated terms"

	got, err := cache.GetOrRender(ctx, edited, entity.Branding{}, true)
	require.NoError(t, err)
	assert.False(t, got.Rendered)
	assert.Equal(t, int32(1), atomic.LoadInt32(&renderer.calls))
}

func TestGetOrRender_CoalescesConcurrentCalls(t *testing.T) {
	cache, store, renderer, _ := newTestCache()
	renderer.gate = make(chan struct{})
	inv := testInvoice()

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.GetOrRender(context.Background(), inv, entity.Branding{}, true)
			errs <- err
		}()
	}

	require.Eventually(t, func() bool { return atomic.LoadInt32(&renderer.calls) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(renderer.gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	// late callers that missed the flight find the stored object instead
	assert.Equal(t, int32(1), atomic.LoadInt32(&renderer.calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&store.puts))
}

func TestGetOrRender_CancelledCallerDoesNotFailOthers(t *testing.T) {
	cache, store, renderer, _ := newTestCache()
	renderer.gate = make(chan struct{})
	inv := testInvoice()

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := cache.GetOrRender(firstCtx, inv, entity.Branding{}, true)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&renderer.calls) == 1 }, time.Second, 5*time.Millisecond)

	secondErr := make(chan error, 1)
	var second *Artifact
	go func() {
		var err error
		second, err = cache.GetOrRender(context.Background(), inv, entity.Branding{}, true)
		secondErr <- err
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(renderer.gate)
	require.NoError(t, <-secondErr)
	assert.Equal(t, []byte("%PDF Acme"), second.Data)
	assert.Equal(t, int32(1), atomic.LoadInt32(&renderer.calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&store.puts))
}

func TestGetOrRender_RenderFailure(t *testing.T) {
	cache, store, renderer, reg := newTestCache()
	renderer.err = apperror.New(apperror.KindRenderFailed, "boom")

	_, err := cache.GetOrRender(context.Background(), testInvoice(), entity.Branding{}, true)
	assert.Equal(t, apperror.KindRenderFailed, apperror.KindOf(err))
	assert.Zero(t, atomic.LoadInt32(&store.puts))
	assert.Equal(t, 1.0, counterValue(t, reg, "invoice_artifact_render_failures_total", ""))
}

func TestGetOrRender_StorageErrors(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		cache, store, _, _ := newTestCache()
		store.ListFunc = func(string, string, string) ([]port.BlobObject, error) {
			return nil, errors.New("connection refused")
		}

		_, err := cache.GetOrRender(context.Background(), testInvoice(), entity.Branding{}, true)
		assert.Equal(t, apperror.KindStorageUnavailable, apperror.KindOf(err))
	})

	t.Run("put", func(t *testing.T) {
		cache, store, _, _ := newTestCache()
		store.PutErr = errors.New("disk full")

		_, err := cache.GetOrRender(context.Background(), testInvoice(), entity.Branding{}, true)
		assert.Equal(t, apperror.KindStorageUnavailable, apperror.KindOf(err))
	})
}

func TestCreateShareLink(t *testing.T) {
	cache, _, renderer, _ := newTestCache()
	inv := testInvoice()

	link, err := cache.CreateShareLink(context.Background(), inv, entity.Branding{})
	require.NoError(t, err)

	assert.Equal(t, int64(604800), link.ExpiresIn)
	assert.Equal(t, "https://files.test/invoices/"+StorageKey(inv)+"?ttl=168h0m0s", link.URL)
	assert.Equal(t, int32(1), atomic.LoadInt32(&renderer.calls))
}

func TestEnsureBucket(t *testing.T) {
	cache, store, _, _ := newTestCache()

	require.NoError(t, cache.EnsureBucket(context.Background()))
	require.NoError(t, cache.EnsureBucket(context.Background()))
	assert.True(t, store.buckets[entity.DocumentBucket])
}
