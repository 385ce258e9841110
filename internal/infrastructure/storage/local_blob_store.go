package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/garyjia/invoice-service/internal/application/port"
	"github.com/garyjia/invoice-service/internal/domain/apperror"
	"go.uber.org/zap"
)

// LocalBlobStore implements port.BlobStore on the local filesystem.
// Each bucket is a directory under baseDir; signed URLs point at the HTTP file route.
type LocalBlobStore struct {
	baseDir string
	signer  *URLSigner
	logger  *zap.Logger
	now     func() time.Time
}

// NewLocalBlobStore creates a filesystem-backed blob store
func NewLocalBlobStore(baseDir string, signer *URLSigner, logger *zap.Logger) *LocalBlobStore {
	return &LocalBlobStore{
		baseDir: baseDir,
		signer:  signer,
		logger:  logger,
		now:     time.Now,
	}
}

// Put writes data to bucket/path. Without upsert an existing object is an error.
func (s *LocalBlobStore) Put(ctx context.Context, bucket, path string, data []byte, contentType string, upsert bool) error {
	fullPath, err := s.resolve(bucket, path)
	if err != nil {
		return err
	}

	if !upsert {
		if _, err := os.Stat(fullPath); err == nil {
			return apperror.New(apperror.KindValidationFailed, "object %s/%s already exists", bucket, path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		s.logger.Error("Failed to create parent directories", zap.String("path", fullPath), zap.Error(err))
		return apperror.Wrap(apperror.KindStorageUnavailable, err, "failed to create directories")
	}

	// Write to a sibling temp file and rename so readers never observe a partial object
	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".upload-*")
	if err != nil {
		return apperror.Wrap(apperror.KindStorageUnavailable, err, "failed to create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		s.logger.Error("Failed to write object", zap.String("path", fullPath), zap.Error(err))
		return apperror.Wrap(apperror.KindStorageUnavailable, err, "failed to write object")
	}
	if err := tmp.Close(); err != nil {
		return apperror.Wrap(apperror.KindStorageUnavailable, err, "failed to write object")
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		s.logger.Error("Failed to move object into place", zap.String("path", fullPath), zap.Error(err))
		return apperror.Wrap(apperror.KindStorageUnavailable, err, "failed to write object")
	}

	s.logger.Debug("Object stored",
		zap.String("bucket", bucket),
		zap.String("path", path),
		zap.String("content_type", contentType),
		zap.Int("size", len(data)))
	return nil
}

// Get reads bucket/path
func (s *LocalBlobStore) Get(ctx context.Context, bucket, path string) ([]byte, error) {
	fullPath, err := s.resolve(bucket, path)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperror.New(apperror.KindNotFound, "object %s/%s not found", bucket, path)
	}
	if err != nil {
		s.logger.Error("Failed to read object", zap.String("path", fullPath), zap.Error(err))
		return nil, apperror.Wrap(apperror.KindStorageUnavailable, err, "failed to read object")
	}
	return content, nil
}

// ReadSigned returns an object after checking the signature issued by CreateSignedURL
func (s *LocalBlobStore) ReadSigned(ctx context.Context, bucket, path, expires, signature string) ([]byte, error) {
	if err := s.signer.Verify(bucket, path, expires, signature, s.now()); err != nil {
		return nil, apperror.Wrap(apperror.KindUnauthenticated, err, "download link is invalid or expired")
	}
	return s.Get(ctx, bucket, path)
}

// List returns files directly under prefix whose name contains search, sorted by name
func (s *LocalBlobStore) List(ctx context.Context, bucket, prefix, search string) ([]port.BlobObject, error) {
	dir, err := s.resolve(bucket, prefix)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("Failed to list objects", zap.String("dir", dir), zap.Error(err))
		return nil, apperror.Wrap(apperror.KindStorageUnavailable, err, "failed to list objects")
	}

	var objects []port.BlobObject
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".upload-") || !strings.HasPrefix(name, search) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		objects = append(objects, port.BlobObject{
			Name:      name,
			Path:      joinKey(prefix, name),
			Size:      info.Size(),
			UpdatedAt: info.ModTime().UTC(),
		})
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Name < objects[j].Name })
	return objects, nil
}

// CreateSignedURL returns a download URL valid for ttl
func (s *LocalBlobStore) CreateSignedURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error) {
	fullPath, err := s.resolve(bucket, path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(fullPath); err != nil {
		return "", apperror.New(apperror.KindNotFound, "object %s/%s not found", bucket, path)
	}
	return s.signer.SignedURL(bucket, path, s.now().Add(ttl)), nil
}

// CreateBucketIfMissing creates the bucket directory; an existing bucket is fine
func (s *LocalBlobStore) CreateBucketIfMissing(ctx context.Context, bucket string) error {
	dir, err := s.resolve(bucket, "")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		s.logger.Error("Failed to create bucket", zap.String("bucket", bucket), zap.Error(err))
		return apperror.Wrap(apperror.KindStorageUnavailable, err, "failed to create bucket %s", bucket)
	}
	return nil
}

// resolve maps bucket/path to a filesystem path, refusing anything outside baseDir/bucket
func (s *LocalBlobStore) resolve(bucket, path string) (string, error) {
	if bucket == "" || strings.ContainsAny(bucket, `/\`) || bucket == "." || bucket == ".." {
		return "", apperror.New(apperror.KindValidationFailed, "invalid bucket name: %q", bucket)
	}

	absBase, err := filepath.Abs(filepath.Join(s.baseDir, bucket))
	if err != nil {
		return "", fmt.Errorf("failed to resolve base path: %w", err)
	}
	absPath, err := filepath.Abs(filepath.Join(absBase, filepath.FromSlash(path)))
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	if absPath != absBase && !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", apperror.New(apperror.KindValidationFailed, "path escapes bucket: %s", path)
	}
	return absPath, nil
}

func joinKey(prefix, name string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

var _ port.BlobStore = (*LocalBlobStore)(nil)
