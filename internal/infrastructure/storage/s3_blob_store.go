package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/garyjia/invoice-service/internal/application/port"
	"github.com/garyjia/invoice-service/internal/domain/apperror"
	"go.uber.org/zap"
)

// S3Config holds connection settings for an S3-compatible object store
type S3Config struct {
	Region          string
	Endpoint        string // empty for AWS; set for MinIO and similar
	AccessKeyID     string // empty uses the default credential chain
	SecretAccessKey string
	ForcePathStyle  bool
}

// S3BlobStore implements port.BlobStore on S3
type S3BlobStore struct {
	client s3iface.S3API
	region string
	logger *zap.Logger
}

// NewS3BlobStore opens an AWS session from cfg
func NewS3BlobStore(cfg S3Config, logger *zap.Logger) (*S3BlobStore, error) {
	awsCfg := &aws.Config{
		Region:           aws.String(cfg.Region),
		S3ForcePathStyle: aws.Bool(cfg.ForcePathStyle),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	if cfg.AccessKeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}
	return NewS3BlobStoreWithClient(s3.New(sess), cfg.Region, logger), nil
}

// NewS3BlobStoreWithClient wraps an existing S3 client
func NewS3BlobStoreWithClient(client s3iface.S3API, region string, logger *zap.Logger) *S3BlobStore {
	return &S3BlobStore{
		client: client,
		region: region,
		logger: logger,
	}
}

// Put uploads data to bucket/key. Without upsert an existing object is an error.
func (s *S3BlobStore) Put(ctx context.Context, bucket, key string, data []byte, contentType string, upsert bool) error {
	if !upsert {
		_, err := s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err == nil {
			return apperror.New(apperror.KindValidationFailed, "object %s/%s already exists", bucket, key)
		}
		if !isNotFound(err) {
			return s.unavailable(err, "head object", bucket, key)
		}
	}

	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return s.unavailable(err, "put object", bucket, key)
	}

	s.logger.Debug("Object uploaded",
		zap.String("bucket", bucket),
		zap.String("key", key),
		zap.Int("size", len(data)))
	return nil
}

// Get downloads bucket/key
func (s *S3BlobStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.New(apperror.KindNotFound, "object %s/%s not found", bucket, key)
		}
		return nil, s.unavailable(err, "get object", bucket, key)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, s.unavailable(err, "read object body", bucket, key)
	}
	return data, nil
}

// List returns objects directly under prefix whose base name starts with search.
// The search is pushed into the S3 key prefix so only matching keys are paged.
func (s *S3BlobStore) List(ctx context.Context, bucket, prefix, search string) ([]port.BlobObject, error) {
	keyPrefix := strings.Trim(prefix, "/")
	if keyPrefix != "" {
		keyPrefix += "/"
	}

	var objects []port.BlobObject
	err := s.client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket:    aws.String(bucket),
		Prefix:    aws.String(keyPrefix + search),
		Delimiter: aws.String("/"),
	}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			key := aws.StringValue(obj.Key)
			name := path.Base(key)
			objects = append(objects, port.BlobObject{
				Name:      name,
				Path:      key,
				Size:      aws.Int64Value(obj.Size),
				UpdatedAt: aws.TimeValue(obj.LastModified).UTC(),
			})
		}
		return true
	})
	if err != nil {
		return nil, s.unavailable(err, "list objects", bucket, keyPrefix)
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Name < objects[j].Name })
	return objects, nil
}

// CreateSignedURL presigns a GET for bucket/key
func (s *S3BlobStore) CreateSignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	signed, err := req.Presign(ttl)
	if err != nil {
		return "", s.unavailable(err, "presign object", bucket, key)
	}
	return signed, nil
}

// CreateBucketIfMissing creates bucket, treating "already exists" as success
func (s *S3BlobStore) CreateBucketIfMissing(ctx context.Context, bucket string) error {
	input := &s3.CreateBucketInput{Bucket: aws.String(bucket)}
	if s.region != "" && s.region != "us-east-1" {
		input.CreateBucketConfiguration = &s3.CreateBucketConfiguration{
			LocationConstraint: aws.String(s.region),
		}
	}

	_, err := s.client.CreateBucketWithContext(ctx, input)
	if err == nil {
		s.logger.Info("Bucket created", zap.String("bucket", bucket))
		return nil
	}

	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeBucketAlreadyOwnedByYou, s3.ErrCodeBucketAlreadyExists:
			return nil
		}
	}
	return s.unavailable(err, "create bucket", bucket, "")
}

func (s *S3BlobStore) unavailable(err error, op, bucket, key string) error {
	s.logger.Error("S3 request failed",
		zap.String("op", op),
		zap.String("bucket", bucket),
		zap.String("key", key),
		zap.Error(err))
	return apperror.Wrap(apperror.KindStorageUnavailable, err, "failed to %s", op)
}

func isNotFound(err error) bool {
	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return false
	}
	switch aerr.Code() {
	case s3.ErrCodeNoSuchKey, "NotFound":
		return true
	}
	return false
}

var _ port.BlobStore = (*S3BlobStore)(nil)
