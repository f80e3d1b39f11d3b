package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"cpa-academy/internal/config"
	"cpa-academy/internal/domain"
	"cpa-academy/internal/logger"
	"cpa-academy/internal/metrics"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

const presignCacheSize = 1024

// objectAPI is the part of *minio.Client the object store uses.
type objectAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
}

// ObjectStore keeps blobs in an S3-compatible bucket and delivers them as
// presigned URLs. When the SDK presigner fails, the fallback signer is tried
// once before giving up.
type ObjectStore struct {
	client   objectAPI
	bucket   string
	location string
	ttl      time.Duration
	primary  URLSigner
	fallback URLSigner
	urls     *expirable.LRU[string, string]
}

// NewObjectStore connects to the bucket described by cfg, creating it when missing.
func NewObjectStore(ctx context.Context, cfg config.S3Config) (*ObjectStore, error) {
	endpoint := strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://"), "/")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
		logger.Get().Info("Created object storage bucket", zap.String("bucket", cfg.Bucket))
	}

	fallback, err := newManualSigner(endpoint, cfg.UseSSL, cfg.AccessKey, cfg.SecretKey, cfg.Region)
	if err != nil {
		return nil, err
	}

	return newObjectStore(client, cfg, &presignSigner{client: client}, fallback), nil
}

func newObjectStore(client objectAPI, cfg config.S3Config, primary, fallback URLSigner) *ObjectStore {
	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	s := &ObjectStore{
		client:   client,
		bucket:   cfg.Bucket,
		location: strings.Trim(cfg.Location, "/"),
		ttl:      ttl,
		primary:  primary,
		fallback: fallback,
	}
	// Cached URLs are handed out for at most half their lifetime.
	if ttl/2 > 0 {
		s.urls = expirable.NewLRU[string, string](presignCacheSize, nil, ttl/2)
	}
	return s
}

func (s *ObjectStore) Name() string {
	return "s3"
}

func (s *ObjectStore) objectName(key string) string {
	key = strings.TrimPrefix(key, "/")
	if s.location == "" {
		return key
	}
	return path.Join(s.location, key)
}

func (s *ObjectStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, s.bucket, s.objectName(key), body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	return nil
}

func (s *ObjectStore) Delete(ctx context.Context, key string) error {
	object := s.objectName(key)
	if err := s.client.RemoveObject(ctx, s.bucket, object, minio.RemoveObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return nil
		}
		return fmt.Errorf("failed to delete object: %w", err)
	}
	if s.urls != nil {
		for _, k := range s.urls.Keys() {
			if strings.HasPrefix(k, object+"\x00") {
				s.urls.Remove(k)
			}
		}
	}
	return nil
}

// Deliver confirms the object exists and returns a presigned GET URL that
// makes the browser save it under filename.
func (s *ObjectStore) Deliver(ctx context.Context, key, filename, contentType string) (*domain.Delivery, error) {
	object := s.objectName(key)

	info, err := s.client.StatObject(ctx, s.bucket, object, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, domain.ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to stat object: %w", err)
	}

	if filename == "" {
		filename = path.Base(object)
	}
	if contentType == "" {
		contentType = info.ContentType
	}

	signedURL, err := s.sign(ctx, object, filename)
	if err != nil {
		return nil, err
	}

	return &domain.Delivery{
		URL:         signedURL,
		Filename:    filename,
		ContentType: contentType,
		Size:        info.Size,
	}, nil
}

func (s *ObjectStore) sign(ctx context.Context, object, filename string) (string, error) {
	cacheKey := object + "\x00" + filename
	if s.urls != nil {
		if cached, ok := s.urls.Get(cacheKey); ok {
			return cached, nil
		}
	}

	params := url.Values{}
	params.Set("response-content-disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))

	signedURL, err := s.primary.SignGet(ctx, s.bucket, object, s.ttl, params)
	if err != nil {
		logger.Get().Warn("Presigned URL generation failed, trying fallback signer",
			zap.String("object", object),
			zap.Error(err),
		)
		var fallbackErr error
		signedURL, fallbackErr = s.fallback.SignGet(ctx, s.bucket, object, s.ttl, params)
		if fallbackErr != nil {
			metrics.SignerFallbacksTotal.WithLabelValues("failure").Inc()
			return "", fmt.Errorf("%w: presign: %v; fallback: %v", domain.ErrURLSigning, err, fallbackErr)
		}
		metrics.SignerFallbacksTotal.WithLabelValues("success").Inc()
	}

	if s.urls != nil {
		s.urls.Add(cacheKey, signedURL)
	}
	return signedURL, nil
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || (resp.StatusCode == http.StatusNotFound && resp.Code != "NoSuchBucket")
}
