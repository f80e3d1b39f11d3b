package storage

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/signer"
)

// URLSigner produces a time-limited GET URL for an object.
type URLSigner interface {
	SignGet(ctx context.Context, bucket, object string, ttl time.Duration, params url.Values) (string, error)
}

// presignSigner is the SDK's own presigner.
type presignSigner struct {
	client *minio.Client
}

func (s *presignSigner) SignGet(ctx context.Context, bucket, object string, ttl time.Duration, params url.Values) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, bucket, object, ttl, params)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// manualSigner builds a path-style request and signs it with SigV4 query
// parameters directly, using the configured region without a bucket-location
// lookup.
type manualSigner struct {
	endpoint  *url.URL
	accessKey string
	secretKey string
	region    string
}

func newManualSigner(endpoint string, secure bool, accessKey, secretKey, region string) (*manualSigner, error) {
	scheme := "http"
	if secure {
		scheme = "https"
	}
	host := strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://"), "/")
	if host == "" {
		return nil, fmt.Errorf("object storage endpoint is empty")
	}
	return &manualSigner{
		endpoint:  &url.URL{Scheme: scheme, Host: host},
		accessKey: accessKey,
		secretKey: secretKey,
		region:    region,
	}, nil
}

func (s *manualSigner) SignGet(ctx context.Context, bucket, object string, ttl time.Duration, params url.Values) (string, error) {
	if s.accessKey == "" || s.secretKey == "" {
		return "", fmt.Errorf("manual signer: credentials are not configured")
	}
	expires := int64(ttl / time.Second)
	if expires < 1 || expires > 7*24*3600 {
		return "", fmt.Errorf("manual signer: expiry %s out of range", ttl)
	}

	u := *s.endpoint
	u.Path = "/" + bucket + "/" + object
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("manual signer: %w", err)
	}
	signed := signer.PreSignV4(*req, s.accessKey, s.secretKey, "", s.region, expires)
	return signed.URL.String(), nil
}
