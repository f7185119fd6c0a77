package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DefaultObjectEndpoint is used when no storage endpoint is configured.
const DefaultObjectEndpoint = "s3.amazonaws.com"

// StaticCredentials are object-store keys supplied by the caller, e.g.
// from the keyring.
type StaticCredentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// ObjectStoreConfig controls how s3:// locators are fetched.
type ObjectStoreConfig struct {
	// Endpoint is host[:port] of an S3-compatible service.
	Endpoint string
	Region   string
	// Insecure disables TLS.
	Insecure bool
	// Credentials, when set, take precedence over the environment chain.
	Credentials *StaticCredentials
}

// ObjectStore reads objects from an S3-compatible service.
type ObjectStore struct {
	cfg ObjectStoreConfig
}

// NewObjectStore creates an ObjectStore. The client is built per request,
// so construction never fails.
func NewObjectStore(cfg ObjectStoreConfig) *ObjectStore {
	return &ObjectStore{cfg: cfg}
}

func (s *ObjectStore) credentials() *credentials.Credentials {
	if c := s.cfg.Credentials; c != nil && c.AccessKeyID != "" {
		return credentials.NewStaticV4(c.AccessKeyID, c.SecretAccessKey, c.SessionToken)
	}
	return credentials.NewChainCredentials([]credentials.Provider{
		&credentials.EnvAWS{},
		&credentials.EnvMinio{},
		&credentials.FileAWSCredentials{},
		&credentials.IAM{Client: &http.Client{Transport: http.DefaultTransport}},
	})
}

func (s *ObjectStore) endpoint() string {
	ep := strings.TrimSpace(s.cfg.Endpoint)
	ep = strings.TrimPrefix(ep, "https://")
	ep = strings.TrimPrefix(ep, "http://")
	ep = strings.TrimSuffix(ep, "/")
	if ep == "" {
		return DefaultObjectEndpoint
	}
	return ep
}

// Open fetches loc.Bucket/loc.Key. The object is stat'ed before it is
// returned so missing keys and credential problems surface here rather
// than on the first read.
func (s *ObjectStore) Open(ctx context.Context, loc Locator) (io.ReadCloser, error) {
	client, err := minio.New(s.endpoint(), &minio.Options{
		Creds:  s.credentials(),
		Secure: !s.cfg.Insecure,
		Region: s.cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create object store client: %w", err)
	}

	obj, err := client.GetObject(ctx, loc.Bucket, loc.Key, minio.GetObjectOptions{})
	if err != nil {
		return nil, translateObjectError(loc, err)
	}
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, translateObjectError(loc, err)
	}
	return obj, nil
}

func translateObjectError(loc Locator, err error) error {
	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" || resp.StatusCode == http.StatusNotFound:
		return NotFoundError{Message: fmt.Sprintf("object not found: s3://%s/%s", loc.Bucket, loc.Key)}
	case resp.Code == "AccessDenied" || resp.Code == "InvalidAccessKeyId" ||
		resp.Code == "SignatureDoesNotMatch" || resp.StatusCode == http.StatusForbidden:
		return AuthenticationError{Message: fmt.Sprintf("access denied to s3://%s/%s: %s", loc.Bucket, loc.Key, resp.Code)}
	}
	return fmt.Errorf("get s3://%s/%s: %w", loc.Bucket, loc.Key, err)
}
