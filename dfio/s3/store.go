// Package s3 provides an S3-compatible transport for dfio.
//
// The transport accepts full "s3://bucket/key" URIs and works against AWS S3,
// MinIO, LocalStack, Cloudflare R2, and other S3-compatible object stores.
// Sinks spool to a temporary file and upload on Close, giving O(1) memory
// usage regardless of object size and a single atomic PutObject per
// destination.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/justapithecus/dfio/dfio"
)

// API defines the subset of the S3 client interface used by the transport.
// This enables testing with mock implementations.
type API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Transport implements dfio.Transport for s3:// URIs.
type Transport struct {
	client     API
	createTemp func() (*os.File, error) // temp file factory for Create spooling
}

// New creates an S3 transport with the given client.
//
// The client must be pre-configured with credentials, region, and endpoint.
// Use github.com/aws/aws-sdk-go-v2/config to load configuration:
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	transport, err := s3.New(s3.NewFromConfig(cfg))
func New(client API) (*Transport, error) {
	if client == nil {
		return nil, errors.New("s3: client is required")
	}
	return &Transport{
		client:     client,
		createTemp: func() (*os.File, error) { return os.CreateTemp("", "dfio-s3-*") },
	}, nil
}

// Create opens a write sink for an s3://bucket/key URI. Bytes are spooled to
// a temporary file; Close uploads the object in one PutObject call with the
// spooled size as ContentLength, then removes the spool file.
func (t *Transport) Create(ctx context.Context, rawURI string) (io.WriteCloser, error) {
	bucket, key, err := parseURI(rawURI)
	if err != nil {
		return nil, err
	}
	tmp, err := t.createTemp()
	if err != nil {
		return nil, fmt.Errorf("s3: creating temp file: %w", err)
	}
	return &sink{
		client: t.client,
		ctx:    ctx,
		bucket: bucket,
		key:    key,
		tmp:    tmp,
	}, nil
}

// Open fetches an s3://bucket/key object for reading. Missing objects return
// an error wrapping dfio.ErrNotFound.
func (t *Transport) Open(ctx context.Context, rawURI string) (io.ReadCloser, error) {
	bucket, key, err := parseURI(rawURI)
	if err != nil {
		return nil, err
	}
	out, err := t.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%s: %w", rawURI, dfio.ErrNotFound)
		}
		return nil, fmt.Errorf("s3: get object: %w", err)
	}
	return out.Body, nil
}

// Exists checks whether an s3://bucket/key object exists.
func (t *Transport) Exists(ctx context.Context, rawURI string) (bool, error) {
	bucket, key, err := parseURI(rawURI)
	if err != nil {
		return false, err
	}
	_, err = t.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("s3: head object: %w", err)
	}
	return true, nil
}

// Delete removes an s3://bucket/key object. Missing objects are not an error.
func (t *Transport) Delete(ctx context.Context, rawURI string) error {
	bucket, key, err := parseURI(rawURI)
	if err != nil {
		return err
	}
	_, err = t.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("s3: delete object: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Sink
// -----------------------------------------------------------------------------

// sink spools writes to a temp file and uploads on Close.
type sink struct {
	client API
	ctx    context.Context // retained because io.Closer carries no context
	bucket string
	key    string
	tmp    *os.File
	size   int64
	closed bool
}

func (s *sink) Write(p []byte) (int, error) {
	if s.closed {
		return 0, os.ErrClosed
	}
	n, err := s.tmp.Write(p)
	s.size += int64(n)
	return n, err
}

func (s *sink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	defer func() {
		_ = s.tmp.Close()
		_ = os.Remove(s.tmp.Name())
	}()

	if _, err := s.tmp.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("s3: seeking temp file: %w", err)
	}
	_, err := s.client.PutObject(s.ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key),
		Body:          s.tmp,
		ContentLength: aws.Int64(s.size),
	})
	if err != nil {
		return fmt.Errorf("s3: put object: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// parseURI splits "s3://bucket/key" into bucket and key.
func parseURI(raw string) (bucket, key string, err error) {
	const scheme = "s3://"
	if !strings.HasPrefix(raw, scheme) {
		return "", "", fmt.Errorf("s3: %q is not an s3:// URI", raw)
	}
	rest := strings.TrimPrefix(raw, scheme)
	idx := strings.Index(rest, "/")
	if idx <= 0 || idx == len(rest)-1 {
		return "", "", fmt.Errorf("s3: %q is missing a bucket or key", raw)
	}
	return rest[:idx], rest[idx+1:], nil
}

// isNotFound reports whether err is an S3 missing-object error.
func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NoSuchKey" || code == "NotFound" || code == "404"
	}
	return false
}
