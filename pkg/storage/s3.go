package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Client is the subset of the AWS SDK's S3 client that S3Store calls.
// *[s3.Client] implements it; tests substitute a fake.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Store keeps artifacts in an S3 bucket, or anything speaking the S3
// protocol such as MinIO or R2. Storage paths become object keys under an
// optional prefix, and uploads of known audio extensions carry the matching
// Content-Type so the objects are directly playable from presigned URLs.
//
// Credentials, region and endpoint are the client's concern.
type S3Store struct {
	client S3Client
	bucket string
	prefix string
}

// NewS3 creates an S3-backed FileStore. Prefix is prepended to all object
// keys; pass "" for none.
func NewS3(client S3Client, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

// key maps a storage path into the bucket's key space.
func (s *S3Store) key(path string) string {
	if s.prefix == "" {
		return path
	}
	return s.prefix + "/" + path
}

func (s *S3Store) object(path string) (bucket, key *string) {
	return aws.String(s.bucket), aws.String(s.key(path))
}

// Read streams the named object. A missing key reports os.ErrNotExist.
func (s *S3Store) Read(ctx context.Context, path string) (io.ReadCloser, error) {
	bucket, key := s.object(path)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: bucket, Key: key})
	switch {
	case err == nil:
		return out.Body, nil
	case isS3NotFound(err):
		return nil, fmt.Errorf("storage: read %s: %w", path, os.ErrNotExist)
	}
	return nil, err
}

// Write streams data into the named object through a pipe feeding a
// background PutObject. The upload only completes when the returned writer
// is closed; Close blocks for it and reports the upload error.
func (s *S3Store) Write(ctx context.Context, path string) (io.WriteCloser, error) {
	bucket, key := s.object(path)
	in := &s3.PutObjectInput{Bucket: bucket, Key: key}
	if ct := contentTypeFor(path); ct != "" {
		in.ContentType = aws.String(ct)
	}

	pr, pw := io.Pipe()
	in.Body = pr
	result := make(chan error, 1)
	go func() {
		_, err := s.client.PutObject(ctx, in)
		// A failed upload must also release writers blocked on the pipe.
		pr.CloseWithError(err)
		result <- err
	}()
	return &s3Writer{pw: pw, result: result}, nil
}

// Delete removes the named object. S3 treats deleting a missing key as
// success, so Delete is naturally idempotent.
func (s *S3Store) Delete(ctx context.Context, path string) error {
	bucket, key := s.object(path)
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: bucket, Key: key})
	return err
}

// Exists heads the named object and reports whether it is there.
func (s *S3Store) Exists(ctx context.Context, path string) (bool, error) {
	bucket, key := s.object(path)
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: bucket, Key: key})
	switch {
	case err == nil:
		return true, nil
	case isS3NotFound(err):
		return false, nil
	}
	return false, err
}

// contentTypeFor maps an artifact path to its MIME type by extension.
// Returns "" for unrecognized extensions.
func contentTypeFor(p string) string {
	switch path.Ext(p) {
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".ogg", ".opus":
		return "audio/ogg"
	case ".flac":
		return "audio/flac"
	case ".aac":
		return "audio/aac"
	case ".json":
		return "application/json"
	default:
		return ""
	}
}

// s3Writer is the pipe's write end plus the channel carrying the upload
// goroutine's result.
type s3Writer struct {
	pw     *io.PipeWriter
	result chan error
	err    error
	closed bool
}

func (w *s3Writer) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

// Close delivers EOF to the upload, waits for it to finish, and returns
// its error. Closing again returns the same error.
func (w *s3Writer) Close() error {
	if !w.closed {
		w.closed = true
		w.pw.Close()
		w.err = <-w.result
	}
	return w.err
}

// isS3NotFound recognizes the API error codes S3 uses for missing objects.
// HeadObject surfaces NotFound, GetObject surfaces NoSuchKey.
func isS3NotFound(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	code := apiErr.ErrorCode()
	return code == "NotFound" || code == "NoSuchKey"
}

var _ FileStore = (*S3Store)(nil)
