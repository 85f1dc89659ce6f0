package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// apiError implements smithy.APIError for test assertions.
type apiError struct {
	code string
	msg  string
}

func (e *apiError) Error() string                 { return e.msg }
func (e *apiError) ErrorCode() string             { return e.code }
func (e *apiError) ErrorMessage() string          { return e.msg }
func (e *apiError) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

// fakeS3 is an in-memory S3Client. It records the ContentType of each
// upload, and fail injects an error per operation name.
type fakeS3 struct {
	mu           sync.Mutex
	objects      map[string][]byte
	contentTypes map[string]string
	fail         map[string]error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{
		objects:      make(map[string][]byte),
		contentTypes: make(map[string]string),
		fail:         make(map[string]error),
	}
}

func (f *fakeS3) errFor(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fail[op]
}

func (f *fakeS3) seed(key string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
}

func (f *fakeS3) object(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	return data, ok
}

func (f *fakeS3) contentType(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.contentTypes[key]
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if err := f.errFor("get"); err != nil {
		return nil, err
	}
	data, ok := f.object(*in.Key)
	if !ok {
		return nil, &apiError{code: "NoSuchKey", msg: "no such key"}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if err := f.errFor("put"); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[*in.Key] = data
	if in.ContentType != nil {
		f.contentTypes[*in.Key] = *in.ContentType
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if err := f.errFor("delete"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if err := f.errFor("head"); err != nil {
		return nil, err
	}
	if _, ok := f.object(*in.Key); !ok {
		return nil, &apiError{code: "NotFound", msg: "not found"}
	}
	return &s3.HeadObjectOutput{}, nil
}

func TestS3FileStore(t *testing.T) {
	runFileStoreTests(t, func(t *testing.T) FileStore {
		return NewS3(newFakeS3(), "voxflow-artifacts", "")
	})
}

func TestS3ContentType(t *testing.T) {
	fake := newFakeS3()
	store := NewS3(fake, "voxflow-artifacts", "")
	ctx := context.Background()

	want := map[string]string{
		"a/clip.mp3":  "audio/mpeg",
		"a/clip.wav":  "audio/wav",
		"a/clip.ogg":  "audio/ogg",
		"a/clip.opus": "audio/ogg",
		"a/clip.flac": "audio/flac",
		"a/clip.aac":  "audio/aac",
		"a/meta.json": "application/json",
		"a/clip.bin":  "",
	}
	for path, ct := range want {
		if err := WriteAll(ctx, store, path, []byte("x")); err != nil {
			t.Fatalf("WriteAll %s: %v", path, err)
		}
		if got := fake.contentType(path); got != ct {
			t.Errorf("ContentType for %s = %q; want %q", path, got, ct)
		}
	}
}

// Errors other than the not-found codes must pass through unchanged, and
// must not read as os.ErrNotExist.
func TestS3ErrorPassthrough(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		op   string
		msg  string
		call func(s *S3Store) error
	}{
		{"get", "network timeout", func(s *S3Store) error {
			_, err := s.Read(ctx, "x")
			return err
		}},
		{"head", "network failure", func(s *S3Store) error {
			_, err := s.Exists(ctx, "x")
			return err
		}},
		{"delete", "access denied", func(s *S3Store) error {
			return s.Delete(ctx, "x")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			fake := newFakeS3()
			fake.fail[tt.op] = errors.New(tt.msg)

			err := tt.call(NewS3(fake, "bucket", ""))
			if err == nil {
				t.Fatal("expected an error")
			}
			if errors.Is(err, os.ErrNotExist) {
				t.Fatal("generic error reported as os.ErrNotExist")
			}
			if err.Error() != tt.msg {
				t.Fatalf("err = %v; want %q unwrapped", err, tt.msg)
			}
		})
	}
}

func TestS3UploadErrorAtClose(t *testing.T) {
	fake := newFakeS3()
	fake.fail["put"] = errors.New("upload failed")
	store := NewS3(fake, "bucket", "")

	w, err := store.Write(context.Background(), "obj.mp3")
	if err != nil {
		t.Fatal(err)
	}
	// The pipe may reject this write if the upload has already failed;
	// either way Close must surface the upload error.
	io.WriteString(w, "data")
	if err := w.Close(); err == nil || err.Error() != "upload failed" {
		t.Fatalf("Close = %v; want the upload error", err)
	}
	if err := w.Close(); err == nil || err.Error() != "upload failed" {
		t.Fatalf("second Close = %v; want the same upload error", err)
	}
}

func TestS3Key(t *testing.T) {
	tests := []struct {
		prefix string
		path   string
		want   string
	}{
		{"", "a/b", "a/b"},
		{"voxflow/prod", "tts/clip.mp3", "voxflow/prod/tts/clip.mp3"},
	}
	for _, tt := range tests {
		store := NewS3(newFakeS3(), "bucket", tt.prefix)
		if got := store.key(tt.path); got != tt.want {
			t.Errorf("key(%q) with prefix %q = %q; want %q", tt.path, tt.prefix, got, tt.want)
		}
	}
}

func TestS3WriteUsesPrefixedKey(t *testing.T) {
	fake := newFakeS3()
	store := NewS3(fake, "bucket", "voxflow/prod")

	if err := WriteAll(context.Background(), store, "tts/clip.mp3", []byte("content")); err != nil {
		t.Fatal(err)
	}
	if _, ok := fake.object("voxflow/prod/tts/clip.mp3"); !ok {
		t.Fatal("object not stored under voxflow/prod/tts/clip.mp3")
	}
}

func TestS3ExistsSeesSeededObject(t *testing.T) {
	fake := newFakeS3()
	fake.seed("present.mp3", []byte("data"))
	store := NewS3(fake, "bucket", "")

	ok, err := store.Exists(context.Background(), "present.mp3")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("Exists missed a seeded object")
	}
}

func TestIsS3NotFound(t *testing.T) {
	for _, err := range []error{
		&apiError{code: "NoSuchKey", msg: "no such key"},
		&apiError{code: "NotFound", msg: "not found"},
	} {
		if !isS3NotFound(err) {
			t.Errorf("isS3NotFound(%v) = false; want true", err)
		}
	}
	for _, err := range []error{
		&apiError{code: "AccessDenied", msg: "denied"},
		errors.New("timeout"),
		nil,
	} {
		if isS3NotFound(err) {
			t.Errorf("isS3NotFound(%v) = true; want false", err)
		}
	}
}
