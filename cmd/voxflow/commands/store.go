package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/voxflow/voxflow/pkg/catalog"
	"github.com/voxflow/voxflow/pkg/cli"
	"github.com/voxflow/voxflow/pkg/elevenlabs"
	"github.com/voxflow/voxflow/pkg/kv"
	"github.com/voxflow/voxflow/pkg/media"
	"github.com/voxflow/voxflow/pkg/storage"
)

// artifactStore wraps a FileStore with enough location info to tell the
// user where a saved clip ended up.
type artifactStore struct {
	fs   storage.FileStore
	base string
	isS3 bool
}

func (a *artifactStore) locate(name string) string {
	if a.isS3 {
		return a.base + "/" + name
	}
	return filepath.Join(a.base, filepath.FromSlash(name))
}

// openArtifactStore opens the context's artifact store: the configured
// directory or s3:// bucket, falling back to ~/.voxflow/artifacts.
func openArtifactStore(cliCtx *cli.Context) (*artifactStore, error) {
	target := cliCtx.ArtifactStore
	switch {
	case target == "":
		if err := globalPaths.EnsureArtifactsDir(); err != nil {
			return nil, err
		}
		fs, err := storage.NewLocal(globalPaths.ArtifactsDir())
		if err != nil {
			return nil, err
		}
		return &artifactStore{fs: fs, base: fs.Root()}, nil
	case isS3URI(target):
		bucket, prefix, err := parseS3URI(target)
		if err != nil {
			return nil, err
		}
		client, err := newS3Client()
		if err != nil {
			return nil, err
		}
		return &artifactStore{
			fs:   storage.NewS3(client, bucket, prefix),
			base: strings.TrimSuffix(target, "/"),
			isS3: true,
		}, nil
	default:
		fs, err := storage.NewLocal(target)
		if err != nil {
			return nil, err
		}
		return &artifactStore{fs: fs, base: fs.Root()}, nil
	}
}

// saveAudio persists a generated clip and returns where it went. The
// --output flag names an explicit file or s3:// destination; without it
// the clip lands in the context's artifact store under a generated name.
func saveAudio(ctx context.Context, cliCtx *cli.Context, kind string, format elevenlabs.OutputFormat, data []byte) (string, error) {
	dest := getOutputDest()
	switch {
	case dest == "":
		return storeAudio(ctx, cliCtx, kind, format, data)
	case isS3URI(dest):
		bucket, key, err := parseS3URI(dest)
		if err != nil {
			return "", err
		}
		if key == "" {
			return "", fmt.Errorf("s3 destination %q needs an object key", dest)
		}
		client, err := newS3Client()
		if err != nil {
			return "", err
		}
		blob, _ := wrapForDisk(format, data)
		if err := storage.WriteAll(ctx, storage.NewS3(client, bucket, ""), key, blob); err != nil {
			return "", err
		}
		return dest, nil
	default:
		blob, _ := wrapForDisk(format, data)
		if err := cli.OutputBytes(blob, dest); err != nil {
			return "", err
		}
		return dest, nil
	}
}

// storeAudio writes a clip into the context's artifact store under a
// generated name, regardless of --output.
func storeAudio(ctx context.Context, cliCtx *cli.Context, kind string, format elevenlabs.OutputFormat, data []byte) (string, error) {
	st, err := openArtifactStore(cliCtx)
	if err != nil {
		return "", err
	}
	blob, ext := wrapForDisk(format, data)
	name := artifactName(kind, ext)
	if err := storage.WriteAll(ctx, st.fs, name, blob); err != nil {
		return "", err
	}
	return st.locate(name), nil
}

// artifactName builds a store path like "tts/20260825-142311-3f9a2c1b.mp3".
func artifactName(kind, ext string) string {
	stamp := time.Now().UTC().Format("20060102-150405")
	return fmt.Sprintf("%s/%s-%s%s", kind, stamp, uuid.NewString()[:8], ext)
}

// wrapForDisk prepares clip bytes for saving. MP3 and Opus carry their
// own framing; raw PCM and telephony formats get a WAV header so the
// saved file is playable as written.
func wrapForDisk(format elevenlabs.OutputFormat, data []byte) ([]byte, string) {
	codec, rest, _ := strings.Cut(string(format), "_")
	switch codec {
	case "mp3":
		return data, ".mp3"
	case "opus":
		return data, ".opus"
	case "pcm":
		rate, err := strconv.Atoi(rest)
		if err != nil || rate <= 0 {
			return data, ".pcm"
		}
		return media.WrapWAV(data, media.WAVPCM16, rate), ".wav"
	case "ulaw":
		return media.WrapWAV(data, media.WAVULaw, 8000), ".wav"
	case "alaw":
		return media.WrapWAV(data, media.WAVALaw, 8000), ".wav"
	default:
		return data, ".bin"
	}
}

func isS3URI(s string) bool {
	return strings.HasPrefix(s, "s3://")
}

// parseS3URI splits "s3://bucket/key..." into bucket and key.
func parseS3URI(uri string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(uri, "s3://")
	if rest == uri || rest == "" {
		return "", "", fmt.Errorf("invalid s3 URI %q, want s3://bucket[/key]", uri)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("invalid s3 URI %q, want s3://bucket[/key]", uri)
	}
	return bucket, strings.TrimSuffix(key, "/"), nil
}

// newS3Client builds an S3 client from the standard AWS environment:
// AWS_REGION (or AWS_DEFAULT_REGION), AWS_ACCESS_KEY_ID,
// AWS_SECRET_ACCESS_KEY, optional AWS_SESSION_TOKEN, and AWS_ENDPOINT_URL
// for S3-compatible stores like MinIO or R2.
func newS3Client() (*s3.Client, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = os.Getenv("AWS_DEFAULT_REGION")
	}
	if region == "" {
		return nil, fmt.Errorf("AWS_REGION is not set")
	}
	id := os.Getenv("AWS_ACCESS_KEY_ID")
	secret := os.Getenv("AWS_SECRET_ACCESS_KEY")
	if id == "" || secret == "" {
		return nil, fmt.Errorf("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY are not set")
	}
	token := os.Getenv("AWS_SESSION_TOKEN")

	opts := s3.Options{
		Region: region,
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     id,
				SecretAccessKey: secret,
				SessionToken:    token,
			}, nil
		}),
	}
	if endpoint := os.Getenv("AWS_ENDPOINT_URL"); endpoint != "" {
		opts.BaseEndpoint = aws.String(endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts), nil
}

// openCatalog opens the badger-backed catalog at ~/.voxflow/catalog.
// The returned func closes the store.
func openCatalog() (*catalog.Catalog, func(), error) {
	if err := globalPaths.EnsureCatalogDir(); err != nil {
		return nil, nil, err
	}
	store, err := kv.NewBadger(kv.BadgerOptions{Dir: globalPaths.CatalogDir()})
	if err != nil {
		return nil, nil, err
	}
	return catalog.New(store), func() { store.Close() }, nil
}

// recordGeneration appends a history record, best effort: the clip is
// already saved, so a history failure warns instead of failing the command.
func recordGeneration(ctx context.Context, rec catalog.GenerationRecord) {
	cat, done, err := openCatalog()
	if err != nil {
		printWarning("history not recorded: %v", err)
		return
	}
	defer done()
	if _, err := cat.AppendGeneration(ctx, rec); err != nil {
		printWarning("history not recorded: %v", err)
	}
}
