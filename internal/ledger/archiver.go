package ledger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// S3Archiver uploads rotated ledger files to an S3-compatible bucket. It
// is a deliberately thinner sibling of a full backup service: no
// tar.gz staging, no checksum manifest, just a direct object-per-file
// upload under a fixed prefix, since a ledger file is already a single
// self-contained artifact.
type S3Archiver struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
	log      zerolog.Logger
}

// NewS3Archiver constructs an S3Archiver over an already-configured
// client (built from aws-sdk-go-v2/config + credentials by the caller).
func NewS3Archiver(client *s3.Client, bucket, prefix string, log zerolog.Logger) *S3Archiver {
	return &S3Archiver{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   strings.TrimSuffix(prefix, "/"),
		log:      log.With().Str("component", "ledger_archiver").Logger(),
	}
}

func (a *S3Archiver) key(localPath string) string {
	name := filepath.Base(localPath)
	if a.prefix == "" {
		return name
	}
	return a.prefix + "/" + name
}

// Archive uploads localPath to the configured bucket/prefix.
func (a *S3Archiver) Archive(ctx context.Context, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("ledger archiver: open %s: %w", localPath, err)
	}
	defer f.Close()

	key := a.key(localPath)
	_, err = a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: &a.bucket,
		Key:    &key,
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("ledger archiver: upload %s: %w", key, err)
	}
	a.log.Info().Str("key", key).Msg("ledger file archived")
	return nil
}

// List returns the keys currently archived under the configured prefix,
// oldest first by key (ledger filenames are timestamp-ordered).
func (a *S3Archiver) List(ctx context.Context) ([]string, error) {
	prefix := a.prefix
	if prefix != "" {
		prefix += "/"
	}
	out, err := a.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: &a.bucket,
		Prefix: &prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("ledger archiver: list: %w", err)
	}

	keys := make([]string, 0, len(out.Contents))
	for _, obj := range out.Contents {
		if obj.Key != nil {
			keys = append(keys, *obj.Key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Delete removes an archived key, used by retention cleanup.
func (a *S3Archiver) Delete(ctx context.Context, key string) error {
	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &a.bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("ledger archiver: delete %s: %w", key, err)
	}
	return nil
}

// RetainNewest deletes archived keys beyond the newest keep count,
// mirroring the teacher's backup-rotation floor (never prune below a
// minimum regardless of age).
func (a *S3Archiver) RetainNewest(ctx context.Context, keep int) error {
	keys, err := a.List(ctx)
	if err != nil {
		return err
	}
	if len(keys) <= keep {
		return nil
	}
	for _, key := range keys[:len(keys)-keep] {
		if err := a.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}
