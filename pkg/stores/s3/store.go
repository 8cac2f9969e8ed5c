package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/theapemachine/ukg/pkg/errors"
)

/*
Config holds the connection settings of an S3 compatible object store.
*/
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Secure    bool
}

/*
Store keeps snapshots as <key>.json objects in a single bucket.
*/
type Store struct {
	client *minio.Client
	bucket string
}

/*
New connects to the object store and creates the bucket if it is missing.
*/
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 store requires an endpoint and a bucket")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})

	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}

	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}

		log.Info("created snapshot bucket", "bucket", cfg.Bucket)
	}

	return &Store{client: client, bucket: cfg.Bucket}, nil
}

func objectName(key string) string {
	return key + ".json"
}

/*
Put uploads data under key.
*/
func (store *Store) Put(ctx context.Context, key string, data []byte) error {
	_, err := store.client.PutObject(
		ctx, store.bucket, objectName(key), bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"},
	)

	if err != nil {
		log.Error("failed to store snapshot", "key", key, "error", err)
		return errors.ErrSnapshot.WithMessagef("failed to store snapshot %s", key).Wrap(err)
	}

	return nil
}

/*
Get downloads the object stored under key.
*/
func (store *Store) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := store.client.GetObject(ctx, store.bucket, objectName(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, store.translate(key, err)
	}

	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, store.translate(key, err)
	}

	return data, nil
}

func (store *Store) translate(key string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return errors.ErrNotFound.WithMessagef("snapshot %s not found", key)
	}

	log.Error("failed to load snapshot", "key", key, "error", err)
	return errors.ErrSnapshot.WithMessagef("failed to load snapshot %s", key).Wrap(err)
}
