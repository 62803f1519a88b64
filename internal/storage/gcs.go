package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore keeps snapshots as objects in a Google Cloud Storage bucket.
type GCSStore struct {
	client *gcs.Client
	bucket string
}

// NewGCSStore connects with a service account key file, or application default
// credentials when credentialsFile is empty.
func NewGCSStore(ctx context.Context, bucket, credentialsFile string) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

func (s *GCSStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *GCSStore) Get(ctx context.Context, name string) ([]byte, error) {
	reader, err := s.client.Bucket(s.bucket).Object(name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, fmt.Errorf("gs://%s/%s: %w", s.bucket, name, ErrNotFound)
		}
		return nil, fmt.Errorf("open object: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	return data, nil
}

// Put uploads the blob; the object is only replaced once the writer closes cleanly.
func (s *GCSStore) Put(ctx context.Context, name string, data []byte, contentType string) error {
	writer := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	writer.ContentType = contentType
	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return fmt.Errorf("write object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close object: %w", err)
	}
	return nil
}
