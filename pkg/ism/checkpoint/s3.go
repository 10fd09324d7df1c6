package checkpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	errorsmod "cosmossdk.io/errors"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config locates a validator's checkpoint bucket.
type S3Config struct {
	Bucket string `json:"bucket" toml:"bucket"`
	Region string `json:"region" toml:"region"`
	Folder string `json:"folder,omitempty" toml:"folder"`
	// Endpoint overrides the S3 endpoint, e.g. for S3 compatible stores.
	Endpoint        string `json:"endpoint,omitempty" toml:"endpoint"`
	AccessKeyID     string `json:"-" toml:"access_key_id"`
	SecretAccessKey string `json:"-" toml:"secret_access_key"`
	// Anonymous reads public buckets without credentials.
	Anonymous bool `json:"anonymous,omitempty" toml:"anonymous"`
}

// S3Storage reads and writes checkpoints in an S3 bucket.
type S3Storage struct {
	cfg        S3Config
	client     *s3.Client
	downloader *manager.Downloader
	uploader   *manager.Uploader
}

var _ Storage = (*S3Storage)(nil)

// NewS3Storage builds an S3 client for cfg. Static credentials take
// precedence over the default credential chain.
func NewS3Storage(ctx context.Context, cfg S3Config) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	switch {
	case cfg.Anonymous:
		opts = append(opts, awsconfig.WithCredentialsProvider(aws.AnonymousCredentials{}))
	case cfg.AccessKeyID != "":
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3StorageWithClient(client, cfg), nil
}

// NewS3StorageWithClient wraps an existing client.
func NewS3StorageWithClient(client *s3.Client, cfg S3Config) *S3Storage {
	return &S3Storage{
		cfg:        cfg,
		client:     client,
		downloader: manager.NewDownloader(client),
		uploader:   manager.NewUploader(client),
	}
}

func (s *S3Storage) Location() string {
	return fmt.Sprintf("s3://%s/%s/%s", s.cfg.Bucket, s.cfg.Region, s.cfg.Folder)
}

func (s *S3Storage) Fetch(ctx context.Context, index uint32) (*SignedCheckpoint, error) {
	data, err := s.get(ctx, CheckpointKey(index))
	if err != nil {
		return nil, err
	}
	var signed SignedCheckpoint
	if err := json.Unmarshal(data, &signed); err != nil {
		return nil, err
	}
	return &signed, nil
}

func (s *S3Storage) Write(ctx context.Context, signed *SignedCheckpoint) error {
	data, err := json.Marshal(signed)
	if err != nil {
		return err
	}
	return s.put(ctx, CheckpointKey(signed.Value.Index), data)
}

func (s *S3Storage) LatestIndex(ctx context.Context) (uint32, error) {
	data, err := s.get(ctx, latestIndexKey)
	if err != nil {
		return 0, err
	}
	index, err := strconv.ParseUint(string(bytes.TrimSpace(data)), 10, 32)
	if err != nil {
		return 0, errorsmod.Wrap(ErrMalformed, err.Error())
	}
	return uint32(index), nil
}

func (s *S3Storage) WriteLatestIndex(ctx context.Context, index uint32) error {
	return s.put(ctx, latestIndexKey, []byte(strconv.FormatUint(uint64(index), 10)))
}

func (s *S3Storage) get(ctx context.Context, name string) ([]byte, error) {
	key := objectKey(s.cfg.Folder, name)
	buf := manager.NewWriteAtBuffer([]byte{})
	_, err := s.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *s3types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, errorsmod.Wrapf(ErrNotFound, "s3://%s/%s", s.cfg.Bucket, key)
		}
		return nil, fmt.Errorf("failed to download s3://%s/%s: %w", s.cfg.Bucket, key, err)
	}
	return buf.Bytes(), nil
}

func (s *S3Storage) put(ctx context.Context, name string, data []byte) error {
	key := objectKey(s.cfg.Folder, name)
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload s3://%s/%s: %w", s.cfg.Bucket, key, err)
	}
	return nil
}
