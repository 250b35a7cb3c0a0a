package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PixelShop/internal/pkg/config"
)

// S3Store keeps files in an S3 compatible bucket.
type S3Store struct {
	client     *s3.Client
	bucket     string
	publicBase string
}

func NewS3Store(ctx context.Context, cfg config.Storage, dev bool) (*S3Store, error) {
	if cfg.S3Bucket == "" {
		return nil, errors.New("S3_BUCKET_NAME is required for the s3 storage driver")
	}
	if cfg.S3AccessKey == "" || cfg.S3SecretKey == "" {
		return nil, errors.New("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY are required for the s3 storage driver")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3EndpointURL != "" {
			// MinIO, R2 and B2 want path-style addressing
			o.BaseEndpoint = aws.String(cfg.S3EndpointURL)
			o.UsePathStyle = true
		}
	})

	store := &S3Store{
		client:     client,
		bucket:     cfg.S3Bucket,
		publicBase: publicBase(cfg),
	}
	if err := store.ensureBucket(ctx, cfg, dev); err != nil {
		return nil, err
	}

	log.Infof("[Storage] Using S3 bucket %s", cfg.S3Bucket)
	return store, nil
}

func publicBase(cfg config.Storage) string {
	if cfg.S3PublicURL != "" {
		return strings.TrimRight(cfg.S3PublicURL, "/")
	}
	if cfg.S3EndpointURL != "" {
		return strings.TrimRight(cfg.S3EndpointURL, "/") + "/" + cfg.S3Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
}

// ensureBucket checks the bucket; outside production a missing bucket is created.
func (s *S3Store) ensureBucket(ctx context.Context, cfg config.Storage, dev bool) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	if !dev {
		return fmt.Errorf("bucket %s not accessible: %w", s.bucket, err)
	}

	log.Warnf("[Storage] Bucket %s not found, creating it", s.bucket)
	input := &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}
	if cfg.S3EndpointURL == "" && cfg.S3Region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(cfg.S3Region),
		}
	}
	if _, err := s.client.CreateBucket(ctx, input); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *S3Store) Upload(ctx context.Context, data []byte, folder, ext string) (Stored, error) {
	key := objectKey(folder, ext)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType(path.Ext(key))),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return Stored{}, fmt.Errorf("failed to upload %s: %w", key, err)
	}

	log.Debugf("[Storage] Uploaded s3://%s/%s (%d bytes)", s.bucket, key, len(data))
	return Stored{URL: s.publicBase + "/" + key, PublicID: key}, nil
}

func (s *S3Store) Delete(ctx context.Context, publicID string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", publicID, err)
	}
	log.Debugf("[Storage] Deleted s3://%s/%s", s.bucket, publicID)
	return nil
}
