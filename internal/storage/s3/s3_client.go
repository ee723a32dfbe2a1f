package s3

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"veridoc/internal/config"
	"veridoc/internal/port"
)

// objectStore is the S3-backed read side: registry files and signature images
// come down through GetObject, reference signatures go out as presigned links.
type objectStore struct {
	api        *s3.Client
	presigner  *s3.PresignClient
	presignTTL time.Duration
}

// NewClient creates an S3-backed ObjectStorage. Presigned links expire after
// the configured number of seconds (one hour if unset).
func NewClient(cfg *config.S3Config) (port.ObjectStorage, error) {
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		// Local stacks (minio, localstack) need path-style addressing.
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	api := s3.NewFromConfig(awsCfg, s3Opts...)

	ttl := time.Duration(cfg.PresignExpiry) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &objectStore{
		api:        api,
		presigner:  s3.NewPresignClient(api),
		presignTTL: ttl,
	}, nil
}

func (o *objectStore) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := o.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching s3://%s/%s: %w", bucket, key, err)
	}
	defer func() { _ = obj.Body.Close() }()

	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return nil, fmt.Errorf("reading s3://%s/%s: %w", bucket, key, err)
	}
	return data, nil
}

func (o *objectStore) PresignGet(ctx context.Context, bucket, key string) (string, error) {
	signed, err := o.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(o.presignTTL))
	if err != nil {
		return "", fmt.Errorf("presigning s3://%s/%s: %w", bucket, key, err)
	}
	return signed.URL, nil
}
