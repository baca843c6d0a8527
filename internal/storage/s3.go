// Package storage mirrors provider-hosted avatar images into our own
// bucket so profile pictures survive provider-side URL churn.
package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
)

const maxAvatarBytes = 5 * 1024 * 1024

// Mirror fetches an avatar from its source URL and stores a copy,
// returning the URL of the stored copy.
type Mirror interface {
	MirrorAvatar(ctx context.Context, clerkID, sourceURL string) (string, error)
}

type S3Mirror struct {
	client     *s3.Client
	bucket     string
	publicURL  string
	httpClient *http.Client
}

type S3Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicURL       string
	Region          string
}

func NewS3Mirror(cfg S3Config) (*S3Mirror, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &S3Mirror{
		client:     client,
		bucket:     cfg.Bucket,
		publicURL:  cfg.PublicURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (m *S3Mirror) MirrorAvatar(ctx context.Context, clerkID, sourceURL string) (string, error) {
	imageData, err := m.download(ctx, sourceURL)
	if err != nil {
		return "", fmt.Errorf("download avatar: %w", err)
	}

	// normalize to a bounded PNG before storing
	decoded, err := imaging.Decode(bytes.NewReader(imageData))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}
	decoded = imaging.Fit(decoded, 512, 512, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, decoded, imaging.PNG); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	imageData = buf.Bytes()

	// content-addressed key: re-mirroring an unchanged avatar overwrites
	// the same object instead of accumulating copies
	sum := sha256.Sum256(imageData)
	objectKey := fmt.Sprintf("avatars/%s/%s.png", clerkID, hex.EncodeToString(sum[:8]))

	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(imageData),
		ContentType: aws.String("image/png"),
		Metadata: map[string]string{
			"clerk_id":   clerkID,
			"source_url": sourceURL,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to s3: %w", err)
	}

	if m.publicURL != "" {
		return fmt.Sprintf("%s/%s", m.publicURL, objectKey), nil
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", m.bucket, objectKey), nil
}

func (m *S3Mirror) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "image/png" && contentType != "image/jpeg" && contentType != "image/webp" {
		return nil, fmt.Errorf("invalid content type: %s", contentType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAvatarBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data")
	}
	if len(data) > maxAvatarBytes {
		return nil, fmt.Errorf("image too large: %d bytes", len(data))
	}

	return data, nil
}
