// Package storage keeps uploaded template assets (background designs and
// element images) in an S3-compatible object store.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/certcat/certcat/internal/config"
)

var (
	ErrFileTooLarge    = errors.New("file exceeds the size limit")
	ErrUnsupportedType = errors.New("file type is not allowed")
)

// Upload ceilings. Backgrounds cover the whole canvas and get more headroom
// than per-element images.
const (
	MaxBackgroundSize = 2 * 1024 * 1024
	MaxElementSize    = 1 * 1024 * 1024
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type Service struct {
	client   *minio.Client
	bucket   string
	endpoint string
}

type UploadResult struct {
	FileURL  string `json:"fileUrl"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
}

func NewService(cfg *config.MinIOConfig) (*Service, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.User, cfg.Password, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	return &Service{
		client:   client,
		bucket:   cfg.Bucket,
		endpoint: fmt.Sprintf("%s://%s", scheme, cfg.Endpoint),
	}, nil
}

// UploadBackground stores a template background design.
func (s *Service) UploadBackground(ctx context.Context, data []byte, contentType string) (*UploadResult, error) {
	return s.uploadImage(ctx, "backgrounds", data, contentType, MaxBackgroundSize)
}

// UploadElementImage stores an image placed as a canvas element (logos,
// signatures).
func (s *Service) UploadElementImage(ctx context.Context, data []byte, contentType string) (*UploadResult, error) {
	return s.uploadImage(ctx, "elements", data, contentType, MaxElementSize)
}

func (s *Service) uploadImage(ctx context.Context, folder string, data []byte, contentType string, maxSize int) (*UploadResult, error) {
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	if len(data) > maxSize {
		return nil, fmt.Errorf("%w: max %d bytes", ErrFileTooLarge, maxSize)
	}

	objectName := fmt.Sprintf("%s/%s-%s%s",
		folder,
		time.Now().Format("20060102"),
		uuid.New().String()[:8],
		ext,
	)
	_, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", folder, err)
	}

	return &UploadResult{
		FileURL:  fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, objectName),
		FileName: objectName,
		FileSize: int64(len(data)),
	}, nil
}

// DeleteByURL removes the object a previously returned URL points at.
func (s *Service) DeleteByURL(ctx context.Context, fileURL string) error {
	prefix := fmt.Sprintf("%s/%s/", s.endpoint, s.bucket)
	objectName := strings.TrimPrefix(fileURL, prefix)
	if objectName == fileURL || objectName == "" {
		return fmt.Errorf("url %s does not belong to this bucket", fileURL)
	}
	return s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{})
}
