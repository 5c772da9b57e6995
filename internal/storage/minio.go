// Package storage provides object storage for uploaded media.
package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"minato/internal/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Storage uploads and removes media objects and resolves their public links.
type Storage interface {
	Upload(ctx context.Context, ownerID, fileName string, file io.Reader, size int64) (string, string, error)
	Delete(ctx context.Context, objectName string) error
}

// MinIOStorage stores media in a MinIO bucket.
type MinIOStorage struct {
	client *minio.Client
	cfg    *config.Config
}

// NewMinIOStorage connects to MinIO and ensures the media bucket exists.
func NewMinIOStorage(ctx context.Context, cfg *config.Config) (*MinIOStorage, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio connection failed: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check failed: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio bucket creation failed: %w", err)
		}
	}

	return &MinIOStorage{client: client, cfg: cfg}, nil
}

// Upload stores the file under a collision-free object name and returns the
// object name and its public link.
func (m *MinIOStorage) Upload(ctx context.Context, ownerID, fileName string, file io.Reader, size int64) (string, string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" {
		ext = ".jpg"
	}
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	now := time.Now()
	objectName := fmt.Sprintf("media/%s/%d/%02d/%s%s",
		ownerID, now.Year(), int(now.Month()), uuid.NewString(), ext)

	_, err := m.client.PutObject(ctx, m.cfg.MinioBucket, objectName, file, size,
		minio.PutObjectOptions{
			ContentType: contentType,
			UserMetadata: map[string]string{
				"original-filename": fileName,
				"owner-id":          ownerID,
				"uploaded-at":       now.Format(time.RFC3339),
			},
		})
	if err != nil {
		return "", "", fmt.Errorf("minio upload failed: %w", err)
	}

	scheme := "http"
	if m.cfg.MinioUseSSL {
		scheme = "https"
	}
	link := fmt.Sprintf("%s://%s/%s/%s", scheme, m.cfg.MinioEndpoint, m.cfg.MinioBucket, objectName)
	return objectName, link, nil
}

// Delete removes a stored object.
func (m *MinIOStorage) Delete(ctx context.Context, objectName string) error {
	err := m.client.RemoveObject(ctx, m.cfg.MinioBucket, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("minio delete failed: %w", err)
	}
	return nil
}
