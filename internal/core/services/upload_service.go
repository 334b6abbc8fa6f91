package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"shams-vision/internal/adapters/persistence/models"
	"shams-vision/internal/adapters/persistence/repositories"
	"shams-vision/internal/config"
)

// Upload errors
var (
	ErrStorageDisabled = errors.New("object storage is not configured")
	ErrFileNotFound    = errors.New("file not found")
	ErrFileTooLarge    = errors.New("file exceeds the size limit")
	ErrEmptyFile       = errors.New("file is empty")
)

// MaxUploadBytes caps a single upload at 10 MiB
const MaxUploadBytes = 10 << 20

// UploadService stores files in a GCS bucket and keeps their metadata
// in the database
type UploadService struct {
	client   *storage.Client
	fileRepo *repositories.FileRepository
	cfg      config.StorageConfig
}

// NewUploadService creates a new upload service. The client may be nil
// when storage is disabled, uploads then fail with ErrStorageDisabled.
func NewUploadService(client *storage.Client, fileRepo *repositories.FileRepository, cfg config.StorageConfig) *UploadService {
	return &UploadService{
		client:   client,
		fileRepo: fileRepo,
		cfg:      cfg,
	}
}

// Upload streams a file into the bucket under a generated object key
// and records its metadata
func (s *UploadService) Upload(ctx context.Context, r io.Reader, originalName, contentType string, sizeBytes int64, uploadedBy uint) (*models.StoredFile, error) {
	if !s.cfg.Enabled || s.client == nil {
		return nil, ErrStorageDisabled
	}
	if sizeBytes <= 0 {
		return nil, ErrEmptyFile
	}
	if sizeBytes > MaxUploadBytes {
		return nil, ErrFileTooLarge
	}

	objectKey := fmt.Sprintf("uploads/%s/%s%s",
		time.Now().Format("2006/01/02"), uuid.NewString(), path.Ext(originalName))

	w := s.client.Bucket(s.cfg.Bucket).Object(objectKey).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, io.LimitReader(r, MaxUploadBytes)); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	file := &models.StoredFile{
		ObjectKey:    objectKey,
		OriginalName: originalName,
		ContentType:  contentType,
		SizeBytes:    sizeBytes,
		UploadedBy:   uploadedBy,
	}
	if err := s.fileRepo.Create(ctx, file); err != nil {
		return nil, err
	}
	return file, nil
}

// SignedURL issues a short-lived download URL for a stored file
func (s *UploadService) SignedURL(ctx context.Context, fileID uint) (string, error) {
	if !s.cfg.Enabled || s.client == nil {
		return "", ErrStorageDisabled
	}

	file, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrFileNotFound
		}
		return "", err
	}

	return s.client.Bucket(s.cfg.Bucket).SignedURL(file.ObjectKey, &storage.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(15 * time.Minute),
	})
}

// GetFile retrieves stored file metadata
func (s *UploadService) GetFile(ctx context.Context, fileID uint) (*models.StoredFile, error) {
	file, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return file, nil
}

// ListFiles retrieves files uploaded by a user
func (s *UploadService) ListFiles(ctx context.Context, uploadedBy uint, offset, limit int) ([]models.StoredFile, int64, error) {
	return s.fileRepo.ListByUploader(ctx, uploadedBy, offset, limit)
}
