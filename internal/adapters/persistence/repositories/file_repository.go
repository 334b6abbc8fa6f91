package repositories

import (
	"context"

	"gorm.io/gorm"

	"shams-vision/internal/adapters/persistence/models"
)

// FileRepository handles stored file metadata persistence
type FileRepository struct {
	db *gorm.DB
}

// NewFileRepository creates a new file repository
func NewFileRepository(db *gorm.DB) *FileRepository {
	return &FileRepository{db: db}
}

// Create records metadata for an uploaded object
func (r *FileRepository) Create(ctx context.Context, file *models.StoredFile) error {
	return r.db.WithContext(ctx).Create(file).Error
}

// GetByID retrieves file metadata by ID
func (r *FileRepository) GetByID(ctx context.Context, id uint) (*models.StoredFile, error) {
	var file models.StoredFile
	err := r.db.WithContext(ctx).First(&file, id).Error
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// ListByUploader retrieves files uploaded by a user
func (r *FileRepository) ListByUploader(ctx context.Context, uploadedBy uint, offset, limit int) ([]models.StoredFile, int64, error) {
	var files []models.StoredFile
	var total int64

	query := r.db.WithContext(ctx).Model(&models.StoredFile{}).
		Where("uploaded_by = ?", uploadedBy)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&files).Error
	if err != nil {
		return nil, 0, err
	}
	return files, total, nil
}
