package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"shams-vision/internal/adapters/persistence/models"
)

// ImageCounts summarizes the review state of a visit's images
type ImageCounts struct {
	Total    int64
	Approved int64
	Rejected int64
}

// Decided returns the number of images that have passed review
func (c ImageCounts) Decided() int64 {
	return c.Approved + c.Rejected
}

// VisitRepository handles store visit persistence
type VisitRepository struct {
	db *gorm.DB
}

// NewVisitRepository creates a new visit repository
func NewVisitRepository(db *gorm.DB) *VisitRepository {
	return &VisitRepository{db: db}
}

// Create creates a new store visit
func (r *VisitRepository) Create(ctx context.Context, visit *models.StoreVisit) error {
	return r.db.WithContext(ctx).Create(visit).Error
}

// GetByID retrieves a visit with its store and images
func (r *VisitRepository) GetByID(ctx context.Context, id uint) (*models.StoreVisit, error) {
	var visit models.StoreVisit
	err := r.db.WithContext(ctx).
		Preload("Store").
		Preload("Images").
		First(&visit, id).Error
	if err != nil {
		return nil, err
	}
	return &visit, nil
}

// GetOpenByUserAndStore retrieves an in-progress visit for a user at a
// store on a route, if one exists
func (r *VisitRepository) GetOpenByUserAndStore(ctx context.Context, userID, routeID, storeID uint) (*models.StoreVisit, error) {
	var visit models.StoreVisit
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND route_id = ? AND store_id = ? AND status = ?",
			userID, routeID, storeID, models.VisitStatusInProgress).
		First(&visit).Error
	if err != nil {
		return nil, err
	}
	return &visit, nil
}

// Update updates a visit
func (r *VisitRepository) Update(ctx context.Context, visit *models.StoreVisit) error {
	return r.db.WithContext(ctx).Save(visit).Error
}

// List retrieves visits filtered by user, route and status
func (r *VisitRepository) List(ctx context.Context, userID, routeID uint, status string, offset, limit int) ([]models.StoreVisit, int64, error) {
	var visits []models.StoreVisit
	var total int64

	query := r.db.WithContext(ctx).Model(&models.StoreVisit{})
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	}
	if routeID != 0 {
		query = query.Where("route_id = ?", routeID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Store").
		Order("created_at DESC").
		Offset(offset).Limit(limit).Find(&visits).Error
	if err != nil {
		return nil, 0, err
	}
	return visits, total, nil
}

// CreateImage attaches an image record to a visit
func (r *VisitRepository) CreateImage(ctx context.Context, image *models.VisitImage) error {
	return r.db.WithContext(ctx).Create(image).Error
}

// GetImageByID retrieves a visit image by ID
func (r *VisitRepository) GetImageByID(ctx context.Context, id uint) (*models.VisitImage, error) {
	var image models.VisitImage
	err := r.db.WithContext(ctx).First(&image, id).Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

// UpdateImage updates a visit image
func (r *VisitRepository) UpdateImage(ctx context.Context, image *models.VisitImage) error {
	return r.db.WithContext(ctx).Save(image).Error
}

// CountImages tallies a visit's images by review outcome
func (r *VisitRepository) CountImages(ctx context.Context, visitID uint) (ImageCounts, error) {
	var counts ImageCounts
	err := r.db.WithContext(ctx).
		Model(&models.VisitImage{}).
		Select(
			"COUNT(*) AS total, "+
				"COALESCE(SUM(CASE WHEN quality_status = ? THEN 1 ELSE 0 END), 0) AS approved, "+
				"COALESCE(SUM(CASE WHEN quality_status = ? THEN 1 ELSE 0 END), 0) AS rejected",
			models.QualityApproved, models.QualityRejected).
		Where("visit_id = ?", visitID).
		Scan(&counts).Error
	return counts, err
}

// CreateFlaggedStore records a flag raised against a store
func (r *VisitRepository) CreateFlaggedStore(ctx context.Context, flag *models.FlaggedStore) error {
	return r.db.WithContext(ctx).Create(flag).Error
}

// ListFlaggedStores retrieves flags, optionally only unresolved ones
func (r *VisitRepository) ListFlaggedStores(ctx context.Context, unresolvedOnly bool, offset, limit int) ([]models.FlaggedStore, int64, error) {
	var flags []models.FlaggedStore
	var total int64

	query := r.db.WithContext(ctx).Model(&models.FlaggedStore{})
	if unresolvedOnly {
		query = query.Where("is_resolved = ?", false)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("flagged_at DESC").Offset(offset).Limit(limit).Find(&flags).Error
	if err != nil {
		return nil, 0, err
	}
	return flags, total, nil
}

// ResolveFlaggedStore records the resolution of a store flag
func (r *VisitRepository) ResolveFlaggedStore(ctx context.Context, id, resolvedBy uint, note string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.FlaggedStore{}).
		Where("id = ? AND is_resolved = ?", id, false).
		Updates(map[string]interface{}{
			"is_resolved":      true,
			"resolved_by":      &resolvedBy,
			"resolved_at":      &now,
			"resolution_notes": note,
		}).Error
}
