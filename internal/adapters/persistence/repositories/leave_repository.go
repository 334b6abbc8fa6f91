package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"shams-vision/internal/adapters/persistence/models"
)

// LeaveRepository handles leave request persistence
type LeaveRepository struct {
	db *gorm.DB
}

// NewLeaveRepository creates a new leave repository
func NewLeaveRepository(db *gorm.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

// Create creates a new leave request
func (r *LeaveRepository) Create(ctx context.Context, leave *models.LeaveRequest) error {
	return r.db.WithContext(ctx).Create(leave).Error
}

// GetByID retrieves a leave request by ID
func (r *LeaveRepository) GetByID(ctx context.Context, id uint) (*models.LeaveRequest, error) {
	var leave models.LeaveRequest
	err := r.db.WithContext(ctx).First(&leave, id).Error
	if err != nil {
		return nil, err
	}
	return &leave, nil
}

// Update updates a leave request
func (r *LeaveRepository) Update(ctx context.Context, leave *models.LeaveRequest) error {
	return r.db.WithContext(ctx).Save(leave).Error
}

// List retrieves leave requests filtered by user and status
func (r *LeaveRepository) List(ctx context.Context, userID uint, status string, offset, limit int) ([]models.LeaveRequest, int64, error) {
	var leaves []models.LeaveRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&models.LeaveRequest{})
	if userID != 0 {
		query = query.Where("requester_id = ?", userID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&leaves).Error
	if err != nil {
		return nil, 0, err
	}
	return leaves, total, nil
}

// HasOverlapping reports whether the user already has a pending or
// approved request overlapping the given date range
func (r *LeaveRepository) HasOverlapping(ctx context.Context, userID uint, startDate, endDate time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LeaveRequest{}).
		Where("requester_id = ? AND status IN ?", userID,
			[]string{models.LeaveStatusPending, models.LeaveStatusApproved}).
		Where("start_date <= ? AND end_date >= ?", endDate, startDate).
		Count(&count).Error
	return count > 0, err
}
