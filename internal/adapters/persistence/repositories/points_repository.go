package repositories

import (
	"context"

	"gorm.io/gorm"

	"shams-vision/internal/adapters/persistence/models"
)

// scoringActivities are the activity types that carry a visit's score.
// Recheck adjustments reuse the same types, so summing them per visit
// yields the net score currently applied.
var scoringActivities = []string{
	models.ActivityVisitCompleted,
	models.ActivityPerfectVisit,
	models.ActivityHighQuality,
	models.ActivityStandardQuality,
	models.ActivityLowQuality,
}

// pointsRepository implements PointsRepository interface
type pointsRepository struct {
	db *gorm.DB
}

// NewPointsRepository creates a new points repository
func NewPointsRepository(db *gorm.DB) PointsRepository {
	return &pointsRepository{db: db}
}

// ApplyDelta appends a ledger transaction and moves the user's balance
// by its amount in a single database transaction. Balance columns are
// updated with SQL increment expressions so concurrent deltas never
// lose updates. Lifetime points only grow on positive amounts.
func (r *pointsRepository) ApplyDelta(ctx context.Context, txn *models.PointsTransaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		balance := models.UserPoints{UserID: txn.UserID}
		if err := tx.Where(models.UserPoints{UserID: txn.UserID}).
			FirstOrCreate(&balance).Error; err != nil {
			return err
		}

		if err := tx.Create(txn).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"total_points":     gorm.Expr("total_points + ?", txn.Amount),
			"available_points": gorm.Expr("available_points + ?", txn.Amount),
		}
		if txn.Amount > 0 {
			updates["lifetime_points"] = gorm.Expr("lifetime_points + ?", txn.Amount)
		}

		return tx.Model(&models.UserPoints{}).
			Where("user_id = ?", txn.UserID).
			Updates(updates).Error
	})
}

// GetBalance retrieves a user's points balance, zero-valued if the
// user has no ledger activity yet
func (r *pointsRepository) GetBalance(ctx context.Context, userID uint) (*models.UserPoints, error) {
	var balance models.UserPoints
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&balance).Error
	if err == gorm.ErrRecordNotFound {
		return &models.UserPoints{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

// SumVisitScoring returns the net score already applied to a visit and
// whether the visit has been scored at all
func (r *pointsRepository) SumVisitScoring(ctx context.Context, visitID uint) (int64, bool, error) {
	var row struct {
		Total int64
		Count int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.PointsTransaction{}).
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Where("visit_id = ? AND activity_type IN ?", visitID, scoringActivities).
		Scan(&row).Error
	if err != nil {
		return 0, false, err
	}
	return row.Total, row.Count > 0, nil
}

// ListTransactions retrieves a user's ledger entries, newest first
func (r *pointsRepository) ListTransactions(ctx context.Context, userID uint, offset, limit int) ([]models.PointsTransaction, int64, error) {
	var txns []models.PointsTransaction
	var total int64

	query := r.db.WithContext(ctx).Model(&models.PointsTransaction{}).
		Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&txns).Error
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// SumTransactions returns the sum of all ledger amounts for a user.
// It must always equal the user's total points balance.
func (r *pointsRepository) SumTransactions(ctx context.Context, userID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.PointsTransaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ?", userID).
		Scan(&total).Error
	return total, err
}

// CreatePenalty records a penalty
func (r *pointsRepository) CreatePenalty(ctx context.Context, penalty *models.Penalty) error {
	return r.db.WithContext(ctx).Create(penalty).Error
}

// ListPenalties retrieves penalties, optionally for one user
func (r *pointsRepository) ListPenalties(ctx context.Context, userID uint, offset, limit int) ([]models.Penalty, int64, error) {
	var penalties []models.Penalty
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Penalty{})
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("issued_at DESC").Offset(offset).Limit(limit).Find(&penalties).Error
	if err != nil {
		return nil, 0, err
	}
	return penalties, total, nil
}

// GetPenaltyByID retrieves a penalty by ID
func (r *pointsRepository) GetPenaltyByID(ctx context.Context, id uint) (*models.Penalty, error) {
	var penalty models.Penalty
	err := r.db.WithContext(ctx).First(&penalty, id).Error
	if err != nil {
		return nil, err
	}
	return &penalty, nil
}

// UpdatePenaltyStatus changes a penalty's status
func (r *pointsRepository) UpdatePenaltyStatus(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.Penalty{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// Leaderboard retrieves the top balances by lifetime points
func (r *pointsRepository) Leaderboard(ctx context.Context, limit int) ([]models.UserPoints, error) {
	var balances []models.UserPoints
	err := r.db.WithContext(ctx).
		Order("lifetime_points DESC").
		Limit(limit).
		Find(&balances).Error
	return balances, err
}
