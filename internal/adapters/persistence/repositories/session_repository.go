package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shams-vision/internal/adapters/persistence/models"
)

// sessionRepository implements SessionRepository interface
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new work session repository
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

// Create creates a new work session
func (r *sessionRepository) Create(ctx context.Context, session *models.WorkSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// GetByID retrieves a session by its ID
func (r *sessionRepository) GetByID(ctx context.Context, id uint) (*models.WorkSession, error) {
	var session models.WorkSession
	err := r.db.WithContext(ctx).First(&session, id).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetByUserAndDate retrieves the session for a user on a shift date
func (r *sessionRepository) GetByUserAndDate(ctx context.Context, userID uint, shiftDate time.Time) (*models.WorkSession, error) {
	var session models.WorkSession
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND shift_date = ?", userID, shiftDate).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// sessionTx wraps the transaction handle for break writes issued under
// the session row lock
type sessionTx struct {
	tx *gorm.DB
}

// CreateBreak inserts a break record inside the locked transaction
func (s *sessionTx) CreateBreak(b *models.BreakRecord) error {
	return s.tx.Create(b).Error
}

// CloseOpenBreak stamps the end time onto the session's open break record
func (s *sessionTx) CloseOpenBreak(sessionID uint, endAt time.Time, durationSecs int64) error {
	return s.tx.Model(&models.BreakRecord{}).
		Where("session_id = ? AND end_at IS NULL", sessionID).
		Updates(map[string]interface{}{
			"end_at":        &endAt,
			"duration_secs": &durationSecs,
		}).Error
}

// Mutate loads the session row FOR UPDATE, applies fn and saves the
// result, all within one transaction. Concurrent transitions for the
// same user and shift date serialize on the row lock.
func (r *sessionRepository) Mutate(ctx context.Context, userID uint, shiftDate time.Time, fn func(tx SessionTx, session *models.WorkSession) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session models.WorkSession
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND shift_date = ?", userID, shiftDate).
			First(&session).Error
		if err != nil {
			return err
		}
		if err := fn(&sessionTx{tx: tx}, &session); err != nil {
			return err
		}
		return tx.Save(&session).Error
	})
}

// ListByUser retrieves a user's sessions within a date range
func (r *sessionRepository) ListByUser(ctx context.Context, userID uint, from, to time.Time, offset, limit int) ([]models.WorkSession, int64, error) {
	var sessions []models.WorkSession
	var total int64

	query := r.db.WithContext(ctx).Model(&models.WorkSession{}).
		Where("user_id = ?", userID)
	if !from.IsZero() {
		query = query.Where("shift_date >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("shift_date <= ?", to)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("shift_date DESC").Offset(offset).Limit(limit).Find(&sessions).Error
	if err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

// ListOpenOn retrieves all sessions still open on a shift date
func (r *sessionRepository) ListOpenOn(ctx context.Context, shiftDate time.Time) ([]models.WorkSession, error) {
	var sessions []models.WorkSession
	err := r.db.WithContext(ctx).
		Where("shift_date = ? AND status IN ?", shiftDate,
			[]string{models.SessionStatusActive, models.SessionStatusOnBreak}).
		Find(&sessions).Error
	return sessions, err
}

// ListBreaks retrieves all break records for a session
func (r *sessionRepository) ListBreaks(ctx context.Context, sessionID uint) ([]models.BreakRecord, error) {
	var breaks []models.BreakRecord
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("start_at ASC").
		Find(&breaks).Error
	return breaks, err
}
