package repositories

import (
	"context"
	"time"

	"shams-vision/internal/adapters/persistence/models"
)

// UserRepository defines user repository interface.
// All lookups exclude soft-deleted accounts (status != ACTIVE filtered
// where noted).
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByWorkID(ctx context.Context, workID string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	SoftDelete(ctx context.Context, id uint) error
	List(ctx context.Context, role string, offset, limit int) ([]*models.User, int64, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByWorkID(ctx context.Context, workID string) (bool, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) error
}

// SessionTx exposes the break mutations available inside a locked
// session transaction
type SessionTx interface {
	CreateBreak(b *models.BreakRecord) error
	CloseOpenBreak(sessionID uint, endAt time.Time, durationSecs int64) error
}

// SessionRepository defines work session repository interface.
// Mutate serializes all writes for one (user, shift date) pair behind a
// row lock so concurrent transitions cannot corrupt break accounting.
type SessionRepository interface {
	Create(ctx context.Context, session *models.WorkSession) error
	GetByID(ctx context.Context, id uint) (*models.WorkSession, error)
	GetByUserAndDate(ctx context.Context, userID uint, shiftDate time.Time) (*models.WorkSession, error)
	Mutate(ctx context.Context, userID uint, shiftDate time.Time, fn func(tx SessionTx, session *models.WorkSession) error) error
	ListByUser(ctx context.Context, userID uint, from, to time.Time, offset, limit int) ([]models.WorkSession, int64, error)
	ListOpenOn(ctx context.Context, shiftDate time.Time) ([]models.WorkSession, error)
	ListBreaks(ctx context.Context, sessionID uint) ([]models.BreakRecord, error)
}

// PointsRepository defines points ledger repository interface.
// ApplyDelta is the only write path for balances: it appends the
// transaction row and increments the balance in one database
// transaction using atomic update expressions.
type PointsRepository interface {
	ApplyDelta(ctx context.Context, txn *models.PointsTransaction) error
	GetBalance(ctx context.Context, userID uint) (*models.UserPoints, error)
	SumVisitScoring(ctx context.Context, visitID uint) (total int64, scored bool, err error)
	ListTransactions(ctx context.Context, userID uint, offset, limit int) ([]models.PointsTransaction, int64, error)
	SumTransactions(ctx context.Context, userID uint) (int64, error)
	CreatePenalty(ctx context.Context, penalty *models.Penalty) error
	ListPenalties(ctx context.Context, userID uint, offset, limit int) ([]models.Penalty, int64, error)
	GetPenaltyByID(ctx context.Context, id uint) (*models.Penalty, error)
	UpdatePenaltyStatus(ctx context.Context, id uint, status string) error
	Leaderboard(ctx context.Context, limit int) ([]models.UserPoints, error)
}
