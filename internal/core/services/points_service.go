package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"shams-vision/internal/adapters/persistence/models"
	"shams-vision/internal/adapters/persistence/repositories"
)

// Points errors
var (
	ErrInsufficientPoints = errors.New("insufficient available points")
	ErrInvalidAmount      = errors.New("amount must be positive")
)

// Visit score tiers in points
const (
	ScorePerfectVisit    = 150
	ScoreHighQuality     = 125
	ScoreStandardQuality = 100
	ScoreLowQuality      = 70

	highQualityRatio     = 0.8
	standardQualityRatio = 0.5
)

// missedVisitTier holds the sanction for skipping a store of a given priority
type missedVisitTier struct {
	Points int64
	Fine   float64
}

// missedVisitTiers maps store priority to its missed-visit sanction
var missedVisitTiers = map[string]missedVisitTier{
	models.PriorityHigh:   {Points: 100, Fine: 100},
	models.PriorityMedium: {Points: 75, Fine: 75},
	models.PriorityLow:    {Points: 50, Fine: 50},
}

// PointsService owns the points ledger. All balance movement goes
// through ApplyDelta so the ledger always reconciles with the stored
// balances.
type PointsService struct {
	pointsRepo repositories.PointsRepository
	notifier   Notifier
}

// NewPointsService creates a new points service
func NewPointsService(pointsRepo repositories.PointsRepository, notifier Notifier) *PointsService {
	return &PointsService{
		pointsRepo: pointsRepo,
		notifier:   notifier,
	}
}

// ApplyDelta records one signed ledger movement. Balances can go
// negative: the ledger is the source of truth and its sum must always
// equal the stored total.
func (s *PointsService) ApplyDelta(ctx context.Context, txn *models.PointsTransaction) error {
	if err := s.pointsRepo.ApplyDelta(ctx, txn); err != nil {
		return err
	}

	kind := models.NotifyPointsEarned
	title := "Points earned"
	if txn.Amount < 0 {
		kind = models.NotifyPointsDeducted
		title = "Points deducted"
	}
	entityType := models.EntityPointsTransaction
	s.notify(ctx, &models.Notification{
		UserID:     txn.UserID,
		Kind:       kind,
		Title:      title,
		Message:    txn.Description,
		Priority:   models.NotifyPriorityLow,
		EntityType: &entityType,
		EntityID:   &txn.ID,
	})
	return nil
}

// scoreTier maps image review counts to a score and activity type.
// Pending images are excluded from both sides of the ratio, so a visit
// whose images are all unreviewed scores the completion base.
func scoreTier(counts repositories.ImageCounts) (int64, string) {
	if counts.Total == 0 || counts.Decided() == 0 {
		return ScoreStandardQuality, models.ActivityVisitCompleted
	}

	ratio := float64(counts.Approved) / float64(counts.Decided())
	switch {
	case ratio >= 1.0:
		return ScorePerfectVisit, models.ActivityPerfectVisit
	case ratio >= highQualityRatio:
		return ScoreHighQuality, models.ActivityHighQuality
	case ratio >= standardQualityRatio:
		return ScoreStandardQuality, models.ActivityStandardQuality
	default:
		return ScoreLowQuality, models.ActivityLowQuality
	}
}

// ScoreVisit awards points for a completed visit based on its image
// quality ratio. Idempotent: a visit that already carries a score is
// left alone, recheck handles later adjustments.
func (s *PointsService) ScoreVisit(ctx context.Context, visit *models.StoreVisit, counts repositories.ImageCounts) (int64, error) {
	_, scored, err := s.pointsRepo.SumVisitScoring(ctx, visit.ID)
	if err != nil {
		return 0, err
	}
	if scored {
		return 0, nil
	}

	score, activity := scoreTier(counts)
	txn := &models.PointsTransaction{
		UserID:       visit.UserID,
		Amount:       score,
		ActivityType: activity,
		Description:  fmt.Sprintf("Store visit #%d completed", visit.ID),
		VisitID:      &visit.ID,
		StoreID:      &visit.StoreID,
		RouteID:      &visit.RouteID,
	}
	if err := s.ApplyDelta(ctx, txn); err != nil {
		return 0, err
	}
	return score, nil
}

// RecheckVisit recomputes a visit's score after image reviews changed
// and applies only the difference as a fresh ledger entry. The original
// scoring transaction is never mutated.
func (s *PointsService) RecheckVisit(ctx context.Context, visit *models.StoreVisit, counts repositories.ImageCounts) (int64, error) {
	applied, scored, err := s.pointsRepo.SumVisitScoring(ctx, visit.ID)
	if err != nil {
		return 0, err
	}
	if !scored {
		return s.ScoreVisit(ctx, visit, counts)
	}

	target, activity := scoreTier(counts)
	delta := target - applied
	if delta == 0 {
		return 0, nil
	}

	txn := &models.PointsTransaction{
		UserID:       visit.UserID,
		Amount:       delta,
		ActivityType: activity,
		Description:  fmt.Sprintf("Score adjustment for store visit #%d after image review", visit.ID),
		VisitID:      &visit.ID,
		StoreID:      &visit.StoreID,
		RouteID:      &visit.RouteID,
	}
	if err := s.ApplyDelta(ctx, txn); err != nil {
		return 0, err
	}
	return delta, nil
}

// MissedVisitPenalty sanctions a skipped store: a points deduction
// scaled by store priority plus a financial penalty record of the same
// magnitude in SAR
func (s *PointsService) MissedVisitPenalty(ctx context.Context, userID, routeID uint, store *models.Store, visitID *uint) (*models.Penalty, error) {
	tier, ok := missedVisitTiers[store.Priority]
	if !ok {
		tier = missedVisitTiers[models.PriorityLow]
	}

	txn := &models.PointsTransaction{
		UserID:       userID,
		Amount:       -tier.Points,
		ActivityType: models.ActivityMissedVisit,
		Description:  fmt.Sprintf("Missed visit to %s (%s priority)", store.Name, store.Priority),
		VisitID:      visitID,
		StoreID:      &store.ID,
		RouteID:      &routeID,
	}
	if err := s.ApplyDelta(ctx, txn); err != nil {
		return nil, err
	}

	penalty := &models.Penalty{
		UserID:         userID,
		Amount:         tier.Fine,
		PointsDeducted: tier.Points,
		PenaltyType:    models.PenaltyTypeFinancial,
		Reason:         fmt.Sprintf("Missed scheduled visit to %s", store.Name),
		Status:         models.PenaltyStatusIssued,
		VisitID:        visitID,
		StoreID:        &store.ID,
		RouteID:        &routeID,
	}
	if err := s.pointsRepo.CreatePenalty(ctx, penalty); err != nil {
		return nil, err
	}

	entityType := models.EntityPenalty
	s.notify(ctx, &models.Notification{
		UserID:     userID,
		Kind:       models.NotifyPenaltyIssued,
		Title:      "Penalty issued",
		Message:    penalty.Reason,
		Priority:   models.NotifyPriorityHigh,
		EntityType: &entityType,
		EntityID:   &penalty.ID,
	})
	return penalty, nil
}

// IssuePenalty records a manual penalty from a manager, deducting
// points when the penalty carries a deduction
func (s *PointsService) IssuePenalty(ctx context.Context, penalty *models.Penalty) error {
	if penalty.PointsDeducted > 0 {
		txn := &models.PointsTransaction{
			UserID:       penalty.UserID,
			Amount:       -penalty.PointsDeducted,
			ActivityType: models.ActivityPenalty,
			Description:  penalty.Reason,
			VisitID:      penalty.VisitID,
			StoreID:      penalty.StoreID,
			RouteID:      penalty.RouteID,
		}
		if err := s.ApplyDelta(ctx, txn); err != nil {
			return err
		}
	}

	if err := s.pointsRepo.CreatePenalty(ctx, penalty); err != nil {
		return err
	}

	entityType := models.EntityPenalty
	s.notify(ctx, &models.Notification{
		UserID:     penalty.UserID,
		Kind:       models.NotifyPenaltyIssued,
		Title:      "Penalty issued",
		Message:    penalty.Reason,
		Priority:   models.NotifyPriorityHigh,
		EntityType: &entityType,
		EntityID:   &penalty.ID,
	})
	return nil
}

// RedeemPoints spends available points
func (s *PointsService) RedeemPoints(ctx context.Context, userID uint, amount int64, description string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	balance, err := s.pointsRepo.GetBalance(ctx, userID)
	if err != nil {
		return err
	}
	if balance.AvailablePoints < amount {
		return ErrInsufficientPoints
	}

	txn := &models.PointsTransaction{
		UserID:       userID,
		Amount:       -amount,
		ActivityType: models.ActivityRedeemed,
		Description:  description,
	}
	return s.ApplyDelta(ctx, txn)
}

// GetBalance retrieves a user's points balance
func (s *PointsService) GetBalance(ctx context.Context, userID uint) (*models.UserPoints, error) {
	return s.pointsRepo.GetBalance(ctx, userID)
}

// ListTransactions retrieves a user's ledger history
func (s *PointsService) ListTransactions(ctx context.Context, userID uint, offset, limit int) ([]models.PointsTransaction, int64, error) {
	return s.pointsRepo.ListTransactions(ctx, userID, offset, limit)
}

// ListPenalties retrieves penalties, optionally scoped to one user
func (s *PointsService) ListPenalties(ctx context.Context, userID uint, offset, limit int) ([]models.Penalty, int64, error) {
	return s.pointsRepo.ListPenalties(ctx, userID, offset, limit)
}

// UpdatePenaltyStatus moves a penalty through its workflow
func (s *PointsService) UpdatePenaltyStatus(ctx context.Context, id uint, status string) (*models.Penalty, error) {
	penalty, err := s.pointsRepo.GetPenaltyByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.pointsRepo.UpdatePenaltyStatus(ctx, id, status); err != nil {
		return nil, err
	}
	penalty.Status = status
	return penalty, nil
}

// Leaderboard retrieves the top balances by lifetime points
func (s *PointsService) Leaderboard(ctx context.Context, limit int) ([]models.UserPoints, error) {
	return s.pointsRepo.Leaderboard(ctx, limit)
}

// notify pushes a notification without failing the caller
func (s *PointsService) notify(ctx context.Context, n *models.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Push(ctx, n); err != nil {
		log.Printf("⚠️ Failed to push notification for user %d: %v", n.UserID, err)
	}
}
