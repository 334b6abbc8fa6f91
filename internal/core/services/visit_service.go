package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"shams-vision/internal/adapters/persistence/models"
	"shams-vision/internal/adapters/persistence/repositories"
)

// Visit errors
var (
	ErrStoreNotOnRoute      = errors.New("store is not a stop on this route")
	ErrStopAlreadyHandled   = errors.New("store already visited or skipped on this route")
	ErrVisitAlreadyStarted  = errors.New("a visit to this store is already in progress")
	ErrVisitNotOpen         = errors.New("visit is not in progress")
	ErrVisitNotOwned        = errors.New("visit belongs to another agent")
	ErrImageAlreadyDecided  = errors.New("image has already been reviewed")
	ErrInvalidFlagReason    = errors.New("invalid flag reason")
	ErrVisitNotFound        = errors.New("visit not found")
	ErrFlagAlreadyResolved  = errors.New("flag already resolved")
	ErrInvalidQualityStatus = errors.New("invalid quality status")
)

var flagReasons = map[string]bool{
	models.FlagReasonClosedPermanently: true,
	models.FlagReasonAccessDenied:      true,
	models.FlagReasonWrongLocation:     true,
	models.FlagReasonInventoryIssue:    true,
	models.FlagReasonOther:             true,
}

// VisitService manages store visits on routes and feeds completed
// visits into the scoring engine
type VisitService struct {
	visitRepo     *repositories.VisitRepository
	masterRepo    *repositories.MasterRepository
	pointsService *PointsService
	notifier      Notifier
	now           func() time.Time
}

// NewVisitService creates a new visit service
func NewVisitService(visitRepo *repositories.VisitRepository, masterRepo *repositories.MasterRepository, pointsService *PointsService, notifier Notifier) *VisitService {
	return &VisitService{
		visitRepo:     visitRepo,
		masterRepo:    masterRepo,
		pointsService: pointsService,
		notifier:      notifier,
		now:           time.Now,
	}
}

// StartVisit opens a visit at a store that is a pending stop on the
// agent's route
func (s *VisitService) StartVisit(ctx context.Context, userID, routeID, storeID uint, lat, lng *float64) (*models.StoreVisit, error) {
	if err := validateLocation(lat, lng); err != nil {
		return nil, err
	}

	stop, err := s.masterRepo.GetRouteStore(ctx, routeID, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotOnRoute
		}
		return nil, err
	}
	if stop.Status != models.RouteStoreStatusPending {
		return nil, ErrStopAlreadyHandled
	}

	if _, err := s.visitRepo.GetOpenByUserAndStore(ctx, userID, routeID, storeID); err == nil {
		return nil, ErrVisitAlreadyStarted
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := s.now()
	visit := &models.StoreVisit{
		UserID:         userID,
		RouteID:        routeID,
		StoreID:        storeID,
		EntryAt:        &now,
		EntryLatitude:  lat,
		EntryLongitude: lng,
		Status:         models.VisitStatusInProgress,
	}
	if err := s.visitRepo.Create(ctx, visit); err != nil {
		return nil, err
	}
	return visit, nil
}

// CompleteVisit submits an in-progress visit, marks the route stop
// visited and awards the visit score
func (s *VisitService) CompleteVisit(ctx context.Context, userID, visitID uint, lat, lng *float64) (*models.StoreVisit, error) {
	if err := validateLocation(lat, lng); err != nil {
		return nil, err
	}

	visit, err := s.getOwnedVisit(ctx, userID, visitID)
	if err != nil {
		return nil, err
	}
	if visit.Status != models.VisitStatusInProgress {
		return nil, ErrVisitNotOpen
	}

	now := s.now()
	visit.ExitAt = &now
	visit.ExitLatitude = lat
	visit.ExitLongitude = lng
	visit.SubmittedAt = &now
	visit.Status = models.VisitStatusCompleted
	if err := s.visitRepo.Update(ctx, visit); err != nil {
		return nil, err
	}

	if err := s.masterRepo.UpdateRouteStoreStatus(ctx, visit.RouteID, visit.StoreID, models.RouteStoreStatusVisited); err != nil {
		return nil, err
	}

	counts, err := s.visitRepo.CountImages(ctx, visit.ID)
	if err != nil {
		return nil, err
	}
	if _, err := s.pointsService.ScoreVisit(ctx, visit, counts); err != nil {
		log.Printf("⚠️ Failed to score visit %d: %v", visit.ID, err)
	}
	return visit, nil
}

// SkipVisit marks a pending stop as skipped and applies the missed
// visit sanction for the store's priority
func (s *VisitService) SkipVisit(ctx context.Context, userID, routeID, storeID uint) (*models.Penalty, error) {
	stop, err := s.masterRepo.GetRouteStore(ctx, routeID, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotOnRoute
		}
		return nil, err
	}
	if stop.Status != models.RouteStoreStatusPending {
		return nil, ErrStopAlreadyHandled
	}

	store, err := s.masterRepo.GetStoreByID(ctx, storeID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	visit := &models.StoreVisit{
		UserID:      userID,
		RouteID:     routeID,
		StoreID:     storeID,
		Status:      models.VisitStatusSkipped,
		SubmittedAt: &now,
	}
	if err := s.visitRepo.Create(ctx, visit); err != nil {
		return nil, err
	}

	if err := s.masterRepo.UpdateRouteStoreStatus(ctx, routeID, storeID, models.RouteStoreStatusSkipped); err != nil {
		return nil, err
	}

	return s.pointsService.MissedVisitPenalty(ctx, userID, routeID, store, &visit.ID)
}

// FlagVisit records a legitimate reason a store could not be serviced.
// The stop is closed without a penalty and the flag queues for manager
// review.
func (s *VisitService) FlagVisit(ctx context.Context, userID, visitID uint, reason, details string) (*models.FlaggedStore, error) {
	if !flagReasons[reason] {
		return nil, ErrInvalidFlagReason
	}

	visit, err := s.getOwnedVisit(ctx, userID, visitID)
	if err != nil {
		return nil, err
	}
	if visit.Status != models.VisitStatusInProgress {
		return nil, ErrVisitNotOpen
	}

	now := s.now()
	visit.Status = models.VisitStatusFlagged
	visit.SubmittedAt = &now
	if err := s.visitRepo.Update(ctx, visit); err != nil {
		return nil, err
	}

	if err := s.masterRepo.UpdateRouteStoreStatus(ctx, visit.RouteID, visit.StoreID, models.RouteStoreStatusSkipped); err != nil {
		return nil, err
	}

	flag := &models.FlaggedStore{
		VisitID:   visit.ID,
		Reason:    reason,
		Details:   details,
		FlaggedBy: userID,
	}
	if err := s.visitRepo.CreateFlaggedStore(ctx, flag); err != nil {
		return nil, err
	}

	entityType := models.EntityVisit
	s.notify(ctx, &models.Notification{
		UserID:     userID,
		Kind:       models.NotifyVisitFlagged,
		Title:      "Store flagged",
		Message:    fmt.Sprintf("Your flag on visit #%d was submitted for review", visit.ID),
		Priority:   models.NotifyPriorityMedium,
		EntityType: &entityType,
		EntityID:   &visit.ID,
	})
	return flag, nil
}

// AddImage attaches a captured photo to an in-progress visit
func (s *VisitService) AddImage(ctx context.Context, userID, visitID uint, objectKey, imageType string) (*models.VisitImage, error) {
	visit, err := s.getOwnedVisit(ctx, userID, visitID)
	if err != nil {
		return nil, err
	}
	if visit.Status != models.VisitStatusInProgress {
		return nil, ErrVisitNotOpen
	}

	switch imageType {
	case models.ImageTypeProduct, models.ImageTypeStorefront, models.ImageTypeOther:
	default:
		imageType = models.ImageTypeOther
	}

	image := &models.VisitImage{
		VisitID:       visit.ID,
		UserID:        userID,
		ObjectKey:     objectKey,
		ImageType:     imageType,
		QualityStatus: models.QualityPending,
		CapturedAt:    s.now(),
	}
	if err := s.visitRepo.CreateImage(ctx, image); err != nil {
		return nil, err
	}
	return image, nil
}

// ReviewImage records a quality decision for an image and reapplies
// the visit score if the decision changes the quality ratio
func (s *VisitService) ReviewImage(ctx context.Context, reviewerID, imageID uint, status string) (*models.VisitImage, error) {
	if status != models.QualityApproved && status != models.QualityRejected {
		return nil, ErrInvalidQualityStatus
	}

	image, err := s.visitRepo.GetImageByID(ctx, imageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVisitNotFound
		}
		return nil, err
	}
	if image.QualityStatus != models.QualityPending {
		return nil, ErrImageAlreadyDecided
	}

	now := s.now()
	image.QualityStatus = status
	image.QualityCheckedBy = &reviewerID
	image.QualityCheckedAt = &now
	if err := s.visitRepo.UpdateImage(ctx, image); err != nil {
		return nil, err
	}

	visit, err := s.visitRepo.GetByID(ctx, image.VisitID)
	if err != nil {
		return nil, err
	}

	kind := models.NotifyImageApproved
	if status == models.QualityRejected {
		kind = models.NotifyImageRejected
	}
	entityType := models.EntityVisit
	s.notify(ctx, &models.Notification{
		UserID:     image.UserID,
		Kind:       kind,
		Title:      "Image reviewed",
		Message:    fmt.Sprintf("An image from visit #%d was %s", visit.ID, status),
		Priority:   models.NotifyPriorityLow,
		EntityType: &entityType,
		EntityID:   &visit.ID,
	})

	if visit.Status == models.VisitStatusCompleted {
		counts, err := s.visitRepo.CountImages(ctx, visit.ID)
		if err != nil {
			return nil, err
		}
		if _, err := s.pointsService.RecheckVisit(ctx, visit, counts); err != nil {
			log.Printf("⚠️ Failed to recheck visit %d: %v", visit.ID, err)
		}
	}
	return image, nil
}

// GetVisit retrieves a visit with its store and images
func (s *VisitService) GetVisit(ctx context.Context, id uint) (*models.StoreVisit, error) {
	visit, err := s.visitRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVisitNotFound
		}
		return nil, err
	}
	return visit, nil
}

// ListVisits retrieves visits filtered by user, route and status
func (s *VisitService) ListVisits(ctx context.Context, userID, routeID uint, status string, offset, limit int) ([]models.StoreVisit, int64, error) {
	return s.visitRepo.List(ctx, userID, routeID, status, offset, limit)
}

// ListFlags retrieves store flags for manager review
func (s *VisitService) ListFlags(ctx context.Context, unresolvedOnly bool, offset, limit int) ([]models.FlaggedStore, int64, error) {
	return s.visitRepo.ListFlaggedStores(ctx, unresolvedOnly, offset, limit)
}

// ResolveFlag closes a store flag with a resolution note
func (s *VisitService) ResolveFlag(ctx context.Context, flagID, resolvedBy uint, note string) error {
	return s.visitRepo.ResolveFlaggedStore(ctx, flagID, resolvedBy, note)
}

// getOwnedVisit loads a visit and verifies ownership
func (s *VisitService) getOwnedVisit(ctx context.Context, userID, visitID uint) (*models.StoreVisit, error) {
	visit, err := s.visitRepo.GetByID(ctx, visitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVisitNotFound
		}
		return nil, err
	}
	if visit.UserID != userID {
		return nil, ErrVisitNotOwned
	}
	return visit, nil
}

// notify pushes a notification without failing the caller
func (s *VisitService) notify(ctx context.Context, n *models.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Push(ctx, n); err != nil {
		log.Printf("⚠️ Failed to push notification for user %d: %v", n.UserID, err)
	}
}
