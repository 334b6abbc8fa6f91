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
	"shams-vision/internal/core/domain"
)

// Route errors
var (
	ErrRouteNotFound      = errors.New("route not found")
	ErrRouteClosed        = errors.New("route is already closed")
	ErrRouteNotActive     = errors.New("route is not active")
	ErrEmptyRoute         = errors.New("route needs at least one store")
	ErrStoreNotFound      = errors.New("store not found")
	ErrAssigneeNotAgent   = errors.New("routes can only be assigned to field agents")
	ErrRouteNotAssignedTo = errors.New("route is assigned to another agent")
)

// RouteService manages store master data and daily routes
type RouteService struct {
	masterRepo    *repositories.MasterRepository
	userRepo      repositories.UserRepository
	pointsService *PointsService
	notifier      Notifier
	now           func() time.Time
}

// NewRouteService creates a new route service
func NewRouteService(masterRepo *repositories.MasterRepository, userRepo repositories.UserRepository, pointsService *PointsService, notifier Notifier) *RouteService {
	return &RouteService{
		masterRepo:    masterRepo,
		userRepo:      userRepo,
		pointsService: pointsService,
		notifier:      notifier,
		now:           time.Now,
	}
}

// ============================================================
// Stores
// ============================================================

// CreateStore creates a new store
func (s *RouteService) CreateStore(ctx context.Context, store *models.Store) error {
	if store.Status == "" {
		store.Status = models.StoreStatusActive
	}
	if store.Priority == "" {
		store.Priority = models.PriorityMedium
	}
	return s.masterRepo.CreateStore(ctx, store)
}

// GetStore retrieves a store by ID
func (s *RouteService) GetStore(ctx context.Context, id uint) (*models.Store, error) {
	store, err := s.masterRepo.GetStoreByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}
	return store, nil
}

// UpdateStore updates a store
func (s *RouteService) UpdateStore(ctx context.Context, store *models.Store) error {
	return s.masterRepo.UpdateStore(ctx, store)
}

// ListStores retrieves active stores filtered by district and priority
func (s *RouteService) ListStores(ctx context.Context, district, priority string, offset, limit int) ([]models.Store, int64, error) {
	return s.masterRepo.ListStores(ctx, district, priority, offset, limit)
}

// ============================================================
// Routes
// ============================================================

// CreateRoute plans a route of ordered stores for a field agent
func (s *RouteService) CreateRoute(ctx context.Context, name string, assignedTo uint, routeDate time.Time, storeIDs []uint) (*models.Route, error) {
	if len(storeIDs) == 0 {
		return nil, ErrEmptyRoute
	}

	agent, err := s.userRepo.GetByID(ctx, assignedTo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	if !agent.IsFieldAgent() {
		return nil, ErrAssigneeNotAgent
	}

	for _, storeID := range storeIDs {
		if _, err := s.masterRepo.GetStoreByID(ctx, storeID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrStoreNotFound
			}
			return nil, err
		}
	}

	route := &models.Route{
		Name:       name,
		AssignedTo: assignedTo,
		RouteDate:  shiftDate(routeDate),
		Status:     models.RouteStatusPlanned,
	}
	if err := s.masterRepo.CreateRoute(ctx, route, storeIDs); err != nil {
		return nil, err
	}

	entityType := models.EntityRoute
	s.notify(ctx, &models.Notification{
		UserID:     assignedTo,
		Kind:       models.NotifyRouteAssigned,
		Title:      "New route assigned",
		Message:    fmt.Sprintf("Route %q with %d stores on %s", name, len(storeIDs), route.RouteDate.Format("2006-01-02")),
		Priority:   models.NotifyPriorityMedium,
		EntityType: &entityType,
		EntityID:   &route.ID,
	})
	return route, nil
}

// GetRoute retrieves a route with its ordered stops
func (s *RouteService) GetRoute(ctx context.Context, id uint) (*models.Route, error) {
	route, err := s.masterRepo.GetRouteByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRouteNotFound
		}
		return nil, err
	}
	return route, nil
}

// ListRoutes retrieves routes filtered by assignee, date and status
func (s *RouteService) ListRoutes(ctx context.Context, assignedTo uint, routeDate time.Time, status string, offset, limit int) ([]models.Route, int64, error) {
	return s.masterRepo.ListRoutes(ctx, assignedTo, routeDate, status, offset, limit)
}

// ActivateRoute moves a planned route to active when the agent starts it
func (s *RouteService) ActivateRoute(ctx context.Context, routeID, userID uint) (*models.Route, error) {
	route, err := s.GetRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}
	if route.AssignedTo != userID {
		return nil, ErrRouteNotAssignedTo
	}
	if route.Status != models.RouteStatusPlanned {
		return nil, ErrRouteNotActive
	}

	route.Status = models.RouteStatusActive
	if err := s.masterRepo.UpdateRoute(ctx, route); err != nil {
		return nil, err
	}
	return route, nil
}

// CloseRoute finalizes a route. Every stop that was never visited or
// skipped gets the missed visit sanction before the route closes.
func (s *RouteService) CloseRoute(ctx context.Context, routeID, closedBy uint) (*models.Route, int, error) {
	route, err := s.GetRoute(ctx, routeID)
	if err != nil {
		return nil, 0, err
	}
	if route.Status == models.RouteStatusClosed {
		return nil, 0, ErrRouteClosed
	}

	pending, err := s.masterRepo.ListPendingStops(ctx, routeID)
	if err != nil {
		return nil, 0, err
	}

	missed := 0
	for _, stop := range pending {
		store := stop.Store
		if store == nil {
			loaded, err := s.masterRepo.GetStoreByID(ctx, stop.StoreID)
			if err != nil {
				log.Printf("⚠️ Skipping missed-visit sanction for store %d: %v", stop.StoreID, err)
				continue
			}
			store = loaded
		}
		if _, err := s.pointsService.MissedVisitPenalty(ctx, route.AssignedTo, routeID, store, nil); err != nil {
			log.Printf("⚠️ Failed to sanction missed visit to store %d: %v", stop.StoreID, err)
			continue
		}
		if err := s.masterRepo.UpdateRouteStoreStatus(ctx, routeID, stop.StoreID, models.RouteStoreStatusSkipped); err != nil {
			log.Printf("⚠️ Failed to close stop for store %d: %v", stop.StoreID, err)
		}
		missed++
	}

	now := s.now()
	route.Status = models.RouteStatusClosed
	route.ClosedAt = &now
	route.ClosedBy = &closedBy
	if err := s.masterRepo.UpdateRoute(ctx, route); err != nil {
		return nil, missed, err
	}

	entityType := models.EntityRoute
	s.notify(ctx, &models.Notification{
		UserID:     route.AssignedTo,
		Kind:       models.NotifyRouteClosed,
		Title:      "Route closed",
		Message:    fmt.Sprintf("Route %q was closed with %d missed stores", route.Name, missed),
		Priority:   models.NotifyPriorityMedium,
		EntityType: &entityType,
		EntityID:   &route.ID,
	})
	return route, missed, nil
}

// notify pushes a notification without failing the caller
func (s *RouteService) notify(ctx context.Context, n *models.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Push(ctx, n); err != nil {
		log.Printf("⚠️ Failed to push notification for user %d: %v", n.UserID, err)
	}
}
