package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"shams-vision/internal/adapters/persistence/models"
)

// MasterRepository handles store and route master data persistence
type MasterRepository struct {
	db *gorm.DB
}

// NewMasterRepository creates a new master data repository
func NewMasterRepository(db *gorm.DB) *MasterRepository {
	return &MasterRepository{db: db}
}

// ============================================================
// Stores
// ============================================================

// CreateStore creates a new store
func (r *MasterRepository) CreateStore(ctx context.Context, store *models.Store) error {
	return r.db.WithContext(ctx).Create(store).Error
}

// GetStoreByID retrieves a store by ID
func (r *MasterRepository) GetStoreByID(ctx context.Context, id uint) (*models.Store, error) {
	var store models.Store
	err := r.db.WithContext(ctx).First(&store, id).Error
	if err != nil {
		return nil, err
	}
	return &store, nil
}

// UpdateStore updates a store
func (r *MasterRepository) UpdateStore(ctx context.Context, store *models.Store) error {
	return r.db.WithContext(ctx).Save(store).Error
}

// ListStores retrieves stores filtered by district and priority
func (r *MasterRepository) ListStores(ctx context.Context, district, priority string, offset, limit int) ([]models.Store, int64, error) {
	var stores []models.Store
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Store{}).
		Where("status = ?", models.StoreStatusActive)
	if district != "" {
		query = query.Where("district = ?", district)
	}
	if priority != "" {
		query = query.Where("priority = ?", priority)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("name ASC").Offset(offset).Limit(limit).Find(&stores).Error
	if err != nil {
		return nil, 0, err
	}
	return stores, total, nil
}

// ============================================================
// Routes
// ============================================================

// CreateRoute creates a route together with its ordered store stops
func (r *MasterRepository) CreateRoute(ctx context.Context, route *models.Route, storeIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(route).Error; err != nil {
			return err
		}
		for i, storeID := range storeIDs {
			stop := models.RouteStore{
				RouteID:  route.ID,
				StoreID:  storeID,
				Sequence: i + 1,
				Status:   models.RouteStoreStatusPending,
			}
			if err := tx.Create(&stop).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetRouteByID retrieves a route with its stops and their stores
func (r *MasterRepository) GetRouteByID(ctx context.Context, id uint) (*models.Route, error) {
	var route models.Route
	err := r.db.WithContext(ctx).
		Preload("Stores", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC")
		}).
		Preload("Stores.Store").
		First(&route, id).Error
	if err != nil {
		return nil, err
	}
	return &route, nil
}

// UpdateRoute updates a route
func (r *MasterRepository) UpdateRoute(ctx context.Context, route *models.Route) error {
	return r.db.WithContext(ctx).Save(route).Error
}

// ListRoutes retrieves routes filtered by assignee, date and status
func (r *MasterRepository) ListRoutes(ctx context.Context, assignedTo uint, routeDate time.Time, status string, offset, limit int) ([]models.Route, int64, error) {
	var routes []models.Route
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Route{})
	if assignedTo != 0 {
		query = query.Where("assigned_to = ?", assignedTo)
	}
	if !routeDate.IsZero() {
		query = query.Where("route_date = ?", routeDate)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("route_date DESC").Offset(offset).Limit(limit).Find(&routes).Error
	if err != nil {
		return nil, 0, err
	}
	return routes, total, nil
}

// GetRouteStore retrieves a single stop on a route
func (r *MasterRepository) GetRouteStore(ctx context.Context, routeID, storeID uint) (*models.RouteStore, error) {
	var stop models.RouteStore
	err := r.db.WithContext(ctx).
		Where("route_id = ? AND store_id = ?", routeID, storeID).
		First(&stop).Error
	if err != nil {
		return nil, err
	}
	return &stop, nil
}

// UpdateRouteStoreStatus marks a stop's outcome on a route
func (r *MasterRepository) UpdateRouteStoreStatus(ctx context.Context, routeID, storeID uint, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.RouteStore{}).
		Where("route_id = ? AND store_id = ?", routeID, storeID).
		Update("status", status).Error
}

// ListPendingStops retrieves stops on a route that were never visited
func (r *MasterRepository) ListPendingStops(ctx context.Context, routeID uint) ([]models.RouteStore, error) {
	var stops []models.RouteStore
	err := r.db.WithContext(ctx).
		Preload("Store").
		Where("route_id = ? AND status = ?", routeID, models.RouteStoreStatusPending).
		Order("sequence ASC").
		Find(&stops).Error
	return stops, err
}
