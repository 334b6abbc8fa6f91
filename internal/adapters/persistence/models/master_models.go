package models

import (
	"time"
)

// ============================================================
// Master Tables: Stores & Routes
// ============================================================

// Store priority levels (drive the missed-visit penalty multiplier)
const (
	PriorityHigh   = "HIGH"
	PriorityMedium = "MEDIUM"
	PriorityLow    = "LOW"
)

// Store statuses
const (
	StoreStatusActive   = "ACTIVE"
	StoreStatusInactive = "INACTIVE"
)

// Store represents stores table
type Store struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	Name      string   `gorm:"size:200;not null;index" json:"name"`
	Code      string   `gorm:"size:50;uniqueIndex" json:"code"`
	District  string   `gorm:"size:200;index" json:"district"`
	Address   string   `gorm:"type:text" json:"address"`
	Latitude  *float64 `gorm:"type:decimal(9,6)" json:"latitude"`
	Longitude *float64 `gorm:"type:decimal(9,6)" json:"longitude"`
	Priority  string   `gorm:"size:20;default:'MEDIUM';index" json:"priority"`
	Status    string   `gorm:"size:20;default:'ACTIVE';index" json:"status"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Store) TableName() string {
	return "stores"
}

// Route statuses
const (
	RouteStatusPlanned   = "PLANNED"
	RouteStatusActive    = "ACTIVE"
	RouteStatusCompleted = "COMPLETED"
	RouteStatusClosed    = "CLOSED"
)

// Route represents routes table, an ordered set of stores assigned to one agent
type Route struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Name       string     `gorm:"size:200;not null" json:"name"`
	AssignedTo uint       `gorm:"not null;index" json:"assigned_to"`
	RouteDate  time.Time  `gorm:"type:date;not null;index" json:"route_date"`
	Status     string     `gorm:"size:20;default:'PLANNED';index" json:"status"`
	ClosedAt   *time.Time `json:"closed_at"`
	ClosedBy   *uint      `json:"closed_by"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Agent  *User        `gorm:"foreignKey:AssignedTo" json:"agent,omitempty"`
	Stores []RouteStore `gorm:"foreignKey:RouteID" json:"stores,omitempty"`
}

func (Route) TableName() string {
	return "routes"
}

// RouteStore statuses
const (
	RouteStoreStatusPending = "PENDING"
	RouteStoreStatusVisited = "VISITED"
	RouteStoreStatusSkipped = "SKIPPED"
)

// RouteStore is the junction between routes and stores with visit ordering
type RouteStore struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	RouteID  uint   `gorm:"not null;index:idx_route_store,unique" json:"route_id"`
	StoreID  uint   `gorm:"not null;index:idx_route_store,unique" json:"store_id"`
	Sequence int    `gorm:"not null" json:"sequence"`
	Status   string `gorm:"size:20;default:'PENDING';index" json:"status"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Route *Route `gorm:"foreignKey:RouteID" json:"route,omitempty"`
	Store *Store `gorm:"foreignKey:StoreID" json:"store,omitempty"`
}

func (RouteStore) TableName() string {
	return "route_stores"
}

// StoredFile represents files table, metadata for objects in the storage bucket
type StoredFile struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ObjectKey    string    `gorm:"size:512;uniqueIndex;not null" json:"object_key"`
	OriginalName string    `gorm:"size:255;not null" json:"original_name"`
	ContentType  string    `gorm:"size:100" json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	UploadedBy   uint      `gorm:"not null;index" json:"uploaded_by"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`

	Uploader *User `gorm:"foreignKey:UploadedBy" json:"-"`
}

func (StoredFile) TableName() string {
	return "stored_files"
}
