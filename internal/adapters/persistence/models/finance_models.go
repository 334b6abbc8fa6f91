package models

import (
	"time"
)

// ============================================================
// Points Ledger & Penalties
// ============================================================

// Points transaction activity types
const (
	ActivityVisitCompleted  = "VISIT_COMPLETED"
	ActivityPerfectVisit    = "PERFECT_VISIT"
	ActivityHighQuality     = "HIGH_QUALITY"
	ActivityStandardQuality = "STANDARD_QUALITY"
	ActivityLowQuality      = "LOW_QUALITY"
	ActivityMissedVisit     = "MISSED_VISIT"
	ActivityPenalty         = "PENALTY"
	ActivityRedeemed        = "REDEEMED"
)

// UserPoints represents user_points table, one balance row per user.
// Mutated exclusively through the points service ApplyDelta; the ledger
// in points_transactions must always reconcile with total_points.
type UserPoints struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"uniqueIndex;not null" json:"user_id"`

	TotalPoints     int64 `gorm:"not null;default:0;index" json:"total_points"`
	AvailablePoints int64 `gorm:"not null;default:0" json:"available_points"`
	LifetimePoints  int64 `gorm:"not null;default:0" json:"lifetime_points"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (UserPoints) TableName() string {
	return "user_points"
}

// PointsTransaction represents points_transactions table, append-only ledger
type PointsTransaction struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	UserID       uint   `gorm:"not null;index:idx_points_user_created" json:"user_id"`
	Amount       int64  `gorm:"not null" json:"amount"`
	ActivityType string `gorm:"size:50;not null;index" json:"activity_type"`
	Description  string `gorm:"type:text" json:"description"`

	// Optional references to the triggering entities
	VisitID *uint `gorm:"index" json:"visit_id"`
	StoreID *uint `json:"store_id"`
	RouteID *uint `json:"route_id"`

	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_points_user_created" json:"created_at"`

	// Relations
	User  *User       `gorm:"foreignKey:UserID" json:"-"`
	Visit *StoreVisit `gorm:"foreignKey:VisitID" json:"-"`
	Store *Store      `gorm:"foreignKey:StoreID" json:"store,omitempty"`
	Route *Route      `gorm:"foreignKey:RouteID" json:"route,omitempty"`
}

func (PointsTransaction) TableName() string {
	return "points_transactions"
}

// IsEarned reports whether the entry added points
func (t *PointsTransaction) IsEarned() bool {
	return t.Amount > 0
}

// Penalty types
const (
	PenaltyTypeFinancial = "FINANCIAL"
	PenaltyTypeWarning   = "WARNING"
)

// Penalty statuses (administration workflow)
const (
	PenaltyStatusIssued   = "ISSUED"
	PenaltyStatusPaid     = "PAID"
	PenaltyStatusDisputed = "DISPUTED"
)

// Penalty represents penalties table, financial/warning penalties issued
// to field agents. Immutable after creation except for the workflow status.
type Penalty struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	UserID         uint    `gorm:"not null;index" json:"user_id"`
	Amount         float64 `gorm:"type:decimal(10,2);not null" json:"amount"`
	PointsDeducted int64   `gorm:"not null;default:0" json:"points_deducted"`
	PenaltyType    string  `gorm:"size:20;not null" json:"penalty_type"`
	Reason         string  `gorm:"type:text;not null" json:"reason"`
	Status         string  `gorm:"size:20;default:'ISSUED';index" json:"status"`

	// Optional references to the triggering entities
	VisitID *uint `json:"visit_id"`
	StoreID *uint `json:"store_id"`
	RouteID *uint `json:"route_id"`

	// Nil when issued automatically by the scoring engine
	IssuedBy *uint     `json:"issued_by"`
	IssuedAt time.Time `gorm:"autoCreateTime" json:"issued_at"`

	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	User   *User  `gorm:"foreignKey:UserID" json:"-"`
	Issuer *User  `gorm:"foreignKey:IssuedBy" json:"-"`
	Store  *Store `gorm:"foreignKey:StoreID" json:"store,omitempty"`
	Route  *Route `gorm:"foreignKey:RouteID" json:"route,omitempty"`
}

func (Penalty) TableName() string {
	return "penalties"
}
