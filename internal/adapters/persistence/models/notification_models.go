package models

import (
	"time"
)

// Notification kinds
const (
	NotifyLeaveApproved       = "LEAVE_APPROVED"
	NotifyLeaveRejected       = "LEAVE_REJECTED"
	NotifyLeaveCancelled      = "LEAVE_CANCELLED"
	NotifyRouteAssigned       = "ROUTE_ASSIGNED"
	NotifyRouteClosed         = "ROUTE_CLOSED"
	NotifyPenaltyIssued       = "PENALTY_ISSUED"
	NotifyPointsEarned        = "POINTS_EARNED"
	NotifyPointsDeducted      = "POINTS_DEDUCTED"
	NotifyVisitCompleted      = "STORE_VISIT_COMPLETED"
	NotifyVisitFlagged        = "STORE_VISIT_FLAGGED"
	NotifyImageApproved       = "IMAGE_APPROVED"
	NotifyImageRejected       = "IMAGE_REJECTED"
	NotifySessionAutoCheckout = "SESSION_AUTO_CHECKOUT"
)

// Notification priorities
const (
	NotifyPriorityLow    = "LOW"
	NotifyPriorityMedium = "MEDIUM"
	NotifyPriorityHigh   = "HIGH"
	NotifyPriorityUrgent = "URGENT"
)

// Referenceable entity types, a closed set instead of a generic
// any-model reference
const (
	EntityVisit             = "VISIT"
	EntityRoute             = "ROUTE"
	EntityLeaveRequest      = "LEAVE_REQUEST"
	EntityPenalty           = "PENALTY"
	EntityPointsTransaction = "POINTS_TRANSACTION"
)

// EntityRef points a notification at the record that caused it
type EntityRef struct {
	Type string `json:"type"`
	ID   uint   `json:"id"`
}

// Notification represents notifications table, in-app notifications
type Notification struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	UserID   uint   `gorm:"not null;index:idx_notify_user_read" json:"user_id"`
	Kind     string `gorm:"size:50;not null;index" json:"kind"`
	Title    string `gorm:"size:200;not null" json:"title"`
	Message  string `gorm:"type:text" json:"message"`
	Priority string `gorm:"size:10;default:'MEDIUM'" json:"priority"`

	// Tagged reference to the triggering entity (closed set above)
	EntityType *string `gorm:"size:30" json:"entity_type"`
	EntityID   *uint   `json:"entity_id"`

	IsRead    bool       `gorm:"default:false;index:idx_notify_user_read" json:"is_read"`
	ReadAt    *time.Time `json:"read_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index" json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (Notification) TableName() string {
	return "notifications"
}

// Ref returns the entity reference, if any
func (n *Notification) Ref() *EntityRef {
	if n.EntityType == nil || n.EntityID == nil {
		return nil
	}
	return &EntityRef{Type: *n.EntityType, ID: *n.EntityID}
}
