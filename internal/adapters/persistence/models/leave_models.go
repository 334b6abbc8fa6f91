package models

import (
	"time"
)

// Leave types
const (
	LeaveTypeSick   = "SICK"
	LeaveTypeCasual = "CASUAL"
)

// Leave request statuses
const (
	LeaveStatusPending   = "PENDING"
	LeaveStatusApproved  = "APPROVED"
	LeaveStatusRejected  = "REJECTED"
	LeaveStatusCancelled = "CANCELLED"
)

// LeaveRequest represents leave_requests table
type LeaveRequest struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RequesterID uint      `gorm:"not null;index" json:"requester_id"`
	LeaveType   string    `gorm:"size:20;default:'SICK';index" json:"leave_type"`
	StartDate   time.Time `gorm:"type:date;not null" json:"start_date"`
	EndDate     time.Time `gorm:"type:date;not null" json:"end_date"`
	Description string    `gorm:"type:text" json:"description"`

	// Optional supporting document in the file store
	DocumentID *uint `json:"document_id"`

	Status       string     `gorm:"size:20;default:'PENDING';index" json:"status"`
	ApproverID   *uint      `json:"approver_id"`
	ReviewedAt   *time.Time `json:"reviewed_at"`
	ReviewerNote string     `gorm:"type:text" json:"reviewer_note"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Requester *User       `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	Approver  *User       `gorm:"foreignKey:ApproverID" json:"approver,omitempty"`
	Document  *StoredFile `gorm:"foreignKey:DocumentID" json:"document,omitempty"`
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}

// DurationDays returns the inclusive day count of the request
func (lr *LeaveRequest) DurationDays() int {
	return int(lr.EndDate.Sub(lr.StartDate).Hours()/24) + 1
}

// IsPending reports whether the request still awaits review
func (lr *LeaveRequest) IsPending() bool {
	return lr.Status == LeaveStatusPending
}
