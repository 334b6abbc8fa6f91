package models

import (
	"time"
)

// ============================================================
// Work Sessions & Breaks
// ============================================================

// WorkSession statuses
const (
	SessionStatusActive    = "ACTIVE"
	SessionStatusOnBreak   = "ON_BREAK"
	SessionStatusCompleted = "COMPLETED"
)

// WorkSession represents work_sessions table, one agent workday
// (check-in to check-out). One row per user per shift date, never deleted.
type WorkSession struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_shift_date;index" json:"user_id"`
	ShiftDate time.Time `gorm:"type:date;not null;uniqueIndex:idx_user_shift_date" json:"shift_date"`
	CheckInAt time.Time `gorm:"not null" json:"check_in_at"`

	CheckInLatitude   *float64 `gorm:"type:decimal(9,6)" json:"check_in_latitude"`
	CheckInLongitude  *float64 `gorm:"type:decimal(9,6)" json:"check_in_longitude"`
	CheckOutLatitude  *float64 `gorm:"type:decimal(9,6)" json:"check_out_latitude"`
	CheckOutLongitude *float64 `gorm:"type:decimal(9,6)" json:"check_out_longitude"`

	CheckOutAt *time.Time `json:"check_out_at"`
	Status     string     `gorm:"size:20;default:'ACTIVE';index" json:"status"`

	// Non-nil iff Status == ON_BREAK
	CurrentBreakStartedAt *time.Time `json:"current_break_started_at"`

	// Sum of all completed breaks, only grows at resume time
	AccumulatedBreakSecs int64 `gorm:"not null;default:0" json:"accumulated_break_secs"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	User   *User         `gorm:"foreignKey:UserID" json:"-"`
	Breaks []BreakRecord `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"breaks,omitempty"`
}

func (WorkSession) TableName() string {
	return "work_sessions"
}

// IsOpen reports whether the session can still accept transitions
func (s *WorkSession) IsOpen() bool {
	return s.Status != SessionStatusCompleted && s.CheckOutAt == nil
}

// ElapsedSinceCheckIn returns the raw elapsed time for this session.
// While on break the clock freezes at the break-start instant; once
// completed it is pinned to the check-out timestamp.
func (s *WorkSession) ElapsedSinceCheckIn(now time.Time) time.Duration {
	switch {
	case s.CheckOutAt != nil:
		return s.CheckOutAt.Sub(s.CheckInAt)
	case s.CurrentBreakStartedAt != nil:
		return s.CurrentBreakStartedAt.Sub(s.CheckInAt)
	default:
		return now.Sub(s.CheckInAt)
	}
}

// BreakDuration returns the total duration of completed breaks.
// An in-progress break does not count until it closes.
func (s *WorkSession) BreakDuration() time.Duration {
	return time.Duration(s.AccumulatedBreakSecs) * time.Second
}

// WorkedDuration returns elapsed time minus completed breaks, floored at zero
func (s *WorkSession) WorkedDuration(now time.Time) time.Duration {
	worked := s.ElapsedSinceCheckIn(now) - s.BreakDuration()
	if worked < 0 {
		return 0
	}
	return worked
}

// RemainingShiftDuration returns how much of the shift is left, floored at zero
func (s *WorkSession) RemainingShiftDuration(now time.Time, shiftLength time.Duration) time.Duration {
	remaining := shiftLength - s.WorkedDuration(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// SessionResponse DTO with derived hour figures
type SessionResponse struct {
	ID                  uint       `json:"id"`
	UserID              uint       `json:"user_id"`
	ShiftDate           string     `json:"shift_date"`
	CheckInAt           time.Time  `json:"check_in_at"`
	CheckOutAt          *time.Time `json:"check_out_at"`
	Status              string     `json:"status"`
	WorkedSeconds       int64      `json:"worked_seconds"`
	BreakSeconds        int64      `json:"break_seconds"`
	RemainingSeconds    int64      `json:"remaining_seconds"`
	WorkedHours         float64    `json:"worked_hours"`
	BreakHours          float64    `json:"break_hours"`
	RemainingShiftHours float64    `json:"remaining_shift_hours"`
}

func (s *WorkSession) ToResponse(now time.Time, shiftLength time.Duration) *SessionResponse {
	worked := s.WorkedDuration(now)
	brk := s.BreakDuration()
	remaining := s.RemainingShiftDuration(now, shiftLength)

	return &SessionResponse{
		ID:                  s.ID,
		UserID:              s.UserID,
		ShiftDate:           s.ShiftDate.Format("2006-01-02"),
		CheckInAt:           s.CheckInAt,
		CheckOutAt:          s.CheckOutAt,
		Status:              s.Status,
		WorkedSeconds:       int64(worked.Seconds()),
		BreakSeconds:        int64(brk.Seconds()),
		RemainingSeconds:    int64(remaining.Seconds()),
		WorkedHours:         worked.Hours(),
		BreakHours:          brk.Hours(),
		RemainingShiftHours: remaining.Hours(),
	}
}

// BreakRecord represents break_records table, one row per break taken
type BreakRecord struct {
	ID        uint  `gorm:"primaryKey" json:"id"`
	SessionID uint  `gorm:"not null;index" json:"session_id"`
	UserID    uint  `gorm:"not null;index" json:"user_id"`
	RouteID   *uint `gorm:"index" json:"route_id"`

	StartAt      time.Time  `gorm:"not null" json:"start_at"`
	EndAt        *time.Time `json:"end_at"`
	DurationSecs *int64     `json:"duration_secs"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Session *WorkSession `gorm:"foreignKey:SessionID" json:"-"`
	Route   *Route       `gorm:"foreignKey:RouteID" json:"route,omitempty"`
}

func (BreakRecord) TableName() string {
	return "break_records"
}

// ============================================================
// Store Visits & Images
// ============================================================

// StoreVisit statuses
const (
	VisitStatusInProgress = "IN_PROGRESS"
	VisitStatusCompleted  = "COMPLETED"
	VisitStatusSkipped    = "SKIPPED"
	VisitStatusFlagged    = "FLAGGED"
)

// StoreVisit represents store_visits table
type StoreVisit struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	UserID  uint `gorm:"not null;index" json:"user_id"`
	RouteID uint `gorm:"not null;index" json:"route_id"`
	StoreID uint `gorm:"not null;index" json:"store_id"`

	EntryAt        *time.Time `json:"entry_at"`
	ExitAt         *time.Time `json:"exit_at"`
	EntryLatitude  *float64   `gorm:"type:decimal(9,6)" json:"entry_latitude"`
	EntryLongitude *float64   `gorm:"type:decimal(9,6)" json:"entry_longitude"`
	ExitLatitude   *float64   `gorm:"type:decimal(9,6)" json:"exit_latitude"`
	ExitLongitude  *float64   `gorm:"type:decimal(9,6)" json:"exit_longitude"`

	Status      string     `gorm:"size:20;default:'IN_PROGRESS';index" json:"status"`
	SubmittedAt *time.Time `json:"submitted_at"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	User   *User        `gorm:"foreignKey:UserID" json:"-"`
	Route  *Route       `gorm:"foreignKey:RouteID" json:"route,omitempty"`
	Store  *Store       `gorm:"foreignKey:StoreID" json:"store,omitempty"`
	Images []VisitImage `gorm:"foreignKey:VisitID" json:"images,omitempty"`
}

func (StoreVisit) TableName() string {
	return "store_visits"
}

// Image quality statuses
const (
	QualityPending  = "PENDING"
	QualityApproved = "APPROVED"
	QualityRejected = "REJECTED"
)

// Image types
const (
	ImageTypeProduct    = "PRODUCT"
	ImageTypeStorefront = "STOREFRONT"
	ImageTypeOther      = "OTHER"
)

// VisitImage represents visit_images table, photos captured during a visit
type VisitImage struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	VisitID   uint   `gorm:"not null;index" json:"visit_id"`
	UserID    uint   `gorm:"not null;index" json:"user_id"`
	ObjectKey string `gorm:"size:512;not null" json:"object_key"`
	ImageType string `gorm:"size:20;default:'OTHER'" json:"image_type"`

	QualityStatus    string     `gorm:"size:20;default:'PENDING';index" json:"quality_status"`
	QualityCheckedBy *uint      `json:"quality_checked_by"`
	QualityCheckedAt *time.Time `json:"quality_checked_at"`

	CapturedAt time.Time `gorm:"not null" json:"captured_at"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Visit *StoreVisit `gorm:"foreignKey:VisitID" json:"-"`
}

func (VisitImage) TableName() string {
	return "visit_images"
}

// FlaggedStore reasons
const (
	FlagReasonClosedPermanently = "STORE_CLOSED_PERMANENTLY"
	FlagReasonAccessDenied      = "ACCESS_DENIED"
	FlagReasonWrongLocation     = "WRONG_LOCATION_DUPLICATE"
	FlagReasonInventoryIssue    = "INVENTORY_ISSUE"
	FlagReasonOther             = "OTHER"
)

// FlaggedStore represents flagged_stores table, visits flagged with a reason
type FlaggedStore struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	VisitID uint   `gorm:"uniqueIndex;not null" json:"visit_id"`
	Reason  string `gorm:"size:50;not null;index" json:"reason"`
	Details string `gorm:"type:text" json:"details"`

	FlaggedBy uint      `gorm:"not null" json:"flagged_by"`
	FlaggedAt time.Time `gorm:"autoCreateTime" json:"flagged_at"`

	IsResolved      bool       `gorm:"default:false;index" json:"is_resolved"`
	ResolvedBy      *uint      `json:"resolved_by"`
	ResolvedAt      *time.Time `json:"resolved_at"`
	ResolutionNotes string     `gorm:"type:text" json:"resolution_notes"`

	// Relations
	Visit *StoreVisit `gorm:"foreignKey:VisitID" json:"-"`
}

func (FlaggedStore) TableName() string {
	return "flagged_stores"
}
