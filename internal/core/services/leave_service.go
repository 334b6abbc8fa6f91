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

// Leave errors
var (
	ErrLeaveNotFound     = errors.New("leave request not found")
	ErrLeaveNotPending   = errors.New("leave request already reviewed")
	ErrLeaveNotOwned     = errors.New("leave request belongs to another user")
	ErrLeaveInvalidDates = errors.New("end date must not be before start date")
	ErrLeaveOverlapping  = errors.New("an overlapping leave request already exists")
	ErrLeaveInvalidType  = errors.New("invalid leave type")
	ErrLeaveSelfReview   = errors.New("cannot review your own leave request")
	ErrLeaveStartsInPast = errors.New("leave cannot start in the past")
)

// LeaveService manages the leave request workflow
type LeaveService struct {
	leaveRepo *repositories.LeaveRepository
	notifier  Notifier
	now       func() time.Time
}

// NewLeaveService creates a new leave service
func NewLeaveService(leaveRepo *repositories.LeaveRepository, notifier Notifier) *LeaveService {
	return &LeaveService{
		leaveRepo: leaveRepo,
		notifier:  notifier,
		now:       time.Now,
	}
}

// Submit files a new leave request
func (s *LeaveService) Submit(ctx context.Context, requesterID uint, leaveType string, startDate, endDate time.Time, description string, documentID *uint) (*models.LeaveRequest, error) {
	if leaveType != models.LeaveTypeSick && leaveType != models.LeaveTypeCasual {
		return nil, ErrLeaveInvalidType
	}

	startDate = shiftDate(startDate)
	endDate = shiftDate(endDate)
	if endDate.Before(startDate) {
		return nil, ErrLeaveInvalidDates
	}
	if startDate.Before(shiftDate(s.now())) {
		return nil, ErrLeaveStartsInPast
	}

	overlapping, err := s.leaveRepo.HasOverlapping(ctx, requesterID, startDate, endDate)
	if err != nil {
		return nil, err
	}
	if overlapping {
		return nil, ErrLeaveOverlapping
	}

	leave := &models.LeaveRequest{
		RequesterID: requesterID,
		LeaveType:   leaveType,
		StartDate:   startDate,
		EndDate:     endDate,
		Description: description,
		DocumentID:  documentID,
		Status:      models.LeaveStatusPending,
	}
	if err := s.leaveRepo.Create(ctx, leave); err != nil {
		return nil, err
	}
	return leave, nil
}

// Cancel withdraws the requester's own pending request
func (s *LeaveService) Cancel(ctx context.Context, leaveID, requesterID uint) (*models.LeaveRequest, error) {
	leave, err := s.Get(ctx, leaveID)
	if err != nil {
		return nil, err
	}
	if leave.RequesterID != requesterID {
		return nil, ErrLeaveNotOwned
	}
	if !leave.IsPending() {
		return nil, ErrLeaveNotPending
	}

	leave.Status = models.LeaveStatusCancelled
	if err := s.leaveRepo.Update(ctx, leave); err != nil {
		return nil, err
	}
	return leave, nil
}

// Review approves or rejects a pending request and notifies the requester
func (s *LeaveService) Review(ctx context.Context, leaveID, reviewerID uint, approve bool, note string) (*models.LeaveRequest, error) {
	leave, err := s.Get(ctx, leaveID)
	if err != nil {
		return nil, err
	}
	if leave.RequesterID == reviewerID {
		return nil, ErrLeaveSelfReview
	}
	if !leave.IsPending() {
		return nil, ErrLeaveNotPending
	}

	now := s.now()
	leave.ApproverID = &reviewerID
	leave.ReviewedAt = &now
	leave.ReviewerNote = note

	kind := models.NotifyLeaveApproved
	verdict := "approved"
	if approve {
		leave.Status = models.LeaveStatusApproved
	} else {
		leave.Status = models.LeaveStatusRejected
		kind = models.NotifyLeaveRejected
		verdict = "rejected"
	}

	if err := s.leaveRepo.Update(ctx, leave); err != nil {
		return nil, err
	}

	entityType := models.EntityLeaveRequest
	s.notify(ctx, &models.Notification{
		UserID:     leave.RequesterID,
		Kind:       kind,
		Title:      "Leave request reviewed",
		Message:    fmt.Sprintf("Your %s leave from %s was %s", leave.LeaveType, leave.StartDate.Format("2006-01-02"), verdict),
		Priority:   models.NotifyPriorityHigh,
		EntityType: &entityType,
		EntityID:   &leave.ID,
	})
	return leave, nil
}

// Get retrieves a leave request by ID
func (s *LeaveService) Get(ctx context.Context, id uint) (*models.LeaveRequest, error) {
	leave, err := s.leaveRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeaveNotFound
		}
		return nil, err
	}
	return leave, nil
}

// List retrieves leave requests filtered by user and status
func (s *LeaveService) List(ctx context.Context, userID uint, status string, offset, limit int) ([]models.LeaveRequest, int64, error) {
	return s.leaveRepo.List(ctx, userID, status, offset, limit)
}

// notify pushes a notification without failing the caller
func (s *LeaveService) notify(ctx context.Context, n *models.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Push(ctx, n); err != nil {
		log.Printf("⚠️ Failed to push notification for user %d: %v", n.UserID, err)
	}
}
