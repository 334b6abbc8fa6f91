package services

import (
	"context"

	"shams-vision/internal/adapters/persistence/models"
	"shams-vision/internal/adapters/persistence/repositories"
)

// NotificationService stores and serves in-app notifications.
// It implements Notifier for the other services.
type NotificationService struct {
	notificationRepo *repositories.NotificationRepository
}

// NewNotificationService creates a new notification service
func NewNotificationService(notificationRepo *repositories.NotificationRepository) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo}
}

// Push stores a notification for a user
func (s *NotificationService) Push(ctx context.Context, notification *models.Notification) error {
	if notification.Priority == "" {
		notification.Priority = models.NotifyPriorityMedium
	}
	return s.notificationRepo.Create(ctx, notification)
}

// List retrieves a user's notifications
func (s *NotificationService) List(ctx context.Context, userID uint, unreadOnly bool, offset, limit int) ([]models.Notification, int64, error) {
	return s.notificationRepo.ListByUser(ctx, userID, unreadOnly, offset, limit)
}

// CountUnread returns the user's unread badge count
func (s *NotificationService) CountUnread(ctx context.Context, userID uint) (int64, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}

// MarkRead marks one of the user's notifications as read
func (s *NotificationService) MarkRead(ctx context.Context, id, userID uint) error {
	return s.notificationRepo.MarkRead(ctx, id, userID)
}

// MarkAllRead clears the user's unread notifications
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) error {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}
