package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"shams-vision/internal/adapters/persistence/models"
	"shams-vision/internal/adapters/persistence/repositories"
	"shams-vision/internal/core/domain"
)

// ProfileUpdate carries the fields a user may change on their own profile
type ProfileUpdate struct {
	PhoneNumber              *string `json:"phone_number"`
	PushNotificationsEnabled *bool   `json:"push_notifications_enabled"`
	RouteRemindersEnabled    *bool   `json:"route_reminders_enabled"`
	RewardAlertsEnabled      *bool   `json:"reward_alerts_enabled"`
	QCAlertsEnabled          *bool   `json:"qc_alerts_enabled"`
	PreferredLanguage        *string `json:"preferred_language"`
}

// UserService manages user accounts and profiles
type UserService struct {
	userRepo repositories.UserRepository
}

// NewUserService creates a new user service
func NewUserService(userRepo repositories.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// GetUser retrieves an active user by ID
func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile applies the user's own profile changes
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, update *ProfileUpdate) (*models.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.PhoneNumber != nil {
		user.PhoneNumber = *update.PhoneNumber
	}
	if update.PushNotificationsEnabled != nil {
		user.PushNotificationsEnabled = *update.PushNotificationsEnabled
	}
	if update.RouteRemindersEnabled != nil {
		user.RouteRemindersEnabled = *update.RouteRemindersEnabled
	}
	if update.RewardAlertsEnabled != nil {
		user.RewardAlertsEnabled = *update.RewardAlertsEnabled
	}
	if update.QCAlertsEnabled != nil {
		user.QCAlertsEnabled = *update.QCAlertsEnabled
	}
	if update.PreferredLanguage != nil {
		user.PreferredLanguage = *update.PreferredLanguage
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers retrieves users with optional role filter
func (s *UserService) ListUsers(ctx context.Context, role string, offset, limit int) ([]*models.User, int64, error) {
	return s.userRepo.List(ctx, role, offset, limit)
}

// UpdateRole changes a user's role
func (s *UserService) UpdateRole(ctx context.Context, userID uint, role string) (*models.User, error) {
	switch role {
	case models.RoleFieldAgent, models.RoleManager, models.RoleAdmin:
	default:
		return nil, domain.ErrInvalidInput
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Role = role
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Suspend marks a user account suspended
func (s *UserService) Suspend(ctx context.Context, userID uint) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	user.Status = models.UserStatusSuspended
	return s.userRepo.Update(ctx, user)
}

// Delete marks a user account deleted. The row stays so historic
// sessions, visits and ledger entries keep their references.
func (s *UserService) Delete(ctx context.Context, userID uint) error {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return err
	}
	return s.userRepo.SoftDelete(ctx, userID)
}
