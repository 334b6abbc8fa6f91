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

// Session errors
var (
	ErrAlreadyCheckedIn  = errors.New("already checked in for this shift")
	ErrNoActiveSession   = errors.New("no active session found")
	ErrAlreadyOnBreak    = errors.New("a break is already in progress")
	ErrNoBreakInProgress = errors.New("no break in progress")
	ErrSessionCompleted  = errors.New("session already completed")
	ErrAlreadyCheckedOut = errors.New("already checked out")
	ErrOnBreak           = errors.New("cannot check out while on break, resume first")
	ErrInvalidLocation   = errors.New("invalid location coordinates")
	ErrSessionNotOwned   = errors.New("session belongs to another user")
)

// Notifier delivers in-app notifications. Delivery failures are logged
// and never fail the triggering operation.
type Notifier interface {
	Push(ctx context.Context, notification *models.Notification) error
}

// SessionService manages work session timekeeping. Every duration is
// computed from the server clock via the injected now function, never
// from client-supplied timestamps.
type SessionService struct {
	sessionRepo repositories.SessionRepository
	notifier    Notifier
	shiftLength time.Duration
	now         func() time.Time
}

// NewSessionService creates a new session service
func NewSessionService(sessionRepo repositories.SessionRepository, notifier Notifier, shiftLength time.Duration) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		notifier:    notifier,
		shiftLength: shiftLength,
		now:         time.Now,
	}
}

// shiftDate truncates a timestamp to its calendar date
func shiftDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// validateLocation checks an optional coordinate pair. Either both
// values are present and within range, or both are absent.
func validateLocation(lat, lng *float64) error {
	if (lat == nil) != (lng == nil) {
		return ErrInvalidLocation
	}
	if lat == nil {
		return nil
	}
	if *lat < -90 || *lat > 90 || *lng < -180 || *lng > 180 {
		return ErrInvalidLocation
	}
	return nil
}

// CheckIn opens the user's work session for today's shift. A user can
// hold at most one session per shift date.
func (s *SessionService) CheckIn(ctx context.Context, userID uint, lat, lng *float64) (*models.WorkSession, error) {
	if err := validateLocation(lat, lng); err != nil {
		return nil, err
	}

	now := s.now()
	date := shiftDate(now)

	if _, err := s.sessionRepo.GetByUserAndDate(ctx, userID, date); err == nil {
		return nil, ErrAlreadyCheckedIn
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	session := &models.WorkSession{
		UserID:           userID,
		ShiftDate:        date,
		CheckInAt:        now,
		CheckInLatitude:  lat,
		CheckInLongitude: lng,
		Status:           models.SessionStatusActive,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		// Unique index on (user_id, shift_date) closes the race
		// between the existence check and the insert
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyCheckedIn
		}
		return nil, err
	}
	return session, nil
}

// TakeBreak pauses the active session. Worked time freezes at the
// break start until the session resumes.
func (s *SessionService) TakeBreak(ctx context.Context, userID uint, routeID *uint) (*models.WorkSession, error) {
	now := s.now()
	var result *models.WorkSession

	err := s.sessionRepo.Mutate(ctx, userID, shiftDate(now), func(tx repositories.SessionTx, session *models.WorkSession) error {
		switch session.Status {
		case models.SessionStatusCompleted:
			return ErrSessionCompleted
		case models.SessionStatusOnBreak:
			return ErrAlreadyOnBreak
		}

		session.Status = models.SessionStatusOnBreak
		session.CurrentBreakStartedAt = &now
		result = session

		return tx.CreateBreak(&models.BreakRecord{
			SessionID: session.ID,
			UserID:    userID,
			RouteID:   routeID,
			StartAt:   now,
		})
	})
	if err != nil {
		return nil, s.mapMutateErr(err)
	}
	return result, nil
}

// Resume ends the current break and folds its wall-clock duration into
// the session's accumulated break time
func (s *SessionService) Resume(ctx context.Context, userID uint) (*models.WorkSession, error) {
	now := s.now()
	var result *models.WorkSession

	err := s.sessionRepo.Mutate(ctx, userID, shiftDate(now), func(tx repositories.SessionTx, session *models.WorkSession) error {
		// Anything other than an open break resumes to nothing
		if session.Status != models.SessionStatusOnBreak || session.CurrentBreakStartedAt == nil {
			return ErrNoBreakInProgress
		}

		breakSecs := int64(now.Sub(*session.CurrentBreakStartedAt).Seconds())
		if breakSecs < 0 {
			breakSecs = 0
		}

		if err := tx.CloseOpenBreak(session.ID, now, breakSecs); err != nil {
			return err
		}

		session.AccumulatedBreakSecs += breakSecs
		session.CurrentBreakStartedAt = nil
		session.Status = models.SessionStatusActive
		result = session
		return nil
	})
	if err != nil {
		return nil, s.mapMutateErr(err)
	}
	return result, nil
}

// CheckOut closes the session for the day. An open break must be
// resumed first so its duration is accounted for.
func (s *SessionService) CheckOut(ctx context.Context, userID uint, lat, lng *float64) (*models.WorkSession, error) {
	if err := validateLocation(lat, lng); err != nil {
		return nil, err
	}

	now := s.now()
	var result *models.WorkSession

	err := s.sessionRepo.Mutate(ctx, userID, shiftDate(now), func(tx repositories.SessionTx, session *models.WorkSession) error {
		switch session.Status {
		case models.SessionStatusCompleted:
			return ErrAlreadyCheckedOut
		case models.SessionStatusOnBreak:
			return ErrOnBreak
		}

		session.CheckOutAt = &now
		session.CheckOutLatitude = lat
		session.CheckOutLongitude = lng
		session.Status = models.SessionStatusCompleted
		result = session
		return nil
	})
	if err != nil {
		return nil, s.mapMutateErr(err)
	}
	return result, nil
}

// GetStatus returns today's session for the user
func (s *SessionService) GetStatus(ctx context.Context, userID uint) (*models.WorkSession, error) {
	session, err := s.sessionRepo.GetByUserAndDate(ctx, userID, shiftDate(s.now()))
	if err != nil {
		return nil, s.mapMutateErr(err)
	}
	return session, nil
}

// SessionResponse builds the computed view of a session against the
// current server clock and configured shift length
func (s *SessionService) SessionResponse(session *models.WorkSession) *models.SessionResponse {
	return session.ToResponse(s.now(), s.shiftLength)
}

// ListSessions retrieves a user's session history
func (s *SessionService) ListSessions(ctx context.Context, userID uint, from, to time.Time, offset, limit int) ([]models.WorkSession, int64, error) {
	return s.sessionRepo.ListByUser(ctx, userID, from, to, offset, limit)
}

// ListBreaks retrieves the break records of a session. Agents can only
// read their own sessions; privileged callers may read any.
func (s *SessionService) ListBreaks(ctx context.Context, sessionID, requesterID uint, privileged bool) ([]models.BreakRecord, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, s.mapMutateErr(err)
	}
	if !privileged && session.UserID != requesterID {
		return nil, ErrSessionNotOwned
	}
	return s.sessionRepo.ListBreaks(ctx, sessionID)
}

// AutoCheckoutSweep force-closes every session still open for today's
// shift. Sessions on break are resumed first so the final break is
// counted. Run by the scheduler at end of shift day.
func (s *SessionService) AutoCheckoutSweep(ctx context.Context) (int, error) {
	now := s.now()
	date := shiftDate(now)

	open, err := s.sessionRepo.ListOpenOn(ctx, date)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, session := range open {
		err := s.sessionRepo.Mutate(ctx, session.UserID, date, func(tx repositories.SessionTx, sess *models.WorkSession) error {
			if sess.Status == models.SessionStatusCompleted {
				return nil
			}
			if sess.Status == models.SessionStatusOnBreak && sess.CurrentBreakStartedAt != nil {
				breakSecs := int64(now.Sub(*sess.CurrentBreakStartedAt).Seconds())
				if breakSecs < 0 {
					breakSecs = 0
				}
				if err := tx.CloseOpenBreak(sess.ID, now, breakSecs); err != nil {
					return err
				}
				sess.AccumulatedBreakSecs += breakSecs
				sess.CurrentBreakStartedAt = nil
			}
			sess.CheckOutAt = &now
			sess.Status = models.SessionStatusCompleted
			return nil
		})
		if err != nil {
			log.Printf("⚠️ Auto checkout failed for user %d: %v", session.UserID, err)
			continue
		}
		closed++
		s.notify(ctx, &models.Notification{
			UserID:   session.UserID,
			Kind:     models.NotifySessionAutoCheckout,
			Title:    "Shift closed automatically",
			Message:  fmt.Sprintf("Your shift on %s was checked out automatically at end of day", date.Format("2006-01-02")),
			Priority: models.NotifyPriorityMedium,
		})
	}
	return closed, nil
}

// notify pushes a notification without failing the caller
func (s *SessionService) notify(ctx context.Context, n *models.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Push(ctx, n); err != nil {
		log.Printf("⚠️ Failed to push notification for user %d: %v", n.UserID, err)
	}
}

// mapMutateErr converts a missing session row into the domain error
func (s *SessionService) mapMutateErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNoActiveSession
	}
	return err
}
