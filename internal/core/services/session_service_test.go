package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"shams-vision/internal/adapters/persistence/models"
	"shams-vision/internal/adapters/persistence/repositories"
)

// fakeSessionRepo keeps sessions in memory, keyed by (user, shift date).
// It doubles as the SessionTx handed to Mutate callbacks.
type fakeSessionRepo struct {
	sessions map[string]*models.WorkSession
	breaks   []*models.BreakRecord
	nextID   uint

	// When set, Create fails with this error
	createErr error
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*models.WorkSession)}
}

func sessionKey(userID uint, date time.Time) string {
	return fmt.Sprintf("%d/%s", userID, date.Format("2006-01-02"))
}

func (f *fakeSessionRepo) Create(ctx context.Context, session *models.WorkSession) error {
	if f.createErr != nil {
		return f.createErr
	}
	key := sessionKey(session.UserID, session.ShiftDate)
	if _, ok := f.sessions[key]; ok {
		return gorm.ErrDuplicatedKey
	}
	f.nextID++
	session.ID = f.nextID
	f.sessions[key] = session
	return nil
}

func (f *fakeSessionRepo) GetByID(ctx context.Context, id uint) (*models.WorkSession, error) {
	for _, s := range f.sessions {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSessionRepo) GetByUserAndDate(ctx context.Context, userID uint, shiftDate time.Time) (*models.WorkSession, error) {
	session, ok := f.sessions[sessionKey(userID, shiftDate)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return session, nil
}

func (f *fakeSessionRepo) Mutate(ctx context.Context, userID uint, shiftDate time.Time, fn func(tx repositories.SessionTx, session *models.WorkSession) error) error {
	session, ok := f.sessions[sessionKey(userID, shiftDate)]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	return fn(f, session)
}

func (f *fakeSessionRepo) ListByUser(ctx context.Context, userID uint, from, to time.Time, offset, limit int) ([]models.WorkSession, int64, error) {
	var out []models.WorkSession
	for _, s := range f.sessions {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeSessionRepo) ListOpenOn(ctx context.Context, shiftDate time.Time) ([]models.WorkSession, error) {
	var out []models.WorkSession
	for _, s := range f.sessions {
		if s.ShiftDate.Equal(shiftDate) && s.Status != models.SessionStatusCompleted {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSessionRepo) ListBreaks(ctx context.Context, sessionID uint) ([]models.BreakRecord, error) {
	var out []models.BreakRecord
	for _, b := range f.breaks {
		if b.SessionID == sessionID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeSessionRepo) CreateBreak(b *models.BreakRecord) error {
	f.nextID++
	b.ID = f.nextID
	f.breaks = append(f.breaks, b)
	return nil
}

func (f *fakeSessionRepo) CloseOpenBreak(sessionID uint, endAt time.Time, durationSecs int64) error {
	for _, b := range f.breaks {
		if b.SessionID == sessionID && b.EndAt == nil {
			b.EndAt = &endAt
			b.DurationSecs = &durationSecs
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeNotifier struct {
	pushed []*models.Notification
}

func (f *fakeNotifier) Push(ctx context.Context, n *models.Notification) error {
	f.pushed = append(f.pushed, n)
	return nil
}

// newSessionFixture returns a service whose clock is driven by the
// returned setter
func newSessionFixture(repo *fakeSessionRepo, notifier Notifier) (*SessionService, func(time.Time)) {
	svc := NewSessionService(repo, notifier, 9*time.Hour)
	current := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return current }
	return svc, func(t time.Time) { current = t }
}

func TestCheckIn(t *testing.T) {
	repo := newFakeSessionRepo()
	svc, _ := newSessionFixture(repo, nil)
	ctx := context.Background()

	lat, lng := 24.7136, 46.6753
	session, err := svc.CheckIn(ctx, 1, &lat, &lng)
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if session.Status != models.SessionStatusActive {
		t.Fatalf("status=%s want ACTIVE", session.Status)
	}
	if !session.ShiftDate.Equal(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("shift date not truncated: %v", session.ShiftDate)
	}

	if _, err := svc.CheckIn(ctx, 1, nil, nil); !errors.Is(err, ErrAlreadyCheckedIn) {
		t.Fatalf("second check in err=%v want ErrAlreadyCheckedIn", err)
	}
}

func TestCheckInLocationValidation(t *testing.T) {
	bad := 200.0
	ok := 24.7
	tests := []struct {
		name     string
		lat, lng *float64
		wantErr  bool
	}{
		{"both nil", nil, nil, false},
		{"both valid", &ok, &ok, false},
		{"lat only", &ok, nil, true},
		{"lng only", nil, &ok, true},
		{"lat out of range", &bad, &ok, true},
		{"lng out of range", &ok, &bad, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newSessionFixture(newFakeSessionRepo(), nil)
			_, err := svc.CheckIn(context.Background(), 1, tt.lat, tt.lng)
			if tt.wantErr && !errors.Is(err, ErrInvalidLocation) {
				t.Fatalf("err=%v want ErrInvalidLocation", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
		})
	}
}

func TestBreakFreezesWorkedTime(t *testing.T) {
	repo := newFakeSessionRepo()
	svc, setNow := newSessionFixture(repo, nil)
	ctx := context.Background()
	day := func(h, m int) time.Time { return time.Date(2026, 3, 2, h, m, 0, 0, time.UTC) }

	setNow(day(9, 0))
	if _, err := svc.CheckIn(ctx, 1, nil, nil); err != nil {
		t.Fatalf("check in: %v", err)
	}

	setNow(day(12, 0))
	session, err := svc.TakeBreak(ctx, 1, nil)
	if err != nil {
		t.Fatalf("break: %v", err)
	}
	if session.Status != models.SessionStatusOnBreak {
		t.Fatalf("status=%s want ON_BREAK", session.Status)
	}

	// Worked time must not advance while on break
	setNow(day(12, 30))
	resp := svc.SessionResponse(session)
	if resp.WorkedSeconds != 3*3600 {
		t.Fatalf("worked on break=%d want %d", resp.WorkedSeconds, 3*3600)
	}
	if resp.BreakSeconds != 0 {
		t.Fatalf("break counted before resume: %d", resp.BreakSeconds)
	}

	session, err = svc.Resume(ctx, 1)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if session.AccumulatedBreakSecs != 1800 {
		t.Fatalf("accumulated=%d want 1800", session.AccumulatedBreakSecs)
	}
	if session.CurrentBreakStartedAt != nil {
		t.Fatal("break start not cleared after resume")
	}

	setNow(day(18, 0))
	session, err = svc.CheckOut(ctx, 1, nil, nil)
	if err != nil {
		t.Fatalf("check out: %v", err)
	}

	// Reconciliation: worked + break == checkout - checkin
	resp = svc.SessionResponse(session)
	elapsed := int64(session.CheckOutAt.Sub(session.CheckInAt).Seconds())
	if resp.WorkedSeconds+resp.BreakSeconds != elapsed {
		t.Fatalf("worked %d + break %d != elapsed %d", resp.WorkedSeconds, resp.BreakSeconds, elapsed)
	}
	if resp.WorkedSeconds != int64((8*time.Hour + 30*time.Minute).Seconds()) {
		t.Fatalf("worked=%d want 8.5h", resp.WorkedSeconds)
	}

	breaks, _ := repo.ListBreaks(ctx, session.ID)
	if len(breaks) != 1 || breaks[0].EndAt == nil || *breaks[0].DurationSecs != 1800 {
		t.Fatalf("break record not closed correctly: %+v", breaks)
	}
}

func TestRemainingShiftFlooredAtZero(t *testing.T) {
	repo := newFakeSessionRepo()
	svc, setNow := newSessionFixture(repo, nil)
	ctx := context.Background()

	setNow(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
	session, err := svc.CheckIn(ctx, 1, nil, nil)
	if err != nil {
		t.Fatalf("check in: %v", err)
	}

	// 10h elapsed against a 9h shift
	setNow(time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC))
	resp := svc.SessionResponse(session)
	if resp.RemainingSeconds != 0 {
		t.Fatalf("remaining=%d want 0", resp.RemainingSeconds)
	}
}

func TestSessionTransitionErrors(t *testing.T) {
	ctx := context.Background()
	day := func(h int) time.Time { return time.Date(2026, 3, 2, h, 0, 0, 0, time.UTC) }

	t.Run("no active session", func(t *testing.T) {
		svc, _ := newSessionFixture(newFakeSessionRepo(), nil)
		if _, err := svc.TakeBreak(ctx, 1, nil); !errors.Is(err, ErrNoActiveSession) {
			t.Fatalf("err=%v want ErrNoActiveSession", err)
		}
	})

	t.Run("resume without break", func(t *testing.T) {
		svc, _ := newSessionFixture(newFakeSessionRepo(), nil)
		svc.CheckIn(ctx, 1, nil, nil)
		if _, err := svc.Resume(ctx, 1); !errors.Is(err, ErrNoBreakInProgress) {
			t.Fatalf("err=%v want ErrNoBreakInProgress", err)
		}
	})

	t.Run("double break", func(t *testing.T) {
		svc, setNow := newSessionFixture(newFakeSessionRepo(), nil)
		svc.CheckIn(ctx, 1, nil, nil)
		setNow(day(12))
		svc.TakeBreak(ctx, 1, nil)
		if _, err := svc.TakeBreak(ctx, 1, nil); !errors.Is(err, ErrAlreadyOnBreak) {
			t.Fatalf("err=%v want ErrAlreadyOnBreak", err)
		}
	})

	t.Run("check out on break", func(t *testing.T) {
		svc, setNow := newSessionFixture(newFakeSessionRepo(), nil)
		svc.CheckIn(ctx, 1, nil, nil)
		setNow(day(12))
		svc.TakeBreak(ctx, 1, nil)
		if _, err := svc.CheckOut(ctx, 1, nil, nil); !errors.Is(err, ErrOnBreak) {
			t.Fatalf("err=%v want ErrOnBreak", err)
		}
	})

	t.Run("double check out", func(t *testing.T) {
		svc, setNow := newSessionFixture(newFakeSessionRepo(), nil)
		svc.CheckIn(ctx, 1, nil, nil)
		setNow(day(18))
		svc.CheckOut(ctx, 1, nil, nil)
		if _, err := svc.CheckOut(ctx, 1, nil, nil); !errors.Is(err, ErrAlreadyCheckedOut) {
			t.Fatalf("err=%v want ErrAlreadyCheckedOut", err)
		}
	})

	t.Run("break after check out", func(t *testing.T) {
		svc, setNow := newSessionFixture(newFakeSessionRepo(), nil)
		svc.CheckIn(ctx, 1, nil, nil)
		setNow(day(18))
		svc.CheckOut(ctx, 1, nil, nil)
		if _, err := svc.TakeBreak(ctx, 1, nil); !errors.Is(err, ErrSessionCompleted) {
			t.Fatalf("err=%v want ErrSessionCompleted", err)
		}
	})

	t.Run("resume after check out", func(t *testing.T) {
		svc, setNow := newSessionFixture(newFakeSessionRepo(), nil)
		svc.CheckIn(ctx, 1, nil, nil)
		setNow(day(18))
		svc.CheckOut(ctx, 1, nil, nil)
		if _, err := svc.Resume(ctx, 1); !errors.Is(err, ErrNoBreakInProgress) {
			t.Fatalf("err=%v want ErrNoBreakInProgress", err)
		}
	})
}

func TestCheckInCreateErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate key maps to already checked in", func(t *testing.T) {
		repo := newFakeSessionRepo()
		repo.createErr = gorm.ErrDuplicatedKey
		svc, _ := newSessionFixture(repo, nil)
		if _, err := svc.CheckIn(ctx, 1, nil, nil); !errors.Is(err, ErrAlreadyCheckedIn) {
			t.Fatalf("err=%v want ErrAlreadyCheckedIn", err)
		}
	})

	t.Run("other failures surface as-is", func(t *testing.T) {
		repo := newFakeSessionRepo()
		repo.createErr = errors.New("connection refused")
		svc, _ := newSessionFixture(repo, nil)
		_, err := svc.CheckIn(ctx, 1, nil, nil)
		if err == nil || errors.Is(err, ErrAlreadyCheckedIn) {
			t.Fatalf("err=%v, database failures must not report a conflict", err)
		}
	})
}

func TestListBreaksOwnership(t *testing.T) {
	repo := newFakeSessionRepo()
	svc, setNow := newSessionFixture(repo, nil)
	ctx := context.Background()
	day := func(h int) time.Time { return time.Date(2026, 3, 2, h, 0, 0, 0, time.UTC) }

	session, err := svc.CheckIn(ctx, 1, nil, nil)
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	setNow(day(12))
	svc.TakeBreak(ctx, 1, nil)
	setNow(day(13))
	svc.Resume(ctx, 1)

	if _, err := svc.ListBreaks(ctx, session.ID, 2, false); !errors.Is(err, ErrSessionNotOwned) {
		t.Fatalf("foreign agent err=%v want ErrSessionNotOwned", err)
	}

	breaks, err := svc.ListBreaks(ctx, session.ID, 1, false)
	if err != nil || len(breaks) != 1 {
		t.Fatalf("owner read=(%d, %v) want 1 break", len(breaks), err)
	}

	breaks, err = svc.ListBreaks(ctx, session.ID, 2, true)
	if err != nil || len(breaks) != 1 {
		t.Fatalf("privileged read=(%d, %v) want 1 break", len(breaks), err)
	}

	if _, err := svc.ListBreaks(ctx, 999, 1, false); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("missing session err=%v want ErrNoActiveSession", err)
	}
}

func TestAutoCheckoutSweep(t *testing.T) {
	repo := newFakeSessionRepo()
	notifier := &fakeNotifier{}
	svc, setNow := newSessionFixture(repo, notifier)
	ctx := context.Background()
	day := func(h int) time.Time { return time.Date(2026, 3, 2, h, 0, 0, 0, time.UTC) }

	svc.CheckIn(ctx, 1, nil, nil)
	svc.CheckIn(ctx, 2, nil, nil)
	setNow(day(13))
	if _, err := svc.TakeBreak(ctx, 2, nil); err != nil {
		t.Fatalf("break: %v", err)
	}

	setNow(day(22))
	closed, err := svc.AutoCheckoutSweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if closed != 2 {
		t.Fatalf("closed=%d want 2", closed)
	}

	for _, userID := range []uint{1, 2} {
		session, err := repo.GetByUserAndDate(ctx, userID, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
		if err != nil {
			t.Fatalf("user %d: %v", userID, err)
		}
		if session.Status != models.SessionStatusCompleted || session.CheckOutAt == nil {
			t.Fatalf("user %d not closed: %+v", userID, session)
		}
	}

	// The on-break session's final break must be folded in
	session, _ := repo.GetByUserAndDate(ctx, 2, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	if session.AccumulatedBreakSecs != int64(9*3600) {
		t.Fatalf("accumulated=%d want %d", session.AccumulatedBreakSecs, 9*3600)
	}
	if session.CurrentBreakStartedAt != nil {
		t.Fatal("open break left dangling after sweep")
	}

	if len(notifier.pushed) != 2 {
		t.Fatalf("notifications=%d want 2", len(notifier.pushed))
	}
	if notifier.pushed[0].Kind != models.NotifySessionAutoCheckout {
		t.Fatalf("kind=%s want %s", notifier.pushed[0].Kind, models.NotifySessionAutoCheckout)
	}

	// Sweep is idempotent
	closed, err = svc.AutoCheckoutSweep(ctx)
	if err != nil || closed != 0 {
		t.Fatalf("second sweep closed=%d err=%v", closed, err)
	}
}
