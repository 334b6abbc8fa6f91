package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"gorm.io/gorm"

	"shams-vision/internal/adapters/persistence/models"
	"shams-vision/internal/adapters/persistence/repositories"
)

// fakePointsRepo mirrors the real ledger semantics in memory: ApplyDelta
// appends a transaction and moves the balances in the same step, under a
// lock like the database transaction it stands in for
type fakePointsRepo struct {
	mu        sync.Mutex
	txns      []*models.PointsTransaction
	balances  map[uint]*models.UserPoints
	penalties []*models.Penalty
	nextID    uint
}

func newFakePointsRepo() *fakePointsRepo {
	return &fakePointsRepo{balances: make(map[uint]*models.UserPoints)}
}

func (f *fakePointsRepo) ApplyDelta(ctx context.Context, txn *models.PointsTransaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	txn.ID = f.nextID
	f.txns = append(f.txns, txn)

	balance, ok := f.balances[txn.UserID]
	if !ok {
		balance = &models.UserPoints{UserID: txn.UserID}
		f.balances[txn.UserID] = balance
	}
	balance.TotalPoints += txn.Amount
	balance.AvailablePoints += txn.Amount
	if txn.Amount > 0 {
		balance.LifetimePoints += txn.Amount
	}
	return nil
}

func (f *fakePointsRepo) GetBalance(ctx context.Context, userID uint) (*models.UserPoints, error) {
	if balance, ok := f.balances[userID]; ok {
		return balance, nil
	}
	return &models.UserPoints{UserID: userID}, nil
}

func (f *fakePointsRepo) SumVisitScoring(ctx context.Context, visitID uint) (int64, bool, error) {
	scoring := map[string]bool{
		models.ActivityVisitCompleted:  true,
		models.ActivityPerfectVisit:    true,
		models.ActivityHighQuality:     true,
		models.ActivityStandardQuality: true,
		models.ActivityLowQuality:      true,
	}
	var total int64
	scored := false
	for _, txn := range f.txns {
		if txn.VisitID != nil && *txn.VisitID == visitID && scoring[txn.ActivityType] {
			total += txn.Amount
			scored = true
		}
	}
	return total, scored, nil
}

func (f *fakePointsRepo) ListTransactions(ctx context.Context, userID uint, offset, limit int) ([]models.PointsTransaction, int64, error) {
	var out []models.PointsTransaction
	for _, txn := range f.txns {
		if txn.UserID == userID {
			out = append(out, *txn)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakePointsRepo) SumTransactions(ctx context.Context, userID uint) (int64, error) {
	var sum int64
	for _, txn := range f.txns {
		if txn.UserID == userID {
			sum += txn.Amount
		}
	}
	return sum, nil
}

func (f *fakePointsRepo) CreatePenalty(ctx context.Context, penalty *models.Penalty) error {
	f.nextID++
	penalty.ID = f.nextID
	f.penalties = append(f.penalties, penalty)
	return nil
}

func (f *fakePointsRepo) ListPenalties(ctx context.Context, userID uint, offset, limit int) ([]models.Penalty, int64, error) {
	var out []models.Penalty
	for _, p := range f.penalties {
		if userID == 0 || p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakePointsRepo) GetPenaltyByID(ctx context.Context, id uint) (*models.Penalty, error) {
	for _, p := range f.penalties {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePointsRepo) UpdatePenaltyStatus(ctx context.Context, id uint, status string) error {
	penalty, err := f.GetPenaltyByID(ctx, id)
	if err != nil {
		return err
	}
	penalty.Status = status
	return nil
}

func (f *fakePointsRepo) Leaderboard(ctx context.Context, limit int) ([]models.UserPoints, error) {
	var out []models.UserPoints
	for _, b := range f.balances {
		out = append(out, *b)
	}
	return out, nil
}

// checkLedgerReconciles asserts the stored balance equals the ledger sum
func checkLedgerReconciles(t *testing.T, repo *fakePointsRepo, userID uint) {
	t.Helper()
	sum, _ := repo.SumTransactions(context.Background(), userID)
	balance, _ := repo.GetBalance(context.Background(), userID)
	if balance.TotalPoints != sum {
		t.Fatalf("balance %d != ledger sum %d", balance.TotalPoints, sum)
	}
}

func TestScoreTier(t *testing.T) {
	tests := []struct {
		name         string
		counts       repositories.ImageCounts
		wantScore    int64
		wantActivity string
	}{
		{"no images", repositories.ImageCounts{}, 100, models.ActivityVisitCompleted},
		{"all pending", repositories.ImageCounts{Total: 5}, 100, models.ActivityVisitCompleted},
		{"all approved", repositories.ImageCounts{Total: 4, Approved: 4}, 150, models.ActivityPerfectVisit},
		{"4 of 5 approved", repositories.ImageCounts{Total: 5, Approved: 4, Rejected: 1}, 125, models.ActivityHighQuality},
		{"exactly 80 percent", repositories.ImageCounts{Total: 10, Approved: 8, Rejected: 2}, 125, models.ActivityHighQuality},
		{"half approved", repositories.ImageCounts{Total: 4, Approved: 2, Rejected: 2}, 100, models.ActivityStandardQuality},
		{"mostly rejected", repositories.ImageCounts{Total: 5, Approved: 1, Rejected: 4}, 70, models.ActivityLowQuality},
		{"all rejected", repositories.ImageCounts{Total: 3, Rejected: 3}, 70, models.ActivityLowQuality},
		{"pending excluded from ratio", repositories.ImageCounts{Total: 10, Approved: 2, Rejected: 0}, 150, models.ActivityPerfectVisit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, activity := scoreTier(tt.counts)
			if score != tt.wantScore || activity != tt.wantActivity {
				t.Fatalf("got (%d, %s) want (%d, %s)", score, activity, tt.wantScore, tt.wantActivity)
			}
		})
	}
}

func TestScoreVisitIdempotent(t *testing.T) {
	repo := newFakePointsRepo()
	svc := NewPointsService(repo, nil)
	ctx := context.Background()

	visitID, storeID, routeID := uint(10), uint(20), uint(30)
	visit := &models.StoreVisit{ID: visitID, UserID: 1, StoreID: storeID, RouteID: routeID}
	counts := repositories.ImageCounts{Total: 3, Approved: 3}

	score, err := svc.ScoreVisit(ctx, visit, counts)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score != 150 {
		t.Fatalf("score=%d want 150", score)
	}

	// Second scoring of the same visit is a no-op
	score, err = svc.ScoreVisit(ctx, visit, counts)
	if err != nil || score != 0 {
		t.Fatalf("rescore=(%d, %v) want (0, nil)", score, err)
	}
	if len(repo.txns) != 1 {
		t.Fatalf("txns=%d want 1", len(repo.txns))
	}
	checkLedgerReconciles(t, repo, 1)
}

func TestRecheckVisitAppliesOnlyDifference(t *testing.T) {
	repo := newFakePointsRepo()
	svc := NewPointsService(repo, nil)
	ctx := context.Background()

	visitID, storeID, routeID := uint(10), uint(20), uint(30)
	visit := &models.StoreVisit{ID: visitID, UserID: 1, StoreID: storeID, RouteID: routeID}

	// Scored perfect while two images were still pending
	if _, err := svc.ScoreVisit(ctx, visit, repositories.ImageCounts{Total: 4, Approved: 2}); err != nil {
		t.Fatalf("score: %v", err)
	}

	// Late reviews reject the remaining two: 2/4 approved, standard tier
	delta, err := svc.RecheckVisit(ctx, visit, repositories.ImageCounts{Total: 4, Approved: 2, Rejected: 2})
	if err != nil {
		t.Fatalf("recheck: %v", err)
	}
	if delta != -50 {
		t.Fatalf("delta=%d want -50", delta)
	}

	total, _, _ := repo.SumVisitScoring(ctx, visitID)
	if total != 100 {
		t.Fatalf("net score=%d want 100", total)
	}
	if len(repo.txns) != 2 {
		t.Fatalf("txns=%d want 2, original entry must stay untouched", len(repo.txns))
	}

	// Recheck with no tier change applies nothing
	delta, err = svc.RecheckVisit(ctx, visit, repositories.ImageCounts{Total: 4, Approved: 2, Rejected: 2})
	if err != nil || delta != 0 {
		t.Fatalf("idle recheck=(%d, %v) want (0, nil)", delta, err)
	}
	checkLedgerReconciles(t, repo, 1)
}

func TestRecheckVisitScoresWhenNeverScored(t *testing.T) {
	repo := newFakePointsRepo()
	svc := NewPointsService(repo, nil)

	visit := &models.StoreVisit{ID: 10, UserID: 1, StoreID: 20, RouteID: 30}
	delta, err := svc.RecheckVisit(context.Background(), visit, repositories.ImageCounts{Total: 2, Approved: 2})
	if err != nil || delta != 150 {
		t.Fatalf("recheck on unscored=(%d, %v) want (150, nil)", delta, err)
	}
}

func TestMissedVisitPenaltyTiers(t *testing.T) {
	tests := []struct {
		priority   string
		wantPoints int64
		wantFine   float64
	}{
		{models.PriorityHigh, 100, 100},
		{models.PriorityMedium, 75, 75},
		{models.PriorityLow, 50, 50},
		{"UNKNOWN", 50, 50},
	}
	for _, tt := range tests {
		t.Run(tt.priority, func(t *testing.T) {
			repo := newFakePointsRepo()
			notifier := &fakeNotifier{}
			svc := NewPointsService(repo, notifier)

			store := &models.Store{ID: 5, Name: "Panda Al Olaya", Priority: tt.priority}
			penalty, err := svc.MissedVisitPenalty(context.Background(), 1, 7, store, nil)
			if err != nil {
				t.Fatalf("penalty: %v", err)
			}
			if penalty.Amount != tt.wantFine || penalty.PointsDeducted != tt.wantPoints {
				t.Fatalf("penalty=(%v, %d) want (%v, %d)", penalty.Amount, penalty.PointsDeducted, tt.wantFine, tt.wantPoints)
			}
			if penalty.PenaltyType != models.PenaltyTypeFinancial || penalty.Status != models.PenaltyStatusIssued {
				t.Fatalf("penalty type/status=%s/%s", penalty.PenaltyType, penalty.Status)
			}
			if penalty.IssuedBy != nil {
				t.Fatal("system penalty must not carry an issuer")
			}

			balance, _ := repo.GetBalance(context.Background(), 1)
			if balance.TotalPoints != -tt.wantPoints {
				t.Fatalf("balance=%d want %d", balance.TotalPoints, -tt.wantPoints)
			}
			if balance.LifetimePoints != 0 {
				t.Fatalf("lifetime=%d, deductions must not grow it", balance.LifetimePoints)
			}
			checkLedgerReconciles(t, repo, 1)

			// Deduction plus penalty notification
			if len(notifier.pushed) != 2 {
				t.Fatalf("notifications=%d want 2", len(notifier.pushed))
			}
		})
	}
}

func TestRedeemPoints(t *testing.T) {
	repo := newFakePointsRepo()
	svc := NewPointsService(repo, nil)
	ctx := context.Background()

	visit := &models.StoreVisit{ID: 10, UserID: 1, StoreID: 20, RouteID: 30}
	if _, err := svc.ScoreVisit(ctx, visit, repositories.ImageCounts{Total: 2, Approved: 2}); err != nil {
		t.Fatalf("score: %v", err)
	}

	if err := svc.RedeemPoints(ctx, 1, 0, "zero"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero redeem err=%v want ErrInvalidAmount", err)
	}
	if err := svc.RedeemPoints(ctx, 1, 200, "too much"); !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("over redeem err=%v want ErrInsufficientPoints", err)
	}
	if err := svc.RedeemPoints(ctx, 1, 120, "gift card"); err != nil {
		t.Fatalf("redeem: %v", err)
	}

	balance, _ := repo.GetBalance(ctx, 1)
	if balance.AvailablePoints != 30 {
		t.Fatalf("available=%d want 30", balance.AvailablePoints)
	}
	if balance.LifetimePoints != 150 {
		t.Fatalf("lifetime=%d want 150", balance.LifetimePoints)
	}
	checkLedgerReconciles(t, repo, 1)
}

func TestApplyDeltaAccumulates(t *testing.T) {
	repo := newFakePointsRepo()
	svc := NewPointsService(repo, nil)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		txn := &models.PointsTransaction{UserID: 1, Amount: 1, ActivityType: models.ActivityVisitCompleted, Description: "bonus"}
		if err := svc.ApplyDelta(ctx, txn); err != nil {
			t.Fatalf("delta %d: %v", i, err)
		}
	}

	balance, _ := repo.GetBalance(ctx, 1)
	if balance.TotalPoints != 10 || balance.LifetimePoints != 10 {
		t.Fatalf("total=%d lifetime=%d want 10/10", balance.TotalPoints, balance.LifetimePoints)
	}
	checkLedgerReconciles(t, repo, 1)
}

func TestApplyDeltaConcurrent(t *testing.T) {
	repo := newFakePointsRepo()
	svc := NewPointsService(repo, nil)
	ctx := context.Background()

	const workers = 50
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			txn := &models.PointsTransaction{UserID: 1, Amount: 1, ActivityType: models.ActivityVisitCompleted, Description: "bonus"}
			errs <- svc.ApplyDelta(ctx, txn)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("delta: %v", err)
		}
	}

	balance, _ := repo.GetBalance(ctx, 1)
	if balance.TotalPoints != workers {
		t.Fatalf("total=%d want %d", balance.TotalPoints, workers)
	}
	if len(repo.txns) != workers {
		t.Fatalf("ledger rows=%d want %d", len(repo.txns), workers)
	}
	checkLedgerReconciles(t, repo, 1)
}

func TestIssuePenaltyDeductsPoints(t *testing.T) {
	repo := newFakePointsRepo()
	svc := NewPointsService(repo, nil)
	ctx := context.Background()

	issuer := uint(9)
	penalty := &models.Penalty{
		UserID:         1,
		Amount:         50,
		PointsDeducted: 25,
		PenaltyType:    models.PenaltyTypeWarning,
		Reason:         "Late report submission",
		Status:         models.PenaltyStatusIssued,
		IssuedBy:       &issuer,
	}
	if err := svc.IssuePenalty(ctx, penalty); err != nil {
		t.Fatalf("issue: %v", err)
	}

	balance, _ := repo.GetBalance(ctx, 1)
	if balance.TotalPoints != -25 {
		t.Fatalf("balance=%d want -25", balance.TotalPoints)
	}
	if len(repo.penalties) != 1 {
		t.Fatalf("penalties=%d want 1", len(repo.penalties))
	}
	checkLedgerReconciles(t, repo, 1)
}
