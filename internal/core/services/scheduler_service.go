package services

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// SchedulerService runs the recurring background jobs: the end-of-day
// session sweep and refresh token cleanup
type SchedulerService struct {
	cron           *cron.Cron
	sessionService *SessionService
	authService    *AuthService
	sweepSpec      string
}

// NewSchedulerService creates a new scheduler service
func NewSchedulerService(sessionService *SessionService, authService *AuthService, sweepSpec string) *SchedulerService {
	return &SchedulerService{
		cron:           cron.New(),
		sessionService: sessionService,
		authService:    authService,
		sweepSpec:      sweepSpec,
	}
}

// Start registers the jobs and starts the scheduler
func (s *SchedulerService) Start() error {
	if _, err := s.cron.AddFunc(s.sweepSpec, s.runAutoCheckout); err != nil {
		return err
	}
	// Token cleanup is not time sensitive, once a day at 03:00 is enough
	if _, err := s.cron.AddFunc("0 3 * * *", s.runTokenCleanup); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("✅ Scheduler started (session sweep: %q)", s.sweepSpec)
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("🛑 Scheduler stopped")
}

func (s *SchedulerService) runAutoCheckout() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	closed, err := s.sessionService.AutoCheckoutSweep(ctx)
	if err != nil {
		log.Printf("❌ Session sweep failed: %v", err)
		return
	}
	if closed > 0 {
		log.Printf("✅ Session sweep closed %d open sessions", closed)
	}
}

func (s *SchedulerService) runTokenCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := s.authService.CleanupExpiredTokens(ctx); err != nil {
		log.Printf("❌ Token cleanup failed: %v", err)
	}
}
