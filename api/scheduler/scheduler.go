// Package scheduler runs periodic background jobs.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/linesmerrill/league-invite-api/invites"
)

const (
	reconcileJob     = "membership_reconcile"
	reconcileTimeout = 5 * time.Minute
	reconcileLockTTL = 10 * time.Minute
)

// Reconciler re-applies queued membership grants
type Reconciler interface {
	Reconcile(ctx context.Context, batch, maxAttempts int) (invites.ReconcileReport, error)
}

// Locker gives one instance at a time the right to run a job
type Locker interface {
	TryAcquireLock(ctx context.Context, name, owner string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, name, owner string) error
}

// Scheduler handles periodic background jobs for invite enrollment
type Scheduler struct {
	cron        *cron.Cron
	Reconciler  Reconciler
	LockDB      Locker
	schedule    string
	batch       int
	maxAttempts int
	instanceID  string
}

// NewScheduler creates a new scheduler instance
func NewScheduler(reconciler Reconciler, lockDB Locker, schedule string, batch, maxAttempts int) *Scheduler {
	// Generate a unique instance ID for this pod
	instanceID := os.Getenv("DYNO") // Heroku sets this to "web.1", "web.2", etc.
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}

	return &Scheduler{
		cron:        cron.New(cron.WithLocation(time.UTC)),
		Reconciler:  reconciler,
		LockDB:      lockDB,
		schedule:    schedule,
		batch:       batch,
		maxAttempts: maxAttempts,
		instanceID:  instanceID,
	}
}

// Start registers the reconciliation job and begins the scheduler
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.reconcileGrants); err != nil {
		return fmt.Errorf("register reconcile job %q: %w", s.schedule, err)
	}
	s.cron.Start()
	zap.S().Infow("Enrollment scheduler started", "schedule", s.schedule, "instance", s.instanceID)
	return nil
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Enrollment scheduler stopped")
}

// reconcileGrants applies memberships that failed during redemption
func (s *Scheduler) reconcileGrants() {
	ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
	defer cancel()
	s.runReconcile(ctx)
}

func (s *Scheduler) runReconcile(ctx context.Context) {
	acquired, err := s.LockDB.TryAcquireLock(ctx, reconcileJob, s.instanceID, reconcileLockTTL)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for reconcile job", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("Reconcile job already running on another instance, skipping")
		return
	}
	defer func() {
		if err := s.LockDB.ReleaseLock(context.WithoutCancel(ctx), reconcileJob, s.instanceID); err != nil {
			zap.S().Warnw("failed to release reconcile lock", "error", err)
		}
	}()

	report, err := s.Reconciler.Reconcile(ctx, s.batch, s.maxAttempts)
	if err != nil {
		zap.S().Errorw("membership reconcile failed",
			"error", err,
			"applied", report.Applied,
			"retried", report.Retried,
			"parked", report.Parked)
		return
	}
	if report.Applied+report.Retried+report.Parked > 0 {
		zap.S().Infow("Membership reconcile complete",
			"applied", report.Applied,
			"retried", report.Retried,
			"parked", report.Parked)
	}
}
