package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/bazuu/investorconnect/internal/config"
	"github.com/bazuu/investorconnect/internal/db"
	"github.com/bazuu/investorconnect/internal/payments"
)

// Names of the built-in maintenance jobs.
const (
	JobExpireSuspensions = "expire-suspensions"
	JobAlertsDaily       = "job-alerts-daily"
	JobAlertsWeekly      = "job-alerts-weekly"
	JobReconcilePayments = "reconcile-payments"
)

// reconcileAge is how long a payment stays pending before the gateway is
// asked about it.
var reconcileAge = 10 * time.Minute

// SuspensionLifter reactivates accounts whose suspension has ended.
type SuspensionLifter interface {
	LiftExpiredSuspensions(ctx context.Context, now time.Time) (int64, error)
}

// AlertDispatcher sends job alert digests.
type AlertDispatcher interface {
	DispatchAlerts(ctx context.Context, freq db.AlertFrequency, now time.Time) (int, error)
}

// Reconciler settles payments whose callback never arrived.
type Reconciler interface {
	ReconcilePending(ctx context.Context, olderThan time.Duration) (payments.ReconcileResult, error)
}

// MaintenanceJobs returns the platform's recurring jobs on the configured
// schedules.
func MaintenanceJobs(cfg config.SchedulesConfig, users SuspensionLifter, alerts AlertDispatcher, reconciler Reconciler, now func() time.Time) []Job {
	dispatch := func(freq db.AlertFrequency) RunFunc {
		return func(ctx context.Context) (string, error) {
			n, err := alerts.DispatchAlerts(ctx, freq, now())
			return fmt.Sprintf("%d alerts sent", n), err
		}
	}
	return []Job{
		{
			Name:     JobExpireSuspensions,
			Schedule: cfg.ExpireSuspensions,
			Run: func(ctx context.Context) (string, error) {
				n, err := users.LiftExpiredSuspensions(ctx, now().UTC())
				if err != nil {
					return "", fmt.Errorf("lifting suspensions: %w", err)
				}
				return fmt.Sprintf("%d suspensions lifted", n), nil
			},
		},
		{Name: JobAlertsDaily, Schedule: cfg.JobAlertsDaily, Run: dispatch(db.AlertDaily)},
		{Name: JobAlertsWeekly, Schedule: cfg.JobAlertsWeekly, Run: dispatch(db.AlertWeekly)},
		{
			Name:     JobReconcilePayments,
			Schedule: cfg.ReconcilePayments,
			Run: func(ctx context.Context) (string, error) {
				res, err := reconciler.ReconcilePending(ctx, reconcileAge)
				return fmt.Sprintf("%d checked, %d completed, %d failed", res.Checked, res.Completed, res.Failed), err
			},
		},
	}
}
