package cart

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
	"github.com/angelmondragon/bookstore-backend/pkg/metrics"
)

const reconcileScope = "cart-reconcile"

// Guard remembers which login events already triggered a reconciliation.
type Guard interface {
	Claim(ctx context.Context, scope, id string) (bool, error)
	Release(ctx context.Context, scope, id string) error
}

// SessionTarget is the store anonymous lines migrate into.
type SessionTarget interface {
	Store
	Invalidate(ctx context.Context) error
}

// Outcome records what happened to one anonymous line during a migration.
type Outcome struct {
	LineID        string         `json:"lineId"`
	BookID        int64          `json:"bookId"`
	Quantity      int            `json:"quantity"`
	Migrated      bool           `json:"migrated"`
	SessionLineID string         `json:"sessionLineId,omitempty"`
	Code          pkgerrors.Code `json:"code,omitempty"`
	Message       string         `json:"message,omitempty"`
	Details       any            `json:"details,omitempty"`

	err error
}

// Report summarizes one reconciliation run.
type Report struct {
	LoginID  string    `json:"loginId,omitempty"`
	Skipped  bool      `json:"skipped"`
	Outcomes []Outcome `json:"outcomes"`
	Migrated int       `json:"migrated"`
	Failed   int       `json:"failed"`
	// Drained reports whether the guest cart was emptied after the run.
	Drained bool `json:"drained"`

	clearErr error
}

// Err combines the per-line failures, or returns nil when every line moved.
func (r Report) Err() error {
	if r.Failed == 0 && r.clearErr == nil {
		return nil
	}
	var combined error
	failed := make([]Outcome, 0, r.Failed)
	for _, o := range r.Outcomes {
		if o.Migrated {
			continue
		}
		failed = append(failed, o)
		err := o.err
		if err == nil {
			err = fmt.Errorf("%s: %s", o.Code, o.Message)
		}
		combined = multierr.Append(combined, fmt.Errorf("book %d: %w", o.BookID, err))
	}
	msg := fmt.Sprintf("%d of %d cart lines could not be migrated", r.Failed, len(r.Outcomes))
	if r.clearErr != nil {
		combined = multierr.Append(combined, fmt.Errorf("clear guest cart: %w", r.clearErr))
		msg += "; guest cart was not cleared"
	}
	return pkgerrors.Wrap(pkgerrors.CodeMigration, combined, msg).WithDetails(failed)
}

// Reconciler moves a guest cart into the session cart once per login.
type Reconciler struct {
	guard   Guard
	logg    *logger.Logger
	metrics *metrics.CartMetrics
	now     func() time.Time
}

func NewReconciler(guard Guard, logg *logger.Logger, m *metrics.CartMetrics) *Reconciler {
	return &Reconciler{guard: guard, logg: logg, metrics: m, now: time.Now}
}

// Run re-adds every anonymous line to the session cart, one at a time, then
// clears the anonymous cart whatever the outcomes. Lines the session cart
// rejects are reported and dropped; they are not retried.
func (r *Reconciler) Run(ctx context.Context, anonymous Store, session SessionTarget, loginID string) (Report, error) {
	report := Report{LoginID: loginID, Outcomes: []Outcome{}}
	if r.logg != nil && loginID != "" {
		ctx = r.logg.WithLoginID(ctx, loginID)
	}

	claimed := false
	if r.guard != nil && loginID != "" {
		ok, err := r.guard.Claim(ctx, reconcileScope, loginID)
		switch {
		case err != nil:
			r.warn(ctx, "cart.reconcile.guard_failed", err)
		case !ok:
			report.Skipped = true
			return report, nil
		default:
			claimed = true
		}
	}

	start := r.now()
	lines, err := anonymous.List(ctx)
	if err != nil {
		if claimed {
			if relErr := r.guard.Release(ctx, reconcileScope, loginID); relErr != nil {
				r.warn(ctx, "cart.reconcile.guard_release_failed", relErr)
			}
		}
		return report, err
	}
	if len(lines) == 0 {
		report.Drained = true
		return report, nil
	}

	for _, line := range lines {
		outcome := Outcome{LineID: line.ID, BookID: line.BookID, Quantity: line.Quantity}
		added, err := session.Add(ctx, line.BookID, line.Quantity)
		if err != nil {
			outcome.err = err
			if typed := pkgerrors.As(err); typed != nil {
				outcome.Code = typed.Code()
				outcome.Message = typed.Message()
				outcome.Details = typed.Details()
			} else {
				outcome.Code = pkgerrors.CodeInternal
				outcome.Message = err.Error()
			}
			report.Failed++
		} else {
			outcome.Migrated = true
			outcome.SessionLineID = added.ID
			report.Migrated++
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	// The guard stays claimed when the clear fails: a replay would re-add the
	// lines that already moved. The report carries the failure instead.
	if err := anonymous.Clear(ctx); err != nil {
		report.clearErr = err
		r.warn(ctx, "cart.reconcile.clear_failed", err)
	} else {
		report.Drained = true
	}
	if err := session.Invalidate(ctx); err != nil {
		r.warn(ctx, "cart.reconcile.invalidate_failed", err)
	}

	r.metrics.ObserveReconcile(report.Migrated, report.Failed, r.now().Sub(start))
	if r.logg != nil {
		logCtx := r.logg.WithFields(ctx, map[string]any{
			"migrated": report.Migrated,
			"failed":   report.Failed,
		})
		if err := report.Err(); err != nil {
			r.logg.Warn(r.logg.WithField(logCtx, "error", err.Error()), "cart.reconcile.partial_failure")
		} else {
			r.logg.Info(logCtx, "cart.reconcile.completed")
		}
	}
	return report, nil
}

func (r *Reconciler) warn(ctx context.Context, msg string, err error) {
	if r.logg == nil {
		return
	}
	r.logg.Warn(r.logg.WithField(ctx, "error", err.Error()), msg)
}
