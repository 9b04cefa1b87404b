package services

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/openplanning/caseflow/modules/planning/domain/application"
	"github.com/openplanning/caseflow/modules/planning/domain/audit"
	"github.com/openplanning/caseflow/modules/planning/domain/validationrequest"
	"github.com/openplanning/caseflow/pkg/businessdays"
	"github.com/openplanning/caseflow/pkg/composables"
)

// AutoCloseService is the unattended sweep that approves and closes
// open validation requests the applicant never answered. Each request
// is processed in its own tenant transaction so one failure cannot
// poison the rest of the batch.
type AutoCloseService struct {
	repo     validationrequest.Repository
	apps     application.Repository
	audits   audit.Repository
	calendar *businessdays.Calendar
	reporter ErrorReporter
	metrics  *EngineMetrics
	logger   *logrus.Logger
}

func NewAutoCloseService(
	repo validationrequest.Repository,
	apps application.Repository,
	audits audit.Repository,
	calendar *businessdays.Calendar,
	reporter ErrorReporter,
	metrics *EngineMetrics,
	logger *logrus.Logger,
) *AutoCloseService {
	return &AutoCloseService{
		repo:     repo,
		apps:     apps,
		audits:   audits,
		calendar: calendar,
		reporter: reporter,
		metrics:  metrics,
		logger:   logger,
	}
}

// Sweep closes every open request past its expiry date. Returns the
// number closed; individual failures are reported and skipped.
func (s *AutoCloseService) Sweep(ctx context.Context) (int, error) {
	s.metrics.SweepRuns.Inc()
	now := time.Now().UTC()

	// Five business days span at least five calendar days, so this
	// coarse cutoff over-selects and the calendar check below decides.
	cutoff := now.AddDate(0, 0, -validationrequest.ExpiryDays)
	candidates, err := s.repo.ListOpenCreatedBefore(ctx, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "listing auto-close candidates")
	}

	closed := 0
	for _, candidate := range candidates {
		if !candidate.SweepEligible(s.calendar, now) {
			continue
		}
		if err := s.closeOne(ctx, candidate, now); err != nil {
			s.metrics.AutoCloseFailures.Inc()
			s.reporter.Report(ctx, errors.Wrapf(err, "auto-closing validation request %s", candidate.ID))
			continue
		}
		closed++
		s.metrics.AutoClosed.Inc()
	}

	s.logger.WithFields(logrus.Fields{
		"candidates": len(candidates),
		"closed":     closed,
	}).Info("auto-close sweep finished")
	return closed, nil
}

func (s *AutoCloseService) closeOne(ctx context.Context, candidate *validationrequest.ValidationRequest, now time.Time) error {
	tenantCtx := composables.WithTenantID(ctx, candidate.TenantID)
	return composables.InTenantTx(tenantCtx, func(txCtx context.Context) error {
		req, err := s.repo.GetByIDForUpdate(txCtx, candidate.ID)
		if err != nil {
			return err
		}
		// State may have moved since the candidate list was taken.
		if !req.SweepEligible(s.calendar, now) {
			return nil
		}
		app, err := s.apps.GetByIDForUpdate(txCtx, req.ApplicationID)
		if err != nil {
			return err
		}

		if err := req.AutoClose(); err != nil {
			return err
		}
		spec := req.Kind.Spec()
		if spec.ApplyAutoClose != nil {
			spec.ApplyAutoClose(app, req.Payload)
		}

		if err := s.repo.Update(txCtx, req); err != nil {
			return err
		}
		if err := s.apps.Update(txCtx, app); err != nil {
			return err
		}

		env, err := s.repo.GetEnvelope(txCtx, req.ID)
		if err != nil {
			return err
		}
		if spec.UpdatesCounter && !req.PostValidation {
			env.UpdateCounter = true
		}
		t := now
		env.ClosedAt = &t
		if err := s.repo.UpdateEnvelope(txCtx, env); err != nil {
			return err
		}

		return recordActivity(txCtx, s.audits, app.ID, audit.System, req.Kind.ActivityType("auto_closed"), sequenceInfo(req.Sequence), "")
	})
}

// Run executes the sweep on the given interval until the context is
// cancelled. A sweep-level failure is logged and the loop carries on.
func (s *AutoCloseService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.WithError(err).Error("auto-close sweep failed")
			}
		}
	}
}
