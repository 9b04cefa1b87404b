package validationrequest

import (
	"time"

	"github.com/openplanning/caseflow/pkg/businessdays"
)

const (
	// ResponseDueDays is the applicant's SLA for answering a request.
	ResponseDueDays = 15
	// ExpiryDays is the age at which an unanswered open request becomes
	// eligible for the auto-close sweep.
	ExpiryDays = 5
)

// ResponseDue is 15 business days after the request was created.
func (r *ValidationRequest) ResponseDue(cal *businessdays.Calendar) time.Time {
	return cal.AddBusinessDays(r.CreatedAt, ResponseDueDays)
}

// DaysUntilResponseDue is the signed business-day distance to the due
// date: positive while the due date is ahead of today, negative once it
// has passed, zero on the due date itself.
func (r *ValidationRequest) DaysUntilResponseDue(cal *businessdays.Calendar, today time.Time) int {
	due := r.ResponseDue(cal)
	if !businessdays.Truncate(today).After(due) {
		return cal.BusinessDaysBetween(today, due)
	}
	return -cal.BusinessDaysBetween(due, today)
}

// Overdue is true strictly after the due date; exactly 15 business days
// out is still on time.
func (r *ValidationRequest) Overdue(cal *businessdays.Calendar, today time.Time) bool {
	return r.DaysUntilResponseDue(cal, today) < 0
}

// ExpiryDate is when the auto-close sweep may pick the request up.
func (r *ValidationRequest) ExpiryDate(cal *businessdays.Calendar) time.Time {
	return cal.AddBusinessDays(r.CreatedAt, ExpiryDays)
}

// SweepEligible reports whether an open request has outlived its expiry
// date.
func (r *ValidationRequest) SweepEligible(cal *businessdays.Calendar, today time.Time) bool {
	return r.State == StateOpen && !businessdays.Truncate(today).Before(r.ExpiryDate(cal))
}
