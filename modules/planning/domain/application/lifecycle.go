package application

import (
	"fmt"
	"strings"
	"time"
)

type Event string

const (
	EventStart                  Event = "start"
	EventInvalidate             Event = "invalidate"
	EventSaveAssessment         Event = "save_assessment"
	EventAssess                 Event = "assess"
	EventSubmit                 Event = "submit"
	EventWithdrawRecommendation Event = "withdraw_recommendation"
	EventRequestCorrection      Event = "request_correction"
	EventDetermine              Event = "determine"
	EventReturn                 Event = "return"
	EventWithdraw               Event = "withdraw"
	EventClose                  Event = "close"
)

// InvalidTransitionError is returned when an event is fired from a
// status that does not permit it, or when the event's guard fails.
type InvalidTransitionError struct {
	Event  Event
	From   Status
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("cannot %s from %s", e.Event, e.From)
	}
	return fmt.Sprintf("cannot %s from %s: %s", e.Event, e.From, e.Reason)
}

type transitionRule struct {
	from  []Status
	to    Status
	guard func(a *Application) string // non-empty return is the failure reason
}

// The transition table. Events missing a guard are unconditional once
// the source status matches. Return/withdraw/close accept any
// in-progress status and are handled separately below.
var transitions = map[Event]transitionRule{
	EventStart: {
		from: []Status{StatusNotStarted, StatusInvalidated, StatusInAssessment},
		to:   StatusInAssessment,
		guard: func(a *Application) string {
			if a.ValidatedAt == nil {
				return "application has no validation date"
			}
			return ""
		},
	},
	EventInvalidate: {
		from: []Status{StatusNotStarted},
		to:   StatusInvalidated,
	},
	EventSaveAssessment: {
		from: []Status{StatusInAssessment, StatusAssessmentInProgress},
		to:   StatusAssessmentInProgress,
	},
	EventAssess: {
		from: []Status{StatusInAssessment, StatusAssessmentInProgress, StatusAwaitingCorrection},
		to:   StatusInAssessment,
		guard: func(a *Application) string {
			if a.Decision == nil || strings.TrimSpace(*a.Decision) == "" {
				return "no decision has been made"
			}
			return ""
		},
	},
	EventSubmit: {
		from: []Status{StatusInAssessment},
		to:   StatusAwaitingDetermination,
		guard: func(a *Application) string {
			if a.Decision == nil || strings.TrimSpace(*a.Decision) == "" {
				return "no decision has been made"
			}
			return ""
		},
	},
	EventWithdrawRecommendation: {
		from: []Status{StatusAwaitingDetermination},
		to:   StatusInAssessment,
	},
	EventRequestCorrection: {
		from: []Status{StatusAwaitingDetermination},
		to:   StatusAwaitingCorrection,
	},
	EventDetermine: {
		from: []Status{StatusAwaitingDetermination},
		to:   StatusDetermined,
	},
}

func (a *Application) apply(ev Event, now time.Time) error {
	rule, ok := transitions[ev]
	if !ok {
		return &InvalidTransitionError{Event: ev, From: a.Status, Reason: "unknown event"}
	}
	allowed := false
	for _, from := range rule.from {
		if a.Status == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return &InvalidTransitionError{Event: ev, From: a.Status}
	}
	if rule.guard != nil {
		if reason := rule.guard(a); reason != "" {
			return &InvalidTransitionError{Event: ev, From: a.Status, Reason: reason}
		}
	}
	a.Status = rule.to
	a.stampStatus(now)
	return nil
}

// Start moves the application into assessment. Requires a validation
// date.
func (a *Application) Start(now time.Time) error {
	return a.apply(EventStart, now)
}

// Invalidate sends the application back to the applicant as invalid.
// The caller supplies the number of pending validation requests; the
// transition is guarded on there being at least one.
func (a *Application) Invalidate(now time.Time, pendingRequests int) error {
	if a.Status == StatusNotStarted && pendingRequests == 0 {
		return &InvalidTransitionError{
			Event:  EventInvalidate,
			From:   a.Status,
			Reason: "an application can only be invalidated with pending validation requests",
		}
	}
	if err := a.apply(EventInvalidate, now); err != nil {
		return err
	}
	t := now
	a.InvalidatedAt = &t
	return nil
}

func (a *Application) SaveAssessment(now time.Time) error {
	return a.apply(EventSaveAssessment, now)
}

func (a *Application) Assess(now time.Time) error {
	return a.apply(EventAssess, now)
}

func (a *Application) Submit(now time.Time) error {
	return a.apply(EventSubmit, now)
}

func (a *Application) WithdrawRecommendation(now time.Time) error {
	return a.apply(EventWithdrawRecommendation, now)
}

func (a *Application) RequestCorrection(now time.Time) error {
	return a.apply(EventRequestCorrection, now)
}

func (a *Application) Determine(now time.Time) error {
	return a.apply(EventDetermine, now)
}

func (a *Application) closeOut(ev Event, to Status, comment string, now time.Time) error {
	if !a.Status.InProgress() {
		return &InvalidTransitionError{Event: ev, From: a.Status}
	}
	a.Status = to
	a.stampStatus(now)
	c := comment
	a.ClosedOrCancellationComment = &c
	return nil
}

// Return hands the application back unprocessed.
func (a *Application) Return(comment string, now time.Time) error {
	return a.closeOut(EventReturn, StatusReturned, comment, now)
}

// Withdraw records that the applicant withdrew the application.
func (a *Application) Withdraw(comment string, now time.Time) error {
	return a.closeOut(EventWithdraw, StatusWithdrawn, comment, now)
}

// Close ends processing without a determination.
func (a *Application) Close(comment string, now time.Time) error {
	return a.closeOut(EventClose, StatusClosed, comment, now)
}

// MarkValidated records the validation gate date. Not a status
// transition: it only arms the start guard.
func (a *Application) MarkValidated(at time.Time) {
	t := at
	a.ValidatedAt = &t
}
