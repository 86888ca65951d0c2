// Package status decides whether a company is due for contact.
//
// Two independent rules are provided and they intentionally disagree:
// QuickStatus applies a fixed 14-day threshold and backs the dashboard
// summary, while ScheduledStatus compares against the company's own
// periodicity and backs the communications list and analytics. Keep them
// separate; merging them changes what both screens report.
package status

import (
	"time"

	"github.com/gartstein/outreach/internal/outreach/models"
	"github.com/google/uuid"
)

const (
	// QuickThresholdDays is the fixed window used by QuickStatus.
	QuickThresholdDays = 14

	day = 24 * time.Hour
)

// Status is the binary contact status of a company.
type Status string

const (
	Active  Status = "active"
	Overdue Status = "overdue"
)

// DueState classifies the next-due date against today's calendar day.
type DueState string

const (
	DueOverdue  DueState = "overdue"
	DueToday    DueState = "due_today"
	DueUpcoming DueState = "upcoming"
)

// Evaluation is the result of evaluating one company.
type Evaluation struct {
	Status  Status    `json:"status"`
	NextDue time.Time `json:"nextDue"`
	// LastContact is nil when the company has no communication history.
	LastContact *models.Communication `json:"lastContact,omitempty"`
}

// Evaluate computes the periodicity-based status, next-due instant and last
// contact of company at now.
func Evaluate(company models.Company, comms []models.Communication, now time.Time) Evaluation {
	last, ok := LastContact(company.ID, comms)
	if !ok {
		return Evaluation{Status: Overdue, NextDue: now}
	}

	nextDue := last.Date.Add(time.Duration(company.CommunicationPeriodicity) * day)
	st := Active
	if nextDue.Before(now) {
		st = Overdue
	}
	return Evaluation{Status: st, NextDue: nextDue, LastContact: &last}
}

// ScheduledStatus is the status component of Evaluate.
func ScheduledStatus(company models.Company, comms []models.Communication, now time.Time) Status {
	return Evaluate(company, comms, now).Status
}

// QuickStatus reports Overdue when the company has no history or more than
// QuickThresholdDays whole days have passed since its last contact. The
// company's periodicity is ignored.
func QuickStatus(company models.Company, comms []models.Communication, now time.Time) Status {
	return QuickStatusWithThreshold(company, comms, now, QuickThresholdDays)
}

// QuickStatusWithThreshold is QuickStatus with a configurable threshold.
func QuickStatusWithThreshold(company models.Company, comms []models.Communication, now time.Time, thresholdDays int) Status {
	last, ok := LastContact(company.ID, comms)
	if !ok {
		return Overdue
	}
	if DaysSince(last.Date, now) > thresholdDays {
		return Overdue
	}
	return Active
}

// Due classifies an evaluation for the communications list from its next
// due date alone. A company without history has NextDue = now and is
// therefore DueToday, even though its Status is Overdue.
func Due(ev Evaluation, now time.Time) DueState {
	return DueStateOf(ev.NextDue, now)
}

// DueStateOf compares the calendar day of nextDue with the calendar day of
// now, both taken in now's location.
func DueStateOf(nextDue, now time.Time) DueState {
	due := calendarDay(nextDue.In(now.Location()))
	today := calendarDay(now)
	switch {
	case due.Before(today):
		return DueOverdue
	case due.Equal(today):
		return DueToday
	default:
		return DueUpcoming
	}
}

// LastContact returns the most recent communication of companyID. Among
// equal dates the earliest in collection order wins.
func LastContact(companyID uuid.UUID, comms []models.Communication) (models.Communication, bool) {
	var (
		last  models.Communication
		found bool
	)
	for _, c := range comms {
		if c.CompanyID != companyID {
			continue
		}
		if !found || c.Date.After(last.Date) {
			last = c
			found = true
		}
	}
	return last, found
}

// DaysSince returns the number of whole days elapsed from t to now.
func DaysSince(t, now time.Time) int {
	return int(now.Sub(t) / day)
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
