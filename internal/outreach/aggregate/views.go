package aggregate

import (
	"sort"
	"time"

	"github.com/gartstein/outreach/internal/outreach/models"
	"github.com/gartstein/outreach/internal/outreach/status"
	"github.com/google/uuid"
)

// DefaultHistoryLimit is how many past communications a list row shows.
const DefaultHistoryLimit = 5

// DashboardRow is one company on the dashboard summary.
type DashboardRow struct {
	CompanyID   uuid.UUID     `json:"companyId"`
	CompanyName string        `json:"companyName"`
	LastContact *time.Time    `json:"lastContact,omitempty"`
	Status      status.Status `json:"status"`
}

// Dashboard is the summary screen. It uses the fixed-threshold rule.
type Dashboard struct {
	OverdueCount int            `json:"overdueCount"`
	ActiveCount  int            `json:"activeCount"`
	Rows         []DashboardRow `json:"rows"`
}

// Dashboard classifies every company with the quick rule.
func (e *Engine) Dashboard() Dashboard {
	d := Dashboard{Rows: make([]DashboardRow, 0, len(e.snap.Companies))}
	for _, c := range e.snap.Companies {
		row := DashboardRow{
			CompanyID:   c.ID,
			CompanyName: c.Name,
			Status:      e.QuickStatus(c),
		}
		if last, ok := status.LastContact(c.ID, e.byCompany[c.ID]); ok {
			date := last.Date
			row.LastContact = &date
		}
		if row.Status == status.Overdue {
			d.OverdueCount++
		} else {
			d.ActiveCount++
		}
		d.Rows = append(d.Rows, row)
	}
	return d
}

// CommunicationRow is one company on the communications list.
type CommunicationRow struct {
	CompanyID   uuid.UUID       `json:"companyId"`
	CompanyName string          `json:"companyName"`
	Recent      []Activity      `json:"recent"`
	NextDue     time.Time       `json:"nextDue"`
	Due         status.DueState `json:"due"`
	Status      status.Status   `json:"status"`
}

// CommunicationRows lists every company with its latest historyLimit
// communications and its scheduled next-due date.
func (e *Engine) CommunicationRows(historyLimit int) []CommunicationRow {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	rows := make([]CommunicationRow, 0, len(e.snap.Companies))
	for _, c := range e.snap.Companies {
		ev := e.Evaluate(c)
		rows = append(rows, CommunicationRow{
			CompanyID:   c.ID,
			CompanyName: c.Name,
			Recent:      e.resolve(newestFirst(e.byCompany[c.ID]), historyLimit),
			NextDue:     ev.NextDue,
			Due:         status.Due(ev, e.now),
			Status:      ev.Status,
		})
	}
	return rows
}

// CalendarEvent is a communication placed on a calendar.
type CalendarEvent struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Date        time.Time `json:"date"`
	Completed   bool      `json:"completed"`
	Notes       string    `json:"notes,omitempty"`
	CompanyName string    `json:"companyName"`
	MethodName  string    `json:"methodName"`
}

// CalendarEvents returns every communication in collection order.
func (e *Engine) CalendarEvents() []CalendarEvent {
	out := make([]CalendarEvent, len(e.snap.Communications))
	for i, c := range e.snap.Communications {
		company := e.snap.CompanyName(c.CompanyID)
		method := e.snap.MethodName(c.MethodID)
		out[i] = CalendarEvent{
			ID:          c.ID,
			Title:       company + " - " + method,
			Date:        c.Date,
			Completed:   c.Completed,
			Notes:       c.Notes,
			CompanyName: company,
			MethodName:  method,
		}
	}
	return out
}

// MethodOrder is a method with its reordering affordances.
type MethodOrder struct {
	models.CommunicationMethod
	CanMoveUp   bool `json:"canMoveUp"`
	CanMoveDown bool `json:"canMoveDown"`
}

// OrderedMethods returns the methods sorted by sequence. The method at the
// lowest sequence cannot move up and the one at the highest cannot move down.
func (e *Engine) OrderedMethods() []MethodOrder {
	methods := append([]models.CommunicationMethod(nil), e.snap.Methods...)
	sort.SliceStable(methods, func(i, j int) bool {
		return methods[i].Sequence < methods[j].Sequence
	})

	out := make([]MethodOrder, len(methods))
	for i, m := range methods {
		out[i] = MethodOrder{
			CommunicationMethod: m,
			CanMoveUp:           i > 0,
			CanMoveDown:         i < len(methods)-1,
		}
	}
	return out
}
