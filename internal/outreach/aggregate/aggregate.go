// Package aggregate computes the reporting views of the outreach service
// from one entity snapshot at one instant. Every view is recomputed on each
// call and depends only on the snapshot, now and its parameters.
package aggregate

import (
	"sort"
	"time"

	"github.com/gartstein/outreach/internal/outreach/models"
	"github.com/gartstein/outreach/internal/outreach/status"
	"github.com/gartstein/outreach/internal/outreach/store"
	"github.com/google/uuid"
)

const day = 24 * time.Hour

// MethodCount is the number of communications logged with one method.
type MethodCount struct {
	MethodID uuid.UUID `json:"methodId"`
	Name     string    `json:"name"`
	Count    int       `json:"count"`
}

// Activity is a communication resolved to display names. Names are empty
// when the reference dangles.
type Activity struct {
	models.Communication
	CompanyName string `json:"companyName"`
	MethodName  string `json:"methodName"`
}

// Engine evaluates views over a snapshot at a fixed instant.
type Engine struct {
	snap           *store.Snapshot
	now            time.Time
	quickThreshold int
	byCompany      map[uuid.UUID][]models.Communication
}

// Option configures an Engine.
type Option func(*Engine)

// WithQuickThreshold overrides the day threshold of the dashboard rule.
func WithQuickThreshold(days int) Option {
	return func(e *Engine) {
		if days > 0 {
			e.quickThreshold = days
		}
	}
}

// NewEngine binds snap and now. now is used unchanged by every view.
func NewEngine(snap *store.Snapshot, now time.Time, opts ...Option) *Engine {
	e := &Engine{
		snap:           snap,
		now:            now,
		quickThreshold: status.QuickThresholdDays,
		byCompany:      make(map[uuid.UUID][]models.Communication, len(snap.Companies)),
	}
	for _, opt := range opts {
		opt(e)
	}
	for _, c := range snap.Communications {
		e.byCompany[c.CompanyID] = append(e.byCompany[c.CompanyID], c)
	}
	return e
}

// Now returns the instant the engine evaluates at.
func (e *Engine) Now() time.Time {
	return e.now
}

// Company looks up a company in the snapshot.
func (e *Engine) Company(id uuid.UUID) (models.Company, bool) {
	return e.snap.Company(id)
}

// Evaluate runs the periodicity rule for one company.
func (e *Engine) Evaluate(company models.Company) status.Evaluation {
	return status.Evaluate(company, e.byCompany[company.ID], e.now)
}

// QuickStatus runs the fixed-threshold rule for one company.
func (e *Engine) QuickStatus(company models.Company) status.Status {
	return status.QuickStatusWithThreshold(company, e.byCompany[company.ID], e.now, e.quickThreshold)
}

// MethodCounts counts, per method in collection order, the communications
// dated strictly after now minus windowDays. Methods without matches are
// reported with a zero count.
func (e *Engine) MethodCounts(windowDays int) []MethodCount {
	since := e.now.Add(-time.Duration(windowDays) * day)

	counts := make(map[uuid.UUID]int, len(e.snap.Methods))
	for _, c := range e.snap.Communications {
		if c.Date.After(since) {
			counts[c.MethodID]++
		}
	}

	out := make([]MethodCount, len(e.snap.Methods))
	for i, m := range e.snap.Methods {
		out[i] = MethodCount{MethodID: m.ID, Name: m.Name, Count: counts[m.ID]}
	}
	return out
}

// OverdueRoster returns, in collection order, every company whose
// scheduled status is Overdue.
func (e *Engine) OverdueRoster() []models.Company {
	out := make([]models.Company, 0)
	for _, c := range e.snap.Companies {
		if e.Evaluate(c).Status == status.Overdue {
			out = append(out, c)
		}
	}
	return out
}

// RecentActivity returns at most limit communications, newest first. Equal
// dates keep insertion order.
func (e *Engine) RecentActivity(limit int) []Activity {
	if limit <= 0 {
		return []Activity{}
	}
	return e.resolve(newestFirst(e.snap.Communications), limit)
}

func (e *Engine) resolve(comms []models.Communication, limit int) []Activity {
	if limit > len(comms) {
		limit = len(comms)
	}
	out := make([]Activity, limit)
	for i := 0; i < limit; i++ {
		out[i] = Activity{
			Communication: comms[i],
			CompanyName:   e.snap.CompanyName(comms[i].CompanyID),
			MethodName:    e.snap.MethodName(comms[i].MethodID),
		}
	}
	return out
}

// newestFirst returns a copy of comms sorted by date descending, stable on ties.
func newestFirst(comms []models.Communication) []models.Communication {
	sorted := append([]models.Communication(nil), comms...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})
	return sorted
}
