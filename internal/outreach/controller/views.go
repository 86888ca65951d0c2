package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gartstein/outreach/internal/outreach/aggregate"
	e "github.com/gartstein/outreach/internal/outreach/errors"
	"github.com/gartstein/outreach/internal/outreach/events"
	"github.com/gartstein/outreach/internal/outreach/models"
	"github.com/gartstein/outreach/internal/outreach/selection"
	"github.com/gartstein/outreach/internal/outreach/status"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CompanyStatus combines both status rules for one company.
type CompanyStatus struct {
	CompanyID uuid.UUID `json:"companyId"`
	status.Evaluation
	Due   status.DueState `json:"due"`
	Quick status.Status   `json:"quickStatus"`
}

// Analytics is the analytics screen.
type Analytics struct {
	WindowDays   int                     `json:"windowDays"`
	MethodCounts []aggregate.MethodCount `json:"methodCounts"`
	OverdueCount int                     `json:"overdueCount"`
	Overdue      []models.Company        `json:"overdue"`
	Recent       []aggregate.Activity    `json:"recent"`
}

// DateLayout is the date-only form accepted for LogRequest.Date.
const DateLayout = "2006-01-02"

// LogRequest is a batch "log communication" action.
type LogRequest struct {
	CompanyIDs []uuid.UUID `json:"companyIds"`
	// All selects every company, minus Exclude. CompanyIDs is ignored.
	All      bool        `json:"all"`
	Exclude  []uuid.UUID `json:"exclude,omitempty"`
	MethodID uuid.UUID   `json:"methodId"`
	// Date defaults to the start of the current day. A date-only value is
	// the start of that day in the service clock's location.
	Date  time.Time `json:"date"`
	Notes string    `json:"notes"`

	dateOnly bool
}

// UnmarshalJSON accepts date as RFC 3339 or as yyyy-MM-dd. Unknown fields
// are rejected.
func (r *LogRequest) UnmarshalJSON(data []byte) error {
	type plain LogRequest
	aux := struct {
		*plain
		Date string `json:"date"`
	}{plain: (*plain)(r)}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&aux); err != nil {
		return err
	}

	r.Date, r.dateOnly = time.Time{}, false
	if aux.Date == "" {
		return nil
	}
	if d, err := time.Parse(DateLayout, aux.Date); err == nil {
		r.Date, r.dateOnly = d, true
		return nil
	}
	d, err := time.Parse(time.RFC3339Nano, aux.Date)
	if err != nil {
		return fmt.Errorf("date %q is neither %s nor RFC 3339", aux.Date, DateLayout)
	}
	r.Date = d
	return nil
}

// engine loads a fresh snapshot and captures now once.
func (s *OutreachService) engine(ctx context.Context) (*aggregate.Engine, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return aggregate.NewEngine(snap, s.clock(), aggregate.WithQuickThreshold(s.opts.QuickThresholdDays)), nil
}

func (s *OutreachService) observe(view string, start time.Time) {
	s.metrics.ObserveView(view, time.Since(start))
}

// CompanyStatus evaluates one company under both rules.
func (s *OutreachService) CompanyStatus(ctx context.Context, id uuid.UUID) (*CompanyStatus, error) {
	defer s.observe("company_status", time.Now())

	eng, err := s.engine(ctx)
	if err != nil {
		return nil, err
	}
	company, ok := eng.Company(id)
	if !ok {
		return nil, e.ErrNotFound
	}
	ev := eng.Evaluate(company)
	return &CompanyStatus{
		CompanyID:  id,
		Evaluation: ev,
		Due:        status.Due(ev, eng.Now()),
		Quick:      eng.QuickStatus(company),
	}, nil
}

// Dashboard returns the summary classified with the fixed-threshold rule.
func (s *OutreachService) Dashboard(ctx context.Context) (*aggregate.Dashboard, error) {
	defer s.observe("dashboard", time.Now())

	eng, err := s.engine(ctx)
	if err != nil {
		return nil, err
	}
	d := eng.Dashboard()
	s.metrics.SetOverdue("quick", d.OverdueCount)
	return &d, nil
}

// Analytics returns method counts over windowDays, the overdue roster and
// the latest limit communications. Non-positive arguments use the defaults.
func (s *OutreachService) Analytics(ctx context.Context, windowDays, limit int) (*Analytics, error) {
	defer s.observe("analytics", time.Now())

	if windowDays <= 0 {
		windowDays = s.opts.DefaultWindowDays
	}
	if limit <= 0 {
		limit = s.opts.RecentLimit
	}
	eng, err := s.engine(ctx)
	if err != nil {
		return nil, err
	}
	overdue := eng.OverdueRoster()
	s.metrics.SetOverdue("scheduled", len(overdue))
	return &Analytics{
		WindowDays:   windowDays,
		MethodCounts: eng.MethodCounts(windowDays),
		OverdueCount: len(overdue),
		Overdue:      overdue,
		Recent:       eng.RecentActivity(limit),
	}, nil
}

// CommunicationRows returns the communications list.
func (s *OutreachService) CommunicationRows(ctx context.Context) ([]aggregate.CommunicationRow, error) {
	defer s.observe("communications", time.Now())

	eng, err := s.engine(ctx)
	if err != nil {
		return nil, err
	}
	return eng.CommunicationRows(s.opts.HistoryLimit), nil
}

// Calendar returns every communication as a calendar event.
func (s *OutreachService) Calendar(ctx context.Context) ([]aggregate.CalendarEvent, error) {
	defer s.observe("calendar", time.Now())

	eng, err := s.engine(ctx)
	if err != nil {
		return nil, err
	}
	return eng.CalendarEvents(), nil
}

// LogCommunications records one completed communication per requested
// company with the same method, date and notes.
func (s *OutreachService) LogCommunications(ctx context.Context, req *LogRequest) ([]models.Communication, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	method, ok := snap.Method(req.MethodID)
	if !ok {
		return nil, fmt.Errorf("%w: unknown communication method %s", e.ErrInvalidInput, req.MethodID)
	}
	ids := req.CompanyIDs
	if req.All {
		ids = snap.CompanyIDs()
	}
	for _, id := range ids {
		if _, ok := snap.Company(id); !ok {
			return nil, fmt.Errorf("%w: company %s", e.ErrNotFound, id)
		}
	}

	date := req.Date
	switch {
	case date.IsZero():
		now := s.clock()
		y, m, d := now.Date()
		date = time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	case req.dateOnly:
		y, m, d := date.Date()
		date = time.Date(y, m, d, 0, 0, 0, 0, s.clock().Location())
	}

	sel := selection.New(s.store)
	sel.SelectAll(ids)
	for _, id := range req.Exclude {
		if sel.IsSelected(id) {
			sel.Toggle(id)
		}
	}
	comms, err := sel.Commit(ctx, method.ID, date, req.Notes)
	if err != nil {
		return nil, err
	}

	s.metrics.AddLogged(method.Name, len(comms))
	for i := range comms {
		s.producer.Produce(events.CommunicationLogged, comms[i].ID, comms[i])
	}
	s.logger.Info("Logged communications",
		zap.Int("count", len(comms)),
		zap.String("method_id", method.ID.String()),
	)
	return comms, nil
}
