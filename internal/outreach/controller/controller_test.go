package controller

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gartstein/outreach/internal/outreach/aggregate"
	e "github.com/gartstein/outreach/internal/outreach/errors"
	"github.com/gartstein/outreach/internal/outreach/events"
	"github.com/gartstein/outreach/internal/outreach/metrics"
	"github.com/gartstein/outreach/internal/outreach/models"
	"github.com/gartstein/outreach/internal/outreach/status"
	"github.com/gartstein/outreach/internal/outreach/store"
	"github.com/gartstein/outreach/internal/pkg/utils"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var fixedNow = time.Date(2024, time.March, 20, 15, 30, 0, 0, time.UTC)

type producedEvent struct {
	Type    events.EventType
	Key     uuid.UUID
	Payload interface{}
}

// MockProducer is a test double for the Kafka producer.
type MockProducer struct {
	mu     sync.Mutex
	events []producedEvent
}

func (m *MockProducer) Produce(eventType events.EventType, key uuid.UUID, payload interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, producedEvent{eventType, key, payload})
}

func (m *MockProducer) types() []events.EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]events.EventType, len(m.events))
	for i, ev := range m.events {
		out[i] = ev.Type
	}
	return out
}

// failingStore wraps a memory store and fails the configured operations.
type failingStore struct {
	*store.Memory
	snapshotErr error
	appendErr   error
}

func (f *failingStore) Snapshot(ctx context.Context) (*store.Snapshot, error) {
	if f.snapshotErr != nil {
		return nil, f.snapshotErr
	}
	return f.Memory.Snapshot(ctx)
}

func (f *failingStore) AddCommunications(ctx context.Context, comms []models.Communication) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	return f.Memory.AddCommunications(ctx, comms)
}

type testEnv struct {
	svc      *OutreachService
	store    *store.Memory
	producer *MockProducer
	metrics  *metrics.Metrics
	now      time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store:    store.NewMemory(),
		producer: &MockProducer{},
		metrics:  metrics.New(prometheus.NewRegistry()),
		now:      fixedNow,
	}
	env.svc = NewOutreachService(env.store, env.producer, env.metrics, func() time.Time { return env.now }, DefaultOptions(), zaptest.NewLogger(t))
	return env
}

func (env *testEnv) company(t *testing.T, name string, periodicity int) *models.Company {
	t.Helper()
	c, err := env.svc.CreateCompany(context.Background(), &models.Company{Name: name, CommunicationPeriodicity: periodicity})
	require.NoError(t, err)
	return c
}

func (env *testEnv) method(t *testing.T, name string) *models.CommunicationMethod {
	t.Helper()
	m, err := env.svc.CreateMethod(context.Background(), &models.CommunicationMethod{Name: name})
	require.NoError(t, err)
	return m
}

func (env *testEnv) logAt(t *testing.T, date time.Time, methodID uuid.UUID, ids ...uuid.UUID) []models.Communication {
	t.Helper()
	comms, err := env.svc.LogCommunications(context.Background(), &LogRequest{CompanyIDs: ids, MethodID: methodID, Date: date})
	require.NoError(t, err)
	return comms
}

func TestOutreachService_CreateCompany(t *testing.T) {
	tests := []struct {
		name          string
		input         *models.Company
		check         func(t *testing.T, c *models.Company)
		expectedError error
	}{
		{
			name: "successful creation with normalization",
			input: &models.Company{
				Name:            "  Acme  ",
				LinkedinProfile: "https://www.linkedin.com/company/acme",
				Emails:          []string{"Sales <sales@acme.com>", " ", "info@acme.com"},
				PhoneNumbers:    []string{"(650) 253-0000", ""},
			},
			check: func(t *testing.T, c *models.Company) {
				assert.NotEqual(t, uuid.Nil, c.ID)
				assert.Equal(t, "Acme", c.Name)
				assert.Equal(t, models.DefaultPeriodicity, c.CommunicationPeriodicity)
				assert.Equal(t, []string{"sales@acme.com", "info@acme.com"}, c.Emails)
				assert.Equal(t, []string{"+16502530000"}, c.PhoneNumbers)
			},
		},
		{
			name:          "empty name",
			input:         &models.Company{Name: "   "},
			expectedError: e.ErrInvalidInput,
		},
		{
			name:          "negative periodicity",
			input:         &models.Company{Name: "Acme", CommunicationPeriodicity: -3},
			expectedError: e.ErrInvalidInput,
		},
		{
			name:          "invalid email",
			input:         &models.Company{Name: "Acme", Emails: []string{"not-an-email"}},
			expectedError: e.ErrInvalidInput,
		},
		{
			name:          "invalid phone",
			input:         &models.Company{Name: "Acme", PhoneNumbers: []string{"12"}},
			expectedError: e.ErrInvalidInput,
		},
		{
			name:          "invalid linkedin profile",
			input:         &models.Company{Name: "Acme", LinkedinProfile: "linkedin"},
			expectedError: e.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			got, err := env.svc.CreateCompany(context.Background(), tt.input)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, env.producer.types())
				return
			}
			require.NoError(t, err)
			tt.check(t, got)
			assert.Equal(t, []events.EventType{events.CompanyCreated}, env.producer.types())
		})
	}
}

func TestOutreachService_CreateCompanyDuplicateName(t *testing.T) {
	env := newTestEnv(t)
	env.company(t, "Acme", 14)

	_, err := env.svc.CreateCompany(context.Background(), &models.Company{Name: "Acme"})
	assert.ErrorIs(t, err, e.ErrDuplicateName)
}

func TestOutreachService_UpdateCompany(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	acme := env.company(t, "Acme", 14)
	env.company(t, "Globex", 14)

	updated, err := env.svc.UpdateCompany(ctx, &models.CompanyUpdate{
		ID:                       acme.ID,
		Location:                 utils.Ptr(" Berlin "),
		CommunicationPeriodicity: utils.Ptr(30),
	})
	require.NoError(t, err)
	assert.Equal(t, "Berlin", updated.Location)
	assert.Equal(t, 30, updated.CommunicationPeriodicity)
	assert.Equal(t, "Acme", updated.Name)

	_, err = env.svc.UpdateCompany(ctx, &models.CompanyUpdate{ID: acme.ID, Name: utils.Ptr("Globex")})
	assert.ErrorIs(t, err, e.ErrDuplicateName)

	_, err = env.svc.UpdateCompany(ctx, &models.CompanyUpdate{ID: acme.ID, CommunicationPeriodicity: utils.Ptr(0)})
	assert.ErrorIs(t, err, e.ErrInvalidInput)

	_, err = env.svc.UpdateCompany(ctx, &models.CompanyUpdate{ID: uuid.New(), Name: utils.Ptr("x")})
	assert.ErrorIs(t, err, e.ErrNotFound)

	_, err = env.svc.UpdateCompany(ctx, &models.CompanyUpdate{})
	assert.ErrorIs(t, err, e.ErrInvalidInput)

	assert.Equal(t, []events.EventType{events.CompanyCreated, events.CompanyCreated, events.CompanyUpdated}, env.producer.types())
}

func TestOutreachService_GetListDeleteCompany(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	acme := env.company(t, "Acme", 14)
	globex := env.company(t, "Globex", 14)

	got, err := env.svc.GetCompany(ctx, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)

	list, err := env.svc.ListCompanies(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, globex.ID, list[1].ID)

	require.NoError(t, env.svc.DeleteCompany(ctx, acme.ID))
	_, err = env.svc.GetCompany(ctx, acme.ID)
	assert.ErrorIs(t, err, e.ErrNotFound)
	assert.ErrorIs(t, env.svc.DeleteCompany(ctx, acme.ID), e.ErrNotFound)
	assert.Contains(t, env.producer.types(), events.CompanyDeleted)
}

func TestOutreachService_Methods(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	require.NoError(t, env.svc.SeedDefaultMethods(ctx))
	// Seeding twice is a no-op.
	require.NoError(t, env.svc.SeedDefaultMethods(ctx))

	methods, err := env.svc.ListMethods(ctx)
	require.NoError(t, err)
	require.Len(t, methods, 5)
	assert.Equal(t, "LinkedIn Post", methods[0].Name)
	assert.False(t, methods[0].CanMoveUp)
	assert.False(t, methods[4].CanMoveDown)

	custom := env.method(t, "Conference")
	assert.Equal(t, 6, custom.Sequence)

	_, err = env.svc.CreateMethod(ctx, &models.CommunicationMethod{Name: "Dup", Sequence: 1})
	assert.ErrorIs(t, err, e.ErrDuplicateName)
	_, err = env.svc.CreateMethod(ctx, &models.CommunicationMethod{Name: " "})
	assert.ErrorIs(t, err, e.ErrInvalidInput)

	renamed, err := env.svc.UpdateMethod(ctx, &models.MethodUpdate{ID: custom.ID, Name: utils.Ptr(" Trade Show ")})
	require.NoError(t, err)
	assert.Equal(t, "Trade Show", renamed.Name)

	_, err = env.svc.UpdateMethod(ctx, &models.MethodUpdate{ID: custom.ID, Sequence: utils.Ptr(-1)})
	assert.ErrorIs(t, err, e.ErrInvalidInput)

	require.NoError(t, env.svc.DeleteMethod(ctx, custom.ID))
	assert.ErrorIs(t, env.svc.DeleteMethod(ctx, custom.ID), e.ErrNotFound)

	assert.Equal(t, []events.EventType{events.MethodCreated, events.MethodUpdated, events.MethodDeleted}, env.producer.types())
}

func TestOutreachService_LogCommunications(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.company(t, "A", 14)
	b := env.company(t, "B", 14)
	c := env.company(t, "C", 14)
	email := env.method(t, "Email")

	comms, err := env.svc.LogCommunications(ctx, &LogRequest{
		CompanyIDs: []uuid.UUID{a.ID, b.ID, c.ID},
		MethodID:   email.ID,
		Notes:      "intro",
	})
	require.NoError(t, err)
	require.Len(t, comms, 3)

	startOfDay := time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC)
	for i, id := range []uuid.UUID{a.ID, b.ID, c.ID} {
		assert.Equal(t, id, comms[i].CompanyID)
		assert.Equal(t, startOfDay, comms[i].Date)
		assert.True(t, comms[i].Completed)
	}

	snap, err := env.store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Communications, 3)
	assert.Equal(t, 3.0, testutil.ToFloat64(env.metrics.CommunicationsLogged.WithLabelValues("Email")))

	logged := 0
	for _, typ := range env.producer.types() {
		if typ == events.CommunicationLogged {
			logged++
		}
	}
	assert.Equal(t, 3, logged)
}

func TestOutreachService_LogCommunicationsAllExcept(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.company(t, "A", 14)
	b := env.company(t, "B", 14)
	c := env.company(t, "C", 14)
	email := env.method(t, "Email")

	comms, err := env.svc.LogCommunications(ctx, &LogRequest{
		All:        true,
		Exclude:    []uuid.UUID{b.ID, uuid.New()},
		CompanyIDs: []uuid.UUID{b.ID},
		MethodID:   email.ID,
	})
	require.NoError(t, err)
	require.Len(t, comms, 2)
	assert.Equal(t, a.ID, comms[0].CompanyID)
	assert.Equal(t, c.ID, comms[1].CompanyID)

	_, err = env.svc.LogCommunications(ctx, &LogRequest{
		All:      true,
		Exclude:  []uuid.UUID{a.ID, b.ID, c.ID},
		MethodID: email.ID,
	})
	assert.ErrorIs(t, err, e.ErrEmptySelection)
}

func TestLogRequest_UnmarshalJSON(t *testing.T) {
	var req LogRequest
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2024-03-18","notes":"call"}`), &req))
	assert.True(t, time.Date(2024, time.March, 18, 0, 0, 0, 0, time.UTC).Equal(req.Date))
	assert.True(t, req.dateOnly)
	assert.Equal(t, "call", req.Notes)

	req = LogRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2024-03-18T09:30:00+02:00"}`), &req))
	assert.True(t, time.Date(2024, time.March, 18, 7, 30, 0, 0, time.UTC).Equal(req.Date))
	assert.False(t, req.dateOnly)

	req = LogRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"companyIds":[]}`), &req))
	assert.True(t, req.Date.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"date":"18.03.2024"}`), &req))
	assert.Error(t, json.Unmarshal([]byte(`{"unknown":1}`), &req))
}

func TestOutreachService_LogCommunicationsDateOnly(t *testing.T) {
	berlin := time.FixedZone("CET", 3600)
	env := newTestEnv(t)
	env.now = fixedNow.In(berlin)
	ctx := context.Background()
	a := env.company(t, "A", 14)
	email := env.method(t, "Email")

	var req LogRequest
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2024-03-18"}`), &req))
	req.CompanyIDs = []uuid.UUID{a.ID}
	req.MethodID = email.ID

	comms, err := env.svc.LogCommunications(ctx, &req)
	require.NoError(t, err)
	require.Len(t, comms, 1)
	assert.True(t, time.Date(2024, time.March, 18, 0, 0, 0, 0, berlin).Equal(comms[0].Date))
}

func TestOutreachService_LogCommunicationsErrors(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.company(t, "A", 14)
	email := env.method(t, "Email")

	_, err := env.svc.LogCommunications(ctx, &LogRequest{CompanyIDs: []uuid.UUID{a.ID}, MethodID: uuid.New()})
	assert.ErrorIs(t, err, e.ErrInvalidInput)

	_, err = env.svc.LogCommunications(ctx, &LogRequest{CompanyIDs: []uuid.UUID{a.ID, uuid.New()}, MethodID: email.ID})
	assert.ErrorIs(t, err, e.ErrNotFound)

	_, err = env.svc.LogCommunications(ctx, &LogRequest{MethodID: email.ID})
	assert.ErrorIs(t, err, e.ErrEmptySelection)

	snap, err := env.store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Communications)
}

func TestOutreachService_StoreFailures(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	fs := &failingStore{Memory: mem}
	svc := NewOutreachService(fs, &MockProducer{}, nil, nil, DefaultOptions(), zaptest.NewLogger(t))

	acme, err := svc.CreateCompany(ctx, &models.Company{Name: "Acme"})
	require.NoError(t, err)
	email, err := svc.CreateMethod(ctx, &models.CommunicationMethod{Name: "Email"})
	require.NoError(t, err)

	fs.appendErr = errors.New("disk full")
	_, err = svc.LogCommunications(ctx, &LogRequest{CompanyIDs: []uuid.UUID{acme.ID}, MethodID: email.ID})
	assert.ErrorContains(t, err, "disk full")

	fs.snapshotErr = errors.New("connection reset")
	_, err = svc.Dashboard(ctx)
	assert.ErrorContains(t, err, "connection reset")
	_, err = svc.Analytics(ctx, 30, 5)
	assert.Error(t, err)
	_, err = svc.CompanyStatus(ctx, acme.ID)
	assert.Error(t, err)
}

// A 14-day and a 30-day company both contacted 20 days ago: the dashboard
// counts both as overdue, the communications list only the 14-day one.
func TestOutreachService_RulesDisagree(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.company(t, "A", 14)
	b := env.company(t, "B", 30)
	email := env.method(t, "Email")
	env.logAt(t, fixedNow.Add(-20*24*time.Hour), email.ID, a.ID, b.ID)

	dash, err := env.svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, dash.OverdueCount)
	assert.Equal(t, 0, dash.ActiveCount)
	assert.Equal(t, 2.0, testutil.ToFloat64(env.metrics.OverdueCompanies.WithLabelValues("quick")))

	rows, err := env.svc.CommunicationRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, status.Overdue, rows[0].Status)
	assert.Equal(t, status.Active, rows[1].Status)
	assert.Equal(t, fixedNow.Add(10*24*time.Hour), rows[1].NextDue)

	st, err := env.svc.CompanyStatus(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, status.Active, st.Status)
	assert.Equal(t, status.Overdue, st.Quick)
	assert.Equal(t, status.DueUpcoming, st.Due)
	require.NotNil(t, st.LastContact)

	_, err = env.svc.CompanyStatus(ctx, uuid.New())
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestOutreachService_Analytics(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.company(t, "A", 14)
	b := env.company(t, "B", 30)
	env.company(t, "C", 14)
	email := env.method(t, "Email")
	phone := env.method(t, "Phone")
	env.logAt(t, fixedNow.Add(-2*24*time.Hour), email.ID, a.ID, b.ID)
	env.logAt(t, fixedNow.Add(-40*24*time.Hour), phone.ID, a.ID)

	got, err := env.svc.Analytics(ctx, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, 30, got.WindowDays)
	assert.Equal(t, []aggregate.MethodCount{
		{MethodID: email.ID, Name: "Email", Count: 2},
		{MethodID: phone.ID, Name: "Phone", Count: 0},
	}, got.MethodCounts)
	assert.Equal(t, 1, got.OverdueCount)
	require.Len(t, got.Overdue, 1)
	assert.Equal(t, "C", got.Overdue[0].Name)
	require.Len(t, got.Recent, 3)
	assert.Equal(t, "Phone", got.Recent[2].MethodName)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.OverdueCompanies.WithLabelValues("scheduled")))

	wide, err := env.svc.Analytics(ctx, 60, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, wide.MethodCounts[1].Count)
	assert.Len(t, wide.Recent, 1)
}

func TestOutreachService_Calendar(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.company(t, "Acme", 14)
	email := env.method(t, "Email")
	env.logAt(t, fixedNow, email.ID, a.ID)

	require.NoError(t, env.svc.DeleteMethod(ctx, email.ID))

	calendar, err := env.svc.Calendar(ctx)
	require.NoError(t, err)
	require.Len(t, calendar, 1)
	assert.Equal(t, "Acme - ", calendar[0].Title)
}
