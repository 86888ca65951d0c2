package store

import (
	"context"
	"fmt"
	"sync"

	e "github.com/gartstein/outreach/internal/outreach/errors"
	"github.com/gartstein/outreach/internal/outreach/models"
	"github.com/google/uuid"
)

// Memory is an in-memory entity store. Writers are serialized by a mutex and
// every write is applied in one step.
type Memory struct {
	mu             sync.RWMutex
	companies      []models.Company
	methods        []models.CommunicationMethod
	communications []models.Communication
	commIDs        map[uuid.UUID]struct{}
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{commIDs: make(map[uuid.UUID]struct{})}
}

// Snapshot copies the current collections into an immutable Snapshot.
func (m *Memory) Snapshot(_ context.Context) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	companies := make([]models.Company, len(m.companies))
	for i, c := range m.companies {
		companies[i] = c.Clone()
	}
	methods := append([]models.CommunicationMethod(nil), m.methods...)
	comms := append([]models.Communication(nil), m.communications...)
	return NewSnapshot(companies, methods, comms), nil
}

func (m *Memory) CreateCompany(_ context.Context, company *models.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.companyIndex(company.ID) >= 0 {
		return fmt.Errorf("%w: company %s already exists", e.ErrInvalidInput, company.ID)
	}
	m.companies = append(m.companies, company.Clone())
	return nil
}

func (m *Memory) GetCompany(_ context.Context, id uuid.UUID) (*models.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.companyIndex(id)
	if i < 0 {
		return nil, e.ErrNotFound
	}
	c := m.companies[i].Clone()
	return &c, nil
}

func (m *Memory) UpdateCompany(_ context.Context, update *models.CompanyUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.companyIndex(update.ID)
	if i < 0 {
		return e.ErrNotFound
	}
	m.companies[i] = update.Apply(m.companies[i])
	return nil
}

func (m *Memory) DeleteCompany(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.companyIndex(id)
	if i < 0 {
		return e.ErrNotFound
	}
	m.companies = append(m.companies[:i:i], m.companies[i+1:]...)
	return nil
}

func (m *Memory) CompanyExistsByName(_ context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.companies {
		if c.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) CreateMethod(_ context.Context, method *models.CommunicationMethod) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.methodIndex(method.ID) >= 0 {
		return fmt.Errorf("%w: method %s already exists", e.ErrInvalidInput, method.ID)
	}
	if m.sequenceTaken(method.Sequence, method.ID) {
		return fmt.Errorf("%w: sequence %d already used", e.ErrDuplicateName, method.Sequence)
	}
	m.methods = append(m.methods, *method)
	return nil
}

func (m *Memory) GetMethod(_ context.Context, id uuid.UUID) (*models.CommunicationMethod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.methodIndex(id)
	if i < 0 {
		return nil, e.ErrNotFound
	}
	method := m.methods[i]
	return &method, nil
}

func (m *Memory) UpdateMethod(_ context.Context, update *models.MethodUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.methodIndex(update.ID)
	if i < 0 {
		return e.ErrNotFound
	}
	if update.Sequence != nil && m.sequenceTaken(*update.Sequence, update.ID) {
		return fmt.Errorf("%w: sequence %d already used", e.ErrDuplicateName, *update.Sequence)
	}
	m.methods[i] = update.Apply(m.methods[i])
	return nil
}

func (m *Memory) DeleteMethod(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.methodIndex(id)
	if i < 0 {
		return e.ErrNotFound
	}
	m.methods = append(m.methods[:i:i], m.methods[i+1:]...)
	return nil
}

// AddCommunications appends all communications or none of them.
func (m *Memory) AddCommunications(_ context.Context, comms []models.Communication) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[uuid.UUID]struct{}, len(comms))
	for _, c := range comms {
		_, dup := seen[c.ID]
		_, exists := m.commIDs[c.ID]
		if dup || exists {
			return fmt.Errorf("%w: communication %s already exists", e.ErrInvalidInput, c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	for id := range seen {
		m.commIDs[id] = struct{}{}
	}
	m.communications = append(m.communications, comms...)
	return nil
}

func (m *Memory) Close() error {
	return nil
}

func (m *Memory) companyIndex(id uuid.UUID) int {
	for i, c := range m.companies {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (m *Memory) methodIndex(id uuid.UUID) int {
	for i, method := range m.methods {
		if method.ID == id {
			return i
		}
	}
	return -1
}

func (m *Memory) sequenceTaken(seq int, self uuid.UUID) bool {
	for _, method := range m.methods {
		if method.Sequence == seq && method.ID != self {
			return true
		}
	}
	return false
}
