// Package store holds the entity collections of the outreach service and
// the immutable snapshots every status and aggregation computation reads.
package store

import (
	"github.com/gartstein/outreach/internal/outreach/models"
	"github.com/google/uuid"
)

// Snapshot is the full state of the three entity collections at one instant.
// Collections are in insertion order. A Snapshot must not be mutated after
// construction.
type Snapshot struct {
	Companies      []models.Company
	Methods        []models.CommunicationMethod
	Communications []models.Communication

	companyIdx map[uuid.UUID]int
	methodIdx  map[uuid.UUID]int
}

// NewSnapshot builds a Snapshot over the given collections and indexes
// companies and methods by id. The slices are owned by the snapshot afterwards.
func NewSnapshot(companies []models.Company, methods []models.CommunicationMethod, comms []models.Communication) *Snapshot {
	s := &Snapshot{
		Companies:      companies,
		Methods:        methods,
		Communications: comms,
		companyIdx:     make(map[uuid.UUID]int, len(companies)),
		methodIdx:      make(map[uuid.UUID]int, len(methods)),
	}
	for i, c := range companies {
		s.companyIdx[c.ID] = i
	}
	for i, m := range methods {
		s.methodIdx[m.ID] = i
	}
	return s
}

// Company looks up a company by id.
func (s *Snapshot) Company(id uuid.UUID) (models.Company, bool) {
	i, ok := s.companyIdx[id]
	if !ok {
		return models.Company{}, false
	}
	return s.Companies[i], true
}

// Method looks up a communication method by id.
func (s *Snapshot) Method(id uuid.UUID) (models.CommunicationMethod, bool) {
	i, ok := s.methodIdx[id]
	if !ok {
		return models.CommunicationMethod{}, false
	}
	return s.Methods[i], true
}

// CompanyName resolves a company name, or "" for a dangling reference.
func (s *Snapshot) CompanyName(id uuid.UUID) string {
	c, _ := s.Company(id)
	return c.Name
}

// MethodName resolves a method name, or "" for a dangling reference.
func (s *Snapshot) MethodName(id uuid.UUID) string {
	m, _ := s.Method(id)
	return m.Name
}

// CompanyIDs returns every company id in collection order.
func (s *Snapshot) CompanyIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(s.Companies))
	for i, c := range s.Companies {
		ids[i] = c.ID
	}
	return ids
}
