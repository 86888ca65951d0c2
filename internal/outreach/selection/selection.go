// Package selection tracks the companies chosen for a bulk "log
// communication" action and commits one communication per chosen company.
package selection

import (
	"context"
	"fmt"
	"time"

	e "github.com/gartstein/outreach/internal/outreach/errors"
	"github.com/gartstein/outreach/internal/outreach/models"
	"github.com/google/uuid"
)

// Appender persists a batch of communications in one write.
type Appender interface {
	AddCommunications(ctx context.Context, comms []models.Communication) error
}

// Selection is a transient, ordered set of company ids. It is not safe for
// concurrent use; each caller owns its own Selection.
type Selection struct {
	store Appender
	ids   []uuid.UUID
	index map[uuid.UUID]int
}

// New returns an empty selection that commits into store.
func New(store Appender) *Selection {
	return &Selection{
		store: store,
		index: make(map[uuid.UUID]int),
	}
}

// Toggle adds id if absent and removes it if present.
func (s *Selection) Toggle(id uuid.UUID) {
	if i, ok := s.index[id]; ok {
		s.ids = append(s.ids[:i], s.ids[i+1:]...)
		delete(s.index, id)
		for j := i; j < len(s.ids); j++ {
			s.index[s.ids[j]] = j
		}
		return
	}
	s.index[id] = len(s.ids)
	s.ids = append(s.ids, id)
}

// SelectAll replaces the selection with ids, dropping duplicates.
func (s *Selection) SelectAll(ids []uuid.UUID) {
	s.Clear()
	for _, id := range ids {
		if _, ok := s.index[id]; !ok {
			s.index[id] = len(s.ids)
			s.ids = append(s.ids, id)
		}
	}
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.ids = nil
	s.index = make(map[uuid.UUID]int)
}

// IsSelected reports whether id is selected.
func (s *Selection) IsSelected(id uuid.UUID) bool {
	_, ok := s.index[id]
	return ok
}

// Selected returns the selected ids in selection order.
func (s *Selection) Selected() []uuid.UUID {
	return append([]uuid.UUID(nil), s.ids...)
}

// Len returns the number of selected ids.
func (s *Selection) Len() int {
	return len(s.ids)
}

// Commit appends one completed communication per selected company, then
// clears the selection. A non-empty selection and a method are
// preconditions; callers should not offer the action otherwise. The
// selection is kept when the store rejects the batch.
func (s *Selection) Commit(ctx context.Context, methodID uuid.UUID, date time.Time, notes string) ([]models.Communication, error) {
	if len(s.ids) == 0 {
		return nil, e.ErrEmptySelection
	}
	if methodID == uuid.Nil {
		return nil, fmt.Errorf("%w: communication method required", e.ErrInvalidInput)
	}

	comms := make([]models.Communication, len(s.ids))
	for i, companyID := range s.ids {
		comms[i] = models.Communication{
			ID:        uuid.New(),
			CompanyID: companyID,
			MethodID:  methodID,
			Date:      date,
			Notes:     notes,
			Completed: true,
		}
	}

	if err := s.store.AddCommunications(ctx, comms); err != nil {
		return nil, fmt.Errorf("failed to log communications: %w", err)
	}
	s.Clear()
	return comms, nil
}
