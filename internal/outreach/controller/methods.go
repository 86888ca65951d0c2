package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/gartstein/outreach/internal/outreach/aggregate"
	e "github.com/gartstein/outreach/internal/outreach/errors"
	"github.com/gartstein/outreach/internal/outreach/events"
	"github.com/gartstein/outreach/internal/outreach/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateMethod stores a new communication method. A zero sequence places
// it after the existing methods.
func (s *OutreachService) CreateMethod(ctx context.Context, method *models.CommunicationMethod) (*models.CommunicationMethod, error) {
	if method.Sequence == 0 {
		snap, err := s.store.Snapshot(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load methods: %w", err)
		}
		method.Sequence = nextSequence(snap.Methods)
	}
	if err := validateMethod(method); err != nil {
		return nil, err
	}

	method.ID = uuid.New()
	if err := s.store.CreateMethod(ctx, method); err != nil {
		return nil, fmt.Errorf("failed to create method: %w", err)
	}
	s.producer.Produce(events.MethodCreated, method.ID, method)
	return method, nil
}

// ListMethods returns the methods ordered by sequence with their
// move up/down eligibility.
func (s *OutreachService) ListMethods(ctx context.Context) ([]aggregate.MethodOrder, error) {
	eng, err := s.engine(ctx)
	if err != nil {
		return nil, err
	}
	return eng.OrderedMethods(), nil
}

// UpdateMethod applies a partial update and returns the stored result.
func (s *OutreachService) UpdateMethod(ctx context.Context, update *models.MethodUpdate) (*models.CommunicationMethod, error) {
	if update.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: invalid method ID", e.ErrInvalidInput)
	}

	current, err := s.store.GetMethod(ctx, update.ID)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get method: %w", err)
	}
	next := update.Apply(*current)
	if err := validateMethod(&next); err != nil {
		return nil, err
	}
	update.Name = &next.Name

	if err := s.store.UpdateMethod(ctx, update); err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update method: %w", err)
	}

	updated, err := s.store.GetMethod(ctx, update.ID)
	if err != nil {
		s.logger.Error("Failed to get method for event",
			zap.Error(err),
			zap.String("method_id", update.ID.String()),
		)
		return nil, err
	}
	s.producer.Produce(events.MethodUpdated, updated.ID, updated)
	return updated, nil
}

// DeleteMethod removes a method. Communications logged with it keep their
// reference and resolve to an unknown method name.
func (s *OutreachService) DeleteMethod(ctx context.Context, id uuid.UUID) error {
	method, err := s.store.GetMethod(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to get method for deletion: %w", err)
	}
	if err := s.store.DeleteMethod(ctx, id); err != nil {
		return fmt.Errorf("failed to delete method: %w", err)
	}
	s.producer.Produce(events.MethodDeleted, method.ID, method)
	return nil
}

// SeedDefaultMethods stores the default method catalogue when no method exists.
func (s *OutreachService) SeedDefaultMethods(ctx context.Context) error {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to load methods: %w", err)
	}
	if len(snap.Methods) > 0 {
		return nil
	}
	for _, m := range models.DefaultMethods() {
		m := m
		if err := s.store.CreateMethod(ctx, &m); err != nil {
			return fmt.Errorf("failed to seed method %q: %w", m.Name, err)
		}
	}
	s.logger.Info("Seeded default communication methods")
	return nil
}

func nextSequence(methods []models.CommunicationMethod) int {
	highest := 0
	for _, m := range methods {
		if m.Sequence > highest {
			highest = m.Sequence
		}
	}
	return highest + 1
}
