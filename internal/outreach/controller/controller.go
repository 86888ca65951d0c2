// Package controller implements the service layer of the outreach service:
// it validates and applies entity changes, runs the status and aggregation
// logic over fresh snapshots, and emits events and metrics.
package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	e "github.com/gartstein/outreach/internal/outreach/errors"
	"github.com/gartstein/outreach/internal/outreach/events"
	"github.com/gartstein/outreach/internal/outreach/metrics"
	"github.com/gartstein/outreach/internal/outreach/models"
	"github.com/gartstein/outreach/internal/outreach/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EventProducer interface {
	Produce(eventType events.EventType, key uuid.UUID, payload interface{})
}

// Store defines the entity storage used by the service.
type Store interface {
	Snapshot(ctx context.Context) (*store.Snapshot, error)

	CreateCompany(ctx context.Context, company *models.Company) error
	GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error)
	UpdateCompany(ctx context.Context, update *models.CompanyUpdate) error
	DeleteCompany(ctx context.Context, id uuid.UUID) error
	CompanyExistsByName(ctx context.Context, name string) (bool, error)

	CreateMethod(ctx context.Context, method *models.CommunicationMethod) error
	GetMethod(ctx context.Context, id uuid.UUID) (*models.CommunicationMethod, error)
	UpdateMethod(ctx context.Context, update *models.MethodUpdate) error
	DeleteMethod(ctx context.Context, id uuid.UUID) error

	AddCommunications(ctx context.Context, comms []models.Communication) error

	Close() error
}

// Clock returns the current instant.
type Clock func() time.Time

// Options tunes the read views.
type Options struct {
	QuickThresholdDays int
	DefaultWindowDays  int
	RecentLimit        int
	HistoryLimit       int
	PhoneRegion        string
}

// DefaultOptions returns the thresholds and limits used by the screens.
func DefaultOptions() Options {
	return Options{
		QuickThresholdDays: 14,
		DefaultWindowDays:  30,
		RecentLimit:        5,
		HistoryLimit:       5,
		PhoneRegion:        "US",
	}
}

// OutreachService provides company, method and communication operations
// on top of a Store.
type OutreachService struct {
	store    Store
	producer EventProducer
	metrics  *metrics.Metrics
	clock    Clock
	opts     Options
	logger   *zap.Logger
}

// NewOutreachService constructs an OutreachService. A nil clock means time.Now.
func NewOutreachService(st Store, producer EventProducer, m *metrics.Metrics, clock Clock, opts Options, logger *zap.Logger) *OutreachService {
	if clock == nil {
		clock = time.Now
	}
	return &OutreachService{
		store:    st,
		producer: producer,
		metrics:  m,
		clock:    clock,
		opts:     opts,
		logger:   logger.Named("outreach_service"),
	}
}

// CreateCompany validates and stores a new company, ensuring its name is unique.
func (s *OutreachService) CreateCompany(ctx context.Context, company *models.Company) (*models.Company, error) {
	if company.CommunicationPeriodicity == 0 {
		company.CommunicationPeriodicity = models.DefaultPeriodicity
	}
	if err := s.normalizeCompany(company); err != nil {
		return nil, err
	}

	exists, err := s.store.CompanyExistsByName(ctx, company.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check name existence: %w", err)
	}
	if exists {
		return nil, e.ErrDuplicateName
	}

	company.ID = uuid.New()
	if err := s.store.CreateCompany(ctx, company); err != nil {
		return nil, fmt.Errorf("failed to create company: %w", err)
	}
	s.producer.Produce(events.CompanyCreated, company.ID, company)
	return company, nil
}

// GetCompany retrieves a Company by ID, returning an error if not found.
func (s *OutreachService) GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	company, err := s.store.GetCompany(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return company, nil
}

// ListCompanies returns all companies in collection order.
func (s *OutreachService) ListCompanies(ctx context.Context) ([]models.Company, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Companies, nil
}

// UpdateCompany applies a partial update and returns the stored result.
func (s *OutreachService) UpdateCompany(ctx context.Context, update *models.CompanyUpdate) (*models.Company, error) {
	if update.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: invalid company ID", e.ErrInvalidInput)
	}

	current, err := s.store.GetCompany(ctx, update.ID)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	next := update.Apply(*current)
	if err := s.normalizeCompany(&next); err != nil {
		return nil, err
	}
	if next.Name != current.Name {
		exists, err := s.store.CompanyExistsByName(ctx, next.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to check name existence: %w", err)
		}
		if exists {
			return nil, e.ErrDuplicateName
		}
	}
	// Store the normalized values, not the raw request.
	normalized := &models.CompanyUpdate{
		ID:                       update.ID,
		Name:                     &next.Name,
		Location:                 &next.Location,
		LinkedinProfile:          &next.LinkedinProfile,
		Emails:                   &next.Emails,
		PhoneNumbers:             &next.PhoneNumbers,
		Comments:                 &next.Comments,
		CommunicationPeriodicity: &next.CommunicationPeriodicity,
	}
	if err := s.store.UpdateCompany(ctx, normalized); err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update company: %w", err)
	}

	updated, err := s.store.GetCompany(ctx, update.ID)
	if err != nil {
		s.logger.Error("Failed to get company for event",
			zap.Error(err),
			zap.String("company_id", update.ID.String()),
		)
		return nil, err
	}
	s.producer.Produce(events.CompanyUpdated, updated.ID, updated)
	return updated, nil
}

// DeleteCompany removes a company. Its communications stay in the history.
func (s *OutreachService) DeleteCompany(ctx context.Context, id uuid.UUID) error {
	company, err := s.store.GetCompany(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to get company for deletion: %w", err)
	}

	if err := s.store.DeleteCompany(ctx, id); err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}
	s.producer.Produce(events.CompanyDeleted, company.ID, company)
	return nil
}
