// Package db implements the entity store on top of GORM, backed by
// PostgreSQL in production and SQLite for tests and local runs.
package db

import (
	"context"
	"errors"
	"fmt"

	records "github.com/gartstein/outreach/internal/outreach/db/models"
	e "github.com/gartstein/outreach/internal/outreach/errors"
	"github.com/gartstein/outreach/internal/outreach/models"
	"github.com/gartstein/outreach/internal/outreach/store"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Repository struct {
	db *gorm.DB
}

type Config struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	// Path is the SQLite database file, ":memory:" for a private in-memory database.
	Path string
}

func (c *Config) dialector() (gorm.Dialector, error) {
	switch c.Driver {
	case DriverPostgres, "":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
		return postgres.Open(dsn), nil
	case DriverSQLite:
		return sqlite.Open(c.Path), nil
	default:
		return nil, fmt.Errorf("%w: unsupported database driver %q", e.ErrInvalidInput, c.Driver)
	}
}

func NewRepository(cfg *Config) (*Repository, error) {
	dialector, err := cfg.dialector()
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		// SQLite allows one writer, and each ":memory:" connection is a separate database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access connection pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(records.All()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Repository{db: db}, nil
}

// Snapshot loads all three collections in insertion order.
func (r *Repository) Snapshot(ctx context.Context) (*store.Snapshot, error) {
	var (
		companyRows []records.Company
		methodRows  []records.CommunicationMethod
		commRows    []records.Communication
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Order("position, id").Find(&companyRows).Error; err != nil {
			return err
		}
		if err := tx.Order("position, id").Find(&methodRows).Error; err != nil {
			return err
		}
		return tx.Order("position, id").Find(&commRows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	companies := make([]models.Company, len(companyRows))
	for i := range companyRows {
		companies[i] = companyFromRecord(&companyRows[i])
	}
	methods := make([]models.CommunicationMethod, len(methodRows))
	for i := range methodRows {
		methods[i] = methodFromRecord(&methodRows[i])
	}
	comms := make([]models.Communication, len(commRows))
	for i := range commRows {
		comms[i] = communicationFromRecord(&commRows[i])
	}
	return store.NewSnapshot(companies, methods, comms), nil
}

func (r *Repository) CreateCompany(ctx context.Context, company *models.Company) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pos, err := nextPosition(tx, &records.Company{}, records.CompaniesTable)
		if err != nil {
			return err
		}
		return translate(tx.Create(companyToRecord(company, pos)).Error)
	})
}

func (r *Repository) GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var row records.Company
	result := r.db.WithContext(ctx).First(&row, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	company := companyFromRecord(&row)
	return &company, nil
}

func (r *Repository) UpdateCompany(ctx context.Context, update *models.CompanyUpdate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row records.Company
		if err := tx.First(&row, "id = ?", update.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return e.ErrNotFound
			}
			return err
		}
		updated := update.Apply(companyFromRecord(&row))
		next := companyToRecord(&updated, row.Position)
		next.CreatedAt = row.CreatedAt
		return translate(tx.Save(next).Error)
	})
}

func (r *Repository) DeleteCompany(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&records.Company{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

func (r *Repository) CompanyExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&records.Company{}).
		Where("name = ?", name).
		Limit(1).
		Count(&count)
	return count > 0, result.Error
}

func (r *Repository) CreateMethod(ctx context.Context, method *models.CommunicationMethod) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pos, err := nextPosition(tx, &records.CommunicationMethod{}, records.MethodsTable)
		if err != nil {
			return err
		}
		return translate(tx.Create(methodToRecord(method, pos)).Error)
	})
}

func (r *Repository) GetMethod(ctx context.Context, id uuid.UUID) (*models.CommunicationMethod, error) {
	var row records.CommunicationMethod
	result := r.db.WithContext(ctx).First(&row, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	method := methodFromRecord(&row)
	return &method, nil
}

func (r *Repository) UpdateMethod(ctx context.Context, update *models.MethodUpdate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row records.CommunicationMethod
		if err := tx.First(&row, "id = ?", update.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return e.ErrNotFound
			}
			return err
		}
		updated := update.Apply(methodFromRecord(&row))
		next := methodToRecord(&updated, row.Position)
		next.CreatedAt = row.CreatedAt
		return translate(tx.Save(next).Error)
	})
}

func (r *Repository) DeleteMethod(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&records.CommunicationMethod{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// AddCommunications inserts all communications in one transaction, keeping
// their slice order as insertion order.
func (r *Repository) AddCommunications(ctx context.Context, comms []models.Communication) error {
	if len(comms) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pos, err := nextPosition(tx, &records.Communication{}, records.CommunicationsTable)
		if err != nil {
			return err
		}
		rows := make([]records.Communication, len(comms))
		for i := range comms {
			rows[i] = communicationToRecord(&comms[i], pos+int64(i))
		}
		return translate(tx.Create(&rows).Error)
	})
}

func (r *Repository) WithTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

func (r *Repository) Exec(ctx context.Context, query string, params ...interface{}) error {
	result := r.db.WithContext(ctx).Exec(query, params...)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

func (r *Repository) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

// nextPosition returns the position following the highest one stored for
// model. On PostgreSQL the table stays locked against other writers until the
// transaction ends, so concurrent writes get disjoint, contiguous positions.
// SQLite already serializes writers on its single connection.
func nextPosition(tx *gorm.DB, model interface{}, table string) (int64, error) {
	if tx.Dialector.Name() == DriverPostgres {
		if err := tx.Exec(fmt.Sprintf("LOCK TABLE %s IN SHARE ROW EXCLUSIVE MODE", table)).Error; err != nil {
			return 0, fmt.Errorf("failed to lock %s: %w", table, err)
		}
	}
	var maxPos int64
	if err := tx.Model(model).Select("COALESCE(MAX(position), 0)").Row().Scan(&maxPos); err != nil {
		return 0, fmt.Errorf("failed to read position: %w", err)
	}
	return maxPos + 1, nil
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", e.ErrDuplicateName, err)
	}
	if errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return fmt.Errorf("%w: %v", e.ErrInvalidInput, err)
	}
	return err
}
