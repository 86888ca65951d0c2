// Package models contains the persistence records of the outreach service,
// configured to work using GORM as the ORM.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Table names, as derived by GORM's default naming strategy.
const (
	CompaniesTable      = "companies"
	MethodsTable        = "communication_methods"
	CommunicationsTable = "communications"
)

// Company is the table row for a company. Position preserves insertion order.
type Company struct {
	ID                       uuid.UUID `gorm:"type:uuid;primaryKey"`
	Position                 int64     `gorm:"uniqueIndex"`
	Name                     string    `gorm:"size:255;uniqueIndex"`
	Location                 string    `gorm:"size:255"`
	LinkedinProfile          string    `gorm:"size:512"`
	Emails                   []string  `gorm:"serializer:json"`
	PhoneNumbers             []string  `gorm:"serializer:json"`
	Comments                 string    `gorm:"size:3000"`
	CommunicationPeriodicity int       `gorm:"check:communication_periodicity > 0"`
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// CommunicationMethod is the table row for a communication method.
type CommunicationMethod struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Position    int64     `gorm:"uniqueIndex"`
	Name        string    `gorm:"size:255"`
	Description string    `gorm:"size:1000"`
	IsMandatory bool
	Sequence    int `gorm:"uniqueIndex"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Communication is the table row for a logged communication. CompanyID and
// MethodID carry no foreign keys so history survives deleted referents.
type Communication struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Position  int64     `gorm:"uniqueIndex"`
	CompanyID uuid.UUID `gorm:"type:uuid;index"`
	MethodID  uuid.UUID `gorm:"type:uuid;index"`
	Date      time.Time `gorm:"index"`
	Notes     string    `gorm:"size:3000"`
	Completed bool
	CreatedAt time.Time
}

// All lists every record type for migrations.
func All() []interface{} {
	return []interface{}{&Company{}, &CommunicationMethod{}, &Communication{}}
}
