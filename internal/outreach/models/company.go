// Package models defines the core domain models of the outreach service:
// companies, the communication methods used to reach them, and the
// communications logged against them.
package models

import (
	"github.com/google/uuid"
)

// DefaultPeriodicity is the cadence, in days, suggested for new companies.
const DefaultPeriodicity = 14

// Company defines the domain model for an organization under outreach.
type Company struct {
	// ID is the unique identifier for the company.
	ID uuid.UUID `json:"id"`
	// Name is the company's display name.
	Name string `json:"name"`
	// Location is a free-form address or city.
	Location string `json:"location"`
	// LinkedinProfile is the URL of the company's LinkedIn page.
	LinkedinProfile string `json:"linkedinProfile"`
	// Emails lists contact addresses in preference order.
	Emails []string `json:"emails"`
	// PhoneNumbers lists contact numbers in preference order.
	PhoneNumbers []string `json:"phoneNumbers"`
	// Comments holds free text notes.
	Comments string `json:"comments"`
	// CommunicationPeriodicity is the number of days allowed between contacts.
	CommunicationPeriodicity int `json:"communicationPeriodicity"`
}

// CompanyUpdate represents the fields that can be updated for a Company.
// Pointer types are used to allow partial updates.
type CompanyUpdate struct {
	ID                       uuid.UUID `json:"-"`
	Name                     *string   `json:"name,omitempty"`
	Location                 *string   `json:"location,omitempty"`
	LinkedinProfile          *string   `json:"linkedinProfile,omitempty"`
	Emails                   *[]string `json:"emails,omitempty"`
	PhoneNumbers             *[]string `json:"phoneNumbers,omitempty"`
	Comments                 *string   `json:"comments,omitempty"`
	CommunicationPeriodicity *int      `json:"communicationPeriodicity,omitempty"`
}

// Apply returns a copy of c with the non-nil fields of u applied.
func (u *CompanyUpdate) Apply(c Company) Company {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Location != nil {
		c.Location = *u.Location
	}
	if u.LinkedinProfile != nil {
		c.LinkedinProfile = *u.LinkedinProfile
	}
	if u.Emails != nil {
		c.Emails = append([]string(nil), (*u.Emails)...)
	}
	if u.PhoneNumbers != nil {
		c.PhoneNumbers = append([]string(nil), (*u.PhoneNumbers)...)
	}
	if u.Comments != nil {
		c.Comments = *u.Comments
	}
	if u.CommunicationPeriodicity != nil {
		c.CommunicationPeriodicity = *u.CommunicationPeriodicity
	}
	return c
}

// Clone returns a deep copy of c.
func (c Company) Clone() Company {
	c.Emails = append([]string(nil), c.Emails...)
	c.PhoneNumbers = append([]string(nil), c.PhoneNumbers...)
	return c
}
