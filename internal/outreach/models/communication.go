package models

import (
	"time"

	"github.com/google/uuid"
)

// CommunicationMethod is a channel used to reach a company.
type CommunicationMethod struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	// IsMandatory is informational; it is not enforced anywhere.
	IsMandatory bool `json:"isMandatory"`
	// Sequence orders methods for display. Values are unique.
	Sequence int `json:"sequence"`
}

// MethodUpdate represents the fields that can be updated for a CommunicationMethod.
type MethodUpdate struct {
	ID          uuid.UUID `json:"-"`
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	IsMandatory *bool     `json:"isMandatory,omitempty"`
	Sequence    *int      `json:"sequence,omitempty"`
}

// Apply returns a copy of m with the non-nil fields of u applied.
func (u *MethodUpdate) Apply(m CommunicationMethod) CommunicationMethod {
	if u.Name != nil {
		m.Name = *u.Name
	}
	if u.Description != nil {
		m.Description = *u.Description
	}
	if u.IsMandatory != nil {
		m.IsMandatory = *u.IsMandatory
	}
	if u.Sequence != nil {
		m.Sequence = *u.Sequence
	}
	return m
}

// Communication is one logged contact with a company.
// CompanyID and MethodID are weak references and may dangle.
type Communication struct {
	ID        uuid.UUID `json:"id"`
	CompanyID uuid.UUID `json:"companyId"`
	MethodID  uuid.UUID `json:"methodId"`
	Date      time.Time `json:"date"`
	Notes     string    `json:"notes,omitempty"`
	Completed bool      `json:"completed"`
}

// DefaultMethods returns the method catalogue seeded into an empty store.
func DefaultMethods() []CommunicationMethod {
	return []CommunicationMethod{
		{ID: uuid.New(), Name: "LinkedIn Post", Description: "Post on company's LinkedIn page", IsMandatory: true, Sequence: 1},
		{ID: uuid.New(), Name: "LinkedIn Message", Description: "Direct message on LinkedIn", IsMandatory: true, Sequence: 2},
		{ID: uuid.New(), Name: "Email", Description: "Email communication", IsMandatory: true, Sequence: 3},
		{ID: uuid.New(), Name: "Phone Call", Description: "Direct phone call", IsMandatory: false, Sequence: 4},
		{ID: uuid.New(), Name: "Other", Description: "Other forms of communication", IsMandatory: false, Sequence: 5},
	}
}
