package db

import (
	records "github.com/gartstein/outreach/internal/outreach/db/models"
	"github.com/gartstein/outreach/internal/outreach/models"
)

func companyToRecord(c *models.Company, pos int64) *records.Company {
	return &records.Company{
		ID:                       c.ID,
		Position:                 pos,
		Name:                     c.Name,
		Location:                 c.Location,
		LinkedinProfile:          c.LinkedinProfile,
		Emails:                   append([]string(nil), c.Emails...),
		PhoneNumbers:             append([]string(nil), c.PhoneNumbers...),
		Comments:                 c.Comments,
		CommunicationPeriodicity: c.CommunicationPeriodicity,
	}
}

func companyFromRecord(r *records.Company) models.Company {
	return models.Company{
		ID:                       r.ID,
		Name:                     r.Name,
		Location:                 r.Location,
		LinkedinProfile:          r.LinkedinProfile,
		Emails:                   r.Emails,
		PhoneNumbers:             r.PhoneNumbers,
		Comments:                 r.Comments,
		CommunicationPeriodicity: r.CommunicationPeriodicity,
	}
}

func methodToRecord(m *models.CommunicationMethod, pos int64) *records.CommunicationMethod {
	return &records.CommunicationMethod{
		ID:          m.ID,
		Position:    pos,
		Name:        m.Name,
		Description: m.Description,
		IsMandatory: m.IsMandatory,
		Sequence:    m.Sequence,
	}
}

func methodFromRecord(r *records.CommunicationMethod) models.CommunicationMethod {
	return models.CommunicationMethod{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		IsMandatory: r.IsMandatory,
		Sequence:    r.Sequence,
	}
}

func communicationToRecord(c *models.Communication, pos int64) records.Communication {
	return records.Communication{
		ID:        c.ID,
		Position:  pos,
		CompanyID: c.CompanyID,
		MethodID:  c.MethodID,
		Date:      c.Date,
		Notes:     c.Notes,
		Completed: c.Completed,
	}
}

func communicationFromRecord(r *records.Communication) models.Communication {
	return models.Communication{
		ID:        r.ID,
		CompanyID: r.CompanyID,
		MethodID:  r.MethodID,
		Date:      r.Date,
		Notes:     r.Notes,
		Completed: r.Completed,
	}
}
