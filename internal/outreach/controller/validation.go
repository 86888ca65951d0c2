package controller

import (
	"fmt"
	"net/mail"
	"net/url"
	"strings"

	e "github.com/gartstein/outreach/internal/outreach/errors"
	"github.com/gartstein/outreach/internal/outreach/models"
	"github.com/nyaruka/phonenumbers"
)

const (
	maxNameLength     = 255
	maxCommentsLength = 3000
)

// normalizeCompany trims fields, drops blank contact entries, formats phone
// numbers as E.164 and rejects invalid values.
func (s *OutreachService) normalizeCompany(c *models.Company) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Location = strings.TrimSpace(c.Location)
	c.LinkedinProfile = strings.TrimSpace(c.LinkedinProfile)

	if c.Name == "" || len(c.Name) > maxNameLength {
		return fmt.Errorf("%w: invalid name", e.ErrInvalidInput)
	}
	if len(c.Comments) > maxCommentsLength {
		return fmt.Errorf("%w: comments too long", e.ErrInvalidInput)
	}
	if c.CommunicationPeriodicity <= 0 {
		return fmt.Errorf("%w: communication periodicity must be positive", e.ErrInvalidInput)
	}
	if c.LinkedinProfile != "" {
		u, err := url.Parse(c.LinkedinProfile)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: invalid linkedin profile %q", e.ErrInvalidInput, c.LinkedinProfile)
		}
	}

	emails := make([]string, 0, len(c.Emails))
	for _, raw := range c.Emails {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		addr, err := mail.ParseAddress(raw)
		if err != nil {
			return fmt.Errorf("%w: invalid email %q", e.ErrInvalidInput, raw)
		}
		emails = append(emails, addr.Address)
	}
	c.Emails = emails

	phones := make([]string, 0, len(c.PhoneNumbers))
	for _, raw := range c.PhoneNumbers {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		phone, ok := normalizePhone(raw, s.opts.PhoneRegion)
		if !ok {
			return fmt.Errorf("%w: invalid phone number %q", e.ErrInvalidInput, raw)
		}
		phones = append(phones, phone)
	}
	c.PhoneNumbers = phones
	return nil
}

func normalizePhone(raw, region string) (string, bool) {
	if region == "" {
		region = "US"
	}
	number, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return "", false
	}
	if !phonenumbers.IsPossibleNumber(number) || !phonenumbers.IsValidNumber(number) {
		return "", false
	}
	return phonenumbers.Format(number, phonenumbers.E164), true
}

func validateMethod(m *models.CommunicationMethod) error {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" || len(m.Name) > maxNameLength {
		return fmt.Errorf("%w: invalid method name", e.ErrInvalidInput)
	}
	if m.Sequence <= 0 {
		return fmt.Errorf("%w: sequence must be positive", e.ErrInvalidInput)
	}
	return nil
}
