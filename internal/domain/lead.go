package domain

import (
	"net/mail"
	"strings"
	"time"
)

// Lead is a sales prospect moving through a pipeline board.
type Lead struct {
	ID            string
	BoardID       string
	Status        string
	Name          string
	Company       string
	Email         string
	Phone         string
	Source        string
	ValueCents    int64
	NotesMarkdown string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ArchivedAt    *time.Time
}

// LeadInput holds the fields needed to create a lead.
type LeadInput struct {
	ID      string
	BoardID string
	Status  string
	LeadDetails
}

// LeadDetails holds the editable lead fields.
type LeadDetails struct {
	Name          string
	Company       string
	Email         string
	Phone         string
	Source        string
	ValueCents    int64
	NotesMarkdown string
}

// NewLead validates and builds a lead.
func NewLead(in LeadInput, now time.Time) (Lead, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.BoardID = strings.TrimSpace(in.BoardID)
	in.Status = strings.TrimSpace(in.Status)
	if in.ID == "" || in.BoardID == "" {
		return Lead{}, ErrInvalidID
	}
	if in.Status == "" {
		return Lead{}, ErrInvalidStatus
	}
	details, err := normalizeLeadDetails(in.LeadDetails)
	if err != nil {
		return Lead{}, err
	}

	l := Lead{
		ID:        in.ID,
		BoardID:   in.BoardID,
		Status:    in.Status,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
	l.apply(details)
	return l, nil
}

// UpdateDetails replaces the editable fields.
func (l *Lead) UpdateDetails(in LeadDetails, now time.Time) error {
	details, err := normalizeLeadDetails(in)
	if err != nil {
		return err
	}
	l.apply(details)
	l.UpdatedAt = now.UTC()
	return nil
}

// Move files the lead under another column.
func (l *Lead) Move(status string, now time.Time) error {
	status = strings.TrimSpace(status)
	if status == "" {
		return ErrInvalidStatus
	}
	l.Status = status
	l.UpdatedAt = now.UTC()
	return nil
}

// Archive hides the lead.
func (l *Lead) Archive(now time.Time) {
	ts := now.UTC()
	l.ArchivedAt = &ts
	l.UpdatedAt = ts
}

// Restore unhides the lead.
func (l *Lead) Restore(now time.Time) {
	l.ArchivedAt = nil
	l.UpdatedAt = now.UTC()
}

// Details returns the editable fields.
func (l Lead) Details() LeadDetails {
	return LeadDetails{
		Name:          l.Name,
		Company:       l.Company,
		Email:         l.Email,
		Phone:         l.Phone,
		Source:        l.Source,
		ValueCents:    l.ValueCents,
		NotesMarkdown: l.NotesMarkdown,
	}
}

// CardID returns the lead id.
func (l Lead) CardID() string { return l.ID }

// CardStatus returns the id of the column holding the lead.
func (l Lead) CardStatus() string { return l.Status }

func (l *Lead) apply(d LeadDetails) {
	l.Name = d.Name
	l.Company = d.Company
	l.Email = d.Email
	l.Phone = d.Phone
	l.Source = d.Source
	l.ValueCents = d.ValueCents
	l.NotesMarkdown = d.NotesMarkdown
}

func normalizeLeadDetails(d LeadDetails) (LeadDetails, error) {
	d.Name = strings.TrimSpace(d.Name)
	d.Company = strings.TrimSpace(d.Company)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.Phone = strings.TrimSpace(d.Phone)
	d.Source = strings.TrimSpace(d.Source)
	d.NotesMarkdown = strings.TrimSpace(d.NotesMarkdown)
	if d.Name == "" {
		return LeadDetails{}, ErrInvalidName
	}
	if d.Email != "" {
		addr, err := mail.ParseAddress(d.Email)
		if err != nil || addr.Address != d.Email {
			return LeadDetails{}, ErrInvalidEmail
		}
	}
	if d.ValueCents < 0 {
		return LeadDetails{}, ErrInvalidValue
	}
	return d, nil
}
