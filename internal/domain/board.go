package domain

import (
	"strings"
	"time"
)

// BoardKind selects which record type a board's columns hold.
type BoardKind string

// BoardKind values.
const (
	BoardKindLeads BoardKind = "leads"
	BoardKindTasks BoardKind = "tasks"
)

// Valid reports whether k is a known board kind.
func (k BoardKind) Valid() bool {
	return k == BoardKindLeads || k == BoardKindTasks
}

// Board is one pipeline page: a set of columns and the cards filed under them.
type Board struct {
	ID          string
	Kind        BoardKind
	Slug        string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ArchivedAt  *time.Time
}

// NewBoard validates and builds a board.
func NewBoard(id string, kind BoardKind, name, description string, now time.Time) (Board, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	kind = BoardKind(strings.ToLower(strings.TrimSpace(string(kind))))
	if id == "" {
		return Board{}, ErrInvalidID
	}
	if !kind.Valid() {
		return Board{}, ErrInvalidBoardKind
	}
	if name == "" {
		return Board{}, ErrInvalidName
	}
	return Board{
		ID:          id,
		Kind:        kind,
		Slug:        normalizeSlug(name),
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

// Rename changes the board name and slug.
func (b *Board) Rename(name string, now time.Time) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	b.Name = name
	b.Slug = normalizeSlug(name)
	b.UpdatedAt = now.UTC()
	return nil
}

// Archive hides the board.
func (b *Board) Archive(now time.Time) {
	ts := now.UTC()
	b.ArchivedAt = &ts
	b.UpdatedAt = ts
}

// Restore unhides the board.
func (b *Board) Restore(now time.Time) {
	b.ArchivedAt = nil
	b.UpdatedAt = now.UTC()
}

func normalizeSlug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	var sb strings.Builder
	prevDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				sb.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(sb.String(), "-")
}
