package domain

import (
	"strconv"
	"strings"
	"time"
)

// DefaultColumnColor is used when a column is created without a color.
const DefaultColumnColor = "gray"

// Column is one pipeline stage. Cards reference it through their status.
type Column struct {
	ID         string
	BoardID    string
	Title      string
	Color      string
	OrderIndex int
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ArchivedAt *time.Time
}

// NewColumn validates and builds a column.
func NewColumn(id, boardID, title, color string, orderIndex int, now time.Time) (Column, error) {
	id = strings.TrimSpace(id)
	boardID = strings.TrimSpace(boardID)
	title = strings.TrimSpace(title)
	if id == "" || boardID == "" {
		return Column{}, ErrInvalidID
	}
	if title == "" {
		return Column{}, ErrInvalidTitle
	}
	if orderIndex < 0 {
		return Column{}, ErrInvalidOrderIndex
	}
	color, err := NormalizeColor(color)
	if err != nil {
		return Column{}, err
	}

	return Column{
		ID:         id,
		BoardID:    boardID,
		Title:      title,
		Color:      color,
		OrderIndex: orderIndex,
		CreatedAt:  now.UTC(),
		UpdatedAt:  now.UTC(),
	}, nil
}

// Rename changes the column title.
func (c *Column) Rename(title string, now time.Time) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrInvalidTitle
	}
	c.Title = title
	c.UpdatedAt = now.UTC()
	return nil
}

// Recolor changes the column display color.
func (c *Column) Recolor(color string, now time.Time) error {
	color, err := NormalizeColor(color)
	if err != nil {
		return err
	}
	c.Color = color
	c.UpdatedAt = now.UTC()
	return nil
}

// SetOrderIndex moves the column in the left-to-right order.
func (c *Column) SetOrderIndex(orderIndex int, now time.Time) error {
	if orderIndex < 0 {
		return ErrInvalidOrderIndex
	}
	c.OrderIndex = orderIndex
	c.UpdatedAt = now.UTC()
	return nil
}

// Archive hides the column.
func (c *Column) Archive(now time.Time) {
	ts := now.UTC()
	c.ArchivedAt = &ts
	c.UpdatedAt = ts
}

// Restore unhides the column.
func (c *Column) Restore(now time.Time) {
	c.ArchivedAt = nil
	c.UpdatedAt = now.UTC()
}

// NormalizeColor accepts a color name, an ANSI 256 code or a #rgb/#rrggbb hex value.
func NormalizeColor(color string) (string, error) {
	color = strings.ToLower(strings.TrimSpace(color))
	switch {
	case color == "":
		return DefaultColumnColor, nil
	case strings.HasPrefix(color, "#"):
		hex := color[1:]
		if len(hex) != 3 && len(hex) != 6 {
			return "", ErrInvalidColor
		}
		if _, err := strconv.ParseUint(hex, 16, 32); err != nil {
			return "", ErrInvalidColor
		}
		return color, nil
	case color[0] >= '0' && color[0] <= '9':
		code, err := strconv.Atoi(color)
		if err != nil || code < 0 || code > 255 {
			return "", ErrInvalidColor
		}
		return color, nil
	}
	for _, r := range color {
		if r < 'a' || r > 'z' {
			return "", ErrInvalidColor
		}
	}
	return color, nil
}
