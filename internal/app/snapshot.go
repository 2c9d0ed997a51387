package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/evanschultz/leadboard/internal/domain"
)

// SnapshotVersion tags the export document format.
const SnapshotVersion = "leadboard.snapshot.v1"

// Snapshot is a portable export of boards, columns and cards.
type Snapshot struct {
	Version    string           `json:"version" yaml:"version"`
	ExportedAt time.Time        `json:"exported_at" yaml:"exported_at"`
	Boards     []SnapshotBoard  `json:"boards" yaml:"boards"`
	Columns    []SnapshotColumn `json:"columns" yaml:"columns"`
	Leads      []SnapshotLead   `json:"leads" yaml:"leads"`
	Tasks      []SnapshotTask   `json:"tasks" yaml:"tasks"`
}

// SnapshotBoard represents snapshot board data used by this package.
type SnapshotBoard struct {
	ID          string           `json:"id" yaml:"id"`
	Kind        domain.BoardKind `json:"kind" yaml:"kind"`
	Slug        string           `json:"slug" yaml:"slug"`
	Name        string           `json:"name" yaml:"name"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	CreatedAt   time.Time        `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at" yaml:"updated_at"`
	ArchivedAt  *time.Time       `json:"archived_at,omitempty" yaml:"archived_at,omitempty"`
}

// SnapshotColumn represents snapshot column data used by this package.
type SnapshotColumn struct {
	ID         string     `json:"id" yaml:"id"`
	BoardID    string     `json:"board_id" yaml:"board_id"`
	Title      string     `json:"title" yaml:"title"`
	Color      string     `json:"color" yaml:"color"`
	OrderIndex int        `json:"order_index" yaml:"order_index"`
	CreatedAt  time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" yaml:"updated_at"`
	ArchivedAt *time.Time `json:"archived_at,omitempty" yaml:"archived_at,omitempty"`
}

// SnapshotLead represents snapshot lead data used by this package.
type SnapshotLead struct {
	ID            string     `json:"id" yaml:"id"`
	BoardID       string     `json:"board_id" yaml:"board_id"`
	Status        string     `json:"status" yaml:"status"`
	Name          string     `json:"name" yaml:"name"`
	Company       string     `json:"company,omitempty" yaml:"company,omitempty"`
	Email         string     `json:"email,omitempty" yaml:"email,omitempty"`
	Phone         string     `json:"phone,omitempty" yaml:"phone,omitempty"`
	Source        string     `json:"source,omitempty" yaml:"source,omitempty"`
	ValueCents    int64      `json:"value_cents" yaml:"value_cents"`
	NotesMarkdown string     `json:"notes_markdown,omitempty" yaml:"notes_markdown,omitempty"`
	CreatedAt     time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" yaml:"updated_at"`
	ArchivedAt    *time.Time `json:"archived_at,omitempty" yaml:"archived_at,omitempty"`
}

// SnapshotTask represents snapshot task data used by this package.
type SnapshotTask struct {
	ID          string          `json:"id" yaml:"id"`
	BoardID     string          `json:"board_id" yaml:"board_id"`
	Status      string          `json:"status" yaml:"status"`
	Title       string          `json:"title" yaml:"title"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Priority    domain.Priority `json:"priority" yaml:"priority"`
	DueAt       *time.Time      `json:"due_at,omitempty" yaml:"due_at,omitempty"`
	Labels      []string        `json:"labels" yaml:"labels"`
	CreatedAt   time.Time       `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" yaml:"updated_at"`
	ArchivedAt  *time.Time      `json:"archived_at,omitempty" yaml:"archived_at,omitempty"`
}

// ExportSnapshot collects every board with its columns and cards.
func (s *Service) ExportSnapshot(ctx context.Context, includeArchived bool) (Snapshot, error) {
	boards, err := s.repo.ListBoards(ctx, includeArchived)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: s.clock().UTC(),
		Boards:     make([]SnapshotBoard, 0, len(boards)),
		Columns:    make([]SnapshotColumn, 0),
		Leads:      make([]SnapshotLead, 0),
		Tasks:      make([]SnapshotTask, 0),
	}
	for _, board := range boards {
		snap.Boards = append(snap.Boards, snapshotBoardFromDomain(board))

		columns, err := s.repo.ListColumns(ctx, board.ID, includeArchived)
		if err != nil {
			return Snapshot{}, err
		}
		for _, column := range columns {
			snap.Columns = append(snap.Columns, snapshotColumnFromDomain(column))
		}

		switch board.Kind {
		case domain.BoardKindLeads:
			leads, err := s.repo.ListLeads(ctx, board.ID, includeArchived)
			if err != nil {
				return Snapshot{}, err
			}
			for _, lead := range leads {
				snap.Leads = append(snap.Leads, snapshotLeadFromDomain(lead))
			}
		case domain.BoardKindTasks:
			tasks, err := s.repo.ListTasks(ctx, board.ID, includeArchived)
			if err != nil {
				return Snapshot{}, err
			}
			for _, task := range tasks {
				snap.Tasks = append(snap.Tasks, snapshotTaskFromDomain(task))
			}
		}
	}

	snap.sort()
	return snap, nil
}

// ImportSnapshot validates a snapshot and upserts its rows.
func (s *Service) ImportSnapshot(ctx context.Context, snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	snap.sort()

	for _, board := range snap.Boards {
		err := upsert(ctx, board.toDomain(), board.ID, s.repo.GetBoard, s.repo.CreateBoard, s.repo.UpdateBoard)
		if err != nil {
			return fmt.Errorf("import board %q: %w", board.ID, err)
		}
	}
	for _, column := range snap.Columns {
		err := upsert(ctx, column.toDomain(), column.ID, s.repo.GetColumn, s.repo.CreateColumn, s.repo.UpdateColumn)
		if err != nil {
			return fmt.Errorf("import column %q: %w", column.ID, err)
		}
	}
	for _, lead := range snap.Leads {
		err := upsert(ctx, lead.toDomain(), lead.ID, s.repo.GetLead, s.repo.CreateLead, s.repo.UpdateLead)
		if err != nil {
			return fmt.Errorf("import lead %q: %w", lead.ID, err)
		}
	}
	for _, task := range snap.Tasks {
		err := upsert(ctx, task.toDomain(), task.ID, s.repo.GetTask, s.repo.CreateTask, s.repo.UpdateTask)
		if err != nil {
			return fmt.Errorf("import task %q: %w", task.ID, err)
		}
	}
	return nil
}

func upsert[T any](
	ctx context.Context,
	value T,
	id string,
	get func(context.Context, string) (T, error),
	create func(context.Context, T) error,
	update func(context.Context, T) error,
) error {
	if _, err := get(ctx, id); err == nil {
		return update(ctx, value)
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	return create(ctx, value)
}

// Validate checks ids, required fields and references.
func (s *Snapshot) Validate() error {
	if s.Version != "" && s.Version != SnapshotVersion {
		return fmt.Errorf("%w: unsupported version %q", ErrInvalidSnapshot, s.Version)
	}

	boardKinds := map[string]domain.BoardKind{}
	for i, b := range s.Boards {
		switch {
		case strings.TrimSpace(b.ID) == "":
			return fmt.Errorf("%w: boards[%d].id is required", ErrInvalidSnapshot, i)
		case strings.TrimSpace(b.Name) == "":
			return fmt.Errorf("%w: boards[%d].name is required", ErrInvalidSnapshot, i)
		case !b.Kind.Valid():
			return fmt.Errorf("%w: boards[%d].kind %q is unknown", ErrInvalidSnapshot, i, b.Kind)
		case b.CreatedAt.IsZero() || b.UpdatedAt.IsZero():
			return fmt.Errorf("%w: boards[%d] timestamps are required", ErrInvalidSnapshot, i)
		}
		if _, exists := boardKinds[b.ID]; exists {
			return fmt.Errorf("%w: duplicate board id %q", ErrInvalidSnapshot, b.ID)
		}
		boardKinds[b.ID] = b.Kind
	}

	columnBoards := map[string]string{}
	for i, c := range s.Columns {
		switch {
		case strings.TrimSpace(c.ID) == "":
			return fmt.Errorf("%w: columns[%d].id is required", ErrInvalidSnapshot, i)
		case strings.TrimSpace(c.Title) == "":
			return fmt.Errorf("%w: columns[%d].title is required", ErrInvalidSnapshot, i)
		case c.OrderIndex < 0:
			return fmt.Errorf("%w: columns[%d].order_index must be >= 0", ErrInvalidSnapshot, i)
		case c.CreatedAt.IsZero() || c.UpdatedAt.IsZero():
			return fmt.Errorf("%w: columns[%d] timestamps are required", ErrInvalidSnapshot, i)
		}
		if _, ok := boardKinds[c.BoardID]; !ok {
			return fmt.Errorf("%w: columns[%d] references unknown board_id %q", ErrInvalidSnapshot, i, c.BoardID)
		}
		if _, err := domain.NormalizeColor(c.Color); err != nil {
			return fmt.Errorf("%w: columns[%d].color: %v", ErrInvalidSnapshot, i, err)
		}
		if _, exists := columnBoards[c.ID]; exists {
			return fmt.Errorf("%w: duplicate column id %q", ErrInvalidSnapshot, c.ID)
		}
		columnBoards[c.ID] = c.BoardID
	}

	checkCard := func(section string, i int, id, boardID, status string, kind domain.BoardKind, created, updated time.Time) error {
		switch {
		case strings.TrimSpace(id) == "":
			return fmt.Errorf("%w: %s[%d].id is required", ErrInvalidSnapshot, section, i)
		case created.IsZero() || updated.IsZero():
			return fmt.Errorf("%w: %s[%d] timestamps are required", ErrInvalidSnapshot, section, i)
		}
		got, ok := boardKinds[boardID]
		if !ok {
			return fmt.Errorf("%w: %s[%d] references unknown board_id %q", ErrInvalidSnapshot, section, i, boardID)
		}
		if got != kind {
			return fmt.Errorf("%w: %s[%d] sits on a %s board", ErrInvalidSnapshot, section, i, got)
		}
		if columnBoards[status] != boardID {
			return fmt.Errorf("%w: %s[%d].status %q is not a column of board %q", ErrInvalidSnapshot, section, i, status, boardID)
		}
		return nil
	}
	leadIDs := map[string]struct{}{}
	for i, l := range s.Leads {
		if err := checkCard("leads", i, l.ID, l.BoardID, l.Status, domain.BoardKindLeads, l.CreatedAt, l.UpdatedAt); err != nil {
			return err
		}
		if strings.TrimSpace(l.Name) == "" {
			return fmt.Errorf("%w: leads[%d].name is required", ErrInvalidSnapshot, i)
		}
		if _, exists := leadIDs[l.ID]; exists {
			return fmt.Errorf("%w: duplicate lead id %q", ErrInvalidSnapshot, l.ID)
		}
		leadIDs[l.ID] = struct{}{}
	}
	taskIDs := map[string]struct{}{}
	for i, t := range s.Tasks {
		if err := checkCard("tasks", i, t.ID, t.BoardID, t.Status, domain.BoardKindTasks, t.CreatedAt, t.UpdatedAt); err != nil {
			return err
		}
		if strings.TrimSpace(t.Title) == "" {
			return fmt.Errorf("%w: tasks[%d].title is required", ErrInvalidSnapshot, i)
		}
		if _, exists := taskIDs[t.ID]; exists {
			return fmt.Errorf("%w: duplicate task id %q", ErrInvalidSnapshot, t.ID)
		}
		taskIDs[t.ID] = struct{}{}
	}
	return nil
}

func (s *Snapshot) sort() {
	slices.SortStableFunc(s.Boards, func(a, b SnapshotBoard) int {
		return strings.Compare(a.ID, b.ID)
	})
	slices.SortStableFunc(s.Columns, func(a, b SnapshotColumn) int {
		if a.BoardID != b.BoardID {
			return strings.Compare(a.BoardID, b.BoardID)
		}
		if a.OrderIndex != b.OrderIndex {
			return a.OrderIndex - b.OrderIndex
		}
		return strings.Compare(a.ID, b.ID)
	})
	slices.SortStableFunc(s.Leads, func(a, b SnapshotLead) int {
		return compareCards(a.BoardID, b.BoardID, a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	slices.SortStableFunc(s.Tasks, func(a, b SnapshotTask) int {
		return compareCards(a.BoardID, b.BoardID, a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
}

// compareCards orders cards by board, then creation time, then id.
func compareCards(boardA, boardB string, createdA, createdB time.Time, idA, idB string) int {
	if boardA != boardB {
		return strings.Compare(boardA, boardB)
	}
	if c := createdA.Compare(createdB); c != 0 {
		return c
	}
	return strings.Compare(idA, idB)
}

func snapshotBoardFromDomain(b domain.Board) SnapshotBoard {
	return SnapshotBoard{
		ID:          b.ID,
		Kind:        b.Kind,
		Slug:        b.Slug,
		Name:        b.Name,
		Description: b.Description,
		CreatedAt:   b.CreatedAt.UTC(),
		UpdatedAt:   b.UpdatedAt.UTC(),
		ArchivedAt:  copyTimePtr(b.ArchivedAt),
	}
}

func snapshotColumnFromDomain(c domain.Column) SnapshotColumn {
	return SnapshotColumn{
		ID:         c.ID,
		BoardID:    c.BoardID,
		Title:      c.Title,
		Color:      c.Color,
		OrderIndex: c.OrderIndex,
		CreatedAt:  c.CreatedAt.UTC(),
		UpdatedAt:  c.UpdatedAt.UTC(),
		ArchivedAt: copyTimePtr(c.ArchivedAt),
	}
}

func snapshotLeadFromDomain(l domain.Lead) SnapshotLead {
	return SnapshotLead{
		ID:            l.ID,
		BoardID:       l.BoardID,
		Status:        l.Status,
		Name:          l.Name,
		Company:       l.Company,
		Email:         l.Email,
		Phone:         l.Phone,
		Source:        l.Source,
		ValueCents:    l.ValueCents,
		NotesMarkdown: l.NotesMarkdown,
		CreatedAt:     l.CreatedAt.UTC(),
		UpdatedAt:     l.UpdatedAt.UTC(),
		ArchivedAt:    copyTimePtr(l.ArchivedAt),
	}
}

func snapshotTaskFromDomain(t domain.Task) SnapshotTask {
	return SnapshotTask{
		ID:          t.ID,
		BoardID:     t.BoardID,
		Status:      t.Status,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		DueAt:       copyTimePtr(t.DueAt),
		Labels:      append([]string{}, t.Labels...),
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
		ArchivedAt:  copyTimePtr(t.ArchivedAt),
	}
}

func (b SnapshotBoard) toDomain() domain.Board {
	slug := strings.TrimSpace(b.Slug)
	if slug == "" {
		if fresh, err := domain.NewBoard(b.ID, b.Kind, b.Name, "", b.CreatedAt); err == nil {
			slug = fresh.Slug
		}
	}
	return domain.Board{
		ID:          strings.TrimSpace(b.ID),
		Kind:        b.Kind,
		Slug:        slug,
		Name:        strings.TrimSpace(b.Name),
		Description: strings.TrimSpace(b.Description),
		CreatedAt:   b.CreatedAt.UTC(),
		UpdatedAt:   b.UpdatedAt.UTC(),
		ArchivedAt:  copyTimePtr(b.ArchivedAt),
	}
}

func (c SnapshotColumn) toDomain() domain.Column {
	color, err := domain.NormalizeColor(c.Color)
	if err != nil {
		color = domain.DefaultColumnColor
	}
	return domain.Column{
		ID:         strings.TrimSpace(c.ID),
		BoardID:    strings.TrimSpace(c.BoardID),
		Title:      strings.TrimSpace(c.Title),
		Color:      color,
		OrderIndex: c.OrderIndex,
		CreatedAt:  c.CreatedAt.UTC(),
		UpdatedAt:  c.UpdatedAt.UTC(),
		ArchivedAt: copyTimePtr(c.ArchivedAt),
	}
}

func (l SnapshotLead) toDomain() domain.Lead {
	return domain.Lead{
		ID:            strings.TrimSpace(l.ID),
		BoardID:       strings.TrimSpace(l.BoardID),
		Status:        strings.TrimSpace(l.Status),
		Name:          strings.TrimSpace(l.Name),
		Company:       strings.TrimSpace(l.Company),
		Email:         strings.TrimSpace(l.Email),
		Phone:         strings.TrimSpace(l.Phone),
		Source:        strings.TrimSpace(l.Source),
		ValueCents:    l.ValueCents,
		NotesMarkdown: l.NotesMarkdown,
		CreatedAt:     l.CreatedAt.UTC(),
		UpdatedAt:     l.UpdatedAt.UTC(),
		ArchivedAt:    copyTimePtr(l.ArchivedAt),
	}
}

func (t SnapshotTask) toDomain() domain.Task {
	priority := t.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	return domain.Task{
		ID:          strings.TrimSpace(t.ID),
		BoardID:     strings.TrimSpace(t.BoardID),
		Status:      strings.TrimSpace(t.Status),
		Title:       strings.TrimSpace(t.Title),
		Description: t.Description,
		Priority:    priority,
		DueAt:       copyTimePtr(t.DueAt),
		Labels:      append([]string{}, t.Labels...),
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
		ArchivedAt:  copyTimePtr(t.ArchivedAt),
	}
}

func copyTimePtr(in *time.Time) *time.Time {
	if in == nil {
		return nil
	}
	ts := in.UTC()
	return &ts
}
