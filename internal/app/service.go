package app

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/evanschultz/leadboard/internal/domain"
)

// DeleteMode represents a selectable mode.
type DeleteMode string

// DeleteModeArchive and related constants define package defaults.
const (
	DeleteModeArchive DeleteMode = "archive"
	DeleteModeHard    DeleteMode = "hard"
)

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	DefaultDeleteMode DeleteMode
	LeadColumns       []ColumnTemplate
	TaskColumns       []ColumnTemplate
}

// ColumnTemplate seeds one column of a new board.
type ColumnTemplate struct {
	Title string
	Color string
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service implements the dashboard use cases over a Repository.
type Service struct {
	repo              Repository
	idGen             IDGenerator
	clock             Clock
	defaultDeleteMode DeleteMode
	templates         map[domain.BoardKind][]ColumnTemplate
}

// NewService constructs a new value for this package.
func NewService(repo Repository, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	if cfg.DefaultDeleteMode == "" {
		cfg.DefaultDeleteMode = DeleteModeArchive
	}
	leadCols := sanitizeColumnTemplates(cfg.LeadColumns)
	if len(leadCols) == 0 {
		leadCols = DefaultLeadColumns()
	}
	taskCols := sanitizeColumnTemplates(cfg.TaskColumns)
	if len(taskCols) == 0 {
		taskCols = DefaultTaskColumns()
	}

	return &Service{
		repo:              repo,
		idGen:             idGen,
		clock:             clock,
		defaultDeleteMode: cfg.DefaultDeleteMode,
		templates: map[domain.BoardKind][]ColumnTemplate{
			domain.BoardKindLeads: leadCols,
			domain.BoardKindTasks: taskCols,
		},
	}
}

// DefaultLeadColumns returns the stock sales pipeline.
func DefaultLeadColumns() []ColumnTemplate {
	return []ColumnTemplate{
		{Title: "New", Color: "blue"},
		{Title: "Contacted", Color: "teal"},
		{Title: "Proposal", Color: "yellow"},
		{Title: "Won", Color: "green"},
		{Title: "Lost", Color: "red"},
	}
}

// DefaultTaskColumns returns the stock process board.
func DefaultTaskColumns() []ColumnTemplate {
	return []ColumnTemplate{
		{Title: "To do", Color: "gray"},
		{Title: "In progress", Color: "blue"},
		{Title: "Done", Color: "green"},
	}
}

// Ping checks that the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// EnsureDefaultBoards makes sure one live leads board and one live tasks board
// exist and returns every live board.
func (s *Service) EnsureDefaultBoards(ctx context.Context) ([]domain.Board, error) {
	boards, err := s.repo.ListBoards(ctx, false)
	if err != nil {
		return nil, err
	}
	defaults := []struct {
		kind domain.BoardKind
		name string
	}{
		{kind: domain.BoardKindLeads, name: "Leads"},
		{kind: domain.BoardKindTasks, name: "Tasks"},
	}
	for _, want := range defaults {
		if slices.ContainsFunc(boards, func(b domain.Board) bool { return b.Kind == want.kind }) {
			continue
		}
		board, err := s.CreateBoard(ctx, CreateBoardInput{Kind: want.kind, Name: want.name})
		if err != nil {
			return nil, err
		}
		boards = append(boards, board)
	}
	return boards, nil
}

// CreateBoardInput holds input values for create board operations.
type CreateBoardInput struct {
	Kind        domain.BoardKind
	Name        string
	Description string
}

// CreateBoard creates a board and seeds its columns from the templates for its kind.
func (s *Service) CreateBoard(ctx context.Context, in CreateBoardInput) (domain.Board, error) {
	now := s.clock()
	board, err := domain.NewBoard(s.idGen(), in.Kind, in.Name, in.Description, now)
	if err != nil {
		return domain.Board{}, err
	}
	if err := s.repo.CreateBoard(ctx, board); err != nil {
		return domain.Board{}, err
	}
	for idx, tmpl := range s.templates[board.Kind] {
		column, err := domain.NewColumn(s.idGen(), board.ID, tmpl.Title, tmpl.Color, idx, now)
		if err != nil {
			return domain.Board{}, err
		}
		if err := s.repo.CreateColumn(ctx, column); err != nil {
			return domain.Board{}, err
		}
	}
	return board, nil
}

// ListBoards lists boards.
func (s *Service) ListBoards(ctx context.Context, includeArchived bool) ([]domain.Board, error) {
	return s.repo.ListBoards(ctx, includeArchived)
}

// GetBoard returns one board.
func (s *Service) GetBoard(ctx context.Context, boardID string) (domain.Board, error) {
	return s.repo.GetBoard(ctx, boardID)
}

// FindBoard resolves a board by id or slug.
func (s *Service) FindBoard(ctx context.Context, ref string) (domain.Board, error) {
	ref = strings.TrimSpace(ref)
	board, err := s.repo.GetBoard(ctx, ref)
	if err == nil {
		return board, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return domain.Board{}, err
	}
	boards, err := s.repo.ListBoards(ctx, true)
	if err != nil {
		return domain.Board{}, err
	}
	for _, candidate := range boards {
		if candidate.Slug == strings.ToLower(ref) {
			return candidate, nil
		}
	}
	return domain.Board{}, fmt.Errorf("board %q: %w", ref, ErrNotFound)
}

// CreateColumnInput holds input values for create column operations.
type CreateColumnInput struct {
	BoardID string
	Title   string
	Color   string
}

// CreateColumn appends a column to the right end of a board.
func (s *Service) CreateColumn(ctx context.Context, in CreateColumnInput) (domain.Column, error) {
	if _, err := s.repo.GetBoard(ctx, in.BoardID); err != nil {
		return domain.Column{}, err
	}
	columns, err := s.repo.ListColumns(ctx, in.BoardID, true)
	if err != nil {
		return domain.Column{}, err
	}
	next := 0
	for _, column := range columns {
		next = max(next, column.OrderIndex+1)
	}
	column, err := domain.NewColumn(s.idGen(), in.BoardID, in.Title, in.Color, next, s.clock())
	if err != nil {
		return domain.Column{}, err
	}
	if err := s.repo.CreateColumn(ctx, column); err != nil {
		return domain.Column{}, err
	}
	return column, nil
}

// RenameColumn renames a column.
func (s *Service) RenameColumn(ctx context.Context, columnID, title string) (domain.Column, error) {
	column, err := s.repo.GetColumn(ctx, columnID)
	if err != nil {
		return domain.Column{}, err
	}
	if err := column.Rename(title, s.clock()); err != nil {
		return domain.Column{}, err
	}
	if err := s.repo.UpdateColumn(ctx, column); err != nil {
		return domain.Column{}, err
	}
	return column, nil
}

// RecolorColumn changes a column's display color.
func (s *Service) RecolorColumn(ctx context.Context, columnID, color string) (domain.Column, error) {
	column, err := s.repo.GetColumn(ctx, columnID)
	if err != nil {
		return domain.Column{}, err
	}
	if err := column.Recolor(color, s.clock()); err != nil {
		return domain.Column{}, err
	}
	if err := s.repo.UpdateColumn(ctx, column); err != nil {
		return domain.Column{}, err
	}
	return column, nil
}

// ReorderColumns assigns order indexes to every live column of a board in
// the given left-to-right order.
func (s *Service) ReorderColumns(ctx context.Context, boardID string, orderedIDs []string) ([]domain.Column, error) {
	columns, err := s.repo.ListColumns(ctx, boardID, false)
	if err != nil {
		return nil, err
	}
	if len(orderedIDs) != len(columns) {
		return nil, ErrInvalidColumnOrder
	}
	byID := make(map[string]domain.Column, len(columns))
	for _, column := range columns {
		byID[column.ID] = column
	}
	now := s.clock()
	out := make([]domain.Column, 0, len(orderedIDs))
	for idx, id := range orderedIDs {
		column, ok := byID[strings.TrimSpace(id)]
		if !ok {
			return nil, ErrInvalidColumnOrder
		}
		delete(byID, column.ID)
		if column.OrderIndex != idx {
			if err := column.SetOrderIndex(idx, now); err != nil {
				return nil, err
			}
			if err := s.repo.UpdateColumn(ctx, column); err != nil {
				return nil, err
			}
		}
		out = append(out, column)
	}
	return out, nil
}

// DeleteColumn archives a column, or removes it when mode is hard and no live
// card is filed under it.
func (s *Service) DeleteColumn(ctx context.Context, columnID string, mode DeleteMode) error {
	if mode == "" {
		mode = s.defaultDeleteMode
	}
	column, err := s.repo.GetColumn(ctx, columnID)
	if err != nil {
		return err
	}

	switch mode {
	case DeleteModeArchive:
		column.Archive(s.clock())
		return s.repo.UpdateColumn(ctx, column)
	case DeleteModeHard:
		count, err := s.countLiveCards(ctx, column)
		if err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: %d card(s) in %q", ErrColumnNotEmpty, count, column.Title)
		}
		return s.repo.DeleteColumn(ctx, columnID)
	default:
		return ErrInvalidDeleteMode
	}
}

// ListColumns lists columns in display order.
func (s *Service) ListColumns(ctx context.Context, boardID string, includeArchived bool) ([]domain.Column, error) {
	columns, err := s.repo.ListColumns(ctx, boardID, includeArchived)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(columns, func(a, b domain.Column) int {
		return cmp.Compare(a.OrderIndex, b.OrderIndex)
	})
	return columns, nil
}

// ListChangeEvents returns the newest activity on a board first.
func (s *Service) ListChangeEvents(ctx context.Context, boardID string, limit int) ([]domain.ChangeEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListChangeEvents(ctx, boardID, limit)
}

// targetColumn resolves the column a card of kind on boardID may be filed
// under. An empty columnID picks the leftmost live column.
func (s *Service) targetColumn(ctx context.Context, boardID string, kind domain.BoardKind, columnID string) (domain.Column, error) {
	board, err := s.repo.GetBoard(ctx, boardID)
	if err != nil {
		return domain.Column{}, err
	}
	if board.Kind != kind {
		return domain.Column{}, fmt.Errorf("%w: board %q holds %s", ErrBoardKindMismatch, board.Name, board.Kind)
	}
	columnID = strings.TrimSpace(columnID)
	if columnID == "" {
		columns, err := s.ListColumns(ctx, boardID, false)
		if err != nil {
			return domain.Column{}, err
		}
		if len(columns) == 0 {
			return domain.Column{}, fmt.Errorf("board %q has no columns: %w", board.Name, ErrNotFound)
		}
		return columns[0], nil
	}
	column, err := s.repo.GetColumn(ctx, columnID)
	if err != nil {
		return domain.Column{}, err
	}
	if column.BoardID != boardID || column.ArchivedAt != nil {
		return domain.Column{}, ErrColumnNotOnBoard
	}
	return column, nil
}

func (s *Service) countLiveCards(ctx context.Context, column domain.Column) (int, error) {
	board, err := s.repo.GetBoard(ctx, column.BoardID)
	if err != nil {
		return 0, err
	}
	count := 0
	switch board.Kind {
	case domain.BoardKindLeads:
		leads, err := s.repo.ListLeads(ctx, board.ID, false)
		if err != nil {
			return 0, err
		}
		for _, lead := range leads {
			if lead.Status == column.ID {
				count++
			}
		}
	case domain.BoardKindTasks:
		tasks, err := s.repo.ListTasks(ctx, board.ID, false)
		if err != nil {
			return 0, err
		}
		for _, task := range tasks {
			if task.Status == column.ID {
				count++
			}
		}
	}
	return count, nil
}

// sanitizeColumnTemplates drops blank and duplicate titles.
func sanitizeColumnTemplates(in []ColumnTemplate) []ColumnTemplate {
	if len(in) == 0 {
		return nil
	}
	out := make([]ColumnTemplate, 0, len(in))
	seen := map[string]struct{}{}
	for _, tmpl := range in {
		tmpl.Title = strings.TrimSpace(tmpl.Title)
		tmpl.Color = strings.TrimSpace(tmpl.Color)
		if tmpl.Title == "" {
			continue
		}
		key := strings.ToLower(tmpl.Title)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tmpl)
	}
	return out
}
