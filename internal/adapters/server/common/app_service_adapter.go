package common

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/evanschultz/leadboard/internal/app"
	"github.com/evanschultz/leadboard/internal/domain"
)

// AppServiceAdapter maps transport contracts onto app.Service.
type AppServiceAdapter struct {
	service *app.Service
}

// NewAppServiceAdapter builds one common adapter over an app.Service instance.
func NewAppServiceAdapter(service *app.Service) *AppServiceAdapter {
	return &AppServiceAdapter{service: service}
}

var _ Service = (*AppServiceAdapter)(nil)

func (a *AppServiceAdapter) ready() error {
	if a == nil || a.service == nil {
		return fmt.Errorf("app service adapter is not configured")
	}
	return nil
}

// Ping checks that the backing store answers.
func (a *AppServiceAdapter) Ping(ctx context.Context) error {
	if err := a.ready(); err != nil {
		return err
	}
	return a.service.Ping(ctx)
}

// ListBoards lists boards, newest configuration first as stored.
func (a *AppServiceAdapter) ListBoards(ctx context.Context, includeArchived bool) ([]Board, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	boards, err := a.service.ListBoards(ctx, includeArchived)
	if err != nil {
		return nil, mapAppError("list boards", err)
	}
	out := make([]Board, 0, len(boards))
	for _, board := range boards {
		out = append(out, boardFromDomain(board))
	}
	return out, nil
}

// BoardSnapshot partitions a board, referenced by id or slug, into lanes.
func (a *AppServiceAdapter) BoardSnapshot(ctx context.Context, boardRef string) (BoardSnapshot, error) {
	if err := a.ready(); err != nil {
		return BoardSnapshot{}, err
	}
	board, err := a.resolveBoard(ctx, boardRef)
	if err != nil {
		return BoardSnapshot{}, err
	}
	view, err := a.service.BoardView(ctx, board.ID)
	if err != nil {
		return BoardSnapshot{}, mapAppError("board snapshot", err)
	}
	out := BoardSnapshot{
		Board:  boardFromDomain(view.Board),
		Lanes:  make([]Lane, 0, len(view.Lanes)),
		Hidden: view.Hidden,
	}
	for _, lane := range view.Lanes {
		cards := make([]Card, 0, len(lane.Cards))
		for _, card := range lane.Cards {
			cards = append(cards, Card{
				ID:       card.ID,
				Kind:     string(card.Kind),
				Status:   card.Status,
				Title:    card.Title,
				Subtitle: card.Subtitle,
			})
		}
		out.Lanes = append(out.Lanes, Lane{Column: columnFromDomain(lane.Column), Cards: cards})
	}
	return out, nil
}

// ListChangeEvents returns the newest activity on a board first.
func (a *AppServiceAdapter) ListChangeEvents(ctx context.Context, boardRef string, limit int) ([]ChangeEvent, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	board, err := a.resolveBoard(ctx, boardRef)
	if err != nil {
		return nil, err
	}
	events, err := a.service.ListChangeEvents(ctx, board.ID, limit)
	if err != nil {
		return nil, mapAppError("list change events", err)
	}
	out := make([]ChangeEvent, 0, len(events))
	for _, event := range events {
		out = append(out, ChangeEvent{
			ID:         event.ID,
			BoardID:    event.BoardID,
			CardKind:   string(event.CardKind),
			CardID:     event.CardID,
			Operation:  string(event.Operation),
			ActorID:    event.ActorID,
			Metadata:   event.Metadata,
			OccurredAt: event.OccurredAt,
		})
	}
	return out, nil
}

// ListColumns lists the columns of a board in display order.
func (a *AppServiceAdapter) ListColumns(ctx context.Context, boardRef string, includeArchived bool) ([]Column, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	board, err := a.resolveBoard(ctx, boardRef)
	if err != nil {
		return nil, err
	}
	columns, err := a.service.ListColumns(ctx, board.ID, includeArchived)
	if err != nil {
		return nil, mapAppError("list columns", err)
	}
	return columnsFromDomain(columns), nil
}

// CreateColumn appends a column to a board.
func (a *AppServiceAdapter) CreateColumn(ctx context.Context, in CreateColumnRequest) (Column, error) {
	if err := a.ready(); err != nil {
		return Column{}, err
	}
	board, err := a.resolveBoard(ctx, in.BoardID)
	if err != nil {
		return Column{}, err
	}
	column, err := a.service.CreateColumn(ctx, app.CreateColumnInput{
		BoardID: board.ID,
		Title:   in.Title,
		Color:   in.Color,
	})
	if err != nil {
		return Column{}, mapAppError("create column", err)
	}
	return columnFromDomain(column), nil
}

// UpdateColumn renames and/or recolors a column.
func (a *AppServiceAdapter) UpdateColumn(ctx context.Context, in UpdateColumnRequest) (Column, error) {
	if err := a.ready(); err != nil {
		return Column{}, err
	}
	if in.Title == nil && in.Color == nil {
		return Column{}, fmt.Errorf("update column: title or color is required: %w", ErrInvalidRequest)
	}
	var (
		column domain.Column
		err    error
	)
	if in.Title != nil {
		if column, err = a.service.RenameColumn(ctx, in.ID, *in.Title); err != nil {
			return Column{}, mapAppError("rename column", err)
		}
	}
	if in.Color != nil {
		if column, err = a.service.RecolorColumn(ctx, in.ID, *in.Color); err != nil {
			return Column{}, mapAppError("recolor column", err)
		}
	}
	return columnFromDomain(column), nil
}

// ReorderColumns rewrites the left-to-right order of a board's live columns.
func (a *AppServiceAdapter) ReorderColumns(ctx context.Context, in ReorderColumnsRequest) ([]Column, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	board, err := a.resolveBoard(ctx, in.BoardID)
	if err != nil {
		return nil, err
	}
	columns, err := a.service.ReorderColumns(ctx, board.ID, in.ColumnIDs)
	if err != nil {
		return nil, mapAppError("reorder columns", err)
	}
	return columnsFromDomain(columns), nil
}

// DeleteColumn archives or removes a column.
func (a *AppServiceAdapter) DeleteColumn(ctx context.Context, in DeleteRequest) error {
	if err := a.ready(); err != nil {
		return err
	}
	mode, err := parseDeleteMode(in.Mode)
	if err != nil {
		return err
	}
	return mapAppError("delete column", a.service.DeleteColumn(ctx, in.ID, mode))
}

// ListLeads lists the leads of a board.
func (a *AppServiceAdapter) ListLeads(ctx context.Context, boardRef string, includeArchived bool) ([]Lead, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	board, err := a.resolveBoard(ctx, boardRef)
	if err != nil {
		return nil, err
	}
	leads, err := a.service.ListLeads(ctx, board.ID, includeArchived)
	if err != nil {
		return nil, mapAppError("list leads", err)
	}
	out := make([]Lead, 0, len(leads))
	for _, lead := range leads {
		out = append(out, leadFromDomain(lead))
	}
	return out, nil
}

// GetLead returns one lead.
func (a *AppServiceAdapter) GetLead(ctx context.Context, leadID string) (Lead, error) {
	if err := a.ready(); err != nil {
		return Lead{}, err
	}
	lead, err := a.service.GetLead(ctx, leadID)
	if err != nil {
		return Lead{}, mapAppError("get lead", err)
	}
	return leadFromDomain(lead), nil
}

// CreateLead files a new lead.
func (a *AppServiceAdapter) CreateLead(ctx context.Context, in CreateLeadRequest) (Lead, error) {
	if err := a.ready(); err != nil {
		return Lead{}, err
	}
	board, err := a.resolveBoard(ctx, in.BoardID)
	if err != nil {
		return Lead{}, err
	}
	lead, err := a.service.CreateLead(ctx, app.CreateLeadInput{
		BoardID:     board.ID,
		ColumnID:    in.ColumnID,
		LeadDetails: in.LeadFields.details(),
	})
	if err != nil {
		return Lead{}, mapAppError("create lead", err)
	}
	return leadFromDomain(lead), nil
}

// UpdateLead replaces the editable fields of a lead.
func (a *AppServiceAdapter) UpdateLead(ctx context.Context, in UpdateLeadRequest) (Lead, error) {
	if err := a.ready(); err != nil {
		return Lead{}, err
	}
	lead, err := a.service.UpdateLead(ctx, in.ID, in.LeadFields.details())
	if err != nil {
		return Lead{}, mapAppError("update lead", err)
	}
	return leadFromDomain(lead), nil
}

// MoveLead files a lead under another column.
func (a *AppServiceAdapter) MoveLead(ctx context.Context, in MoveCardRequest) (Lead, error) {
	if err := a.ready(); err != nil {
		return Lead{}, err
	}
	if strings.TrimSpace(in.ColumnID) == "" {
		return Lead{}, fmt.Errorf("move lead: column_id is required: %w", ErrInvalidRequest)
	}
	lead, err := a.service.MoveLead(ctx, in.ID, in.ColumnID)
	if err != nil {
		return Lead{}, mapAppError("move lead", err)
	}
	return leadFromDomain(lead), nil
}

// RestoreLead unarchives a lead.
func (a *AppServiceAdapter) RestoreLead(ctx context.Context, leadID string) (Lead, error) {
	if err := a.ready(); err != nil {
		return Lead{}, err
	}
	lead, err := a.service.RestoreLead(ctx, leadID)
	if err != nil {
		return Lead{}, mapAppError("restore lead", err)
	}
	return leadFromDomain(lead), nil
}

// DeleteLead archives or removes a lead.
func (a *AppServiceAdapter) DeleteLead(ctx context.Context, in DeleteRequest) error {
	if err := a.ready(); err != nil {
		return err
	}
	mode, err := parseDeleteMode(in.Mode)
	if err != nil {
		return err
	}
	return mapAppError("delete lead", a.service.DeleteLead(ctx, in.ID, mode))
}

// ListTasks lists the tasks of a board.
func (a *AppServiceAdapter) ListTasks(ctx context.Context, boardRef string, includeArchived bool) ([]Task, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	board, err := a.resolveBoard(ctx, boardRef)
	if err != nil {
		return nil, err
	}
	tasks, err := a.service.ListTasks(ctx, board.ID, includeArchived)
	if err != nil {
		return nil, mapAppError("list tasks", err)
	}
	out := make([]Task, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, taskFromDomain(task))
	}
	return out, nil
}

// GetTask returns one task.
func (a *AppServiceAdapter) GetTask(ctx context.Context, taskID string) (Task, error) {
	if err := a.ready(); err != nil {
		return Task{}, err
	}
	task, err := a.service.GetTask(ctx, taskID)
	if err != nil {
		return Task{}, mapAppError("get task", err)
	}
	return taskFromDomain(task), nil
}

// CreateTask files a new task.
func (a *AppServiceAdapter) CreateTask(ctx context.Context, in CreateTaskRequest) (Task, error) {
	if err := a.ready(); err != nil {
		return Task{}, err
	}
	board, err := a.resolveBoard(ctx, in.BoardID)
	if err != nil {
		return Task{}, err
	}
	task, err := a.service.CreateTask(ctx, app.CreateTaskInput{
		BoardID:     board.ID,
		ColumnID:    in.ColumnID,
		TaskDetails: in.TaskFields.details(),
	})
	if err != nil {
		return Task{}, mapAppError("create task", err)
	}
	return taskFromDomain(task), nil
}

// UpdateTask replaces the editable fields of a task.
func (a *AppServiceAdapter) UpdateTask(ctx context.Context, in UpdateTaskRequest) (Task, error) {
	if err := a.ready(); err != nil {
		return Task{}, err
	}
	task, err := a.service.UpdateTask(ctx, in.ID, in.TaskFields.details())
	if err != nil {
		return Task{}, mapAppError("update task", err)
	}
	return taskFromDomain(task), nil
}

// MoveTask files a task under another column.
func (a *AppServiceAdapter) MoveTask(ctx context.Context, in MoveCardRequest) (Task, error) {
	if err := a.ready(); err != nil {
		return Task{}, err
	}
	if strings.TrimSpace(in.ColumnID) == "" {
		return Task{}, fmt.Errorf("move task: column_id is required: %w", ErrInvalidRequest)
	}
	task, err := a.service.MoveTask(ctx, in.ID, in.ColumnID)
	if err != nil {
		return Task{}, mapAppError("move task", err)
	}
	return taskFromDomain(task), nil
}

// RestoreTask unarchives a task.
func (a *AppServiceAdapter) RestoreTask(ctx context.Context, taskID string) (Task, error) {
	if err := a.ready(); err != nil {
		return Task{}, err
	}
	task, err := a.service.RestoreTask(ctx, taskID)
	if err != nil {
		return Task{}, mapAppError("restore task", err)
	}
	return taskFromDomain(task), nil
}

// DeleteTask archives or removes a task.
func (a *AppServiceAdapter) DeleteTask(ctx context.Context, in DeleteRequest) error {
	if err := a.ready(); err != nil {
		return err
	}
	mode, err := parseDeleteMode(in.Mode)
	if err != nil {
		return err
	}
	return mapAppError("delete task", a.service.DeleteTask(ctx, in.ID, mode))
}

func (a *AppServiceAdapter) resolveBoard(ctx context.Context, ref string) (domain.Board, error) {
	if strings.TrimSpace(ref) == "" {
		return domain.Board{}, fmt.Errorf("board id is required: %w", ErrInvalidRequest)
	}
	board, err := a.service.FindBoard(ctx, ref)
	if err != nil {
		return domain.Board{}, mapAppError("resolve board", err)
	}
	return board, nil
}

// parseDeleteMode reads a transport delete mode. Blank defers to the configured default.
func parseDeleteMode(raw string) (app.DeleteMode, error) {
	switch mode := app.DeleteMode(strings.ToLower(strings.TrimSpace(raw))); mode {
	case "", app.DeleteModeArchive, app.DeleteModeHard:
		return mode, nil
	default:
		return "", fmt.Errorf("delete mode %q: must be archive or hard: %w", raw, ErrInvalidRequest)
	}
}

// mapAppError wraps app and domain failures with the transport error they surface as.
func mapAppError(operation string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, app.ErrNotFound):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrNotFound, err))
	case errors.Is(err, app.ErrColumnNotEmpty),
		errors.Is(err, app.ErrColumnNotOnBoard),
		errors.Is(err, app.ErrBoardKindMismatch),
		errors.Is(err, app.ErrInvalidColumnOrder):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrConflict, err))
	case errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrInvalidTitle),
		errors.Is(err, domain.ErrInvalidPriority),
		errors.Is(err, domain.ErrInvalidOrderIndex),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidBoardKind),
		errors.Is(err, domain.ErrInvalidColor),
		errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrInvalidValue),
		errors.Is(err, app.ErrInvalidDeleteMode),
		errors.Is(err, app.ErrInvalidSnapshot):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrInvalidRequest, err))
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}

func (f LeadFields) details() domain.LeadDetails {
	return domain.LeadDetails{
		Name:          f.Name,
		Company:       f.Company,
		Email:         f.Email,
		Phone:         f.Phone,
		Source:        f.Source,
		ValueCents:    f.ValueCents,
		NotesMarkdown: f.NotesMarkdown,
	}
}

func (f TaskFields) details() domain.TaskDetails {
	return domain.TaskDetails{
		Title:       f.Title,
		Description: f.Description,
		Priority:    domain.Priority(f.Priority),
		DueAt:       f.DueAt,
		Labels:      f.Labels,
	}
}

func boardFromDomain(b domain.Board) Board {
	return Board{
		ID:          b.ID,
		Kind:        string(b.Kind),
		Slug:        b.Slug,
		Name:        b.Name,
		Description: b.Description,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
		ArchivedAt:  b.ArchivedAt,
	}
}

func columnFromDomain(c domain.Column) Column {
	return Column{
		ID:         c.ID,
		BoardID:    c.BoardID,
		Title:      c.Title,
		Color:      c.Color,
		OrderIndex: c.OrderIndex,
		ArchivedAt: c.ArchivedAt,
	}
}

func columnsFromDomain(columns []domain.Column) []Column {
	out := make([]Column, 0, len(columns))
	for _, column := range columns {
		out = append(out, columnFromDomain(column))
	}
	return out
}

func leadFromDomain(l domain.Lead) Lead {
	return Lead{
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
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
		ArchivedAt:    l.ArchivedAt,
	}
}

func taskFromDomain(t domain.Task) Task {
	return Task{
		ID:          t.ID,
		BoardID:     t.BoardID,
		Status:      t.Status,
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		DueAt:       t.DueAt,
		Labels:      append([]string(nil), t.Labels...),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		ArchivedAt:  t.ArchivedAt,
	}
}
