// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidRequest reports malformed transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// ErrConflict reports a request that is well formed but clashes with current board state.
var ErrConflict = errors.New("conflict")

// ErrUnauthorized reports a missing or rejected bearer token.
var ErrUnauthorized = errors.New("unauthorized")

// Board is the transport view of one board.
type Board struct {
	ID          string     `json:"id"`
	Kind        string     `json:"kind"`
	Slug        string     `json:"slug"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`
}

// Column is the transport view of one column.
type Column struct {
	ID         string     `json:"id"`
	BoardID    string     `json:"board_id"`
	Title      string     `json:"title"`
	Color      string     `json:"color"`
	OrderIndex int        `json:"order_index"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`
}

// Lead is the transport view of one lead card.
type Lead struct {
	ID            string     `json:"id"`
	BoardID       string     `json:"board_id"`
	Status        string     `json:"status"`
	Name          string     `json:"name"`
	Company       string     `json:"company,omitempty"`
	Email         string     `json:"email,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	Source        string     `json:"source,omitempty"`
	ValueCents    int64      `json:"value_cents"`
	NotesMarkdown string     `json:"notes_markdown,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	ArchivedAt    *time.Time `json:"archived_at,omitempty"`
}

// Task is the transport view of one task card.
type Task struct {
	ID          string     `json:"id"`
	BoardID     string     `json:"board_id"`
	Status      string     `json:"status"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    string     `json:"priority"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	Labels      []string   `json:"labels,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`
}

// Card is the display summary of a lead or task inside a snapshot lane.
type Card struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Status   string `json:"status"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
}

// Lane is one column of a snapshot and the cards filed under it.
type Lane struct {
	Column Column `json:"column"`
	Cards  []Card `json:"cards"`
}

// BoardSnapshot is a board partitioned into lanes the way the terminal board shows it.
type BoardSnapshot struct {
	Board  Board  `json:"board"`
	Lanes  []Lane `json:"lanes"`
	Hidden int    `json:"hidden"`
}

// ChangeEvent is one activity-ledger row.
type ChangeEvent struct {
	ID         int64             `json:"id"`
	BoardID    string            `json:"board_id"`
	CardKind   string            `json:"card_kind"`
	CardID     string            `json:"card_id"`
	Operation  string            `json:"operation"`
	ActorID    string            `json:"actor_id"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// CreateColumnRequest captures input for appending a column to a board.
type CreateColumnRequest struct {
	BoardID string `json:"-"`
	Title   string `json:"title"`
	Color   string `json:"color,omitempty"`
}

// UpdateColumnRequest captures a partial column update. Nil fields stay unchanged.
type UpdateColumnRequest struct {
	ID    string  `json:"-"`
	Title *string `json:"title,omitempty"`
	Color *string `json:"color,omitempty"`
}

// ReorderColumnsRequest lists every live column of a board left to right.
type ReorderColumnsRequest struct {
	BoardID   string   `json:"-"`
	ColumnIDs []string `json:"column_ids"`
}

// DeleteRequest captures an archive or hard delete of one record.
type DeleteRequest struct {
	ID   string
	Mode string
}

// LeadFields holds the editable lead fields accepted on create and update.
type LeadFields struct {
	Name          string `json:"name"`
	Company       string `json:"company,omitempty"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Source        string `json:"source,omitempty"`
	ValueCents    int64  `json:"value_cents,omitempty"`
	NotesMarkdown string `json:"notes_markdown,omitempty"`
}

// CreateLeadRequest files a new lead. A blank column picks the leftmost live column.
type CreateLeadRequest struct {
	BoardID  string `json:"-"`
	ColumnID string `json:"column_id,omitempty"`
	LeadFields
}

// UpdateLeadRequest replaces the editable fields of a lead.
type UpdateLeadRequest struct {
	ID string `json:"-"`
	LeadFields
}

// TaskFields holds the editable task fields accepted on create and update.
type TaskFields struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	Labels      []string   `json:"labels,omitempty"`
}

// CreateTaskRequest files a new task. A blank column picks the leftmost live column.
type CreateTaskRequest struct {
	BoardID  string `json:"-"`
	ColumnID string `json:"column_id,omitempty"`
	TaskFields
}

// UpdateTaskRequest replaces the editable fields of a task.
type UpdateTaskRequest struct {
	ID string `json:"-"`
	TaskFields
}

// MoveCardRequest files a card under another column of its board.
type MoveCardRequest struct {
	ID       string `json:"-"`
	ColumnID string `json:"column_id"`
}

// BoardService lists boards and reads their partitioned state.
type BoardService interface {
	Ping(context.Context) error
	ListBoards(context.Context, bool) ([]Board, error)
	BoardSnapshot(context.Context, string) (BoardSnapshot, error)
	ListChangeEvents(context.Context, string, int) ([]ChangeEvent, error)
}

// ColumnService edits the columns of a board.
type ColumnService interface {
	ListColumns(context.Context, string, bool) ([]Column, error)
	CreateColumn(context.Context, CreateColumnRequest) (Column, error)
	UpdateColumn(context.Context, UpdateColumnRequest) (Column, error)
	ReorderColumns(context.Context, ReorderColumnsRequest) ([]Column, error)
	DeleteColumn(context.Context, DeleteRequest) error
}

// LeadService manages lead cards.
type LeadService interface {
	ListLeads(context.Context, string, bool) ([]Lead, error)
	GetLead(context.Context, string) (Lead, error)
	CreateLead(context.Context, CreateLeadRequest) (Lead, error)
	UpdateLead(context.Context, UpdateLeadRequest) (Lead, error)
	MoveLead(context.Context, MoveCardRequest) (Lead, error)
	RestoreLead(context.Context, string) (Lead, error)
	DeleteLead(context.Context, DeleteRequest) error
}

// TaskService manages task cards.
type TaskService interface {
	ListTasks(context.Context, string, bool) ([]Task, error)
	GetTask(context.Context, string) (Task, error)
	CreateTask(context.Context, CreateTaskRequest) (Task, error)
	UpdateTask(context.Context, UpdateTaskRequest) (Task, error)
	MoveTask(context.Context, MoveCardRequest) (Task, error)
	RestoreTask(context.Context, string) (Task, error)
	DeleteTask(context.Context, DeleteRequest) error
}

// Service is everything the HTTP and MCP transports call.
type Service interface {
	BoardService
	ColumnService
	LeadService
	TaskService
}
