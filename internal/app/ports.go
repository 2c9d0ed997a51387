package app

import (
	"context"

	"github.com/evanschultz/leadboard/internal/domain"
)

// Repository is the storage port the service runs on. Card writes record
// their change events in the same transaction.
type Repository interface {
	Ping(context.Context) error

	CreateBoard(context.Context, domain.Board) error
	UpdateBoard(context.Context, domain.Board) error
	GetBoard(context.Context, string) (domain.Board, error)
	ListBoards(context.Context, bool) ([]domain.Board, error)

	CreateColumn(context.Context, domain.Column) error
	UpdateColumn(context.Context, domain.Column) error
	GetColumn(context.Context, string) (domain.Column, error)
	ListColumns(context.Context, string, bool) ([]domain.Column, error)
	DeleteColumn(context.Context, string) error

	CreateLead(context.Context, domain.Lead) error
	UpdateLead(context.Context, domain.Lead) error
	GetLead(context.Context, string) (domain.Lead, error)
	ListLeads(context.Context, string, bool) ([]domain.Lead, error)
	DeleteLead(context.Context, string) error

	CreateTask(context.Context, domain.Task) error
	UpdateTask(context.Context, domain.Task) error
	GetTask(context.Context, string) (domain.Task, error)
	ListTasks(context.Context, string, bool) ([]domain.Task, error)
	DeleteTask(context.Context, string) error

	ListChangeEvents(context.Context, string, int) ([]domain.ChangeEvent, error)
}
