package app

import (
	"context"

	"github.com/evanschultz/leadboard/internal/domain"
)

// CreateLeadInput holds input values for create lead operations.
type CreateLeadInput struct {
	BoardID  string
	ColumnID string
	domain.LeadDetails
}

// CreateLead files a new lead under a column of a leads board.
func (s *Service) CreateLead(ctx context.Context, in CreateLeadInput) (domain.Lead, error) {
	column, err := s.targetColumn(ctx, in.BoardID, domain.BoardKindLeads, in.ColumnID)
	if err != nil {
		return domain.Lead{}, err
	}
	lead, err := domain.NewLead(domain.LeadInput{
		ID:          s.idGen(),
		BoardID:     in.BoardID,
		Status:      column.ID,
		LeadDetails: in.LeadDetails,
	}, s.clock())
	if err != nil {
		return domain.Lead{}, err
	}
	if err := s.repo.CreateLead(ctx, lead); err != nil {
		return domain.Lead{}, err
	}
	return lead, nil
}

// UpdateLead replaces the editable fields of a lead.
func (s *Service) UpdateLead(ctx context.Context, leadID string, details domain.LeadDetails) (domain.Lead, error) {
	lead, err := s.repo.GetLead(ctx, leadID)
	if err != nil {
		return domain.Lead{}, err
	}
	if err := lead.UpdateDetails(details, s.clock()); err != nil {
		return domain.Lead{}, err
	}
	if err := s.repo.UpdateLead(ctx, lead); err != nil {
		return domain.Lead{}, err
	}
	return lead, nil
}

// MoveLead files a lead under another column of its board. Moving onto the
// column it already sits in returns it unchanged without a write.
func (s *Service) MoveLead(ctx context.Context, leadID, columnID string) (domain.Lead, error) {
	lead, err := s.repo.GetLead(ctx, leadID)
	if err != nil {
		return domain.Lead{}, err
	}
	column, err := s.targetColumn(ctx, lead.BoardID, domain.BoardKindLeads, columnID)
	if err != nil {
		return domain.Lead{}, err
	}
	if lead.Status == column.ID {
		return lead, nil
	}
	if err := lead.Move(column.ID, s.clock()); err != nil {
		return domain.Lead{}, err
	}
	if err := s.repo.UpdateLead(ctx, lead); err != nil {
		return domain.Lead{}, err
	}
	return lead, nil
}

// DeleteLead archives or removes a lead.
func (s *Service) DeleteLead(ctx context.Context, leadID string, mode DeleteMode) error {
	if mode == "" {
		mode = s.defaultDeleteMode
	}

	switch mode {
	case DeleteModeArchive:
		lead, err := s.repo.GetLead(ctx, leadID)
		if err != nil {
			return err
		}
		lead.Archive(s.clock())
		return s.repo.UpdateLead(ctx, lead)
	case DeleteModeHard:
		return s.repo.DeleteLead(ctx, leadID)
	default:
		return ErrInvalidDeleteMode
	}
}

// RestoreLead unarchives a lead.
func (s *Service) RestoreLead(ctx context.Context, leadID string) (domain.Lead, error) {
	lead, err := s.repo.GetLead(ctx, leadID)
	if err != nil {
		return domain.Lead{}, err
	}
	lead.Restore(s.clock())
	if err := s.repo.UpdateLead(ctx, lead); err != nil {
		return domain.Lead{}, err
	}
	return lead, nil
}

// GetLead returns one lead.
func (s *Service) GetLead(ctx context.Context, leadID string) (domain.Lead, error) {
	return s.repo.GetLead(ctx, leadID)
}

// ListLeads lists the leads of a board in creation order.
func (s *Service) ListLeads(ctx context.Context, boardID string, includeArchived bool) ([]domain.Lead, error) {
	return s.repo.ListLeads(ctx, boardID, includeArchived)
}

// CreateTaskInput holds input values for create task operations.
type CreateTaskInput struct {
	BoardID  string
	ColumnID string
	domain.TaskDetails
}

// CreateTask files a new task under a column of a tasks board.
func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput) (domain.Task, error) {
	column, err := s.targetColumn(ctx, in.BoardID, domain.BoardKindTasks, in.ColumnID)
	if err != nil {
		return domain.Task{}, err
	}
	task, err := domain.NewTask(domain.TaskInput{
		ID:          s.idGen(),
		BoardID:     in.BoardID,
		Status:      column.ID,
		TaskDetails: in.TaskDetails,
	}, s.clock())
	if err != nil {
		return domain.Task{}, err
	}
	if err := s.repo.CreateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// UpdateTask replaces the editable fields of a task.
func (s *Service) UpdateTask(ctx context.Context, taskID string, details domain.TaskDetails) (domain.Task, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if err := task.UpdateDetails(details, s.clock()); err != nil {
		return domain.Task{}, err
	}
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// MoveTask files a task under another column of its board. Moving onto the
// column it already sits in returns it unchanged without a write.
func (s *Service) MoveTask(ctx context.Context, taskID, columnID string) (domain.Task, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	column, err := s.targetColumn(ctx, task.BoardID, domain.BoardKindTasks, columnID)
	if err != nil {
		return domain.Task{}, err
	}
	if task.Status == column.ID {
		return task, nil
	}
	if err := task.Move(column.ID, s.clock()); err != nil {
		return domain.Task{}, err
	}
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// DeleteTask archives or removes a task.
func (s *Service) DeleteTask(ctx context.Context, taskID string, mode DeleteMode) error {
	if mode == "" {
		mode = s.defaultDeleteMode
	}

	switch mode {
	case DeleteModeArchive:
		task, err := s.repo.GetTask(ctx, taskID)
		if err != nil {
			return err
		}
		task.Archive(s.clock())
		return s.repo.UpdateTask(ctx, task)
	case DeleteModeHard:
		return s.repo.DeleteTask(ctx, taskID)
	default:
		return ErrInvalidDeleteMode
	}
}

// RestoreTask unarchives a task.
func (s *Service) RestoreTask(ctx context.Context, taskID string) (domain.Task, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	task.Restore(s.clock())
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// GetTask returns one task.
func (s *Service) GetTask(ctx context.Context, taskID string) (domain.Task, error) {
	return s.repo.GetTask(ctx, taskID)
}

// ListTasks lists the tasks of a board in creation order.
func (s *Service) ListTasks(ctx context.Context, boardID string, includeArchived bool) ([]domain.Task, error) {
	return s.repo.ListTasks(ctx, boardID, includeArchived)
}
