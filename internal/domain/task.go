package domain

import (
	"slices"
	"strings"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var validPriorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Task is a process/planning card.
type Task struct {
	ID          string
	BoardID     string
	Status      string
	Title       string
	Description string
	Priority    Priority
	DueAt       *time.Time
	Labels      []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ArchivedAt  *time.Time
}

type TaskInput struct {
	ID      string
	BoardID string
	Status  string
	TaskDetails
}

type TaskDetails struct {
	Title       string
	Description string
	Priority    Priority
	DueAt       *time.Time
	Labels      []string
}

func NewTask(in TaskInput, now time.Time) (Task, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.BoardID = strings.TrimSpace(in.BoardID)
	in.Status = strings.TrimSpace(in.Status)
	if in.ID == "" || in.BoardID == "" {
		return Task{}, ErrInvalidID
	}
	if in.Status == "" {
		return Task{}, ErrInvalidStatus
	}
	details, err := normalizeTaskDetails(in.TaskDetails)
	if err != nil {
		return Task{}, err
	}

	t := Task{
		ID:        in.ID,
		BoardID:   in.BoardID,
		Status:    in.Status,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
	t.apply(details)
	return t, nil
}

func (t *Task) UpdateDetails(in TaskDetails, now time.Time) error {
	details, err := normalizeTaskDetails(in)
	if err != nil {
		return err
	}
	t.apply(details)
	t.UpdatedAt = now.UTC()
	return nil
}

func (t *Task) Move(status string, now time.Time) error {
	status = strings.TrimSpace(status)
	if status == "" {
		return ErrInvalidStatus
	}
	t.Status = status
	t.UpdatedAt = now.UTC()
	return nil
}

func (t *Task) Archive(now time.Time) {
	ts := now.UTC()
	t.ArchivedAt = &ts
	t.UpdatedAt = ts
}

func (t *Task) Restore(now time.Time) {
	t.ArchivedAt = nil
	t.UpdatedAt = now.UTC()
}

func (t Task) Details() TaskDetails {
	return TaskDetails{
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		DueAt:       normalizeDueAt(t.DueAt),
		Labels:      slices.Clone(t.Labels),
	}
}

// CardID returns the task id.
func (t Task) CardID() string { return t.ID }

// CardStatus returns the id of the column holding the task.
func (t Task) CardStatus() string { return t.Status }

func (t *Task) apply(d TaskDetails) {
	t.Title = d.Title
	t.Description = d.Description
	t.Priority = d.Priority
	t.DueAt = d.DueAt
	t.Labels = d.Labels
}

func normalizeTaskDetails(d TaskDetails) (TaskDetails, error) {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.Priority = Priority(strings.ToLower(strings.TrimSpace(string(d.Priority))))
	if d.Priority == "" {
		d.Priority = PriorityMedium
	}
	if d.Title == "" {
		return TaskDetails{}, ErrInvalidTitle
	}
	if !slices.Contains(validPriorities, d.Priority) {
		return TaskDetails{}, ErrInvalidPriority
	}
	d.DueAt = normalizeDueAt(d.DueAt)
	d.Labels = normalizeLabels(d.Labels)
	return d, nil
}

func normalizeDueAt(dueAt *time.Time) *time.Time {
	if dueAt == nil {
		return nil
	}
	ts := dueAt.UTC().Truncate(time.Second)
	return &ts
}

func normalizeLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	seen := map[string]struct{}{}
	for _, raw := range labels {
		label := strings.ToLower(strings.TrimSpace(raw))
		if label == "" {
			continue
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	slices.Sort(out)
	return out
}
