package domain

import (
	"slices"
	"strings"
	"time"
)

// CardKind names the record type a change event refers to.
type CardKind string

// CardKind values.
const (
	CardKindLead CardKind = "lead"
	CardKindTask CardKind = "task"
)

// ChangeOperation describes a persisted activity operation for a card.
type ChangeOperation string

// ChangeOperation values used by the activity ledger.
const (
	ChangeOperationCreate  ChangeOperation = "create"
	ChangeOperationUpdate  ChangeOperation = "update"
	ChangeOperationMove    ChangeOperation = "move"
	ChangeOperationArchive ChangeOperation = "archive"
	ChangeOperationRestore ChangeOperation = "restore"
	ChangeOperationDelete  ChangeOperation = "delete"
)

// ChangeEvent is one activity-log entry for a card on a board.
type ChangeEvent struct {
	ID         int64
	BoardID    string
	CardKind   CardKind
	CardID     string
	Operation  ChangeOperation
	ActorID    string
	Metadata   map[string]string
	OccurredAt time.Time
}

// NormalizeChangeOperation canonicalizes a persisted operation value.
func NormalizeChangeOperation(raw string) ChangeOperation {
	op := ChangeOperation(strings.ToLower(strings.TrimSpace(raw)))
	switch op {
	case ChangeOperationCreate, ChangeOperationUpdate, ChangeOperationMove,
		ChangeOperationArchive, ChangeOperationRestore, ChangeOperationDelete:
		return op
	default:
		return ChangeOperationUpdate
	}
}

// ClassifyLeadChange derives the operation and metadata recorded for a lead update.
func ClassifyLeadChange(prev, next Lead) (ChangeOperation, map[string]string) {
	if op, meta, ok := classifyLifecycle(prev.ArchivedAt, next.ArchivedAt, prev.Status, next.Status); ok {
		return op, meta
	}
	changed := make([]string, 0)
	if prev.Name != next.Name {
		changed = append(changed, "name")
	}
	if prev.Company != next.Company {
		changed = append(changed, "company")
	}
	if prev.Email != next.Email {
		changed = append(changed, "email")
	}
	if prev.Phone != next.Phone {
		changed = append(changed, "phone")
	}
	if prev.Source != next.Source {
		changed = append(changed, "source")
	}
	if prev.ValueCents != next.ValueCents {
		changed = append(changed, "value_cents")
	}
	if prev.NotesMarkdown != next.NotesMarkdown {
		changed = append(changed, "notes_markdown")
	}
	return ChangeOperationUpdate, changedFieldsMetadata(changed)
}

// ClassifyTaskChange derives the operation and metadata recorded for a task update.
func ClassifyTaskChange(prev, next Task) (ChangeOperation, map[string]string) {
	if op, meta, ok := classifyLifecycle(prev.ArchivedAt, next.ArchivedAt, prev.Status, next.Status); ok {
		return op, meta
	}
	changed := make([]string, 0)
	if prev.Title != next.Title {
		changed = append(changed, "title")
	}
	if prev.Description != next.Description {
		changed = append(changed, "description")
	}
	if prev.Priority != next.Priority {
		changed = append(changed, "priority")
	}
	if !equalNullableTimes(prev.DueAt, next.DueAt) {
		changed = append(changed, "due_at")
	}
	if !slices.Equal(prev.Labels, next.Labels) {
		changed = append(changed, "labels")
	}
	return ChangeOperationUpdate, changedFieldsMetadata(changed)
}

func classifyLifecycle(prevArchived, nextArchived *time.Time, prevStatus, nextStatus string) (ChangeOperation, map[string]string, bool) {
	switch {
	case prevArchived == nil && nextArchived != nil:
		return ChangeOperationArchive, map[string]string{"status": nextStatus}, true
	case prevArchived != nil && nextArchived == nil:
		return ChangeOperationRestore, map[string]string{"status": nextStatus}, true
	case prevStatus != nextStatus:
		return ChangeOperationMove, map[string]string{
			"from_status": prevStatus,
			"to_status":   nextStatus,
		}, true
	}
	return "", nil, false
}

func changedFieldsMetadata(fields []string) map[string]string {
	metadata := map[string]string{}
	if len(fields) > 0 {
		metadata["changed_fields"] = strings.Join(fields, ",")
	}
	return metadata
}

func equalNullableTimes(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
