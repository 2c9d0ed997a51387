package domain

import (
	"testing"
	"time"
)

func TestNewBoardAndSlug(t *testing.T) {
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	b, err := NewBoard("b1", BoardKindLeads, "  Sales Pipeline!  ", " desc ", now)
	if err != nil {
		t.Fatalf("NewBoard() error = %v", err)
	}
	if b.Slug != "sales-pipeline" {
		t.Fatalf("unexpected slug %q", b.Slug)
	}
	if b.Name != "Sales Pipeline!" || b.Description != "desc" {
		t.Fatalf("unexpected board %#v", b)
	}
}

func TestNewBoardValidation(t *testing.T) {
	now := time.Now()
	if _, err := NewBoard("", BoardKindLeads, "ok", "", now); err != ErrInvalidID {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if _, err := NewBoard("id", "agenda", "ok", "", now); err != ErrInvalidBoardKind {
		t.Fatalf("expected ErrInvalidBoardKind, got %v", err)
	}
	if _, err := NewBoard("id", BoardKindTasks, "   ", "", now); err != ErrInvalidName {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
}

func TestBoardArchiveRestore(t *testing.T) {
	now := time.Now()
	b, err := NewBoard("b1", BoardKindTasks, "ops", "", now)
	if err != nil {
		t.Fatalf("NewBoard() error = %v", err)
	}
	later := now.Add(time.Minute)
	b.Archive(later)
	if b.ArchivedAt == nil {
		t.Fatal("expected archived_at to be set")
	}
	b.Restore(later.Add(time.Minute))
	if b.ArchivedAt != nil {
		t.Fatal("expected archived_at to be nil")
	}
}

func TestNewColumnValidation(t *testing.T) {
	now := time.Now()
	if _, err := NewColumn("c1", "b1", "todo", "", -1, now); err != ErrInvalidOrderIndex {
		t.Fatalf("expected ErrInvalidOrderIndex, got %v", err)
	}
	if _, err := NewColumn("c1", "b1", " ", "", 0, now); err != ErrInvalidTitle {
		t.Fatalf("expected ErrInvalidTitle, got %v", err)
	}
	if _, err := NewColumn("c1", "", "todo", "", 0, now); err != ErrInvalidID {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if _, err := NewColumn("c1", "b1", "todo", "#12345", 0, now); err != ErrInvalidColor {
		t.Fatalf("expected ErrInvalidColor, got %v", err)
	}
	c, err := NewColumn("c1", "b1", "todo", "", 0, now)
	if err != nil {
		t.Fatalf("NewColumn() error = %v", err)
	}
	if c.Color != DefaultColumnColor {
		t.Fatalf("expected default color, got %q", c.Color)
	}
}

func TestNormalizeColor(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: " Blue ", want: "blue"},
		{in: "#22AA88", want: "#22aa88"},
		{in: "#fff", want: "#fff"},
		{in: "62", want: "62"},
		{in: "256", wantErr: true},
		{in: "#zzz", wantErr: true},
		{in: "dark-blue", wantErr: true},
	}
	for _, tc := range cases {
		got, err := NormalizeColor(tc.in)
		if tc.wantErr {
			if err != ErrInvalidColor {
				t.Fatalf("NormalizeColor(%q) expected ErrInvalidColor, got %v", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("NormalizeColor(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestColumnMutations(t *testing.T) {
	now := time.Now()
	c, err := NewColumn("c1", "b1", "To do", "blue", 0, now)
	if err != nil {
		t.Fatalf("NewColumn() error = %v", err)
	}
	if err := c.Rename(" Doing ", now); err != nil || c.Title != "Doing" {
		t.Fatalf("Rename() = %v, title %q", err, c.Title)
	}
	if err := c.Recolor("red", now); err != nil || c.Color != "red" {
		t.Fatalf("Recolor() = %v, color %q", err, c.Color)
	}
	if err := c.SetOrderIndex(-2, now); err != ErrInvalidOrderIndex {
		t.Fatalf("expected ErrInvalidOrderIndex, got %v", err)
	}
}

func TestNewLeadNormalizesDetails(t *testing.T) {
	now := time.Now()
	l, err := NewLead(LeadInput{
		ID:      "l1",
		BoardID: "b1",
		Status:  "new",
		LeadDetails: LeadDetails{
			Name:       "  Ana Souza ",
			Company:    " Padaria Central ",
			Email:      " Ana@Example.com ",
			ValueCents: 150000,
		},
	}, now)
	if err != nil {
		t.Fatalf("NewLead() error = %v", err)
	}
	if l.Name != "Ana Souza" || l.Company != "Padaria Central" || l.Email != "ana@example.com" {
		t.Fatalf("unexpected lead %#v", l)
	}
	if l.CardID() != "l1" || l.CardStatus() != "new" {
		t.Fatalf("unexpected card identity %q/%q", l.CardID(), l.CardStatus())
	}
}

func TestNewLeadValidation(t *testing.T) {
	now := time.Now()
	base := LeadInput{ID: "l1", BoardID: "b1", Status: "new", LeadDetails: LeadDetails{Name: "Ana"}}

	in := base
	in.Status = " "
	if _, err := NewLead(in, now); err != ErrInvalidStatus {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	in = base
	in.Name = ""
	if _, err := NewLead(in, now); err != ErrInvalidName {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
	in = base
	in.Email = "not an email"
	if _, err := NewLead(in, now); err != ErrInvalidEmail {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	in = base
	in.ValueCents = -1
	if _, err := NewLead(in, now); err != ErrInvalidValue {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}

func TestLeadMoveAndArchive(t *testing.T) {
	now := time.Now()
	l, err := NewLead(LeadInput{ID: "l1", BoardID: "b1", Status: "new", LeadDetails: LeadDetails{Name: "Ana"}}, now)
	if err != nil {
		t.Fatalf("NewLead() error = %v", err)
	}
	later := now.Add(time.Hour)
	if err := l.Move("won", later); err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if l.Status != "won" || !l.UpdatedAt.Equal(later.UTC()) {
		t.Fatalf("unexpected lead after move %#v", l)
	}
	if err := l.Move("", later); err != ErrInvalidStatus {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	l.Archive(later)
	if l.ArchivedAt == nil {
		t.Fatal("expected archived_at to be set")
	}
	l.Restore(later)
	if l.ArchivedAt != nil {
		t.Fatal("expected archived_at to be nil")
	}
}

func TestNewTaskDefaultsAndLabels(t *testing.T) {
	now := time.Now()
	due := time.Date(2026, 3, 1, 10, 30, 15, 999, time.FixedZone("BRT", -3*3600))
	task, err := NewTask(TaskInput{
		ID:      "t1",
		BoardID: "b2",
		Status:  "todo",
		TaskDetails: TaskDetails{
			Title:  " Call supplier ",
			DueAt:  &due,
			Labels: []string{"Ops", " ops", "finance", ""},
		},
	}, now)
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}
	if task.Priority != PriorityMedium {
		t.Fatalf("expected default priority, got %q", task.Priority)
	}
	if len(task.Labels) != 2 || task.Labels[0] != "finance" || task.Labels[1] != "ops" {
		t.Fatalf("unexpected labels %#v", task.Labels)
	}
	if task.DueAt == nil || task.DueAt.Location() != time.UTC || task.DueAt.Nanosecond() != 0 {
		t.Fatalf("expected due date normalized to UTC seconds, got %v", task.DueAt)
	}
}

func TestTaskValidation(t *testing.T) {
	now := time.Now()
	if _, err := NewTask(TaskInput{ID: "t1", BoardID: "b1", Status: "todo"}, now); err != ErrInvalidTitle {
		t.Fatalf("expected ErrInvalidTitle, got %v", err)
	}
	if _, err := NewTask(TaskInput{ID: "t1", BoardID: "b1", Status: "todo", TaskDetails: TaskDetails{Title: "x", Priority: "urgent"}}, now); err != ErrInvalidPriority {
		t.Fatalf("expected ErrInvalidPriority, got %v", err)
	}
	task, err := NewTask(TaskInput{ID: "t1", BoardID: "b1", Status: "todo", TaskDetails: TaskDetails{Title: "x"}}, now)
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}
	if err := task.UpdateDetails(TaskDetails{Title: "y", Priority: PriorityHigh}, now); err != nil {
		t.Fatalf("UpdateDetails() error = %v", err)
	}
	if task.Title != "y" || task.Priority != PriorityHigh {
		t.Fatalf("unexpected task %#v", task)
	}
}

func TestClassifyLeadChange(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	prev, err := NewLead(LeadInput{ID: "l1", BoardID: "b1", Status: "new", LeadDetails: LeadDetails{Name: "Ada"}}, now)
	if err != nil {
		t.Fatalf("NewLead() error = %v", err)
	}

	moved := prev
	_ = moved.Move("won", now)
	op, meta := ClassifyLeadChange(prev, moved)
	if op != ChangeOperationMove || meta["from_status"] != "new" || meta["to_status"] != "won" {
		t.Fatalf("unexpected move classification %q %#v", op, meta)
	}

	archived := prev
	archived.Archive(now)
	if op, _ := ClassifyLeadChange(prev, archived); op != ChangeOperationArchive {
		t.Fatalf("expected archive, got %q", op)
	}
	if op, _ := ClassifyLeadChange(archived, prev); op != ChangeOperationRestore {
		t.Fatalf("expected restore, got %q", op)
	}

	edited := prev
	_ = edited.UpdateDetails(LeadDetails{Name: "Ada L", ValueCents: 500}, now)
	op, meta = ClassifyLeadChange(prev, edited)
	if op != ChangeOperationUpdate || meta["changed_fields"] != "name,value_cents" {
		t.Fatalf("unexpected update classification %q %#v", op, meta)
	}
}

func TestClassifyTaskChange(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	prev, err := NewTask(TaskInput{ID: "t1", BoardID: "b1", Status: "todo", TaskDetails: TaskDetails{Title: "Call"}}, now)
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}
	due := now.Add(48 * time.Hour)
	next := prev
	_ = next.UpdateDetails(TaskDetails{Title: "Call", Priority: PriorityHigh, DueAt: &due, Labels: []string{"phone"}}, now)
	op, meta := ClassifyTaskChange(prev, next)
	if op != ChangeOperationUpdate || meta["changed_fields"] != "priority,due_at,labels" {
		t.Fatalf("unexpected task classification %q %#v", op, meta)
	}
	if op, meta := ClassifyTaskChange(prev, prev); op != ChangeOperationUpdate || len(meta) != 0 {
		t.Fatalf("expected empty update, got %q %#v", op, meta)
	}
}

func TestNormalizeChangeOperation(t *testing.T) {
	if got := NormalizeChangeOperation(" MOVE "); got != ChangeOperationMove {
		t.Fatalf("expected move, got %q", got)
	}
	if got := NormalizeChangeOperation("bogus"); got != ChangeOperationUpdate {
		t.Fatalf("expected fallback update, got %q", got)
	}
}
