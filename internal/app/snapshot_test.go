package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/evanschultz/leadboard/internal/domain"
)

func TestExportSnapshotIncludesExpectedData(t *testing.T) {
	repo := newFakeRepo()
	now := time.Date(2026, 2, 22, 10, 0, 0, 0, time.UTC)

	leads, _ := domain.NewBoard("b1", domain.BoardKindLeads, "Leads", "", now)
	tasks, _ := domain.NewBoard("b2", domain.BoardKindTasks, "Ops", "", now)
	tasks.Archive(now.Add(time.Minute))
	repo.boards[leads.ID] = leads
	repo.boards[tasks.ID] = tasks

	c1, _ := domain.NewColumn("c1", leads.ID, "New", "blue", 0, now)
	c2, _ := domain.NewColumn("c2", tasks.ID, "Done", "green", 0, now)
	repo.columns[c1.ID] = c1
	repo.columns[c2.ID] = c2

	l1, _ := domain.NewLead(domain.LeadInput{ID: "l1", BoardID: leads.ID, Status: c1.ID, LeadDetails: domain.LeadDetails{Name: "Ada", ValueCents: 4200}}, now)
	t1, _ := domain.NewTask(domain.TaskInput{ID: "t1", BoardID: tasks.ID, Status: c2.ID, TaskDetails: domain.TaskDetails{Title: "Invoice", Labels: []string{"billing"}}}, now)
	repo.leads[l1.ID] = l1
	repo.tasks[t1.ID] = t1

	svc := NewService(repo, nil, func() time.Time { return now.Add(3 * time.Minute) }, ServiceConfig{})

	active, err := svc.ExportSnapshot(context.Background(), false)
	if err != nil {
		t.Fatalf("ExportSnapshot(active) error = %v", err)
	}
	if active.Version != SnapshotVersion {
		t.Fatalf("unexpected version %q", active.Version)
	}
	if len(active.Boards) != 1 || active.Boards[0].ID != leads.ID {
		t.Fatalf("unexpected active boards %#v", active.Boards)
	}
	if len(active.Columns) != 1 || len(active.Leads) != 1 || len(active.Tasks) != 0 {
		t.Fatalf("unexpected active sizes c=%d l=%d t=%d", len(active.Columns), len(active.Leads), len(active.Tasks))
	}
	if active.Leads[0].ValueCents != 4200 {
		t.Fatalf("expected lead value to export, got %#v", active.Leads[0])
	}

	all, err := svc.ExportSnapshot(context.Background(), true)
	if err != nil {
		t.Fatalf("ExportSnapshot(all) error = %v", err)
	}
	if len(all.Boards) != 2 || len(all.Columns) != 2 || len(all.Tasks) != 1 {
		t.Fatalf("unexpected all snapshot sizes b=%d c=%d t=%d", len(all.Boards), len(all.Columns), len(all.Tasks))
	}
	if all.Boards[1].ArchivedAt == nil {
		t.Fatalf("expected archived board to carry archived_at, got %#v", all.Boards[1])
	}
	if err := all.Validate(); err != nil {
		t.Fatalf("exported snapshot should validate, got %v", err)
	}
}

func TestImportSnapshotCreatesAndUpdates(t *testing.T) {
	repo := newFakeRepo()
	now := time.Date(2026, 2, 22, 10, 0, 0, 0, time.UTC)

	existing, _ := domain.NewBoard("b1", domain.BoardKindLeads, "Old Name", "", now)
	repo.boards[existing.ID] = existing
	oldCol, _ := domain.NewColumn("c1", existing.ID, "Old Col", "", 0, now)
	repo.columns[oldCol.ID] = oldCol

	snap := validSnapshot(now)
	snap.Boards[0].Name = "Pipeline"
	snap.Leads = append(snap.Leads, SnapshotLead{
		ID: "l2", BoardID: "b1", Status: "c2", Name: "Grace", CreatedAt: now, UpdatedAt: now,
	})

	svc := NewService(repo, nil, nil, ServiceConfig{})
	if err := svc.ImportSnapshot(context.Background(), snap); err != nil {
		t.Fatalf("ImportSnapshot() error = %v", err)
	}

	if got := repo.boards["b1"].Name; got != "Pipeline" {
		t.Fatalf("expected board rename, got %q", got)
	}
	if got := repo.columns["c1"].Title; got != "New" {
		t.Fatalf("expected column update, got %q", got)
	}
	if _, ok := repo.columns["c2"]; !ok {
		t.Fatal("expected column c2 to be created")
	}
	if len(repo.leads) != 2 || repo.leads["l2"].Status != "c2" {
		t.Fatalf("unexpected leads %#v", repo.leads)
	}
	if repo.boards["b1"].Slug != "b1-slug" {
		t.Fatalf("expected slug to be kept, got %q", repo.boards["b1"].Slug)
	}
	if repo.tasks["t1"].Priority != domain.PriorityMedium {
		t.Fatalf("expected empty priority to import as medium, got %q", repo.tasks["t1"].Priority)
	}
}

func TestSnapshotValidate(t *testing.T) {
	now := time.Date(2026, 2, 22, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		mutate func(*Snapshot)
		want   string
	}{
		{name: "version", mutate: func(s *Snapshot) { s.Version = "other.v9" }, want: "unsupported version"},
		{name: "board id", mutate: func(s *Snapshot) { s.Boards[0].ID = " " }, want: "boards[0].id"},
		{name: "board kind", mutate: func(s *Snapshot) { s.Boards[0].Kind = "notes" }, want: "boards[0].kind"},
		{name: "duplicate board", mutate: func(s *Snapshot) { s.Boards = append(s.Boards, s.Boards[0]) }, want: "duplicate board"},
		{name: "column board", mutate: func(s *Snapshot) { s.Columns[0].BoardID = "nope" }, want: "unknown board_id"},
		{name: "column color", mutate: func(s *Snapshot) { s.Columns[0].Color = "#12" }, want: "columns[0].color"},
		{name: "column order", mutate: func(s *Snapshot) { s.Columns[1].OrderIndex = -1 }, want: "order_index"},
		{name: "lead name", mutate: func(s *Snapshot) { s.Leads[0].Name = "" }, want: "leads[0].name"},
		{name: "lead status", mutate: func(s *Snapshot) { s.Leads[0].Status = "c9" }, want: "is not a column"},
		{name: "lead on tasks board", mutate: func(s *Snapshot) { s.Leads[0].BoardID = "b2" }, want: "sits on a tasks board"},
		{name: "task timestamps", mutate: func(s *Snapshot) { s.Tasks[0].UpdatedAt = time.Time{} }, want: "tasks[0] timestamps"},
		{name: "duplicate task", mutate: func(s *Snapshot) { s.Tasks = append(s.Tasks, s.Tasks[0]) }, want: "duplicate task"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snap := validSnapshot(now)
			tc.mutate(&snap)
			err := snap.Validate()
			if !errors.Is(err, ErrInvalidSnapshot) {
				t.Fatalf("expected ErrInvalidSnapshot, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error to mention %q, got %v", tc.want, err)
			}
		})
	}

	snap := validSnapshot(now)
	if err := snap.Validate(); err != nil {
		t.Fatalf("expected valid snapshot, got %v", err)
	}
}

func TestImportSnapshotRejectsInvalid(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil, ServiceConfig{})
	snap := validSnapshot(time.Date(2026, 2, 22, 10, 0, 0, 0, time.UTC))
	snap.Columns[0].BoardID = "missing"
	if err := svc.ImportSnapshot(context.Background(), snap); !errors.Is(err, ErrInvalidSnapshot) {
		t.Fatalf("expected ErrInvalidSnapshot, got %v", err)
	}
	if len(repo.boards) != 0 {
		t.Fatalf("expected nothing written, got %d boards", len(repo.boards))
	}
}

func validSnapshot(now time.Time) Snapshot {
	return Snapshot{
		Version: SnapshotVersion,
		Boards: []SnapshotBoard{
			{ID: "b1", Kind: domain.BoardKindLeads, Slug: "b1-slug", Name: "Leads", CreatedAt: now, UpdatedAt: now},
			{ID: "b2", Kind: domain.BoardKindTasks, Name: "Tasks", CreatedAt: now, UpdatedAt: now},
		},
		Columns: []SnapshotColumn{
			{ID: "c1", BoardID: "b1", Title: "New", Color: "blue", OrderIndex: 0, CreatedAt: now, UpdatedAt: now},
			{ID: "c2", BoardID: "b1", Title: "Won", Color: "green", OrderIndex: 1, CreatedAt: now, UpdatedAt: now},
			{ID: "c3", BoardID: "b2", Title: "To do", OrderIndex: 0, CreatedAt: now, UpdatedAt: now},
		},
		Leads: []SnapshotLead{
			{ID: "l1", BoardID: "b1", Status: "c1", Name: "Ada", CreatedAt: now, UpdatedAt: now},
		},
		Tasks: []SnapshotTask{
			{ID: "t1", BoardID: "b2", Status: "c3", Title: "Invoice", CreatedAt: now, UpdatedAt: now},
		},
	}
}
