package common

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/evanschultz/leadboard/internal/adapters/storage/sqlite"
	"github.com/evanschultz/leadboard/internal/app"
	"github.com/evanschultz/leadboard/internal/domain"
)

// newAdapterFixture builds one adapter over in-memory sqlite with the default boards seeded.
func newAdapterFixture(t *testing.T) (*AppServiceAdapter, domain.Board, []domain.Column) {
	t.Helper()

	repo, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})

	nextID := 0
	idGen := func() string {
		nextID++
		return fmt.Sprintf("id-%03d", nextID)
	}
	clock := func() time.Time {
		return time.Date(2026, 2, 24, 12, 0, 0, 0, time.UTC)
	}
	service := app.NewService(repo, idGen, clock, app.ServiceConfig{DefaultDeleteMode: app.DeleteModeArchive})

	boards, err := service.EnsureDefaultBoards(context.Background())
	if err != nil {
		t.Fatalf("EnsureDefaultBoards() error = %v", err)
	}
	var leads domain.Board
	for _, board := range boards {
		if board.Kind == domain.BoardKindLeads {
			leads = board
		}
	}
	columns, err := service.ListColumns(context.Background(), leads.ID, false)
	if err != nil {
		t.Fatalf("ListColumns() error = %v", err)
	}
	return NewAppServiceAdapter(service), leads, columns
}

// TestAdapterSnapshotBySlug verifies snapshots resolve boards by slug and partition cards.
func TestAdapterSnapshotBySlug(t *testing.T) {
	adapter, board, columns := newAdapterFixture(t)
	ctx := context.Background()

	lead, err := adapter.CreateLead(ctx, CreateLeadRequest{
		BoardID:    board.ID,
		ColumnID:   columns[1].ID,
		LeadFields: LeadFields{Name: "Ada", Company: "Analytical", ValueCents: 150000},
	})
	if err != nil {
		t.Fatalf("CreateLead() error = %v", err)
	}

	snap, err := adapter.BoardSnapshot(ctx, board.Slug)
	if err != nil {
		t.Fatalf("BoardSnapshot() error = %v", err)
	}
	if snap.Board.ID != board.ID || len(snap.Lanes) != len(columns) {
		t.Fatalf("unexpected snapshot %#v", snap)
	}
	cards := snap.Lanes[1].Cards
	if len(cards) != 1 || cards[0].ID != lead.ID || cards[0].Subtitle != "Analytical · $1,500.00" {
		t.Fatalf("unexpected lane cards %#v", cards)
	}
	if snap.Hidden != 0 {
		t.Fatalf("expected no hidden cards, got %d", snap.Hidden)
	}
}

// TestAdapterMoveRecordsActor verifies a move attributes its change event to the context actor.
func TestAdapterMoveRecordsActor(t *testing.T) {
	adapter, board, columns := newAdapterFixture(t)
	ctx := app.WithActor(context.Background(), "user-7")

	lead, err := adapter.CreateLead(ctx, CreateLeadRequest{BoardID: board.ID, LeadFields: LeadFields{Name: "Grace"}})
	if err != nil {
		t.Fatalf("CreateLead() error = %v", err)
	}
	if lead.Status != columns[0].ID {
		t.Fatalf("blank column should file under the leftmost column, got %q", lead.Status)
	}
	moved, err := adapter.MoveLead(ctx, MoveCardRequest{ID: lead.ID, ColumnID: columns[2].ID})
	if err != nil {
		t.Fatalf("MoveLead() error = %v", err)
	}
	if moved.Status != columns[2].ID {
		t.Fatalf("expected moved status %q, got %q", columns[2].ID, moved.Status)
	}

	events, err := adapter.ListChangeEvents(ctx, board.ID, 10)
	if err != nil {
		t.Fatalf("ListChangeEvents() error = %v", err)
	}
	if len(events) == 0 || events[0].Operation != string(domain.ChangeOperationMove) {
		t.Fatalf("expected newest event to be a move, got %#v", events)
	}
	if events[0].ActorID != "user-7" || events[0].Metadata["to_status"] != columns[2].ID {
		t.Fatalf("unexpected move event %#v", events[0])
	}
}

// TestAdapterErrorMapping verifies app and domain errors surface as transport classes.
func TestAdapterErrorMapping(t *testing.T) {
	adapter, board, columns := newAdapterFixture(t)
	ctx := context.Background()

	if _, err := adapter.GetLead(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := adapter.CreateLead(ctx, CreateLeadRequest{BoardID: board.ID}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected invalid request for blank name, got %v", err)
	}
	if _, err := adapter.MoveLead(ctx, MoveCardRequest{ID: "x"}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected invalid request for blank column, got %v", err)
	}
	if err := adapter.DeleteLead(ctx, DeleteRequest{ID: "x", Mode: "shred"}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected invalid delete mode, got %v", err)
	}

	lead, err := adapter.CreateLead(ctx, CreateLeadRequest{BoardID: board.ID, LeadFields: LeadFields{Name: "Bob"}})
	if err != nil {
		t.Fatalf("CreateLead() error = %v", err)
	}
	err = adapter.DeleteColumn(ctx, DeleteRequest{ID: columns[0].ID, Mode: "hard"})
	if !errors.Is(err, ErrConflict) || !errors.Is(err, app.ErrColumnNotEmpty) {
		t.Fatalf("expected conflict for non-empty column, got %v", err)
	}
	if _, err := adapter.ReorderColumns(ctx, ReorderColumnsRequest{BoardID: board.ID, ColumnIDs: []string{columns[0].ID}}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict for partial reorder, got %v", err)
	}

	tasks, err := adapter.ListBoards(ctx, false)
	if err != nil {
		t.Fatalf("ListBoards() error = %v", err)
	}
	var taskBoard Board
	for _, b := range tasks {
		if b.Kind == string(domain.BoardKindTasks) {
			taskBoard = b
		}
	}
	taskColumns, err := adapter.ListColumns(ctx, taskBoard.ID, false)
	if err != nil {
		t.Fatalf("ListColumns() error = %v", err)
	}
	if _, err := adapter.MoveLead(ctx, MoveCardRequest{ID: lead.ID, ColumnID: taskColumns[0].ID}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict when moving onto another board's column, got %v", err)
	}
}

// TestAdapterColumnLifecycle verifies column create, update and reorder.
func TestAdapterColumnLifecycle(t *testing.T) {
	adapter, board, columns := newAdapterFixture(t)
	ctx := context.Background()

	created, err := adapter.CreateColumn(ctx, CreateColumnRequest{BoardID: board.ID, Title: "Nurture", Color: "purple"})
	if err != nil {
		t.Fatalf("CreateColumn() error = %v", err)
	}
	if created.OrderIndex != len(columns) {
		t.Fatalf("expected appended column, got order %d", created.OrderIndex)
	}

	title := "Re-engage"
	updated, err := adapter.UpdateColumn(ctx, UpdateColumnRequest{ID: created.ID, Title: &title})
	if err != nil {
		t.Fatalf("UpdateColumn() error = %v", err)
	}
	if updated.Title != title || updated.Color != created.Color {
		t.Fatalf("unexpected updated column %#v", updated)
	}
	if _, err := adapter.UpdateColumn(ctx, UpdateColumnRequest{ID: created.ID}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected invalid request for empty update, got %v", err)
	}

	order := []string{created.ID}
	for _, column := range columns {
		order = append(order, column.ID)
	}
	reordered, err := adapter.ReorderColumns(ctx, ReorderColumnsRequest{BoardID: board.ID, ColumnIDs: order})
	if err != nil {
		t.Fatalf("ReorderColumns() error = %v", err)
	}
	if reordered[0].ID != created.ID || reordered[0].OrderIndex != 0 {
		t.Fatalf("unexpected reorder result %#v", reordered)
	}
}

// TestClassifyError verifies the status and code of each transport error class.
func TestClassifyError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{err: fmt.Errorf("x: %w", ErrNotFound), status: http.StatusNotFound, code: CodeNotFound},
		{err: fmt.Errorf("x: %w", ErrInvalidRequest), status: http.StatusBadRequest, code: CodeInvalidRequest},
		{err: fmt.Errorf("x: %w", ErrConflict), status: http.StatusConflict, code: CodeConflict},
		{err: ErrUnauthorized, status: http.StatusUnauthorized, code: CodeUnauthorized},
		{err: errors.New("boom"), status: http.StatusInternalServerError, code: CodeInternal},
	}
	for _, tc := range cases {
		status, apiErr := ClassifyError(tc.err)
		if status != tc.status || apiErr.Code != tc.code {
			t.Fatalf("ClassifyError(%v) = %d %q, want %d %q", tc.err, status, apiErr.Code, tc.status, tc.code)
		}
	}
}
