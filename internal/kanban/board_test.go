package kanban

import (
	"fmt"
	"slices"
	"strings"
	"testing"
)

type recorder struct {
	moves   []Move
	clicks  []card
	renders int
}

func newTestBoard(rec *recorder) Board[card] {
	b := New(Options[card]{
		OnMoveCard: func(itemID, columnID string) {
			rec.moves = append(rec.moves, Move{ItemID: itemID, ColumnID: columnID})
		},
		OnCardClick: func(item card) {
			rec.clicks = append(rec.clicks, item)
		},
		RenderCard: func(item card) string {
			rec.renders++
			return item.title
		},
	})
	b.SetColumns([]Column{
		{ID: "todo", Title: "To do", Color: "blue"},
		{ID: "done", Title: "Done", Color: "green"},
	})
	b.SetItems([]card{
		{id: "a", status: "todo", title: "Alpha"},
		{id: "b", status: "done", title: "Bravo"},
		{id: "c", status: "unknown", title: "Charlie"},
	})
	b.SetSize(100, 20)
	return b
}

func TestBoardDragLifecycleMovesOnce(t *testing.T) {
	rec := &recorder{}
	b := newTestBoard(rec)

	if !b.DragStart("a") {
		t.Fatal("expected drag to start on a visible card")
	}
	b.DragEnter("done")
	b.DropOn("done")
	b.DragEnd()

	if !slices.Equal(rec.moves, []Move{{ItemID: "a", ColumnID: "done"}}) {
		t.Fatalf("expected exactly one move, got %#v", rec.moves)
	}
	if b.Drag().Phase() != PhaseIdle {
		t.Fatalf("expected idle after drop, got %s", b.Drag().Phase())
	}
	if len(rec.clicks) != 0 {
		t.Fatalf("drop must not click, got %#v", rec.clicks)
	}
}

func TestBoardCancelledDragNeverMoves(t *testing.T) {
	rec := &recorder{}
	b := newTestBoard(rec)

	b.DragStart("a")
	b.DragEnter("done")
	b.DragEnd()

	if len(rec.moves) != 0 {
		t.Fatalf("expected no moves, got %#v", rec.moves)
	}
	if b.Drag().Phase() != PhaseIdle {
		t.Fatalf("expected idle, got %s", b.Drag().Phase())
	}
}

func TestBoardReentrantHoverMarksLatestColumn(t *testing.T) {
	rec := &recorder{}
	b := newTestBoard(rec)

	b.DragStart("a")
	b.DragEnter("todo")
	b.DragEnter("done")
	if got := b.Drag().HoveredColumnID(); got != "done" {
		t.Fatalf("expected done hovered, got %q", got)
	}
	b.DragLeave("done")
	b.DragEnter("todo")
	if got := b.Drag().HoveredColumnID(); got != "todo" {
		t.Fatalf("expected todo hovered, got %q", got)
	}
	if len(rec.moves) != 0 {
		t.Fatalf("hover must not move, got %#v", rec.moves)
	}
}

func TestBoardClickReportsFullItem(t *testing.T) {
	rec := &recorder{}
	b := newTestBoard(rec)

	if !b.Click("b") {
		t.Fatal("expected click on visible card")
	}
	if len(rec.clicks) != 1 || rec.clicks[0] != (card{id: "b", status: "done", title: "Bravo"}) {
		t.Fatalf("unexpected clicks %#v", rec.clicks)
	}
	if len(rec.moves) != 0 {
		t.Fatalf("click must not move, got %#v", rec.moves)
	}
	if b.Click("c") {
		t.Fatal("hidden card must not be clickable")
	}
}

func TestBoardDoesNotMoveItemsSpeculatively(t *testing.T) {
	rec := &recorder{}
	b := newTestBoard(rec)

	b.DragStart("a")
	b.DropOn("done")

	lanes := b.Lanes()
	if got := laneIDs(lanes[0]); !slices.Equal(got, []string{"a"}) {
		t.Fatalf("expected a to stay under todo until props change, got %#v", got)
	}
	if got := laneIDs(lanes[1]); !slices.Equal(got, []string{"b"}) {
		t.Fatalf("unexpected done lane %#v", got)
	}
}

func TestBoardDropOnOriginColumnStillReports(t *testing.T) {
	rec := &recorder{}
	b := newTestBoard(rec)

	b.DragStart("a")
	b.DragEnter("todo")
	b.DropOn("todo")
	if !slices.Equal(rec.moves, []Move{{ItemID: "a", ColumnID: "todo"}}) {
		t.Fatalf("expected origin drop to be reported, got %#v", rec.moves)
	}
}

func TestBoardRejectsDragOfHiddenItem(t *testing.T) {
	rec := &recorder{}
	b := newTestBoard(rec)
	if b.DragStart("c") {
		t.Fatal("expected drag of hidden item to be rejected")
	}
	if b.DropOn("done") {
		t.Fatal("drop without drag must not report")
	}
	if len(rec.moves) != 0 {
		t.Fatalf("unexpected moves %#v", rec.moves)
	}
}

func TestBoardStepHoverWalksColumns(t *testing.T) {
	rec := &recorder{}
	b := newTestBoard(rec)

	b.DragStart("a")
	if !b.StepHover(1) || b.Drag().HoveredColumnID() != "done" {
		t.Fatalf("expected done hovered, got %q", b.Drag().HoveredColumnID())
	}
	b.StepHover(1)
	if b.Drag().HoveredColumnID() != "done" {
		t.Fatalf("expected hover clamped at done, got %q", b.Drag().HoveredColumnID())
	}
	b.StepHover(-1)
	if b.Drag().HoveredColumnID() != "todo" {
		t.Fatalf("expected todo hovered, got %q", b.Drag().HoveredColumnID())
	}
}

func TestBoardFocusFollowsProps(t *testing.T) {
	rec := &recorder{}
	b := newTestBoard(rec)

	b.MoveFocus(1, 0)
	item, ok := b.FocusedItem()
	if !ok || item.id != "b" {
		t.Fatalf("expected b focused, got %#v %t", item, ok)
	}
	b.SetItems(nil)
	if _, ok := b.FocusedItem(); ok {
		t.Fatal("expected no focused item on an empty board")
	}
	if column, ok := b.FocusedColumn(); !ok || column.ID != "done" {
		t.Fatalf("expected done column focused, got %#v", column)
	}
}

func TestBoardViewRendersVisibleCardsOnce(t *testing.T) {
	rec := &recorder{}
	b := newTestBoard(rec)

	view := b.View()
	if rec.renders != 2 {
		t.Fatalf("expected one render per visible card, got %d", rec.renders)
	}
	for _, want := range []string{"To do (1)", "Done (1)", "Alpha", "Bravo"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view\n%s", want, view)
		}
	}
	if strings.Contains(view, "Charlie") {
		t.Fatalf("hidden card rendered\n%s", view)
	}
}

func TestBoardRendersOnlyCardsOnScreen(t *testing.T) {
	renders := 0
	b := New(Options[card]{RenderCard: func(item card) string {
		renders++
		return item.title
	}})
	b.SetColumns([]Column{{ID: "todo", Title: "To do"}})
	items := make([]card, 0, 12)
	for i := range 12 {
		items = append(items, card{id: fmt.Sprintf("c%02d", i), status: "todo", title: fmt.Sprintf("Card %02d", i)})
	}
	b.SetItems(items)
	b.SetSize(60, 12)

	lane := b.Layout().Lanes[0]
	if renders != 0 {
		t.Fatalf("layout must not call the renderer, got %d calls", renders)
	}
	if len(lane.Cards) != 2 || lane.Above != 0 || lane.Below != 10 {
		t.Fatalf("expected two cards on screen and ten below, got %d cards above=%d below=%d", len(lane.Cards), lane.Above, lane.Below)
	}

	view := b.View()
	if renders != 2 {
		t.Fatalf("expected one render per card on screen, got %d", renders)
	}
	if !strings.Contains(view, "Card 01") || strings.Contains(view, "Card 02") {
		t.Fatalf("unexpected cards in view\n%s", view)
	}

	renders = 0
	if !b.FocusItem("c11") {
		t.Fatal("expected focus on the last card")
	}
	view = b.View()
	if renders != 2 {
		t.Fatalf("expected two renders after scrolling, got %d", renders)
	}
	if !strings.Contains(view, "Card 11") || strings.Contains(view, "Card 00") {
		t.Fatalf("expected the lane scrolled to the focused card\n%s", view)
	}
	if lane := b.Layout().Lanes[0]; lane.Above != 10 || lane.Cards[1].ItemID != "c11" {
		t.Fatalf("unexpected scrolled lane %#v", lane)
	}
}

func TestBoardCardLinesFixCardHeight(t *testing.T) {
	b := New(Options[card]{CardLines: 3, RenderCard: func(item card) string { return item.title }})
	b.SetColumns([]Column{{ID: "todo", Title: "To do"}})
	b.SetItems([]card{
		{id: "short", status: "todo", title: "Alpha"},
		{id: "long", status: "todo", title: "One\nTwo\nThree\nFour"},
	})
	b.SetSize(80, 30)

	for _, box := range b.Layout().Lanes[0].Cards {
		if box.Rect.H != 5 {
			t.Fatalf("expected card %q to be 5 rows, got %d", box.ItemID, box.Rect.H)
		}
	}
	view := b.View()
	if !strings.Contains(view, "Three…") || strings.Contains(view, "Four") {
		t.Fatalf("expected the long body cut after three rows\n%s", view)
	}
}

func TestBoardViewWithoutColumnsIsEmpty(t *testing.T) {
	b := New(Options[card]{})
	b.SetItems([]card{{id: "a", status: "todo"}})
	if view := b.View(); view != "" {
		t.Fatalf("expected empty view, got %q", view)
	}
	if layout := b.Layout(); len(layout.Lanes) != 0 {
		t.Fatalf("expected empty layout, got %#v", layout)
	}
}

func TestBoardViewHighlightsHoveredColumn(t *testing.T) {
	rec := &recorder{}
	b := newTestBoard(rec)
	if strings.Contains(b.View(), "┏") {
		t.Fatal("no column should be highlighted while idle")
	}
	b.DragStart("a")
	b.DragEnter("done")
	if !strings.Contains(b.View(), "┏") {
		t.Fatal("expected hovered column to use the thick border")
	}
}

func TestBoardLaneWidthCap(t *testing.T) {
	b := New(Options[card]{RenderCard: func(item card) string { return item.title }})
	b.SetMaxLaneWidth(28)
	b.SetColumns([]Column{{ID: "todo", Title: "To do"}, {ID: "done", Title: "Done"}})
	b.SetSize(100, 20)
	if got := b.Layout().LaneWidth; got != 28 {
		t.Fatalf("expected capped lane width 28, got %d", got)
	}

	uncapped := newTestBoard(&recorder{})
	if got := uncapped.Layout().LaneWidth; got != maxLaneWidth {
		t.Fatalf("expected default cap %d, got %d", maxLaneWidth, got)
	}
}
