package kanban

import (
	"slices"
	"testing"
)

func cardRect(t *testing.T, b Board[card], itemID string) Rect {
	t.Helper()
	for _, lane := range b.Layout().Lanes {
		for _, box := range lane.Cards {
			if box.ItemID == itemID {
				return box.Rect
			}
		}
	}
	t.Fatalf("card %q not laid out", itemID)
	return Rect{}
}

func laneRect(t *testing.T, b Board[card], columnID string) Rect {
	t.Helper()
	for _, lane := range b.Layout().Lanes {
		if lane.ColumnID == columnID {
			return lane.Rect
		}
	}
	t.Fatalf("lane %q not laid out", columnID)
	return Rect{}
}

func TestLayoutPlacesLanesSideBySide(t *testing.T) {
	b := newTestBoard(&recorder{})
	layout := b.Layout()
	if len(layout.Lanes) != 2 {
		t.Fatalf("expected 2 lanes, got %d", len(layout.Lanes))
	}
	first, second := layout.Lanes[0].Rect, layout.Lanes[1].Rect
	if first.X != 0 || second.X != first.W+laneGap {
		t.Fatalf("unexpected lane positions %#v %#v", first, second)
	}
	if id, ok := layout.ColumnAt(second.X+2, 5); !ok || id != "done" {
		t.Fatalf("expected done at second lane, got %q %t", id, ok)
	}
	if _, ok := layout.ColumnAt(first.W, 5); ok {
		t.Fatal("gap between lanes should not be a drop surface")
	}
}

func TestPointerClickWithoutMotionClicks(t *testing.T) {
	rec := &recorder{}
	b := newTestBoard(rec)
	r := cardRect(t, b, "a")

	b.PointerDown(r.X+1, r.Y+1)
	b.PointerUp(r.X+1, r.Y+1)

	if len(rec.clicks) != 1 || rec.clicks[0].id != "a" {
		t.Fatalf("expected click on a, got %#v", rec.clicks)
	}
	if len(rec.moves) != 0 {
		t.Fatalf("click must not move, got %#v", rec.moves)
	}
}

func TestPointerDragDropsOnColumnWithoutClicking(t *testing.T) {
	rec := &recorder{}
	b := newTestBoard(rec)
	r := cardRect(t, b, "a")
	target := laneRect(t, b, "done")

	b.PointerDown(r.X+1, r.Y+1)
	b.PointerMove(target.X+3, 6)
	if b.Drag().Phase() != PhaseHovering || b.Drag().HoveredColumnID() != "done" {
		t.Fatalf("expected hovering done, got %s %q", b.Drag().Phase(), b.Drag().HoveredColumnID())
	}
	b.PointerUp(target.X+3, 6)

	if !slices.Equal(rec.moves, []Move{{ItemID: "a", ColumnID: "done"}}) {
		t.Fatalf("expected one move, got %#v", rec.moves)
	}
	if len(rec.clicks) != 0 {
		t.Fatalf("drop must not click, got %#v", rec.clicks)
	}
	if b.Drag().Phase() != PhaseIdle {
		t.Fatalf("expected idle, got %s", b.Drag().Phase())
	}
}

func TestPointerReleaseOutsideColumnsCancels(t *testing.T) {
	rec := &recorder{}
	b := newTestBoard(rec)
	r := cardRect(t, b, "a")
	target := laneRect(t, b, "done")

	b.PointerDown(r.X+1, r.Y+1)
	b.PointerMove(target.X+3, 6)
	b.PointerMove(500, 6)
	if b.Drag().Phase() != PhaseDragging {
		t.Fatalf("leaving a column should keep the drag, got %s", b.Drag().Phase())
	}
	b.PointerUp(500, 6)

	if len(rec.moves) != 0 || len(rec.clicks) != 0 {
		t.Fatalf("expected no callbacks, got moves=%#v clicks=%#v", rec.moves, rec.clicks)
	}
	if b.Drag().Phase() != PhaseIdle {
		t.Fatalf("expected idle, got %s", b.Drag().Phase())
	}
}

func TestPointerDragBackToOriginColumnReportsMove(t *testing.T) {
	rec := &recorder{}
	b := newTestBoard(rec)
	r := cardRect(t, b, "a")

	b.PointerDown(r.X+1, r.Y+1)
	b.PointerMove(r.X+2, r.Y+1)
	b.PointerUp(r.X+2, r.Y+1)

	if !slices.Equal(rec.moves, []Move{{ItemID: "a", ColumnID: "todo"}}) {
		t.Fatalf("expected origin move, got %#v", rec.moves)
	}
	if len(rec.clicks) != 0 {
		t.Fatalf("drag gesture must not click, got %#v", rec.clicks)
	}
}

func TestPointerPressOutsideCardsDoesNothing(t *testing.T) {
	rec := &recorder{}
	b := newTestBoard(rec)
	target := laneRect(t, b, "done")

	b.PointerDown(target.X+3, target.H-2)
	b.PointerMove(2, 5)
	b.PointerUp(2, 5)
	if len(rec.moves) != 0 || len(rec.clicks) != 0 || b.Drag().Phase() != PhaseIdle {
		t.Fatalf("expected no gesture, got moves=%#v clicks=%#v phase=%s", rec.moves, rec.clicks, b.Drag().Phase())
	}
}

func TestPointerCancelAbortsDrag(t *testing.T) {
	rec := &recorder{}
	b := newTestBoard(rec)
	r := cardRect(t, b, "a")

	b.PointerDown(r.X+1, r.Y+1)
	b.PointerMove(r.X+2, r.Y+1)
	b.PointerCancel()
	b.PointerUp(r.X+2, r.Y+1)
	if len(rec.moves) != 0 || len(rec.clicks) != 0 {
		t.Fatalf("expected no callbacks, got moves=%#v clicks=%#v", rec.moves, rec.clicks)
	}
}
