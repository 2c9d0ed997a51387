package kanban

// pointerPress remembers a button press until it turns into a drag or a click.
type pointerPress struct {
	active bool
	itemID string
	moved  bool
}

// PointerDown records a press at board-local x,y. Only presses on a card can
// become a drag or a click.
func (b *Board[T]) PointerDown(x, y int) {
	b.press = pointerPress{}
	itemID, ok := b.Layout().CardAt(x, y)
	if !ok {
		return
	}
	b.press = pointerPress{active: true, itemID: itemID}
}

// PointerMove handles motion with the button held. The first motion after a
// press on a card starts the drag; later motion tracks the hovered column.
func (b *Board[T]) PointerMove(x, y int) {
	if !b.press.active && b.drag.Phase() == PhaseIdle {
		return
	}
	if b.drag.Phase() == PhaseIdle {
		if !b.DragStart(b.press.itemID) {
			b.press = pointerPress{}
			return
		}
		b.press = pointerPress{active: true, itemID: b.drag.DraggedItemID(), moved: true}
	}
	b.press.moved = true

	columnID, over := b.Layout().ColumnAt(x, y)
	hovered := b.drag.HoveredColumnID()
	switch {
	case over && columnID != hovered:
		b.DragEnter(columnID)
	case !over && hovered != "":
		b.DragLeave(hovered)
	}
}

// PointerUp ends a gesture. A drag drops on the column under the pointer or
// is cancelled when released anywhere else. A press that never moved and is
// released on the same card is a click.
func (b *Board[T]) PointerUp(x, y int) {
	press := b.press
	b.press = pointerPress{}
	layout := b.Layout()

	if b.drag.Phase() != PhaseIdle {
		if columnID, ok := layout.ColumnAt(x, y); ok {
			b.DropOn(columnID)
			return
		}
		b.DragEnd()
		return
	}
	if !press.active || press.moved {
		return
	}
	if itemID, ok := layout.CardAt(x, y); ok && itemID == press.itemID {
		b.Click(itemID)
	}
}

// PointerCancel aborts any gesture in progress.
func (b *Board[T]) PointerCancel() {
	b.press = pointerPress{}
	b.DragEnd()
}
