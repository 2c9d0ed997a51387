package kanban

// Options configures a Board.
type Options[T Item] struct {
	// OnMoveCard receives every completed drop, including drops back onto the
	// column the item already sits in.
	OnMoveCard func(itemID, columnID string)
	// OnCardClick receives the full record of a clicked card.
	OnCardClick func(item T)
	// RenderCard produces the body of one card. It must not mutate item.
	// It runs only while painting, once per card on screen.
	RenderCard func(item T) string
	// CardLines is the number of body rows every card occupies, at most 3.
	// Zero means 2. Longer bodies are cut.
	CardLines int
	Style     Style
}

// Board lays out items in columns by status and turns pointer gestures into
// move and click intents. Columns and items are props: the board never edits
// them and shows whatever the caller supplied last.
type Board[T Item] struct {
	columns []Column
	items   []T

	onMove    func(itemID, columnID string)
	onClick   func(item T)
	render    func(item T) string
	style     Style
	maxLane   int
	cardLines int

	width  int
	height int

	drag  DragState
	press pointerPress
	focus focus
}

type focus struct {
	col int
	row int
}

// New builds an empty board.
func New[T Item](opts Options[T]) Board[T] {
	style := opts.Style
	if style == (Style{}) {
		style = DefaultStyle()
	}
	return Board[T]{
		onMove:    opts.OnMoveCard,
		onClick:   opts.OnCardClick,
		render:    opts.RenderCard,
		style:     style,
		cardLines: opts.CardLines,
	}
}

// SetColumns replaces the column prop. Columns render in the given order.
func (b *Board[T]) SetColumns(columns []Column) {
	b.columns = append([]Column(nil), columns...)
	b.clampFocus()
}

// SetItems replaces the item prop.
func (b *Board[T]) SetItems(items []T) {
	b.items = append([]T(nil), items...)
	b.clampFocus()
}

// SetMaxLaneWidth caps lane width in cells. Zero restores the default cap.
func (b *Board[T]) SetMaxLaneWidth(cells int) {
	b.maxLane = max(0, cells)
}

// SetSize sets the cell area the board renders into.
func (b *Board[T]) SetSize(width, height int) {
	b.width = width
	b.height = height
}

// Columns returns the current column prop.
func (b Board[T]) Columns() []Column {
	return append([]Column(nil), b.columns...)
}

// Lanes partitions the current props.
func (b Board[T]) Lanes() []Lane[T] {
	return Partition(b.columns, b.items)
}

// Drag returns a copy of the drag state.
func (b Board[T]) Drag() DragState {
	return b.drag
}

// DragStart begins dragging a visible item.
func (b *Board[T]) DragStart(itemID string) bool {
	if _, _, ok := b.findVisible(itemID); !ok {
		return false
	}
	b.press = pointerPress{}
	return b.drag.Begin(itemID)
}

// DragEnter marks a column as the hovered drop target.
func (b *Board[T]) DragEnter(columnID string) bool {
	if columnIndex(b.columns, columnID) < 0 {
		return false
	}
	return b.drag.Enter(columnID)
}

// DragLeave clears the hover indicator of columnID.
func (b *Board[T]) DragLeave(columnID string) {
	b.drag.Leave(columnID)
}

// DropOn finishes the drag over columnID and reports the move through
// OnMoveCard exactly once. A drop on an unknown column cancels the drag.
func (b *Board[T]) DropOn(columnID string) bool {
	if columnIndex(b.columns, columnID) < 0 {
		b.drag.Cancel()
		return false
	}
	move, ok := b.drag.Drop(columnID)
	if !ok {
		return false
	}
	if b.onMove != nil {
		b.onMove(move.ItemID, move.ColumnID)
	}
	return true
}

// DragEnd ends the drag without a move. Calling it after DropOn is a no-op.
func (b *Board[T]) DragEnd() {
	b.drag.Cancel()
}

// StepHover moves the hover indicator delta columns away from the hovered
// column, or from the dragged item's column when nothing is hovered.
func (b *Board[T]) StepHover(delta int) bool {
	if b.drag.Phase() == PhaseIdle || len(b.columns) == 0 {
		return false
	}
	from := columnIndex(b.columns, b.drag.HoveredColumnID())
	if from < 0 {
		col, _, ok := b.findVisible(b.drag.DraggedItemID())
		if !ok {
			return false
		}
		from = col
	}
	to := clamp(from+delta, 0, len(b.columns)-1)
	b.focus.col = to
	b.clampFocus()
	return b.DragEnter(b.columns[to].ID)
}

// Click reports a click on a visible card. Clicks during a drag are ignored.
func (b *Board[T]) Click(itemID string) bool {
	if b.drag.Phase() != PhaseIdle {
		return false
	}
	col, row, ok := b.findVisible(itemID)
	if !ok {
		return false
	}
	b.focus = focus{col: col, row: row}
	if b.onClick != nil {
		b.onClick(b.Lanes()[col].Items[row])
	}
	return true
}

// MoveFocus moves the keyboard cursor by whole columns and cards.
func (b *Board[T]) MoveFocus(dCol, dRow int) {
	b.focus.col += dCol
	b.focus.row += dRow
	b.clampFocus()
}

// FocusItem puts the cursor on itemID when it is visible.
func (b *Board[T]) FocusItem(itemID string) bool {
	col, row, ok := b.findVisible(itemID)
	if !ok {
		return false
	}
	b.focus = focus{col: col, row: row}
	return true
}

// FocusedColumn returns the column under the cursor.
func (b Board[T]) FocusedColumn() (Column, bool) {
	if len(b.columns) == 0 {
		return Column{}, false
	}
	return b.columns[clamp(b.focus.col, 0, len(b.columns)-1)], true
}

// FocusedItem returns the card under the cursor.
func (b Board[T]) FocusedItem() (T, bool) {
	var zero T
	lanes := b.Lanes()
	if len(lanes) == 0 {
		return zero, false
	}
	lane := lanes[clamp(b.focus.col, 0, len(lanes)-1)]
	if len(lane.Items) == 0 {
		return zero, false
	}
	return lane.Items[clamp(b.focus.row, 0, len(lane.Items)-1)], true
}

// findVisible locates itemID among the rendered lanes.
func (b Board[T]) findVisible(itemID string) (int, int, bool) {
	if itemID == "" {
		return 0, 0, false
	}
	for col, lane := range b.Lanes() {
		for row, item := range lane.Items {
			if item.CardID() == itemID {
				return col, row, true
			}
		}
	}
	return 0, 0, false
}

func (b *Board[T]) clampFocus() {
	if len(b.columns) == 0 {
		b.focus = focus{}
		return
	}
	b.focus.col = clamp(b.focus.col, 0, len(b.columns)-1)
	status := b.columns[b.focus.col].ID
	count := 0
	for _, item := range b.items {
		if item.CardStatus() == status {
			count++
		}
	}
	b.focus.row = clamp(b.focus.row, 0, max(0, count-1))
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
