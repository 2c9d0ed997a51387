package kanban

// Phase names the legal states of a drag.
type Phase int

// Phase values.
const (
	PhaseIdle Phase = iota
	PhaseDragging
	PhaseHovering
)

// String returns a readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDragging:
		return "dragging"
	case PhaseHovering:
		return "hovering"
	default:
		return "unknown"
	}
}

// Move is a completed drop that the caller has to persist.
type Move struct {
	ItemID   string
	ColumnID string
}

// DragState is the ephemeral drag view-state of one board. The zero value is
// idle. A hovered column is only ever recorded while an item is dragged.
type DragState struct {
	itemID   string
	columnID string
}

// Phase reports the current state.
func (s DragState) Phase() Phase {
	switch {
	case s.itemID == "":
		return PhaseIdle
	case s.columnID == "":
		return PhaseDragging
	default:
		return PhaseHovering
	}
}

// DraggedItemID returns the dragged item id, or "" when idle.
func (s DragState) DraggedItemID() string {
	return s.itemID
}

// HoveredColumnID returns the hovered column id, or "" when none is hovered.
func (s DragState) HoveredColumnID() string {
	return s.columnID
}

// Begin starts dragging itemID, discarding any drag already in flight.
func (s *DragState) Begin(itemID string) bool {
	if itemID == "" {
		return false
	}
	*s = DragState{itemID: itemID}
	return true
}

// Enter marks columnID as the hovered drop target. The previous target, if
// any, stops being hovered. Ignored while idle.
func (s *DragState) Enter(columnID string) bool {
	if s.itemID == "" || columnID == "" {
		return false
	}
	s.columnID = columnID
	return true
}

// Leave clears the hover when columnID is the hovered column. The drag itself
// stays in progress.
func (s *DragState) Leave(columnID string) {
	if columnID != "" && s.columnID == columnID {
		s.columnID = ""
	}
}

// Drop ends the drag over columnID. It reports a move when an item was being
// dragged. The state is idle afterwards either way.
func (s *DragState) Drop(columnID string) (Move, bool) {
	itemID := s.itemID
	*s = DragState{}
	if itemID == "" || columnID == "" {
		return Move{}, false
	}
	return Move{ItemID: itemID, ColumnID: columnID}, true
}

// Cancel ends the drag without a move.
func (s *DragState) Cancel() {
	*s = DragState{}
}
