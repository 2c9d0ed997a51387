package tui

// intentKind names what a board callback asked for.
type intentKind int

const (
	intentMove intentKind = iota
	intentOpen
)

// intent is one board callback, recorded during Update and turned into model
// changes or commands once the board method returns.
type intent struct {
	kind     intentKind
	page     page
	itemID   string
	columnID string
}

// intentQueue is shared by the model copies Bubble Tea passes around, so the
// callbacks captured by each board keep writing to the same queue.
type intentQueue struct {
	pending []intent
}

func (q *intentQueue) push(in intent) {
	q.pending = append(q.pending, in)
}

func (q *intentQueue) drain() []intent {
	out := q.pending
	q.pending = nil
	return out
}
