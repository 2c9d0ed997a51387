package kanban

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
)

const (
	laneGap       = 1
	minLaneWidth  = 22
	maxLaneWidth  = 44
	maxCardLines  = 3
	defaultHeight = 20
	// rounded border plus one cell of horizontal padding per side
	boxOverhead = 4
	// body rows per card when Options.CardLines is unset
	defaultCardLines = 2
)

// Style holds the color tokens the board paints with.
type Style struct {
	Border  string
	Title   string
	Focus   string
	Dragged string
	Muted   string
}

// DefaultStyle returns the stock palette.
func DefaultStyle() Style {
	return Style{
		Border:  "239",
		Title:   "252",
		Focus:   "212",
		Dragged: "214",
		Muted:   "241",
	}
}

// Rect is a cell rectangle in board-local coordinates.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether the cell x,y lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// CardBox is the drag handle of one rendered card.
type CardBox struct {
	ItemID string
	Rect   Rect
}

// LaneBox is the drop surface of one rendered column.
type LaneBox struct {
	ColumnID string
	Rect     Rect
	Cards    []CardBox
	// Above and Below count cards scrolled out of view.
	Above int
	Below int
}

// Layout is the geometry of one render pass.
type Layout struct {
	Lanes     []LaneBox
	LaneWidth int
	Height    int
}

// ColumnAt returns the column whose drop surface contains x,y.
func (l Layout) ColumnAt(x, y int) (string, bool) {
	for _, lane := range l.Lanes {
		if lane.Rect.Contains(x, y) {
			return lane.ColumnID, true
		}
	}
	return "", false
}

// CardAt returns the card drawn at x,y.
func (l Layout) CardAt(x, y int) (string, bool) {
	for _, lane := range l.Lanes {
		if !lane.Rect.Contains(x, y) {
			continue
		}
		for _, card := range lane.Cards {
			if card.Rect.Contains(x, y) {
				return card.ItemID, true
			}
		}
	}
	return "", false
}

// Layout computes where every visible lane and card sits for the current
// props and size.
func (b Board[T]) Layout() Layout {
	return b.compose(false).layout
}

// View renders the board. With no columns it renders nothing.
func (b Board[T]) View() string {
	return b.compose(true).view
}

type frame struct {
	layout Layout
	view   string
}

func (b Board[T]) compose(paint bool) frame {
	lanes := Partition(b.columns, b.items)
	if len(lanes) == 0 {
		return frame{}
	}
	height := b.height
	if height <= 0 {
		height = defaultHeight
	}
	laneWidth := laneWidthFor(b.width, len(lanes), b.maxLane)
	first, last := visibleRange(b.width, laneWidth, len(lanes), b.focus.col)

	out := frame{layout: Layout{LaneWidth: laneWidth, Height: height}}
	views := make([]string, 0, last-first)
	for i := first; i < last; i++ {
		x := (i - first) * (laneWidth + laneGap)
		box, view := b.composeLane(lanes[i], i, x, laneWidth, height, paint)
		out.layout.Lanes = append(out.layout.Lanes, box)
		if paint {
			views = append(views, view)
		}
	}
	if paint {
		out.view = joinLanes(views, height)
	}
	return out
}

func (b Board[T]) composeLane(lane Lane[T], col, x, laneWidth, height int, paint bool) (LaneBox, string) {
	inner := laneWidth - boxOverhead
	cardInner := max(1, inner-boxOverhead)
	box := LaneBox{
		ColumnID: lane.Column.ID,
		Rect:     Rect{X: x, Y: 0, W: laneWidth, H: height},
	}

	// Every card is the same height, so geometry never needs the renderer.
	rows := b.cardRows()
	cardH := rows + 2
	count := len(lane.Items)

	// Rows left for cards once the border and title line are drawn.
	avail := max(0, height-3)
	start := 0
	if col == b.focus.col {
		start = scrollStart(count, b.focus.row, cardH, avail)
	}
	end := start
	for end < count && (end-start+1)*cardH <= avail {
		end++
	}
	if end < count && (end-start)*cardH+1 > avail && end > start {
		end--
	}
	box.Above = start
	box.Below = count - end
	for i := start; i < end; i++ {
		box.Cards = append(box.Cards, CardBox{
			ItemID: lane.Items[i].CardID(),
			Rect: Rect{
				X: x + 1,
				Y: 2 + (i-start)*cardH,
				W: laneWidth - 2,
				H: cardH,
			},
		})
	}
	if !paint {
		return box, ""
	}

	accent := colorToken(lane.Column.Color, b.style.Title)
	title := fmt.Sprintf("%s (%d)", lane.Column.Title, len(lane.Items))
	if box.Above > 0 {
		title += fmt.Sprintf(" ↑%d", box.Above)
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(accent))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(b.style.Muted))

	lines := []string{titleStyle.Render(ansi.Truncate(title, inner, "…"))}
	if len(lane.Items) == 0 {
		lines = append(lines, mutedStyle.Render("(empty)"))
	}
	for i := start; i < end; i++ {
		item := lane.Items[i]
		cardStyle := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(b.style.Border)).
			Padding(0, 1)
		switch {
		case item.CardID() == b.drag.DraggedItemID():
			cardStyle = cardStyle.Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color(b.style.Dragged))
		case col == b.focus.col && i == b.focus.row:
			cardStyle = cardStyle.BorderForeground(lipgloss.Color(b.style.Focus))
		}
		body := cardLines(b.renderBody(item), cardInner, rows)
		for j, line := range body {
			body[j] = padRight(line, cardInner)
		}
		lines = append(lines, strings.Split(cardStyle.Render(strings.Join(body, "\n")), "\n")...)
	}
	if box.Below > 0 {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("+%d more", box.Below)))
	}
	for len(lines) < height-2 {
		lines = append(lines, "")
	}
	if len(lines) > height-2 {
		lines = lines[:max(0, height-2)]
	}
	for i := range lines {
		lines[i] = padRight(lines[i], inner)
	}

	laneStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(b.style.Border)).
		Padding(0, 1)
	if b.drag.HoveredColumnID() == lane.Column.ID {
		laneStyle = laneStyle.Border(lipgloss.ThickBorder()).BorderForeground(lipgloss.Color(accent))
	}
	return box, laneStyle.Render(strings.Join(lines, "\n"))
}

func (b Board[T]) renderBody(item T) string {
	if b.render == nil {
		return item.CardID()
	}
	return b.render(item)
}

func (b Board[T]) cardRows() int {
	if b.cardLines <= 0 {
		return defaultCardLines
	}
	return min(b.cardLines, maxCardLines)
}

// cardLines fits a card body into exactly rows lines of width cells.
func cardLines(body string, width, rows int) []string {
	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	if len(lines) > rows {
		lines = lines[:rows]
		lines[rows-1] = ansi.Truncate(lines[rows-1], max(0, width-1), "") + "…"
	}
	for i, line := range lines {
		lines[i] = ansi.Truncate(line, width, "…")
	}
	for len(lines) < rows {
		lines = append(lines, "")
	}
	return lines
}

// scrollStart picks the first card to draw so the focused row fits.
func scrollStart(count, row, cardH, avail int) int {
	if row <= 0 || row >= count {
		return 0
	}
	span := func(from int) int {
		total := (row - from + 1) * cardH
		if row < count-1 {
			total++
		}
		return total
	}
	start := 0
	for start < row && span(start) > avail {
		start++
	}
	return start
}

func laneWidthFor(width, lanes, limit int) int {
	hi := maxLaneWidth
	if limit > 0 {
		hi = limit
	}
	lo := min(minLaneWidth, hi)
	if width <= 0 || lanes == 0 {
		return min(30, hi)
	}
	return clamp((width-laneGap*(lanes-1))/lanes, lo, hi)
}

// visibleRange returns the half-open range of lanes that fit in width while
// keeping the focused lane on screen.
func visibleRange(width, laneWidth, lanes, focusCol int) (int, int) {
	if width <= 0 {
		return 0, lanes
	}
	fit := max(1, (width+laneGap)/(laneWidth+laneGap))
	if fit >= lanes {
		return 0, lanes
	}
	first := 0
	if focusCol >= fit {
		first = focusCol - fit + 1
	}
	first = clamp(first, 0, lanes-fit)
	return first, first + fit
}

func joinLanes(views []string, height int) string {
	if len(views) == 0 {
		return ""
	}
	spacer := strings.TrimSuffix(strings.Repeat(strings.Repeat(" ", laneGap)+"\n", height), "\n")
	parts := make([]string, 0, len(views)*2-1)
	for i, view := range views {
		if i > 0 {
			parts = append(parts, spacer)
		}
		parts = append(parts, view)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func padRight(s string, width int) string {
	w := ansi.StringWidth(s)
	switch {
	case w > width:
		return ansi.Truncate(s, width, "")
	case w < width:
		return s + strings.Repeat(" ", width-w)
	default:
		return s
	}
}

// namedColors maps the column color tokens used by the dashboard to ANSI 256
// codes. Any other token is handed to lipgloss unchanged.
var namedColors = map[string]string{
	"gray":   "245",
	"blue":   "69",
	"teal":   "37",
	"green":  "71",
	"yellow": "178",
	"orange": "208",
	"red":    "203",
	"pink":   "205",
	"purple": "141",
}

func colorToken(token, fallback string) string {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return fallback
	}
	if code, ok := namedColors[token]; ok {
		return code
	}
	return token
}
