package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/evanschultz/leadboard/internal/domain"
	"github.com/evanschultz/leadboard/internal/kanban"
)

// BoardView is a board partitioned into lanes the same way the terminal board
// renders it.
type BoardView struct {
	Board domain.Board
	Lanes []LaneView
	// Hidden counts live cards whose status matches no live column.
	Hidden int
}

// LaneView is one column and its cards.
type LaneView struct {
	Column domain.Column
	Cards  []CardView
}

// CardView is the display summary of a lead or task.
type CardView struct {
	ID       string
	Kind     domain.CardKind
	Status   string
	Title    string
	Subtitle string
}

// KanbanColumns converts stored columns into board columns.
func KanbanColumns(columns []domain.Column) []kanban.Column {
	out := make([]kanban.Column, 0, len(columns))
	for _, column := range columns {
		out = append(out, kanban.Column{
			ID:         column.ID,
			Title:      column.Title,
			Color:      column.Color,
			OrderIndex: column.OrderIndex,
		})
	}
	return kanban.SortColumns(out)
}

// BoardView partitions the live cards of a board across its live columns.
func (s *Service) BoardView(ctx context.Context, boardID string) (BoardView, error) {
	board, err := s.repo.GetBoard(ctx, boardID)
	if err != nil {
		return BoardView{}, err
	}
	columns, err := s.ListColumns(ctx, board.ID, false)
	if err != nil {
		return BoardView{}, err
	}

	view := BoardView{Board: board}
	switch board.Kind {
	case domain.BoardKindLeads:
		leads, err := s.repo.ListLeads(ctx, board.ID, false)
		if err != nil {
			return BoardView{}, err
		}
		view.Lanes, view.Hidden = buildLanes(columns, leads, LeadCard)
	case domain.BoardKindTasks:
		tasks, err := s.repo.ListTasks(ctx, board.ID, false)
		if err != nil {
			return BoardView{}, err
		}
		view.Lanes, view.Hidden = buildLanes(columns, tasks, TaskCard)
	default:
		return BoardView{}, domain.ErrInvalidBoardKind
	}
	return view, nil
}

func buildLanes[T kanban.Item](columns []domain.Column, items []T, summarize func(T) CardView) ([]LaneView, int) {
	byID := make(map[string]domain.Column, len(columns))
	for _, column := range columns {
		byID[column.ID] = column
	}
	boardColumns := KanbanColumns(columns)
	lanes := make([]LaneView, 0, len(columns))
	for _, lane := range kanban.Partition(boardColumns, items) {
		out := LaneView{
			Column: byID[lane.Column.ID],
			Cards:  make([]CardView, 0, len(lane.Items)),
		}
		for _, item := range lane.Items {
			out.Cards = append(out.Cards, summarize(item))
		}
		lanes = append(lanes, out)
	}
	return lanes, len(kanban.Hidden(boardColumns, items))
}

// LeadCard summarizes a lead for display.
func LeadCard(lead domain.Lead) CardView {
	parts := make([]string, 0, 2)
	if lead.Company != "" {
		parts = append(parts, lead.Company)
	}
	if lead.ValueCents > 0 {
		parts = append(parts, FormatMoney(lead.ValueCents))
	}
	return CardView{
		ID:       lead.ID,
		Kind:     domain.CardKindLead,
		Status:   lead.Status,
		Title:    lead.Name,
		Subtitle: strings.Join(parts, " · "),
	}
}

// TaskCard summarizes a task for display.
func TaskCard(task domain.Task) CardView {
	parts := []string{string(task.Priority)}
	if task.DueAt != nil {
		parts = append(parts, "due "+task.DueAt.Local().Format(time.DateOnly))
	}
	return CardView{
		ID:       task.ID,
		Kind:     domain.CardKindTask,
		Status:   task.Status,
		Title:    task.Title,
		Subtitle: strings.Join(parts, " · "),
	}
}

// FormatMoney renders an amount in cents with thousands separators.
func FormatMoney(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := fmt.Sprintf("%d", cents/100)
	var sb strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(r)
	}
	return fmt.Sprintf("%s$%s.%02d", sign, sb.String(), cents%100)
}
