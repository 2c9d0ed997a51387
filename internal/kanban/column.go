package kanban

import (
	"cmp"
	"slices"
)

// Column is one status bucket and drop target on a board.
type Column struct {
	ID         string
	Title      string
	Color      string
	OrderIndex int
}

// SortColumns returns a copy of columns in left-to-right display order.
// Columns that share an order index keep their input order.
func SortColumns(columns []Column) []Column {
	out := slices.Clone(columns)
	slices.SortStableFunc(out, func(a, b Column) int {
		return cmp.Compare(a.OrderIndex, b.OrderIndex)
	})
	return out
}

// columnIndex returns the index of the column with id, or -1.
func columnIndex(columns []Column, id string) int {
	for i, column := range columns {
		if column.ID == id {
			return i
		}
	}
	return -1
}
