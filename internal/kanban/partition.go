package kanban

// Item is the part of a caller record the board reads. Everything else is
// payload that only the card renderer looks at.
type Item interface {
	CardID() string
	CardStatus() string
}

// Lane is one column together with the items currently in it.
type Lane[T Item] struct {
	Column Column
	Items  []T
}

// Partition groups items under the column whose ID equals the item status.
// Lanes follow the order of columns and items keep their input order inside a
// lane. Items whose status matches no column appear in no lane.
func Partition[T Item](columns []Column, items []T) []Lane[T] {
	if len(columns) == 0 {
		return nil
	}
	groups := groupByStatus(items)
	lanes := make([]Lane[T], 0, len(columns))
	for _, column := range columns {
		indexes := groups[column.ID]
		lane := Lane[T]{
			Column: column,
			Items:  make([]T, 0, len(indexes)),
		}
		for _, idx := range indexes {
			lane.Items = append(lane.Items, items[idx])
		}
		lanes = append(lanes, lane)
	}
	return lanes
}

// Hidden returns the items whose status matches none of columns, in input order.
func Hidden[T Item](columns []Column, items []T) []T {
	known := make(map[string]struct{}, len(columns))
	for _, column := range columns {
		known[column.ID] = struct{}{}
	}
	var out []T
	for _, item := range items {
		if _, ok := known[item.CardStatus()]; !ok {
			out = append(out, item)
		}
	}
	return out
}

// groupByStatus maps each status to the ascending indexes of its items.
func groupByStatus[T Item](items []T) map[string][]int {
	groups := make(map[string][]int)
	for idx, item := range items {
		status := item.CardStatus()
		groups[status] = append(groups[status], idx)
	}
	return groups
}
