package routine

// cloneNodes deep-copies the position pointers of nodes.
func cloneNodes(nodes []Node) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.clone()
	}
	return out
}

func indexOfNode(nodes []Node, id string) int {
	for i := range nodes {
		if nodes[i].ID == id {
			return i
		}
	}
	return -1
}

// ResetLayout returns a copy of nodes with every position cleared.
func ResetLayout(nodes []Node) []Node {
	out := cloneNodes(nodes)
	for i := range out {
		out[i].Unplace()
	}
	return out
}

// normalizePositions clears the coordinates of nodes that are not Placed so
// partial or out-of-range positions never reach storage.
func normalizePositions(nodes []Node) {
	for i := range nodes {
		if !nodes[i].Placed() && (nodes[i].ColumnIndex != nil || nodes[i].RowIndex != nil) {
			nodes[i].Unplace()
		}
	}
}

// vacate unplaces nodes[idx] in place, closes the row gap it leaves in its
// column and compacts the column away if it became empty. It reports the
// column that was removed, or -1.
func vacate(nodes []Node, idx int) int {
	col, row, ok := nodes[idx].Position()
	if !ok {
		return -1
	}
	nodes[idx].Unplace()

	empty := true
	for i := range nodes {
		c, r, ok := nodes[i].Position()
		if !ok || c != col {
			continue
		}
		empty = false
		if r > row {
			*nodes[i].RowIndex = r - 1
		}
	}
	if !empty {
		return -1
	}
	for i := range nodes {
		if c, _, ok := nodes[i].Position(); ok && c > col {
			*nodes[i].ColumnIndex = c - 1
		}
	}
	return col
}

// MoveNode returns a copy of nodes with nodeID placed at (column, row).
// The node first leaves its current slot (see vacate); if the target slot is
// taken, the occupant and everything below it in that column move down one
// row. Targets past the last column or row are pulled in so no gap opens.
// ok is false when the node does not exist or the target is out of range.
func MoveNode(nodes []Node, nodeID string, column, row int) (out []Node, ok bool) {
	if !inRange(column) || !inRange(row) {
		return nil, false
	}
	idx := indexOfNode(nodes, nodeID)
	if idx < 0 {
		return nil, false
	}
	out = cloneNodes(nodes)

	if removed := vacate(out, idx); removed >= 0 && column > removed {
		column--
	}
	// Keep the grid dense: no empty columns or rows are created by a drop.
	if n := columnCount(out); column > n {
		column = n
	}
	if n := rowCount(out, column); row > n {
		row = n
	}

	occupied := false
	for i := range out {
		if c, r, ok := out[i].Position(); ok && c == column && r == row {
			occupied = true
			break
		}
	}
	if occupied {
		for i := range out {
			if c, r, ok := out[i].Position(); ok && c == column && r >= row {
				*out[i].RowIndex = r + 1
			}
		}
	}
	out[idx].Place(column, row)
	return out, true
}

// columnCount is one past the highest placed column index.
func columnCount(nodes []Node) int {
	n := 0
	for _, node := range nodes {
		if c, _, ok := node.Position(); ok && c+1 > n {
			n = c + 1
		}
	}
	return n
}

// rowCount is the number of placed nodes in column.
func rowCount(nodes []Node, column int) int {
	n := 0
	for _, node := range nodes {
		if c, _, ok := node.Position(); ok && c == column {
			n++
		}
	}
	return n
}
