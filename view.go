package routine

import "sort"

// View is the read-only projection of a graph consumed by a presentation
// layer.
type View struct {
	// Columns holds placed nodes grouped by column in ascending column
	// order, each column sorted by row. Empty columns are omitted.
	Columns [][]Node `json:"columns"`
	// OffGraph holds unplaced nodes in input order.
	OffGraph []Node          `json:"off_graph"`
	ByID     map[string]Node `json:"-"`
}

// NewView builds the projection of nodes.
func NewView(nodes []Node) View {
	v := View{
		Columns:  [][]Node{},
		OffGraph: []Node{},
		ByID:     make(map[string]Node, len(nodes)),
	}
	byColumn := make(map[int][]Node)
	for _, n := range nodes {
		n = n.clone()
		v.ByID[n.ID] = n
		c, _, ok := n.Position()
		if !ok {
			v.OffGraph = append(v.OffGraph, n)
			continue
		}
		byColumn[c] = append(byColumn[c], n)
	}
	cols := make([]int, 0, len(byColumn))
	for c := range byColumn {
		cols = append(cols, c)
	}
	sort.Ints(cols)
	for _, c := range cols {
		col := byColumn[c]
		sort.SliceStable(col, func(a, b int) bool {
			return *col[a].RowIndex < *col[b].RowIndex
		})
		v.Columns = append(v.Columns, col)
	}
	return v
}
