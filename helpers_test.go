package routine

// --- helpers ---

func placed(id string, t NodeType, col, row int) Node {
	n := Node{ID: id, Type: t, Data: DefaultData(t)}
	n.Place(col, row)
	return n
}

func unplaced(id string, t NodeType) Node {
	return Node{ID: id, Type: t, Data: DefaultData(t)}
}

func link(id, from, to string) Link {
	return Link{ID: id, FromID: from, ToID: to}
}

// pairs reduces links to "from->to" strings.
func pairs(links []Link) []string {
	out := make([]string, 0, len(links))
	for _, l := range links {
		out = append(out, l.FromID+"->"+l.ToID)
	}
	return out
}

func findNode(t interface{ Fatalf(string, ...any) }, nodes []Node, id string) Node {
	for _, n := range nodes {
		if n.ID == id {
			return n
		}
	}
	t.Fatalf("node %q not found", id)
	return Node{}
}

// minimal is Start(0,0) -> RoutineList(1,0) -> End(2,0).
func minimal() ([]Node, []Link) {
	return []Node{
			placed("start", NodeStart, 0, 0),
			placed("a", NodeRoutineList, 1, 0),
			placed("end", NodeEnd, 2, 0),
		}, []Link{
			link("l1", "start", "a"),
			link("l2", "a", "end"),
		}
}
