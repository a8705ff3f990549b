package routine

import (
	"fmt"

	"github.com/google/uuid"
)

// Insertion is the outcome of InsertNodeOnLink.
type Insertion struct {
	Node  Node
	Nodes []Node
	Links []Link
}

// InsertNodeOnLink splits link by placing a new RoutineList node in the slot
// of the link's target. Every placed node at or right of that column shifts
// one column to the right. The inputs are not modified.
func InsertNodeOnLink(link Link, nodes []Node, links []Link) (Insertion, error) {
	idx := -1
	for i, l := range links {
		if l.ID == link.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Insertion{}, ErrLinkNotFound
	}
	orig := links[idx]

	var anchor *Node
	for i := range nodes {
		if nodes[i].ID == orig.ToID {
			anchor = &nodes[i]
			break
		}
	}
	if anchor == nil {
		return Insertion{}, ErrNodeNotFound
	}
	col, row, ok := anchor.Position()
	if !ok {
		return Insertion{}, ErrNodeNotPlaced
	}

	node := Node{
		ID:   uuid.NewString(),
		Type: NodeRoutineList,
		Data: RoutineListData{
			Title: fmt.Sprintf("Node %d", len(nodes)),
			Items: []RoutineListItem{},
		},
	}
	node.Place(col, row)

	newNodes := make([]Node, 0, len(nodes)+1)
	for _, n := range nodes {
		n = n.clone()
		if c, _, ok := n.Position(); ok && c >= col {
			*n.ColumnIndex = c + 1
		}
		newNodes = append(newNodes, n)
	}
	newNodes = append(newNodes, node)

	newLinks := make([]Link, 0, len(links)+1)
	newLinks = append(newLinks, links[:idx]...)
	newLinks = append(newLinks, links[idx+1:]...)
	newLinks = append(newLinks,
		Link{ID: uuid.NewString(), FromID: orig.FromID, ToID: node.ID},
		Link{ID: uuid.NewString(), FromID: node.ID, ToID: orig.ToID},
	)

	return Insertion{Node: node, Nodes: newNodes, Links: newLinks}, nil
}
