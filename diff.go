package routine

import "reflect"

// Changes is the set of instructions that turns a saved routine into the
// edited one.
type Changes struct {
	CreateNodes   []Node   `json:"create_nodes,omitempty"`
	UpdateNodes   []Node   `json:"update_nodes,omitempty"`
	DeleteNodeIDs []string `json:"delete_node_ids,omitempty"`
	CreateLinks   []Link   `json:"create_links,omitempty"`
	UpdateLinks   []Link   `json:"update_links,omitempty"`
	DeleteLinkIDs []string `json:"delete_link_ids,omitempty"`
}

// Empty reports whether there is nothing to save.
func (c Changes) Empty() bool {
	return len(c.CreateNodes) == 0 && len(c.UpdateNodes) == 0 && len(c.DeleteNodeIDs) == 0 &&
		len(c.CreateLinks) == 0 && len(c.UpdateLinks) == 0 && len(c.DeleteLinkIDs) == 0
}

// Diff compares two versions of a routine by node and link id.
// Output order follows current for creates and updates, saved for deletes.
func Diff(saved, current Routine) Changes {
	var c Changes

	oldNodes := make(map[string]Node, len(saved.Nodes))
	for _, n := range saved.Nodes {
		oldNodes[n.ID] = n
	}
	seen := make(map[string]bool, len(current.Nodes))
	for _, n := range current.Nodes {
		seen[n.ID] = true
		old, ok := oldNodes[n.ID]
		switch {
		case !ok:
			c.CreateNodes = append(c.CreateNodes, n)
		case !reflect.DeepEqual(old, n):
			c.UpdateNodes = append(c.UpdateNodes, n)
		}
	}
	for _, n := range saved.Nodes {
		if !seen[n.ID] {
			c.DeleteNodeIDs = append(c.DeleteNodeIDs, n.ID)
		}
	}

	oldLinks := make(map[string]Link, len(saved.Links))
	for _, l := range saved.Links {
		oldLinks[l.ID] = l
	}
	seen = make(map[string]bool, len(current.Links))
	for _, l := range current.Links {
		seen[l.ID] = true
		old, ok := oldLinks[l.ID]
		switch {
		case !ok:
			c.CreateLinks = append(c.CreateLinks, l)
		case old != l:
			c.UpdateLinks = append(c.UpdateLinks, l)
		}
	}
	for _, l := range saved.Links {
		if !seen[l.ID] {
			c.DeleteLinkIDs = append(c.DeleteLinkIDs, l.ID)
		}
	}
	return c
}
