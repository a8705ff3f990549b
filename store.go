package routine

import (
	"context"
	"errors"
)

var (
	ErrNodeNotFound    = errors.New("routine: node not found")
	ErrLinkNotFound    = errors.New("routine: link not found")
	ErrNodeNotPlaced   = errors.New("routine: node is not placed on the graph")
	ErrDanglingLink    = errors.New("routine: link references a node outside the routine")
	ErrUnknownNodeType = errors.New("routine: unknown node type")
	ErrIDConflict      = errors.New("routine: id belongs to another routine")
)

// Saver persists the changes produced by Diff.
type Saver interface {
	ApplyChanges(ctx context.Context, routineID string, c Changes) error
}

// Store defines the contract for persisting and retrieving routines.
type Store interface {
	Saver

	// Schema
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error

	// Routine (bulk operations)
	CreateRoutine(ctx context.Context, r *Routine) (*Routine, error)
	GetRoutine(ctx context.Context, routineID string) (*Routine, error)
	DeleteRoutine(ctx context.Context, routineID string) error

	// Nodes
	AddNode(ctx context.Context, routineID string, node *Node) (string, error)
	GetNode(ctx context.Context, nodeID string) (*Node, error)
	UpdateNode(ctx context.Context, node *Node) error
	DeleteNode(ctx context.Context, nodeID string) error
	ListNodes(ctx context.Context, routineID string) ([]Node, error)

	// Links
	AddLink(ctx context.Context, routineID string, link *Link) (string, error)
	GetLink(ctx context.Context, linkID string) (*Link, error)
	DeleteLink(ctx context.Context, linkID string) error
	ListLinks(ctx context.Context, routineID string) ([]Link, error)
}

// CheckLinks reports ErrDanglingLink if any link references a node that is
// not in nodes.
func CheckLinks(nodes []Node, links []Link) error {
	ids := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		ids[n.ID] = true
	}
	for _, l := range links {
		if !ids[l.FromID] || !ids[l.ToID] {
			return ErrDanglingLink
		}
	}
	return nil
}
