package routine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Editor owns the nodes and links of one routine while it is being edited.
// Every mutation re-validates the graph and rebuilds the View before it
// returns. An Editor is not safe for concurrent use.
type Editor struct {
	routineID string
	nodes     []Node
	links     []Link
	saved     Routine

	status Result
	view   View
	logger *zap.Logger
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the logger used for mutation tracing.
func WithLogger(l *zap.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

// NewEditor starts an editing session on r. r also becomes the last-saved
// snapshot that Save diffs against and Revert returns to.
func NewEditor(r Routine, opts ...Option) *Editor {
	e := &Editor{routineID: r.ID, logger: zap.NewNop()}
	for _, o := range opts {
		o(e)
	}
	e.saved = copyRoutine(r)
	e.nodes = cloneNodes(r.Nodes)
	e.links = append([]Link{}, r.Links...)
	e.recompute()
	return e
}

func copyRoutine(r Routine) Routine {
	return Routine{
		ID:    r.ID,
		Nodes: cloneNodes(r.Nodes),
		Links: append([]Link{}, r.Links...),
	}
}

// recompute validates the graph and installs the derived state. Invalid
// coordinates are cleared first. A critical result resets every position and
// removes every link.
func (e *Editor) recompute() {
	normalizePositions(e.nodes)
	res := Validate(e.nodes, e.links)
	if res.Critical {
		e.logger.Warn("conflicting node positions, resetting layout",
			zap.String("routine_id", e.routineID))
		e.nodes = ResetLayout(e.nodes)
		e.links = []Link{}
	} else {
		if pruned := len(e.links) - len(res.Links); pruned > 0 {
			e.logger.Debug("pruned links", zap.Int("count", pruned))
		}
		e.links = res.Links
	}
	e.status = res
	e.view = NewView(e.nodes)
}

// RoutineID returns the id of the routine being edited.
func (e *Editor) RoutineID() string { return e.routineID }

// Nodes returns a copy of the current nodes.
func (e *Editor) Nodes() []Node { return cloneNodes(e.nodes) }

// Links returns a copy of the current links.
func (e *Editor) Links() []Link { return append([]Link{}, e.links...) }

// Status returns the result of the last validation.
func (e *Editor) Status() Result { return e.status }

// View returns the projection of the current nodes.
func (e *Editor) View() View { return e.view }

// Routine returns a copy of the current graph.
func (e *Editor) Routine() Routine {
	return Routine{ID: e.routineID, Nodes: e.Nodes(), Links: e.Links()}
}

// Changes returns the instructions Save would submit.
func (e *Editor) Changes() Changes {
	return Diff(e.saved, Routine{ID: e.routineID, Nodes: e.nodes, Links: e.links})
}

// Dirty reports whether the graph differs from the last-saved snapshot.
func (e *Editor) Dirty() bool { return !e.Changes().Empty() }

// SetGraph replaces the whole graph.
func (e *Editor) SetGraph(nodes []Node, links []Link) {
	e.nodes = cloneNodes(nodes)
	e.links = append([]Link{}, links...)
	e.recompute()
}

// AddNode adds node to the graph and returns it with its id filled in.
// A node with a position is dropped into that slot.
func (e *Editor) AddNode(node Node) Node {
	node = node.clone()
	if node.ID == "" {
		node.ID = uuid.NewString()
	}
	if node.Data == nil {
		node.Data = DefaultData(node.Type)
	}
	col, row, placed := node.Position()
	node.Unplace()
	e.nodes = append(e.nodes, node)
	if placed {
		if moved, ok := MoveNode(e.nodes, node.ID, col, row); ok {
			e.nodes = moved
		}
	}
	e.recompute()
	return e.nodes[indexOfNode(e.nodes, node.ID)].clone()
}

// UpdateNode replaces the node with node.ID. It reports false, changing
// nothing, when no such node exists.
func (e *Editor) UpdateNode(node Node) bool {
	idx := indexOfNode(e.nodes, node.ID)
	if idx < 0 {
		e.logger.Debug("update of unknown node", zap.String("node_id", node.ID))
		return false
	}
	node = node.clone()
	if node.Data == nil {
		node.Data = DefaultData(node.Type)
	}
	e.nodes[idx] = node
	e.recompute()
	return true
}

// InsertLink adds link, replacing any link with the same endpoints.
func (e *Editor) InsertLink(link Link) Link {
	if link.ID == "" {
		link.ID = uuid.NewString()
	}
	links := make([]Link, 0, len(e.links)+1)
	for _, l := range e.links {
		if l.FromID == link.FromID && l.ToID == link.ToID {
			continue
		}
		links = append(links, l)
	}
	e.links = append(links, link)
	e.recompute()
	return link
}

// DeleteLink removes the link with the given id. Nodes are untouched.
func (e *Editor) DeleteLink(linkID string) bool {
	for i, l := range e.links {
		if l.ID == linkID {
			e.links = append(e.links[:i:i], e.links[i+1:]...)
			e.recompute()
			return true
		}
	}
	return false
}

// DeleteNode removes a node, bridging its neighbours where unambiguous.
func (e *Editor) DeleteNode(nodeID string) bool {
	return e.detach(nodeID, true)
}

// UnlinkNode moves a node off-graph, bridging its neighbours where
// unambiguous. The node stays in the graph with no position.
func (e *Editor) UnlinkNode(nodeID string) bool {
	return e.detach(nodeID, false)
}

func (e *Editor) detach(nodeID string, remove bool) bool {
	idx := indexOfNode(e.nodes, nodeID)
	if idx < 0 {
		return false
	}
	links := ReplacementLinks(nodeID, e.links)
	nodes := cloneNodes(e.nodes)
	vacate(nodes, idx)
	if remove {
		nodes = append(nodes[:idx], nodes[idx+1:]...)
	}
	e.nodes, e.links = nodes, links
	e.logger.Debug("detached node",
		zap.String("node_id", nodeID),
		zap.Bool("deleted", remove),
		zap.Int("links", len(links)))
	e.recompute()
	return true
}

// DropNode places or moves a node to (column, row). See MoveNode.
func (e *Editor) DropNode(nodeID string, column, row int) bool {
	nodes, ok := MoveNode(e.nodes, nodeID, column, row)
	if !ok {
		return false
	}
	e.nodes = nodes
	e.recompute()
	return true
}

// InsertNodeOnLink splits the link with the given id with a new node and
// returns that node.
func (e *Editor) InsertNodeOnLink(linkID string) (Node, error) {
	ins, err := InsertNodeOnLink(Link{ID: linkID}, e.nodes, e.links)
	if err != nil {
		return Node{}, err
	}
	e.nodes, e.links = ins.Nodes, ins.Links
	e.recompute()
	return ins.Node.clone(), nil
}

// Save submits the difference from the last-saved snapshot. On failure the
// edited graph is kept so the caller can retry.
func (e *Editor) Save(ctx context.Context, s Saver) error {
	changes := e.Changes()
	if changes.Empty() {
		return nil
	}
	if err := s.ApplyChanges(ctx, e.routineID, changes); err != nil {
		e.logger.Warn("save failed", zap.String("routine_id", e.routineID), zap.Error(err))
		return fmt.Errorf("routine: save %s: %w", e.routineID, err)
	}
	e.saved = e.Routine()
	e.logger.Info("routine saved",
		zap.String("routine_id", e.routineID),
		zap.Int("nodes", len(e.nodes)),
		zap.Int("links", len(e.links)))
	return nil
}

// Revert discards unsaved edits.
func (e *Editor) Revert() {
	e.nodes = cloneNodes(e.saved.Nodes)
	e.links = append([]Link{}, e.saved.Links...)
	e.recompute()
}
