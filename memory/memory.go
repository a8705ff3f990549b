// Package memory implements routine.Store in process memory. It backs the
// server when no database is configured and serves as the store in tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/meikuraledutech/routine"
)

type nodeRow struct {
	routineID string
	node      routine.Node
}

type linkRow struct {
	routineID string
	link      routine.Link
}

// Store is a routine.Store held in maps. Rows keep insertion order per
// routine, mirroring the created_at ordering of the SQL backend.
type Store struct {
	mu        sync.RWMutex
	nodes     map[string]*nodeRow
	links     map[string]*linkRow
	nodeOrder []string
	linkOrder []string
}

// New returns an empty Store.
func New() *Store {
	s := &Store{}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.nodes = make(map[string]*nodeRow)
	s.links = make(map[string]*linkRow)
	s.nodeOrder = nil
	s.linkOrder = nil
}

// CreateSchema is a no-op.
func (s *Store) CreateSchema(ctx context.Context) error { return nil }

// DropSchema removes every routine.
func (s *Store) DropSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return nil
}

// CreateRoutine saves a full routine, replacing any existing one with the
// same id. Nodes and links without ids get UUIDs.
func (s *Store) CreateRoutine(ctx context.Context, r *routine.Routine) (*routine.Routine, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	for i := range r.Nodes {
		if r.Nodes[i].ID == "" {
			r.Nodes[i].ID = uuid.NewString()
		}
		if r.Nodes[i].Data == nil {
			r.Nodes[i].Data = routine.DefaultData(r.Nodes[i].Type)
		}
	}
	for i := range r.Links {
		if r.Links[i].ID == "" {
			r.Links[i].ID = uuid.NewString()
		}
	}
	if err := routine.CheckLinks(r.Nodes, r.Links); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOwner(r.ID, r.Nodes, r.Links); err != nil {
		return nil, err
	}
	s.deleteRoutine(r.ID)
	for _, n := range r.Nodes {
		s.putNode(r.ID, n)
	}
	for _, l := range r.Links {
		s.putLink(r.ID, l)
	}
	return r, nil
}

// GetRoutine returns nil, nil if the routine has no nodes.
func (s *Store) GetRoutine(ctx context.Context, routineID string) (*routine.Routine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r := &routine.Routine{ID: routineID, Nodes: s.listNodes(routineID), Links: s.listLinks(routineID)}
	if len(r.Nodes) == 0 {
		return nil, nil
	}
	return r, nil
}

// DeleteRoutine removes all nodes and links of a routine.
func (s *Store) DeleteRoutine(ctx context.Context, routineID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteRoutine(routineID)
	return nil
}

// ApplyChanges applies a diff atomically: either every instruction is
// applied or none is.
func (s *Store) ApplyChanges(ctx context.Context, routineID string, c routine.Changes) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOwner(routineID, c.CreateNodes, c.CreateLinks); err != nil {
		return err
	}

	nodes := s.listNodes(routineID)
	links := s.listLinks(routineID)
	after := applyToSnapshot(nodes, links, c)
	if err := routine.CheckLinks(after.Nodes, after.Links); err != nil {
		return err
	}
	for _, n := range c.UpdateNodes {
		if r, ok := s.nodes[n.ID]; !ok || r.routineID != routineID {
			return routine.ErrNodeNotFound
		}
	}
	for _, l := range c.UpdateLinks {
		if r, ok := s.links[l.ID]; !ok || r.routineID != routineID {
			return routine.ErrLinkNotFound
		}
	}

	for _, id := range c.DeleteLinkIDs {
		s.removeLink(id)
	}
	for _, id := range c.DeleteNodeIDs {
		s.removeNode(id)
	}
	for _, n := range c.CreateNodes {
		s.putNode(routineID, n)
	}
	for _, n := range c.UpdateNodes {
		s.nodes[n.ID].node = n
	}
	for _, l := range c.CreateLinks {
		s.putLink(routineID, l)
	}
	for _, l := range c.UpdateLinks {
		s.links[l.ID].link = l
	}
	return nil
}

// applyToSnapshot computes the graph that c would produce, for integrity
// checks before anything is written.
func applyToSnapshot(nodes []routine.Node, links []routine.Link, c routine.Changes) routine.Routine {
	delNodes := make(map[string]bool, len(c.DeleteNodeIDs))
	for _, id := range c.DeleteNodeIDs {
		delNodes[id] = true
	}
	delLinks := make(map[string]bool, len(c.DeleteLinkIDs))
	for _, id := range c.DeleteLinkIDs {
		delLinks[id] = true
	}
	updLinks := make(map[string]routine.Link, len(c.UpdateLinks))
	for _, l := range c.UpdateLinks {
		updLinks[l.ID] = l
	}

	var out routine.Routine
	for _, n := range nodes {
		if !delNodes[n.ID] {
			out.Nodes = append(out.Nodes, n)
		}
	}
	out.Nodes = append(out.Nodes, c.CreateNodes...)
	for _, l := range links {
		// deleting a node cascades to its links
		if delLinks[l.ID] || delNodes[l.FromID] || delNodes[l.ToID] {
			continue
		}
		if u, ok := updLinks[l.ID]; ok {
			l = u
		}
		out.Links = append(out.Links, l)
	}
	out.Links = append(out.Links, c.CreateLinks...)
	return out
}

// AddNode inserts a single node. If node.ID is empty, a UUID is generated.
func (s *Store) AddNode(ctx context.Context, routineID string, node *routine.Node) (string, error) {
	if node.ID == "" {
		node.ID = uuid.NewString()
	}
	if node.Data == nil {
		node.Data = routine.DefaultData(node.Type)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOwner(routineID, []routine.Node{*node}, nil); err != nil {
		return "", err
	}
	s.putNode(routineID, *node)
	return node.ID, nil
}

// GetNode returns nil, nil if not found.
func (s *Store) GetNode(ctx context.Context, nodeID string) (*routine.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.nodes[nodeID]
	if !ok {
		return nil, nil
	}
	n := r.node
	return &n, nil
}

// UpdateNode returns routine.ErrNodeNotFound if the node doesn't exist.
func (s *Store) UpdateNode(ctx context.Context, node *routine.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.nodes[node.ID]
	if !ok {
		return routine.ErrNodeNotFound
	}
	r.node = *node
	return nil
}

// DeleteNode removes a node and every link touching it.
func (s *Store) DeleteNode(ctx context.Context, nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeNode(nodeID)
	return nil
}

// ListNodes returns an empty slice (not nil) if none found.
func (s *Store) ListNodes(ctx context.Context, routineID string) ([]routine.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listNodes(routineID), nil
}

// AddLink inserts a single link. Both endpoints must belong to the routine.
func (s *Store) AddLink(ctx context.Context, routineID string, link *routine.Link) (string, error) {
	if link.ID == "" {
		link.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := routine.CheckLinks(s.listNodes(routineID), []routine.Link{*link}); err != nil {
		return "", err
	}
	if err := s.checkOwner(routineID, nil, []routine.Link{*link}); err != nil {
		return "", err
	}
	s.putLink(routineID, *link)
	return link.ID, nil
}

// GetLink returns nil, nil if not found.
func (s *Store) GetLink(ctx context.Context, linkID string) (*routine.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.links[linkID]
	if !ok {
		return nil, nil
	}
	l := r.link
	return &l, nil
}

// DeleteLink is a no-op for unknown ids.
func (s *Store) DeleteLink(ctx context.Context, linkID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLink(linkID)
	return nil
}

// ListLinks returns an empty slice (not nil) if none found.
func (s *Store) ListLinks(ctx context.Context, routineID string) ([]routine.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLinks(routineID), nil
}

// checkOwner reports routine.ErrIDConflict if any of the ids is already
// stored under a different routine.
func (s *Store) checkOwner(routineID string, nodes []routine.Node, links []routine.Link) error {
	for _, n := range nodes {
		if r, ok := s.nodes[n.ID]; ok && r.routineID != routineID {
			return fmt.Errorf("%w: node %s", routine.ErrIDConflict, n.ID)
		}
	}
	for _, l := range links {
		if r, ok := s.links[l.ID]; ok && r.routineID != routineID {
			return fmt.Errorf("%w: link %s", routine.ErrIDConflict, l.ID)
		}
	}
	return nil
}

func (s *Store) putNode(routineID string, n routine.Node) {
	if _, ok := s.nodes[n.ID]; !ok {
		s.nodeOrder = append(s.nodeOrder, n.ID)
	}
	s.nodes[n.ID] = &nodeRow{routineID: routineID, node: n}
}

func (s *Store) putLink(routineID string, l routine.Link) {
	if _, ok := s.links[l.ID]; !ok {
		s.linkOrder = append(s.linkOrder, l.ID)
	}
	s.links[l.ID] = &linkRow{routineID: routineID, link: l}
}

func (s *Store) removeNode(id string) {
	delete(s.nodes, id)
	for lid, r := range s.links {
		if r.link.FromID == id || r.link.ToID == id {
			delete(s.links, lid)
		}
	}
	s.compact()
}

func (s *Store) removeLink(id string) {
	delete(s.links, id)
	s.compact()
}

func (s *Store) deleteRoutine(routineID string) {
	for id, r := range s.links {
		if r.routineID == routineID {
			delete(s.links, id)
		}
	}
	for id, r := range s.nodes {
		if r.routineID == routineID {
			delete(s.nodes, id)
		}
	}
	s.compact()
}

// compact drops ids of removed rows from the order lists.
func (s *Store) compact() {
	nodes := s.nodeOrder[:0]
	for _, id := range s.nodeOrder {
		if _, ok := s.nodes[id]; ok {
			nodes = append(nodes, id)
		}
	}
	s.nodeOrder = nodes
	links := s.linkOrder[:0]
	for _, id := range s.linkOrder {
		if _, ok := s.links[id]; ok {
			links = append(links, id)
		}
	}
	s.linkOrder = links
}

func (s *Store) listNodes(routineID string) []routine.Node {
	nodes := []routine.Node{}
	for _, id := range s.nodeOrder {
		if r, ok := s.nodes[id]; ok && r.routineID == routineID {
			nodes = append(nodes, r.node)
		}
	}
	return nodes
}

func (s *Store) listLinks(routineID string) []routine.Link {
	links := []routine.Link{}
	for _, id := range s.linkOrder {
		if r, ok := s.links[id]; ok && r.routineID == routineID {
			links = append(links, r.link)
		}
	}
	return links
}

var _ routine.Store = (*Store)(nil)
