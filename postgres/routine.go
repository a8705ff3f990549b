package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/meikuraledutech/routine"
)

// CreateRoutine saves a full routine (nodes + links) in one transaction.
// Nodes/links without IDs get auto-generated UUIDs.
// Any existing routine with the same ID is replaced.
// Returns the routine with all IDs filled in.
func (s *PGStore) CreateRoutine(ctx context.Context, r *routine.Routine) (*routine.Routine, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	for i := range r.Nodes {
		n := &r.Nodes[i]
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		if n.Data == nil {
			n.Data = routine.DefaultData(n.Type)
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

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("routine: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Replace semantics.
	if _, err := tx.Exec(ctx, `DELETE FROM routine_links WHERE routine_id = $1`, r.ID); err != nil {
		return nil, fmt.Errorf("routine: delete links: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM routine_nodes WHERE routine_id = $1`, r.ID); err != nil {
		return nil, fmt.Errorf("routine: delete nodes: %w", err)
	}

	for i := range r.Nodes {
		if err := insertNode(ctx, tx, r.ID, &r.Nodes[i]); err != nil {
			return nil, err
		}
	}
	for i := range r.Links {
		if err := insertLink(ctx, tx, r.ID, &r.Links[i]); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("routine: commit: %w", err)
	}
	return r, nil
}

// GetRoutine retrieves a full routine (nodes + links) by its ID.
// Returns nil, nil if no nodes exist for the routineID.
func (s *PGStore) GetRoutine(ctx context.Context, routineID string) (*routine.Routine, error) {
	nodes, err := listNodes(ctx, s.db, routineID)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, nil
	}
	links, err := listLinks(ctx, s.db, routineID)
	if err != nil {
		return nil, err
	}
	return &routine.Routine{ID: routineID, Nodes: nodes, Links: links}, nil
}

// DeleteRoutine removes all nodes and links for a routineID.
// No error if the routineID doesn't exist.
func (s *PGStore) DeleteRoutine(ctx context.Context, routineID string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("routine: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM routine_links WHERE routine_id = $1`, routineID); err != nil {
		return fmt.Errorf("routine: delete links: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM routine_nodes WHERE routine_id = $1`, routineID); err != nil {
		return fmt.Errorf("routine: delete nodes: %w", err)
	}

	return tx.Commit(ctx)
}

// ApplyChanges writes a diff produced by routine.Diff in a single
// transaction. Deletes run first so a link can be re-created between the
// same pair of nodes under a new ID.
func (s *PGStore) ApplyChanges(ctx context.Context, routineID string, c routine.Changes) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("routine: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, id := range c.DeleteLinkIDs {
		if _, err := tx.Exec(ctx,
			`DELETE FROM routine_links WHERE id = $1 AND routine_id = $2`, id, routineID); err != nil {
			return fmt.Errorf("routine: delete link %s: %w", id, err)
		}
	}
	for _, id := range c.DeleteNodeIDs {
		if _, err := tx.Exec(ctx,
			`DELETE FROM routine_nodes WHERE id = $1 AND routine_id = $2`, id, routineID); err != nil {
			return fmt.Errorf("routine: delete node %s: %w", id, err)
		}
	}
	for i := range c.CreateNodes {
		if err := insertNode(ctx, tx, routineID, &c.CreateNodes[i]); err != nil {
			return err
		}
	}
	for i := range c.UpdateNodes {
		if err := updateNode(ctx, tx, routineID, &c.UpdateNodes[i]); err != nil {
			return err
		}
	}

	// Endpoints must be nodes of this routine, not just any stored node.
	if len(c.UpdateLinks) > 0 || len(c.CreateLinks) > 0 {
		nodes, err := listNodes(ctx, tx, routineID)
		if err != nil {
			return err
		}
		if err := routine.CheckLinks(nodes, c.UpdateLinks); err != nil {
			return err
		}
		if err := routine.CheckLinks(nodes, c.CreateLinks); err != nil {
			return err
		}
	}
	for _, l := range c.UpdateLinks {
		ct, err := tx.Exec(ctx,
			`UPDATE routine_links SET from_node_id = $1, to_node_id = $2 WHERE id = $3 AND routine_id = $4`,
			l.FromID, l.ToID, l.ID, routineID,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return routine.ErrDanglingLink
			}
			return fmt.Errorf("routine: update link %s: %w", l.ID, err)
		}
		if ct.RowsAffected() == 0 {
			return routine.ErrLinkNotFound
		}
	}
	for i := range c.CreateLinks {
		if err := insertLink(ctx, tx, routineID, &c.CreateLinks[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("routine: commit: %w", err)
	}
	return nil
}

var _ routine.Store = (*PGStore)(nil)
