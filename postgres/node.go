package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meikuraledutech/routine"
)

const nodeColumns = `id, type, column_index, row_index, data`

// insertNode writes one node row through q.
func insertNode(ctx context.Context, q querier, routineID string, n *routine.Node) error {
	data, err := routine.MarshalNodeData(n.Data)
	if err != nil {
		return fmt.Errorf("routine: encode node %s: %w", n.ID, err)
	}
	_, err = q.Exec(ctx,
		`INSERT INTO routine_nodes (id, routine_id, type, column_index, row_index, data) VALUES ($1, $2, $3, $4, $5, $6)`,
		n.ID, routineID, string(n.Type), n.ColumnIndex, n.RowIndex, data,
	)
	if err != nil {
		if isPrimaryKeyViolation(err) {
			return fmt.Errorf("%w: node %s", routine.ErrIDConflict, n.ID)
		}
		return fmt.Errorf("routine: insert node %s: %w", n.ID, err)
	}
	return nil
}

// updateNode rewrites type, position and data of one node row. A non-empty
// routineID restricts the update to that routine's nodes.
func updateNode(ctx context.Context, q querier, routineID string, n *routine.Node) error {
	data, err := routine.MarshalNodeData(n.Data)
	if err != nil {
		return fmt.Errorf("routine: encode node %s: %w", n.ID, err)
	}
	sql := `UPDATE routine_nodes SET type = $1, column_index = $2, row_index = $3, data = $4 WHERE id = $5`
	args := []any{string(n.Type), n.ColumnIndex, n.RowIndex, data, n.ID}
	if routineID != "" {
		sql += ` AND routine_id = $6`
		args = append(args, routineID)
	}
	ct, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("routine: update node: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return routine.ErrNodeNotFound
	}
	return nil
}

// scanNode reads one row selected with nodeColumns.
func scanNode(row pgx.Row) (routine.Node, error) {
	var (
		n    routine.Node
		typ  string
		data []byte
	)
	if err := row.Scan(&n.ID, &typ, &n.ColumnIndex, &n.RowIndex, &data); err != nil {
		return routine.Node{}, err
	}
	n.Type = routine.NodeType(typ)
	d, err := routine.UnmarshalNodeData(n.Type, data)
	if err != nil {
		return routine.Node{}, err
	}
	n.Data = d
	return n, nil
}

func listNodes(ctx context.Context, q querier, routineID string) ([]routine.Node, error) {
	rows, err := q.Query(ctx,
		`SELECT `+nodeColumns+` FROM routine_nodes WHERE routine_id = $1 ORDER BY created_at, id`, routineID)
	if err != nil {
		return nil, fmt.Errorf("routine: list nodes: %w", err)
	}
	defer rows.Close()

	nodes := []routine.Node{}
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("routine: scan node: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("routine: rows nodes: %w", err)
	}
	return nodes, nil
}

// AddNode inserts a single node into a routine.
// If node.ID is empty, a UUID is auto-generated.
// Returns the node ID (generated or provided).
func (s *PGStore) AddNode(ctx context.Context, routineID string, node *routine.Node) (string, error) {
	if node.ID == "" {
		node.ID = uuid.NewString()
	}
	if node.Data == nil {
		node.Data = routine.DefaultData(node.Type)
	}
	if err := insertNode(ctx, s.db, routineID, node); err != nil {
		return "", err
	}
	return node.ID, nil
}

// GetNode fetches a single node by its ID.
// Returns nil, nil if not found.
func (s *PGStore) GetNode(ctx context.Context, nodeID string) (*routine.Node, error) {
	n, err := scanNode(s.db.QueryRow(ctx,
		`SELECT `+nodeColumns+` FROM routine_nodes WHERE id = $1`, nodeID))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("routine: get node: %w", err)
	}
	return &n, nil
}

// UpdateNode updates type, position and data of an existing node.
// Returns ErrNodeNotFound if the node doesn't exist.
func (s *PGStore) UpdateNode(ctx context.Context, node *routine.Node) error {
	return updateNode(ctx, s.db, "", node)
}

// DeleteNode deletes a node by its ID.
// Associated links are cascade-deleted by the DB.
// No error if the node doesn't exist.
func (s *PGStore) DeleteNode(ctx context.Context, nodeID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM routine_nodes WHERE id = $1`, nodeID)
	if err != nil {
		return fmt.Errorf("routine: delete node: %w", err)
	}
	return nil
}

// ListNodes returns all nodes for a routine, ordered by created_at.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListNodes(ctx context.Context, routineID string) ([]routine.Node, error) {
	return listNodes(ctx, s.db, routineID)
}
