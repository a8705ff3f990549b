package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/meikuraledutech/routine"
)

func insertLink(ctx context.Context, q querier, routineID string, l *routine.Link) error {
	_, err := q.Exec(ctx,
		`INSERT INTO routine_links (id, routine_id, from_node_id, to_node_id) VALUES ($1, $2, $3, $4)`,
		l.ID, routineID, l.FromID, l.ToID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return routine.ErrDanglingLink
		}
		if isPrimaryKeyViolation(err) {
			return fmt.Errorf("%w: link %s", routine.ErrIDConflict, l.ID)
		}
		return fmt.Errorf("routine: insert link %s: %w", l.ID, err)
	}
	return nil
}

func listLinks(ctx context.Context, q querier, routineID string) ([]routine.Link, error) {
	rows, err := q.Query(ctx,
		`SELECT id, from_node_id, to_node_id FROM routine_links WHERE routine_id = $1 ORDER BY created_at, id`, routineID)
	if err != nil {
		return nil, fmt.Errorf("routine: list links: %w", err)
	}
	defer rows.Close()

	links := []routine.Link{}
	for rows.Next() {
		var l routine.Link
		if err := rows.Scan(&l.ID, &l.FromID, &l.ToID); err != nil {
			return nil, fmt.Errorf("routine: scan link: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("routine: rows links: %w", err)
	}
	return links, nil
}

// AddLink inserts a single link into a routine.
// If link.ID is empty, a UUID is auto-generated.
// Both endpoints must be nodes of the same routine.
func (s *PGStore) AddLink(ctx context.Context, routineID string, link *routine.Link) (string, error) {
	if link.ID == "" {
		link.ID = uuid.NewString()
	}

	nodes, err := s.ListNodes(ctx, routineID)
	if err != nil {
		return "", err
	}
	if err := routine.CheckLinks(nodes, []routine.Link{*link}); err != nil {
		return "", err
	}

	if err := insertLink(ctx, s.db, routineID, link); err != nil {
		return "", err
	}
	return link.ID, nil
}

// GetLink fetches a single link by its ID.
// Returns nil, nil if not found.
func (s *PGStore) GetLink(ctx context.Context, linkID string) (*routine.Link, error) {
	var l routine.Link
	err := s.db.QueryRow(ctx,
		`SELECT id, from_node_id, to_node_id FROM routine_links WHERE id = $1`, linkID,
	).Scan(&l.ID, &l.FromID, &l.ToID)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("routine: get link: %w", err)
	}
	return &l, nil
}

// DeleteLink deletes a link by its ID.
// No error if the link doesn't exist.
func (s *PGStore) DeleteLink(ctx context.Context, linkID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM routine_links WHERE id = $1`, linkID)
	if err != nil {
		return fmt.Errorf("routine: delete link: %w", err)
	}
	return nil
}

// ListLinks returns all links for a routine, ordered by created_at.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListLinks(ctx context.Context, routineID string) ([]routine.Link, error) {
	return listLinks(ctx, s.db, routineID)
}
