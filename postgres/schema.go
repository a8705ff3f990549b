package postgres

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS routine_nodes (
    id           TEXT PRIMARY KEY,
    routine_id   TEXT NOT NULL,
    type         TEXT NOT NULL,
    column_index INTEGER,
    row_index    INTEGER,
    data         JSONB NOT NULL DEFAULT '{}',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp()
);

CREATE TABLE IF NOT EXISTS routine_links (
    id           TEXT PRIMARY KEY,
    routine_id   TEXT NOT NULL,
    from_node_id TEXT NOT NULL REFERENCES routine_nodes(id) ON DELETE CASCADE,
    to_node_id   TEXT NOT NULL REFERENCES routine_nodes(id) ON DELETE CASCADE,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp(),
    UNIQUE (routine_id, from_node_id, to_node_id)
);

CREATE INDEX IF NOT EXISTS idx_routine_nodes_routine_id ON routine_nodes(routine_id);
CREATE INDEX IF NOT EXISTS idx_routine_links_routine_id ON routine_links(routine_id);
CREATE INDEX IF NOT EXISTS idx_routine_links_from       ON routine_links(from_node_id);
CREATE INDEX IF NOT EXISTS idx_routine_links_to         ON routine_links(to_node_id);
`

// CreateSchema creates the routine_nodes and routine_links tables if they don't exist.
func (s *PGStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops the routine_links and routine_nodes tables.
func (s *PGStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS routine_links, routine_nodes CASCADE;`)
	return err
}
