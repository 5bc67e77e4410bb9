package store

import (
	"database/sql"
	"fmt"

	"github.com/evandr/foliant/internal/models"
)

// ReplaceNodes atomically swaps the whole index batch for an item: every
// existing node is deleted, then the new batch is inserted, in one
// transaction. An empty batch clears the item's index.
func (db *DB) ReplaceNodes(ownerID, itemID string, nodes []models.IndexNode) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM index_nodes WHERE item_id = ? AND owner_id = ?`, itemID, ownerID); err != nil {
		return fmt.Errorf("store: clear index nodes: %w", err)
	}

	if len(nodes) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO index_nodes (owner_id, item_id, kind, level, text, path, parent_path, position, indexed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("store: prepare node insert: %w", err)
		}
		defer stmt.Close()
		for _, n := range nodes {
			_, err := stmt.Exec(ownerID, itemID, string(n.Kind), n.Level, n.Text, n.Path, n.ParentPath, n.Position, n.IndexedAt)
			if err != nil {
				return fmt.Errorf("store: insert index node: %w", err)
			}
		}
	}

	return tx.Commit()
}

// NodesByItem returns an item's index nodes ordered by position.
func (db *DB) NodesByItem(ownerID, itemID string) ([]models.IndexNode, error) {
	rows, err := db.conn.Query(`
		SELECT owner_id, item_id, kind, level, text, path, parent_path, position, indexed_at
		FROM index_nodes
		WHERE item_id = ? AND owner_id = ?
		ORDER BY position
	`, itemID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("store: nodes by item: %w", err)
	}
	return collectNodes(rows)
}

// NodesByOwner returns every index node for an owner, unordered.
func (db *DB) NodesByOwner(ownerID string) ([]models.IndexNode, error) {
	rows, err := db.conn.Query(`
		SELECT owner_id, item_id, kind, level, text, path, parent_path, position, indexed_at
		FROM index_nodes
		WHERE owner_id = ?
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("store: nodes by owner: %w", err)
	}
	return collectNodes(rows)
}

func collectNodes(rows *sql.Rows) ([]models.IndexNode, error) {
	defer rows.Close()
	var out []models.IndexNode
	for rows.Next() {
		var (
			n    models.IndexNode
			kind string
		)
		if err := rows.Scan(&n.OwnerID, &n.ItemID, &kind, &n.Level, &n.Text, &n.Path, &n.ParentPath, &n.Position, &n.IndexedAt); err != nil {
			return nil, err
		}
		n.Kind = models.NodeKind(kind)
		out = append(out, n)
	}
	return out, rows.Err()
}
