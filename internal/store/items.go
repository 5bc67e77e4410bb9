package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/evandr/foliant/internal/apperr"
	"github.com/evandr/foliant/internal/content"
	"github.com/evandr/foliant/internal/models"
)

const itemColumns = `id, owner_id, kind, title, parent_id, content, attachments, tags, version, created_at, updated_at`

// CreateItem inserts a new item row.
func (db *DB) CreateItem(item *models.Item) error {
	contentJSON, err := marshalContent(item.Content)
	if err != nil {
		return err
	}
	attachJSON, _ := json.Marshal(emptyIfNil(item.Attachments))
	tagsJSON, _ := json.Marshal(emptyIfNil(item.Tags))

	_, err = db.conn.Exec(`
		INSERT INTO items (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, item.OwnerID, string(item.Kind), item.Title, item.ParentID,
		contentJSON, string(attachJSON), string(tagsJSON), item.Version,
		item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("store: create item: %w", err)
	}
	return nil
}

// GetItem returns the item with the given id, scoped to its owner.
// Items held by another owner are indistinguishable from absent ones.
func (db *DB) GetItem(ownerID, id string) (*models.Item, error) {
	row := db.conn.QueryRow(`SELECT `+itemColumns+` FROM items WHERE id = ? AND owner_id = ?`, id, ownerID)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get item: %w", err)
	}
	return item, nil
}

// ListItems returns every item the owner holds, unordered.
func (db *DB) ListItems(ownerID string) ([]models.Item, error) {
	rows, err := db.conn.Query(`SELECT `+itemColumns+` FROM items WHERE owner_id = ?`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("store: list items: %w", err)
	}
	return collectItems(rows)
}

// ListChildren returns the direct children of parentID (nil = root items).
func (db *DB) ListChildren(ownerID string, parentID *string) ([]models.Item, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if parentID == nil {
		rows, err = db.conn.Query(`SELECT `+itemColumns+` FROM items WHERE owner_id = ? AND parent_id IS NULL`, ownerID)
	} else {
		rows, err = db.conn.Query(`SELECT `+itemColumns+` FROM items WHERE owner_id = ? AND parent_id = ?`, ownerID, *parentID)
	}
	if err != nil {
		return nil, fmt.Errorf("store: list children: %w", err)
	}
	return collectItems(rows)
}

// ListRecent returns the owner's most recently updated notes.
func (db *DB) ListRecent(ownerID string, limit int) ([]models.Item, error) {
	rows, err := db.conn.Query(`
		SELECT `+itemColumns+` FROM items
		WHERE owner_id = ? AND kind = 'note'
		ORDER BY updated_at DESC
		LIMIT ?
	`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list recent: %w", err)
	}
	return collectItems(rows)
}

// UpdateTitle renames an item and bumps updated_at.
func (db *DB) UpdateTitle(ownerID, id, title string) error {
	res, err := db.conn.Exec(`UPDATE items SET title = ?, updated_at = ? WHERE id = ? AND owner_id = ?`,
		title, time.Now(), id, ownerID)
	if err != nil {
		return fmt.Errorf("store: update title: %w", err)
	}
	return requireRow(res)
}

// UpdateTags replaces the item's tag list and bumps updated_at.
func (db *DB) UpdateTags(ownerID, id string, tags []string) error {
	tagsJSON, _ := json.Marshal(emptyIfNil(tags))
	res, err := db.conn.Exec(`UPDATE items SET tags = ?, updated_at = ? WHERE id = ? AND owner_id = ?`,
		string(tagsJSON), time.Now(), id, ownerID)
	if err != nil {
		return fmt.Errorf("store: update tags: %w", err)
	}
	return requireRow(res)
}

// SetParent repoints an item's parent and bumps updated_at. Callers validate
// the structural invariants before calling.
func (db *DB) SetParent(ownerID, id string, parentID *string) error {
	res, err := db.conn.Exec(`UPDATE items SET parent_id = ?, updated_at = ? WHERE id = ? AND owner_id = ?`,
		parentID, time.Now(), id, ownerID)
	if err != nil {
		return fmt.Errorf("store: set parent: %w", err)
	}
	return requireRow(res)
}

// UpdateContent writes a note's content, title, and attachment references
// under optimistic concurrency. When expectedVersion is non-nil and differs
// from the stored version, nothing is modified and ErrVersionConflict is
// returned. The version increments by exactly 1 per successful write; the
// new version is returned.
func (db *DB) UpdateContent(ownerID, id string, doc *content.Document, title string, attachments []string, expectedVersion *int64) (int64, error) {
	contentJSON, err := marshalContent(doc)
	if err != nil {
		return 0, err
	}
	attachJSON, _ := json.Marshal(emptyIfNil(attachments))

	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	now := time.Now()
	var res sql.Result
	if expectedVersion != nil {
		res, err = tx.Exec(`
			UPDATE items SET content = ?, title = ?, attachments = ?, version = version + 1, updated_at = ?
			WHERE id = ? AND owner_id = ? AND kind = 'note' AND version = ?
		`, contentJSON, title, string(attachJSON), now, id, ownerID, *expectedVersion)
	} else {
		res, err = tx.Exec(`
			UPDATE items SET content = ?, title = ?, attachments = ?, version = version + 1, updated_at = ?
			WHERE id = ? AND owner_id = ? AND kind = 'note'
		`, contentJSON, title, string(attachJSON), now, id, ownerID)
	}
	if err != nil {
		return 0, fmt.Errorf("store: update content: %w", err)
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		// Distinguish absent item, wrong kind, and stale version.
		var kind string
		scanErr := tx.QueryRow(`SELECT kind FROM items WHERE id = ? AND owner_id = ?`, id, ownerID).Scan(&kind)
		switch {
		case scanErr == sql.ErrNoRows:
			return 0, apperr.ErrNotFound
		case scanErr != nil:
			return 0, fmt.Errorf("store: update content: %w", scanErr)
		case kind != string(models.KindNote):
			return 0, fmt.Errorf("%w: content updates apply to notes only", apperr.ErrInvalidOperation)
		default:
			return 0, apperr.ErrVersionConflict
		}
	}

	var version int64
	if err := tx.QueryRow(`SELECT version FROM items WHERE id = ? AND owner_id = ?`, id, ownerID).Scan(&version); err != nil {
		return 0, fmt.Errorf("store: read version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit: %w", err)
	}
	return version, nil
}

// DeleteItem removes an item and its index nodes in one transaction.
func (db *DB) DeleteItem(ownerID, id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.Exec(`DELETE FROM items WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("store: delete item: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return apperr.ErrNotFound
	}
	if _, err := tx.Exec(`DELETE FROM index_nodes WHERE item_id = ? AND owner_id = ?`, id, ownerID); err != nil {
		return fmt.Errorf("store: delete index nodes: %w", err)
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.Item, error) {
	var (
		item        models.Item
		kind        string
		parentID    sql.NullString
		contentJSON sql.NullString
		attachJSON  string
		tagsJSON    string
	)
	err := row.Scan(&item.ID, &item.OwnerID, &kind, &item.Title, &parentID,
		&contentJSON, &attachJSON, &tagsJSON, &item.Version, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	item.Kind = models.ItemKind(kind)
	if parentID.Valid {
		item.ParentID = &parentID.String
	}
	if contentJSON.Valid && contentJSON.String != "" {
		doc, parseErr := content.Parse([]byte(contentJSON.String))
		if parseErr != nil {
			return nil, parseErr
		}
		item.Content = doc
	}
	_ = json.Unmarshal([]byte(attachJSON), &item.Attachments)
	_ = json.Unmarshal([]byte(tagsJSON), &item.Tags)
	return &item, nil
}

func collectItems(rows *sql.Rows) ([]models.Item, error) {
	defer rows.Close()
	var out []models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, rows.Err()
}

func marshalContent(doc *content.Document) (any, error) {
	if doc == nil {
		return nil, nil
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("store: marshal content: %w", err)
	}
	return string(data), nil
}

func requireRow(res sql.Result) error {
	if affected, _ := res.RowsAffected(); affected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
