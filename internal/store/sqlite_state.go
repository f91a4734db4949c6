package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"mindmap-cli/internal/model"
)

func (s Store) CreateDocument(ctx context.Context, title string) (model.Document, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Document{}, errors.New("document title is empty")
	}
	db, err := s.openSQLite(ctx)
	if err != nil {
		return model.Document{}, err
	}
	defer db.Close()

	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := model.Document{ID: NewID("doc"), Title: title, CreatedAt: now, UpdatedAt: now}
	err = withTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO documents(id, title, created_at_unixms, updated_at_unixms) VALUES(?, ?, ?, ?)`,
			doc.ID, doc.Title, now.UnixMilli(), now.UnixMilli()); err != nil {
			return err
		}
		return appendEventTx(ctx, tx, doc.ID, "document.create", map[string]any{"title": doc.Title}, now)
	})
	if err != nil {
		return model.Document{}, err
	}
	return doc, nil
}

func (s Store) ListDocuments(ctx context.Context) ([]model.Document, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT id, title, created_at_unixms, updated_at_unixms FROM documents ORDER BY created_at_unixms, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s Store) GetDocument(ctx context.Context, id string) (model.Document, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return model.Document{}, err
	}
	defer db.Close()
	return getDocument(ctx, db, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(r rowScanner) (model.Document, error) {
	var d model.Document
	var created, updated int64
	if err := r.Scan(&d.ID, &d.Title, &created, &updated); err != nil {
		return model.Document{}, err
	}
	d.CreatedAt = time.UnixMilli(created).UTC()
	d.UpdatedAt = time.UnixMilli(updated).UTC()
	return d, nil
}

func getDocument(ctx context.Context, db *sql.DB, id string) (model.Document, error) {
	id = strings.TrimSpace(id)
	row := db.QueryRowContext(ctx, `SELECT id, title, created_at_unixms, updated_at_unixms FROM documents WHERE id = ?`, id)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Document{}, NotFoundError{Kind: "document", ID: id}
	}
	return d, err
}

// DeleteDocument removes a document and, by cascade, all of its nodes.
func (s Store) DeleteDocument(ctx context.Context, id string) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	return withTx(ctx, db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return NotFoundError{Kind: "document", ID: id}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE document_id = ?`, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM state_meta WHERE k = ? AND v = ?`, "current_document_id", id); err != nil {
			return err
		}
		return nil
	})
}

// LoadNodes returns every persisted node of a document, parents before
// children and siblings in stored order.
func (s Store) LoadNodes(ctx context.Context, documentID string) ([]model.NodeRow, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if _, err := getDocument(ctx, db, documentID); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id, document_id, content, parent_node_id, sibling_order, depth
		FROM nodes WHERE document_id = ?
		ORDER BY depth, parent_node_id, sibling_order, id`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.NodeRow{}
	for rows.Next() {
		var r model.NodeRow
		var parent sql.NullString
		if err := rows.Scan(&r.ID, &r.DocumentID, &r.Content, &parent, &r.SiblingOrder, &r.Depth); err != nil {
			return nil, err
		}
		if parent.Valid && parent.String != "" {
			p := parent.String
			r.ParentNodeID = &p
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ReplaceNodes swaps the whole node set of a document inside one transaction:
// delete every row of the document, insert rows, bump updated_at, record a
// document.save event. Any failure rolls the transaction back.
func (s Store) ReplaceNodes(ctx context.Context, documentID string, rows []model.NodeRow) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	now := time.Now().UTC()
	return withTx(ctx, db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE documents SET updated_at_unixms = ? WHERE id = ?`, now.UnixMilli(), documentID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return NotFoundError{Kind: "document", ID: documentID}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE document_id = ?`, documentID); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO nodes(id, document_id, content, parent_node_id, sibling_order, depth) VALUES(?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, r := range rows {
			var parent any
			if r.ParentNodeID != nil {
				parent = *r.ParentNodeID
			}
			if _, err := stmt.ExecContext(ctx, r.ID, documentID, r.Content, parent, r.SiblingOrder, r.Depth); err != nil {
				return err
			}
		}

		return appendEventTx(ctx, tx, documentID, "document.save", map[string]any{"nodes": len(rows)}, now)
	})
}

func appendEventTx(ctx context.Context, tx *sql.Tx, documentID, typ string, payload any, ts time.Time) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO events(id, document_id, type, payload_json, created_at_unixms) VALUES(?, ?, ?, ?, ?)`,
		NewID("evt"), documentID, typ, string(raw), ts.UnixMilli())
	return err
}

// ReadEvents returns the audit events of a document, oldest first. When limit
// is positive only the newest limit events are returned.
func (s Store) ReadEvents(ctx context.Context, documentID string, limit int) ([]model.Event, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	q := `SELECT id, document_id, type, payload_json, created_at_unixms FROM events WHERE document_id = ? ORDER BY created_at_unixms DESC, rowid DESC`
	args := []any{documentID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Event{}
	for rows.Next() {
		var ev model.Event
		var payload string
		var ts int64
		if err := rows.Scan(&ev.ID, &ev.DocumentID, &ev.Type, &payload, &ts); err != nil {
			return nil, err
		}
		ev.TS = time.UnixMilli(ts).UTC()
		if payload != "" {
			var v any
			if err := json.Unmarshal([]byte(payload), &v); err != nil {
				return nil, err
			}
			ev.Payload = v
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
