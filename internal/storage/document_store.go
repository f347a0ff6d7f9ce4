package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pagebuilder/internal/domain"
)

// DocumentStore implements domain.DocumentStore using SQLite.
type DocumentStore struct {
	db *DB
}

func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// SaveDocument upserts the document row and replaces its elements and
// connections in a single transaction.
func (s *DocumentStore) SaveDocument(d *domain.Document) error {
	settings, err := json.Marshal(d.Settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	pages, err := json.Marshal(d.Pages)
	if err != nil {
		return fmt.Errorf("marshal pages: %w", err)
	}

	tx, err := s.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var publishedAt any
	if d.PublishedAt != nil {
		publishedAt = *d.PublishedAt
	}
	if _, err := tx.Exec(
		`INSERT INTO documents (id, name, description, status, settings_json, pages_json, published_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			status = excluded.status,
			settings_json = excluded.settings_json,
			pages_json = excluded.pages_json,
			published_at = excluded.published_at,
			updated_at = excluded.updated_at`,
		d.ID, d.Name, d.Description, string(d.Status), string(settings), string(pages), publishedAt, d.CreatedAt, d.UpdatedAt,
	); err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM elements WHERE document_id = ?`, d.ID); err != nil {
		return fmt.Errorf("delete elements: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM connections WHERE document_id = ?`, d.ID); err != nil {
		return fmt.Errorf("delete connections: %w", err)
	}

	insertEl := func(el *domain.Element, order int) error {
		constraints, _ := json.Marshal(el.Constraints)
		style, _ := json.Marshal(el.Style)
		props, err := json.Marshal(el.Properties)
		if err != nil {
			return fmt.Errorf("marshal properties of %s: %w", el.ID, err)
		}
		_, err = tx.Exec(
			`INSERT INTO elements (id, document_id, page_id, parent_id, kind, x, y, width, height,
				constraints_json, style_json, properties_json, visible, locked, sort_order, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			el.ID, d.ID, el.PageID, el.ParentID, string(el.Kind), el.Position.X, el.Position.Y, el.Size.Width, el.Size.Height,
			string(constraints), string(style), string(props), el.Visible, el.Locked, order, el.CreatedAt, el.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert element %s: %w", el.ID, err)
		}
		return nil
	}

	// Only elements reachable from a page are written.
	var walk func(ids []string) error
	walk = func(ids []string) error {
		for i, id := range ids {
			el, ok := d.Elements[id]
			if !ok {
				continue
			}
			if err := insertEl(el, i); err != nil {
				return err
			}
			if err := walk(el.Children); err != nil {
				return err
			}
		}
		return nil
	}
	for _, p := range d.Pages {
		if err := walk(p.ElementIDs); err != nil {
			return err
		}
	}

	for i, c := range d.Connections {
		if _, err := tx.Exec(
			`INSERT INTO connections (id, document_id, source_element_id, target_element_id, connection_type,
				source_property, target_property, description, is_active, sort_order)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, d.ID, c.SourceElementID, c.TargetElementID, string(c.ConnectionType),
			c.SourceProperty, c.TargetProperty, c.Description, c.IsActive, i,
		); err != nil {
			return fmt.Errorf("insert connection %s: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

// LoadDocument reads a document and rebuilds its element arena from the
// parent and sort_order columns.
func (s *DocumentStore) LoadDocument(id string) (*domain.Document, error) {
	d := &domain.Document{ID: id}
	var status, settings, pages string
	var publishedAt sql.NullTime
	err := s.db.Conn().QueryRow(
		`SELECT name, description, status, settings_json, pages_json, published_at, created_at, updated_at
		 FROM documents WHERE id = ?`, id,
	).Scan(&d.Name, &d.Description, &status, &settings, &pages, &publishedAt, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load document %s: %w", id, domain.ErrDocumentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	d.Status = domain.DocumentStatus(status)
	if publishedAt.Valid {
		t := publishedAt.Time
		d.PublishedAt = &t
	}
	if err := json.Unmarshal([]byte(settings), &d.Settings); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if err := json.Unmarshal([]byte(pages), &d.Pages); err != nil {
		return nil, fmt.Errorf("decode pages: %w", err)
	}

	elements, err := s.loadElements(id)
	if err != nil {
		return nil, err
	}
	d.Elements = make(map[string]*domain.Element, len(elements))
	roots := map[string][]string{}
	for _, el := range elements {
		d.Elements[el.ID] = el
	}
	for _, el := range elements {
		if el.ParentID == "" {
			roots[el.PageID] = append(roots[el.PageID], el.ID)
			continue
		}
		if parent, ok := d.Elements[el.ParentID]; ok {
			parent.Children = append(parent.Children, el.ID)
		}
	}
	for i := range d.Pages {
		d.Pages[i].ElementIDs = roots[d.Pages[i].ID]
		if d.Pages[i].ElementIDs == nil {
			d.Pages[i].ElementIDs = []string{}
		}
	}

	d.Connections, err = s.loadConnections(id)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *DocumentStore) loadElements(docID string) ([]*domain.Element, error) {
	rows, err := s.db.Conn().Query(
		`SELECT id, page_id, parent_id, kind, x, y, width, height, constraints_json, style_json, properties_json,
			visible, locked, created_at, updated_at
		 FROM elements WHERE document_id = ? ORDER BY parent_id, sort_order ASC`, docID,
	)
	if err != nil {
		return nil, fmt.Errorf("load elements: %w", err)
	}
	defer rows.Close()

	var out []*domain.Element
	for rows.Next() {
		el := &domain.Element{}
		var kind, constraints, style, props string
		if err := rows.Scan(&el.ID, &el.PageID, &el.ParentID, &kind, &el.Position.X, &el.Position.Y,
			&el.Size.Width, &el.Size.Height, &constraints, &style, &props,
			&el.Visible, &el.Locked, &el.CreatedAt, &el.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan element: %w", err)
		}
		el.Kind = domain.Kind(kind)
		_ = json.Unmarshal([]byte(constraints), &el.Constraints)
		_ = json.Unmarshal([]byte(style), &el.Style)
		if err := json.Unmarshal([]byte(props), &el.Properties); err != nil {
			return nil, fmt.Errorf("decode properties of %s: %w", el.ID, err)
		}
		if el.Properties == nil {
			el.Properties = domain.Properties{}
		}
		if el.IsContainer() {
			el.Children = []string{}
		}
		out = append(out, el)
	}
	return out, rows.Err()
}

func (s *DocumentStore) loadConnections(docID string) ([]domain.Connection, error) {
	rows, err := s.db.Conn().Query(
		`SELECT id, source_element_id, target_element_id, connection_type, source_property, target_property,
			description, is_active
		 FROM connections WHERE document_id = ? ORDER BY sort_order ASC`, docID,
	)
	if err != nil {
		return nil, fmt.Errorf("load connections: %w", err)
	}
	defer rows.Close()

	out := []domain.Connection{}
	for rows.Next() {
		var c domain.Connection
		var typ string
		if err := rows.Scan(&c.ID, &c.SourceElementID, &c.TargetElementID, &typ, &c.SourceProperty,
			&c.TargetProperty, &c.Description, &c.IsActive); err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		c.ConnectionType = domain.ConnectionType(typ)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *DocumentStore) ListDocuments() ([]domain.DocumentSummary, error) {
	rows, err := s.db.Conn().Query(
		`SELECT d.id, d.name, d.status, d.pages_json, d.updated_at,
			(SELECT COUNT(*) FROM elements e WHERE e.document_id = d.id)
		 FROM documents d ORDER BY d.updated_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []domain.DocumentSummary
	for rows.Next() {
		var sum domain.DocumentSummary
		var status, pages string
		if err := rows.Scan(&sum.ID, &sum.Name, &status, &pages, &sum.UpdatedAt, &sum.ElementCount); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		sum.Status = domain.DocumentStatus(status)
		var ps []json.RawMessage
		if json.Unmarshal([]byte(pages), &ps) == nil {
			sum.PageCount = len(ps)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// DeleteDocument removes the document together with its elements,
// connections and history.
func (s *DocumentStore) DeleteDocument(id string) error {
	tx, err := s.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM elements WHERE document_id = ?`,
		`DELETE FROM connections WHERE document_id = ?`,
		`DELETE FROM history_nodes WHERE document_id = ?`,
		`DELETE FROM history_state WHERE document_id = ?`,
	} {
		if _, err := tx.Exec(q, id); err != nil {
			return fmt.Errorf("delete document %s: %w", id, err)
		}
	}
	res, err := tx.Exec(`DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete document %s: %w", id, domain.ErrDocumentNotFound)
	}
	return tx.Commit()
}

func (s *DocumentStore) PublishDocument(id string, at time.Time) error {
	res, err := s.db.Conn().Exec(
		`UPDATE documents SET status = ?, published_at = ?, updated_at = ? WHERE id = ?`,
		string(domain.StatusPublished), at, at, id,
	)
	if err != nil {
		return fmt.Errorf("publish document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("publish document %s: %w", id, domain.ErrDocumentNotFound)
	}
	return nil
}
