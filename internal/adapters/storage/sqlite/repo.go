package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/evanschultz/leadboard/internal/app"
	"github.com/evanschultz/leadboard/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// Repository stores boards, columns and cards in one SQLite file.
type Repository struct {
	db *sql.DB
}

// Open opens (and migrates) the database at path, creating its directory.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// OpenInMemory opens a private in-memory database.
func OpenInMemory() (*Repository, error) {
	db, err := sql.Open(driverName, ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	// each pooled connection would otherwise see its own empty database
	db.SetMaxOpenConns(1)
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the underlying database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Ping checks the connection.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS boards (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			slug TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			archived_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS board_columns (
			id TEXT PRIMARY KEY,
			board_id TEXT NOT NULL,
			title TEXT NOT NULL,
			color TEXT NOT NULL DEFAULT 'gray',
			order_index INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			archived_at TEXT,
			FOREIGN KEY(board_id) REFERENCES boards(id) ON DELETE CASCADE
		);`,
		// status holds a column id but is not a foreign key: cards whose
		// column is gone stay stored and are hidden from the board.
		`CREATE TABLE IF NOT EXISTS leads (
			id TEXT PRIMARY KEY,
			board_id TEXT NOT NULL,
			status TEXT NOT NULL,
			name TEXT NOT NULL,
			company TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT '',
			value_cents INTEGER NOT NULL DEFAULT 0,
			notes_markdown TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			archived_at TEXT,
			FOREIGN KEY(board_id) REFERENCES boards(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			board_id TEXT NOT NULL,
			status TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			priority TEXT NOT NULL,
			due_at TEXT,
			labels_json TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			archived_at TEXT,
			FOREIGN KEY(board_id) REFERENCES boards(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS change_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			board_id TEXT NOT NULL,
			card_kind TEXT NOT NULL,
			card_id TEXT NOT NULL,
			operation TEXT NOT NULL,
			actor_id TEXT NOT NULL,
			metadata_json TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL,
			FOREIGN KEY(board_id) REFERENCES boards(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_board_columns_board_order ON board_columns(board_id, order_index);`,
		`CREATE INDEX IF NOT EXISTS idx_leads_board_status ON leads(board_id, status);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_board_status ON tasks(board_id, status);`,
		`CREATE INDEX IF NOT EXISTS idx_change_events_board_created_at ON change_events(board_id, created_at DESC, id DESC);`,
	}

	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// CreateBoard creates board.
func (r *Repository) CreateBoard(ctx context.Context, b domain.Board) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO boards(id, kind, slug, name, description, created_at, updated_at, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, b.ID, string(b.Kind), b.Slug, b.Name, b.Description, ts(b.CreatedAt), ts(b.UpdatedAt), nullableTS(b.ArchivedAt))
	return err
}

// UpdateBoard updates board.
func (r *Repository) UpdateBoard(ctx context.Context, b domain.Board) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE boards
		SET kind = ?, slug = ?, name = ?, description = ?, updated_at = ?, archived_at = ?
		WHERE id = ?
	`, string(b.Kind), b.Slug, b.Name, b.Description, ts(b.UpdatedAt), nullableTS(b.ArchivedAt), b.ID)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// GetBoard returns board.
func (r *Repository) GetBoard(ctx context.Context, id string) (domain.Board, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, kind, slug, name, description, created_at, updated_at, archived_at
		FROM boards
		WHERE id = ?
	`, id)
	return scanBoard(row)
}

// ListBoards lists boards in creation order.
func (r *Repository) ListBoards(ctx context.Context, includeArchived bool) ([]domain.Board, error) {
	query := `
		SELECT id, kind, slug, name, description, created_at, updated_at, archived_at
		FROM boards
	`
	if !includeArchived {
		query += ` WHERE archived_at IS NULL`
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Board{}
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CreateColumn creates column.
func (r *Repository) CreateColumn(ctx context.Context, c domain.Column) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO board_columns(id, board_id, title, color, order_index, created_at, updated_at, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.BoardID, c.Title, c.Color, c.OrderIndex, ts(c.CreatedAt), ts(c.UpdatedAt), nullableTS(c.ArchivedAt))
	return err
}

// UpdateColumn updates column.
func (r *Repository) UpdateColumn(ctx context.Context, c domain.Column) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE board_columns
		SET title = ?, color = ?, order_index = ?, updated_at = ?, archived_at = ?
		WHERE id = ?
	`, c.Title, c.Color, c.OrderIndex, ts(c.UpdatedAt), nullableTS(c.ArchivedAt), c.ID)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// GetColumn returns column.
func (r *Repository) GetColumn(ctx context.Context, id string) (domain.Column, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, board_id, title, color, order_index, created_at, updated_at, archived_at
		FROM board_columns
		WHERE id = ?
	`, id)
	return scanColumn(row)
}

// ListColumns lists the columns of a board in display order.
func (r *Repository) ListColumns(ctx context.Context, boardID string, includeArchived bool) ([]domain.Column, error) {
	query := `
		SELECT id, board_id, title, color, order_index, created_at, updated_at, archived_at
		FROM board_columns
		WHERE board_id = ?
	`
	if !includeArchived {
		query += ` AND archived_at IS NULL`
	}
	query += ` ORDER BY order_index ASC, created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Column{}
	for rows.Next() {
		c, err := scanColumn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteColumn removes a column row.
func (r *Repository) DeleteColumn(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM board_columns WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// CreateLead creates a lead and records its create event.
func (r *Repository) CreateLead(ctx context.Context, l domain.Lead) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO leads(id, board_id, status, name, company, email, phone, source, value_cents, notes_markdown, created_at, updated_at, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		l.ID, l.BoardID, l.Status, l.Name, l.Company, l.Email, l.Phone, l.Source, l.ValueCents, l.NotesMarkdown,
		ts(l.CreatedAt), ts(l.UpdatedAt), nullableTS(l.ArchivedAt),
	)
	if err != nil {
		return err
	}

	err = insertChangeEvent(ctx, tx, domain.ChangeEvent{
		BoardID:   l.BoardID,
		CardKind:  domain.CardKindLead,
		CardID:    l.ID,
		Operation: domain.ChangeOperationCreate,
		ActorID:   app.ActorFromContext(ctx),
		Metadata: map[string]string{
			"status": l.Status,
			"name":   l.Name,
		},
		OccurredAt: l.CreatedAt,
	})
	if err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateLead updates a lead and records an event classified from the change.
func (r *Repository) UpdateLead(ctx context.Context, l domain.Lead) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	prev, err := getLeadByID(ctx, tx, l.ID)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE leads
		SET board_id = ?, status = ?, name = ?, company = ?, email = ?, phone = ?, source = ?, value_cents = ?, notes_markdown = ?,
		    updated_at = ?, archived_at = ?
		WHERE id = ?
	`,
		l.BoardID, l.Status, l.Name, l.Company, l.Email, l.Phone, l.Source, l.ValueCents, l.NotesMarkdown,
		ts(l.UpdatedAt), nullableTS(l.ArchivedAt), l.ID,
	)
	if err != nil {
		return err
	}
	if err = translateNoRows(res); err != nil {
		return err
	}

	op, metadata := domain.ClassifyLeadChange(prev, l)
	err = insertChangeEvent(ctx, tx, domain.ChangeEvent{
		BoardID:    l.BoardID,
		CardKind:   domain.CardKindLead,
		CardID:     l.ID,
		Operation:  op,
		ActorID:    app.ActorFromContext(ctx),
		Metadata:   metadata,
		OccurredAt: l.UpdatedAt,
	})
	if err != nil {
		return err
	}
	return tx.Commit()
}

// GetLead returns lead.
func (r *Repository) GetLead(ctx context.Context, id string) (domain.Lead, error) {
	return getLeadByID(ctx, r.db, id)
}

// ListLeads lists the leads of a board in creation order.
func (r *Repository) ListLeads(ctx context.Context, boardID string, includeArchived bool) ([]domain.Lead, error) {
	query := `
		SELECT id, board_id, status, name, company, email, phone, source, value_cents, notes_markdown, created_at, updated_at, archived_at
		FROM leads
		WHERE board_id = ?
	`
	if !includeArchived {
		query += ` AND archived_at IS NULL`
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, lead)
	}
	return out, rows.Err()
}

// DeleteLead removes a lead and records its delete event.
func (r *Repository) DeleteLead(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	lead, err := getLeadByID(ctx, tx, id)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM leads WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err = translateNoRows(res); err != nil {
		return err
	}

	err = insertChangeEvent(ctx, tx, domain.ChangeEvent{
		BoardID:   lead.BoardID,
		CardKind:  domain.CardKindLead,
		CardID:    lead.ID,
		Operation: domain.ChangeOperationDelete,
		ActorID:   app.ActorFromContext(ctx),
		Metadata: map[string]string{
			"status": lead.Status,
			"name":   lead.Name,
		},
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return tx.Commit()
}

// CreateTask creates a task and records its create event.
func (r *Repository) CreateTask(ctx context.Context, t domain.Task) (err error) {
	labelsJSON, err := json.Marshal(labelsOrEmpty(t.Labels))
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tasks(id, board_id, status, title, description, priority, due_at, labels_json, created_at, updated_at, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID, t.BoardID, t.Status, t.Title, t.Description, string(t.Priority), nullableTS(t.DueAt), string(labelsJSON),
		ts(t.CreatedAt), ts(t.UpdatedAt), nullableTS(t.ArchivedAt),
	)
	if err != nil {
		return err
	}

	err = insertChangeEvent(ctx, tx, domain.ChangeEvent{
		BoardID:   t.BoardID,
		CardKind:  domain.CardKindTask,
		CardID:    t.ID,
		Operation: domain.ChangeOperationCreate,
		ActorID:   app.ActorFromContext(ctx),
		Metadata: map[string]string{
			"status": t.Status,
			"title":  t.Title,
		},
		OccurredAt: t.CreatedAt,
	})
	if err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateTask updates a task and records an event classified from the change.
func (r *Repository) UpdateTask(ctx context.Context, t domain.Task) (err error) {
	labelsJSON, err := json.Marshal(labelsOrEmpty(t.Labels))
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	prev, err := getTaskByID(ctx, tx, t.ID)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE tasks
		SET board_id = ?, status = ?, title = ?, description = ?, priority = ?, due_at = ?, labels_json = ?, updated_at = ?, archived_at = ?
		WHERE id = ?
	`,
		t.BoardID, t.Status, t.Title, t.Description, string(t.Priority), nullableTS(t.DueAt), string(labelsJSON),
		ts(t.UpdatedAt), nullableTS(t.ArchivedAt), t.ID,
	)
	if err != nil {
		return err
	}
	if err = translateNoRows(res); err != nil {
		return err
	}

	op, metadata := domain.ClassifyTaskChange(prev, t)
	err = insertChangeEvent(ctx, tx, domain.ChangeEvent{
		BoardID:    t.BoardID,
		CardKind:   domain.CardKindTask,
		CardID:     t.ID,
		Operation:  op,
		ActorID:    app.ActorFromContext(ctx),
		Metadata:   metadata,
		OccurredAt: t.UpdatedAt,
	})
	if err != nil {
		return err
	}
	return tx.Commit()
}

// GetTask returns task.
func (r *Repository) GetTask(ctx context.Context, id string) (domain.Task, error) {
	return getTaskByID(ctx, r.db, id)
}

// ListTasks lists the tasks of a board in creation order.
func (r *Repository) ListTasks(ctx context.Context, boardID string, includeArchived bool) ([]domain.Task, error) {
	query := `
		SELECT id, board_id, status, title, description, priority, due_at, labels_json, created_at, updated_at, archived_at
		FROM tasks
		WHERE board_id = ?
	`
	if !includeArchived {
		query += ` AND archived_at IS NULL`
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

// DeleteTask removes a task and records its delete event.
func (r *Repository) DeleteTask(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	task, err := getTaskByID(ctx, tx, id)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err = translateNoRows(res); err != nil {
		return err
	}

	err = insertChangeEvent(ctx, tx, domain.ChangeEvent{
		BoardID:   task.BoardID,
		CardKind:  domain.CardKindTask,
		CardID:    task.ID,
		Operation: domain.ChangeOperationDelete,
		ActorID:   app.ActorFromContext(ctx),
		Metadata: map[string]string{
			"status": task.Status,
			"title":  task.Title,
		},
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return tx.Commit()
}

// ListChangeEvents lists recent board events, newest first.
func (r *Repository) ListChangeEvents(ctx context.Context, boardID string, limit int) ([]domain.ChangeEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, board_id, card_kind, card_id, operation, actor_id, metadata_json, created_at
		FROM change_events
		WHERE board_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, boardID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.ChangeEvent, 0)
	for rows.Next() {
		var (
			event       domain.ChangeEvent
			kindRaw     string
			opRaw       string
			metadataRaw string
			createdRaw  string
		)
		if err := rows.Scan(&event.ID, &event.BoardID, &kindRaw, &event.CardID, &opRaw, &event.ActorID, &metadataRaw, &createdRaw); err != nil {
			return nil, err
		}
		event.CardKind = domain.CardKind(kindRaw)
		event.Operation = domain.NormalizeChangeOperation(opRaw)
		event.OccurredAt = parseTS(createdRaw)
		if strings.TrimSpace(metadataRaw) == "" {
			metadataRaw = "{}"
		}
		if err := json.Unmarshal([]byte(metadataRaw), &event.Metadata); err != nil {
			return nil, fmt.Errorf("decode change_events.metadata_json: %w", err)
		}
		if event.Metadata == nil {
			event.Metadata = map[string]string{}
		}
		out = append(out, event)
	}
	return out, rows.Err()
}

// queryRower is the read side shared by *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

func getLeadByID(ctx context.Context, q queryRower, id string) (domain.Lead, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, board_id, status, name, company, email, phone, source, value_cents, notes_markdown, created_at, updated_at, archived_at
		FROM leads
		WHERE id = ?
	`, id)
	return scanLead(row)
}

func getTaskByID(ctx context.Context, q queryRower, id string) (domain.Task, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, board_id, status, title, description, priority, due_at, labels_json, created_at, updated_at, archived_at
		FROM tasks
		WHERE id = ?
	`, id)
	return scanTask(row)
}

// execerContext is the write side shared by *sql.DB and *sql.Tx.
type execerContext interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}

func insertChangeEvent(ctx context.Context, execer execerContext, event domain.ChangeEvent) error {
	if event.Metadata == nil {
		event.Metadata = map[string]string{}
	}
	metadataJSON, err := json.Marshal(event.Metadata)
	if err != nil {
		return fmt.Errorf("encode change event metadata: %w", err)
	}
	occurred := event.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	_, err = execer.ExecContext(ctx, `
		INSERT INTO change_events(board_id, card_kind, card_id, operation, actor_id, metadata_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		event.BoardID,
		string(event.CardKind),
		event.CardID,
		string(event.Operation),
		event.ActorID,
		string(metadataJSON),
		ts(occurred),
	)
	if err != nil {
		return fmt.Errorf("insert change event: %w", err)
	}
	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanBoard(s scanner) (domain.Board, error) {
	var (
		b          domain.Board
		kind       string
		createdRaw string
		updatedRaw string
		archived   sql.NullString
	)
	if err := s.Scan(&b.ID, &kind, &b.Slug, &b.Name, &b.Description, &createdRaw, &updatedRaw, &archived); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Board{}, app.ErrNotFound
		}
		return domain.Board{}, err
	}
	b.Kind = domain.BoardKind(kind)
	b.CreatedAt = parseTS(createdRaw)
	b.UpdatedAt = parseTS(updatedRaw)
	b.ArchivedAt = parseNullTS(archived)
	return b, nil
}

func scanColumn(s scanner) (domain.Column, error) {
	var (
		c          domain.Column
		createdRaw string
		updatedRaw string
		archived   sql.NullString
	)
	if err := s.Scan(&c.ID, &c.BoardID, &c.Title, &c.Color, &c.OrderIndex, &createdRaw, &updatedRaw, &archived); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Column{}, app.ErrNotFound
		}
		return domain.Column{}, err
	}
	c.CreatedAt = parseTS(createdRaw)
	c.UpdatedAt = parseTS(updatedRaw)
	c.ArchivedAt = parseNullTS(archived)
	return c, nil
}

func scanLead(s scanner) (domain.Lead, error) {
	var (
		l          domain.Lead
		createdRaw string
		updatedRaw string
		archived   sql.NullString
	)
	if err := s.Scan(
		&l.ID, &l.BoardID, &l.Status, &l.Name, &l.Company, &l.Email, &l.Phone, &l.Source, &l.ValueCents, &l.NotesMarkdown,
		&createdRaw, &updatedRaw, &archived,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Lead{}, app.ErrNotFound
		}
		return domain.Lead{}, err
	}
	l.CreatedAt = parseTS(createdRaw)
	l.UpdatedAt = parseTS(updatedRaw)
	l.ArchivedAt = parseNullTS(archived)
	return l, nil
}

func scanTask(s scanner) (domain.Task, error) {
	var (
		t          domain.Task
		priority   string
		dueRaw     sql.NullString
		labelsRaw  string
		createdRaw string
		updatedRaw string
		archived   sql.NullString
	)
	if err := s.Scan(
		&t.ID, &t.BoardID, &t.Status, &t.Title, &t.Description, &priority, &dueRaw, &labelsRaw,
		&createdRaw, &updatedRaw, &archived,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Task{}, app.ErrNotFound
		}
		return domain.Task{}, err
	}
	t.Priority = domain.Priority(priority)
	t.DueAt = parseNullTS(dueRaw)
	t.CreatedAt = parseTS(createdRaw)
	t.UpdatedAt = parseTS(updatedRaw)
	t.ArchivedAt = parseNullTS(archived)
	if strings.TrimSpace(labelsRaw) == "" {
		labelsRaw = "[]"
	}
	if err := json.Unmarshal([]byte(labelsRaw), &t.Labels); err != nil {
		return domain.Task{}, fmt.Errorf("decode labels_json: %w", err)
	}
	return t, nil
}

func labelsOrEmpty(labels []string) []string {
	if labels == nil {
		return []string{}
	}
	return labels
}

func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return app.ErrNotFound
	}
	return nil
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullableTS(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

func parseNullTS(v sql.NullString) *time.Time {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil
	}
	ts := parseTS(v.String)
	return &ts
}
