// Package postgres stores boards in a hosted Postgres database through the pgx
// database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/evanschultz/leadboard/internal/app"
	"github.com/evanschultz/leadboard/internal/domain"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const driverName = "pgx"

// Repository implements app.Repository over Postgres.
type Repository struct {
	db *sql.DB
}

// Open migrates the database at url and returns a connected repository.
func Open(ctx context.Context, url string) (*Repository, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("postgres url is required")
	}
	if _, err := Migrate(url); err != nil {
		return nil, err
	}
	db, err := sql.Open(driverName, url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Repository{db: db}, nil
}

// Close closes the connection pool.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Ping checks the connection.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateBoard creates board.
func (r *Repository) CreateBoard(ctx context.Context, b domain.Board) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO boards(id, kind, slug, name, description, created_at, updated_at, archived_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, b.ID, string(b.Kind), b.Slug, b.Name, b.Description, b.CreatedAt.UTC(), b.UpdatedAt.UTC(), nullableTime(b.ArchivedAt))
	return err
}

// UpdateBoard updates board.
func (r *Repository) UpdateBoard(ctx context.Context, b domain.Board) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE boards
		SET kind = $1, slug = $2, name = $3, description = $4, updated_at = $5, archived_at = $6
		WHERE id = $7
	`, string(b.Kind), b.Slug, b.Name, b.Description, b.UpdatedAt.UTC(), nullableTime(b.ArchivedAt), b.ID)
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
		WHERE id = $1
	`, id)
	return scanBoard(row)
}

// ListBoards lists boards in creation order.
func (r *Repository) ListBoards(ctx context.Context, includeArchived bool) ([]domain.Board, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, slug, name, description, created_at, updated_at, archived_at
		FROM boards
		WHERE $1 OR archived_at IS NULL
		ORDER BY created_at ASC, id ASC
	`, includeArchived)
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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, c.ID, c.BoardID, c.Title, c.Color, c.OrderIndex, c.CreatedAt.UTC(), c.UpdatedAt.UTC(), nullableTime(c.ArchivedAt))
	return err
}

// UpdateColumn updates column.
func (r *Repository) UpdateColumn(ctx context.Context, c domain.Column) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE board_columns
		SET title = $1, color = $2, order_index = $3, updated_at = $4, archived_at = $5
		WHERE id = $6
	`, c.Title, c.Color, c.OrderIndex, c.UpdatedAt.UTC(), nullableTime(c.ArchivedAt), c.ID)
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
		WHERE id = $1
	`, id)
	return scanColumn(row)
}

// ListColumns lists the columns of a board in display order.
func (r *Repository) ListColumns(ctx context.Context, boardID string, includeArchived bool) ([]domain.Column, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, board_id, title, color, order_index, created_at, updated_at, archived_at
		FROM board_columns
		WHERE board_id = $1 AND ($2 OR archived_at IS NULL)
		ORDER BY order_index ASC, created_at ASC
	`, boardID, includeArchived)
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
	res, err := r.db.ExecContext(ctx, `DELETE FROM board_columns WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// CreateLead creates a lead and records its create event.
func (r *Repository) CreateLead(ctx context.Context, l domain.Lead) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO leads(id, board_id, status, name, company, email, phone, source, value_cents, notes_markdown, created_at, updated_at, archived_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`,
			l.ID, l.BoardID, l.Status, l.Name, l.Company, l.Email, l.Phone, l.Source, l.ValueCents, l.NotesMarkdown,
			l.CreatedAt.UTC(), l.UpdatedAt.UTC(), nullableTime(l.ArchivedAt),
		)
		if err != nil {
			return err
		}
		return insertChangeEvent(ctx, tx, domain.ChangeEvent{
			BoardID:    l.BoardID,
			CardKind:   domain.CardKindLead,
			CardID:     l.ID,
			Operation:  domain.ChangeOperationCreate,
			ActorID:    app.ActorFromContext(ctx),
			Metadata:   map[string]string{"status": l.Status, "name": l.Name},
			OccurredAt: l.CreatedAt,
		})
	})
}

// UpdateLead updates a lead and records an event classified from the change.
func (r *Repository) UpdateLead(ctx context.Context, l domain.Lead) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		prev, err := getLeadByID(ctx, tx, l.ID, true)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE leads
			SET board_id = $1, status = $2, name = $3, company = $4, email = $5, phone = $6, source = $7, value_cents = $8,
			    notes_markdown = $9, updated_at = $10, archived_at = $11
			WHERE id = $12
		`,
			l.BoardID, l.Status, l.Name, l.Company, l.Email, l.Phone, l.Source, l.ValueCents, l.NotesMarkdown,
			l.UpdatedAt.UTC(), nullableTime(l.ArchivedAt), l.ID,
		)
		if err != nil {
			return err
		}
		if err := translateNoRows(res); err != nil {
			return err
		}
		op, metadata := domain.ClassifyLeadChange(prev, l)
		return insertChangeEvent(ctx, tx, domain.ChangeEvent{
			BoardID:    l.BoardID,
			CardKind:   domain.CardKindLead,
			CardID:     l.ID,
			Operation:  op,
			ActorID:    app.ActorFromContext(ctx),
			Metadata:   metadata,
			OccurredAt: l.UpdatedAt,
		})
	})
}

// GetLead returns lead.
func (r *Repository) GetLead(ctx context.Context, id string) (domain.Lead, error) {
	return getLeadByID(ctx, r.db, id, false)
}

// ListLeads lists the leads of a board in creation order.
func (r *Repository) ListLeads(ctx context.Context, boardID string, includeArchived bool) ([]domain.Lead, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE board_id = $1 AND ($2 OR archived_at IS NULL)
		ORDER BY created_at ASC, id ASC
	`, boardID, includeArchived)
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
func (r *Repository) DeleteLead(ctx context.Context, id string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		lead, err := getLeadByID(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM leads WHERE id = $1`, id); err != nil {
			return err
		}
		return insertChangeEvent(ctx, tx, domain.ChangeEvent{
			BoardID:    lead.BoardID,
			CardKind:   domain.CardKindLead,
			CardID:     lead.ID,
			Operation:  domain.ChangeOperationDelete,
			ActorID:    app.ActorFromContext(ctx),
			Metadata:   map[string]string{"status": lead.Status, "name": lead.Name},
			OccurredAt: time.Now(),
		})
	})
}

// CreateTask creates a task and records its create event.
func (r *Repository) CreateTask(ctx context.Context, t domain.Task) error {
	labels, err := encodeLabels(t.Labels)
	if err != nil {
		return err
	}
	return r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tasks(id, board_id, status, title, description, priority, due_at, labels, created_at, updated_at, archived_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`,
			t.ID, t.BoardID, t.Status, t.Title, t.Description, string(t.Priority), nullableTime(t.DueAt), labels,
			t.CreatedAt.UTC(), t.UpdatedAt.UTC(), nullableTime(t.ArchivedAt),
		)
		if err != nil {
			return err
		}
		return insertChangeEvent(ctx, tx, domain.ChangeEvent{
			BoardID:    t.BoardID,
			CardKind:   domain.CardKindTask,
			CardID:     t.ID,
			Operation:  domain.ChangeOperationCreate,
			ActorID:    app.ActorFromContext(ctx),
			Metadata:   map[string]string{"status": t.Status, "title": t.Title},
			OccurredAt: t.CreatedAt,
		})
	})
}

// UpdateTask updates a task and records an event classified from the change.
func (r *Repository) UpdateTask(ctx context.Context, t domain.Task) error {
	labels, err := encodeLabels(t.Labels)
	if err != nil {
		return err
	}
	return r.inTx(ctx, func(tx *sql.Tx) error {
		prev, err := getTaskByID(ctx, tx, t.ID, true)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE tasks
			SET board_id = $1, status = $2, title = $3, description = $4, priority = $5, due_at = $6, labels = $7,
			    updated_at = $8, archived_at = $9
			WHERE id = $10
		`,
			t.BoardID, t.Status, t.Title, t.Description, string(t.Priority), nullableTime(t.DueAt), labels,
			t.UpdatedAt.UTC(), nullableTime(t.ArchivedAt), t.ID,
		)
		if err != nil {
			return err
		}
		if err := translateNoRows(res); err != nil {
			return err
		}
		op, metadata := domain.ClassifyTaskChange(prev, t)
		return insertChangeEvent(ctx, tx, domain.ChangeEvent{
			BoardID:    t.BoardID,
			CardKind:   domain.CardKindTask,
			CardID:     t.ID,
			Operation:  op,
			ActorID:    app.ActorFromContext(ctx),
			Metadata:   metadata,
			OccurredAt: t.UpdatedAt,
		})
	})
}

// GetTask returns task.
func (r *Repository) GetTask(ctx context.Context, id string) (domain.Task, error) {
	return getTaskByID(ctx, r.db, id, false)
}

// ListTasks lists the tasks of a board in creation order.
func (r *Repository) ListTasks(ctx context.Context, boardID string, includeArchived bool) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE board_id = $1 AND ($2 OR archived_at IS NULL)
		ORDER BY created_at ASC, id ASC
	`, boardID, includeArchived)
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
func (r *Repository) DeleteTask(ctx context.Context, id string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		task, err := getTaskByID(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id); err != nil {
			return err
		}
		return insertChangeEvent(ctx, tx, domain.ChangeEvent{
			BoardID:    task.BoardID,
			CardKind:   domain.CardKindTask,
			CardID:     task.ID,
			Operation:  domain.ChangeOperationDelete,
			ActorID:    app.ActorFromContext(ctx),
			Metadata:   map[string]string{"status": task.Status, "title": task.Title},
			OccurredAt: time.Now(),
		})
	})
}

// ListChangeEvents lists recent board events, newest first.
func (r *Repository) ListChangeEvents(ctx context.Context, boardID string, limit int) ([]domain.ChangeEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, board_id, card_kind, card_id, operation, actor_id, metadata, created_at
		FROM change_events
		WHERE board_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
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
		)
		if err := rows.Scan(&event.ID, &event.BoardID, &kindRaw, &event.CardID, &opRaw, &event.ActorID, &metadataRaw, &event.OccurredAt); err != nil {
			return nil, err
		}
		event.CardKind = domain.CardKind(kindRaw)
		event.Operation = domain.NormalizeChangeOperation(opRaw)
		event.OccurredAt = event.OccurredAt.UTC()
		if err := json.Unmarshal([]byte(metadataRaw), &event.Metadata); err != nil {
			return nil, fmt.Errorf("decode change_events.metadata: %w", err)
		}
		if event.Metadata == nil {
			event.Metadata = map[string]string{}
		}
		out = append(out, event)
	}
	return out, rows.Err()
}

// inTx runs fn in a transaction, committing when it returns nil.
func (r *Repository) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

const (
	leadColumns = `id, board_id, status, name, company, email, phone, source, value_cents, notes_markdown, created_at, updated_at, archived_at`
	taskColumns = `id, board_id, status, title, description, priority, due_at, labels, created_at, updated_at, archived_at`
)

type queryRower interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// getLeadByID loads one lead; forUpdate locks the row for the enclosing transaction.
func getLeadByID(ctx context.Context, q queryRower, id string, forUpdate bool) (domain.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	return scanLead(q.QueryRowContext(ctx, query, id))
}

func getTaskByID(ctx context.Context, q queryRower, id string, forUpdate bool) (domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	return scanTask(q.QueryRowContext(ctx, query, id))
}

func insertChangeEvent(ctx context.Context, tx *sql.Tx, event domain.ChangeEvent) error {
	if event.Metadata == nil {
		event.Metadata = map[string]string{}
	}
	metadata, err := json.Marshal(event.Metadata)
	if err != nil {
		return fmt.Errorf("encode change event metadata: %w", err)
	}
	occurred := event.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO change_events(board_id, card_kind, card_id, operation, actor_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, event.BoardID, string(event.CardKind), event.CardID, string(event.Operation), event.ActorID, string(metadata), occurred.UTC())
	if err != nil {
		return fmt.Errorf("insert change event: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBoard(s scanner) (domain.Board, error) {
	var (
		b        domain.Board
		kind     string
		archived sql.NullTime
	)
	if err := s.Scan(&b.ID, &kind, &b.Slug, &b.Name, &b.Description, &b.CreatedAt, &b.UpdatedAt, &archived); err != nil {
		return domain.Board{}, translateScanErr(err)
	}
	b.Kind = domain.BoardKind(kind)
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	b.ArchivedAt = timePtr(archived)
	return b, nil
}

func scanColumn(s scanner) (domain.Column, error) {
	var (
		c        domain.Column
		archived sql.NullTime
	)
	if err := s.Scan(&c.ID, &c.BoardID, &c.Title, &c.Color, &c.OrderIndex, &c.CreatedAt, &c.UpdatedAt, &archived); err != nil {
		return domain.Column{}, translateScanErr(err)
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	c.ArchivedAt = timePtr(archived)
	return c, nil
}

func scanLead(s scanner) (domain.Lead, error) {
	var (
		l        domain.Lead
		archived sql.NullTime
	)
	if err := s.Scan(
		&l.ID, &l.BoardID, &l.Status, &l.Name, &l.Company, &l.Email, &l.Phone, &l.Source, &l.ValueCents, &l.NotesMarkdown,
		&l.CreatedAt, &l.UpdatedAt, &archived,
	); err != nil {
		return domain.Lead{}, translateScanErr(err)
	}
	l.CreatedAt = l.CreatedAt.UTC()
	l.UpdatedAt = l.UpdatedAt.UTC()
	l.ArchivedAt = timePtr(archived)
	return l, nil
}

func scanTask(s scanner) (domain.Task, error) {
	var (
		t         domain.Task
		priority  string
		due       sql.NullTime
		labelsRaw string
		archived  sql.NullTime
	)
	if err := s.Scan(
		&t.ID, &t.BoardID, &t.Status, &t.Title, &t.Description, &priority, &due, &labelsRaw,
		&t.CreatedAt, &t.UpdatedAt, &archived,
	); err != nil {
		return domain.Task{}, translateScanErr(err)
	}
	t.Priority = domain.Priority(priority)
	t.DueAt = timePtr(due)
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	t.ArchivedAt = timePtr(archived)
	if err := json.Unmarshal([]byte(labelsRaw), &t.Labels); err != nil {
		return domain.Task{}, fmt.Errorf("decode tasks.labels: %w", err)
	}
	if t.Labels == nil {
		t.Labels = []string{}
	}
	return t, nil
}

func encodeLabels(labels []string) (string, error) {
	if labels == nil {
		labels = []string{}
	}
	raw, err := json.Marshal(labels)
	if err != nil {
		return "", fmt.Errorf("encode labels: %w", err)
	}
	return string(raw), nil
}

func translateScanErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return app.ErrNotFound
	}
	return err
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

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	ts := v.Time.UTC()
	return &ts
}
