package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/existflow/binge/internal/model"
)

// timeLayout is fixed width so stored timestamps sort lexicographically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// NewProject holds the initial fields of a project. A zero CreationDate means now.
type NewProject struct {
	Title        *string
	Detail       *string
	Color        *string
	Closed       bool
	ReminderTime *model.TimeOfDay
	CreationDate time.Time
}

// ProjectUpdate lists the fields to change; nil fields are left alone
type ProjectUpdate struct {
	Title         *string
	Detail        *string
	Color         *string
	Closed        *bool
	ReminderTime  *model.TimeOfDay
	ClearReminder bool
}

const projectColumns = `id, title, detail, color, creation_date, closed, reminder_time`

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (model.Project, error) {
	var (
		p                            model.Project
		title, detail, color, remind sql.NullString
		created                      string
		closed                       int
	)
	if err := row.Scan(&p.ID, &title, &detail, &color, &created, &closed, &remind); err != nil {
		return p, err
	}
	p.Title = fromNull(title)
	p.Detail = fromNull(detail)
	p.Color = fromNull(color)
	p.CreationDate = parseTime(created)
	p.Closed = closed == 1
	if remind.Valid {
		if t, err := model.ParseTimeOfDay(remind.String); err == nil {
			p.ReminderTime = &t
		}
	}
	return p, nil
}

// CreateProject inserts a new project and returns it
func (db *DB) CreateProject(ctx context.Context, np NewProject) (model.Project, error) {
	created := np.CreationDate
	if created.IsZero() {
		created = time.Now()
	}

	p := model.Project{
		ID:           uuid.NewString(),
		Title:        np.Title,
		Detail:       np.Detail,
		Color:        np.Color,
		CreationDate: created.UTC(),
		Closed:       np.Closed,
		ReminderTime: np.ReminderTime,
	}

	err := db.mutate(ctx, func(tx *sql.Tx) ([]Change, error) {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO projects (`+projectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.ID, toNull(p.Title), toNull(p.Detail), toNull(p.Color),
			formatTime(p.CreationDate), boolInt(p.Closed), reminderValue(p.ReminderTime),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create project: %w", err)
		}
		return []Change{{Kind: KindProject, Op: OpCreated, ID: p.ID, ProjectID: p.ID}}, nil
	})
	if err != nil {
		return model.Project{}, err
	}
	return p, nil
}

// GetProject returns the project with its items
func (db *DB) GetProject(ctx context.Context, id string) (model.Project, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	q := db.q()
	p, err := scanProject(q.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Project{}, fmt.Errorf("project %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return model.Project{}, fmt.Errorf("failed to get project: %w", err)
	}

	items, err := loadItems(ctx, q, []string{id})
	if err != nil {
		return model.Project{}, err
	}
	p.Items = items[id]
	return p, nil
}

// UpdateProject applies the non-nil fields of u
func (db *DB) UpdateProject(ctx context.Context, id string, u ProjectUpdate) error {
	sets := []string{"dirty = 1", "revision = revision + 1"}
	var args []any

	if u.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *u.Title)
	}
	if u.Detail != nil {
		sets = append(sets, "detail = ?")
		args = append(args, *u.Detail)
	}
	if u.Color != nil {
		sets = append(sets, "color = ?")
		args = append(args, *u.Color)
	}
	if u.Closed != nil {
		sets = append(sets, "closed = ?")
		args = append(args, boolInt(*u.Closed))
	}
	if u.ClearReminder {
		sets = append(sets, "reminder_time = NULL")
	} else if u.ReminderTime != nil {
		sets = append(sets, "reminder_time = ?")
		args = append(args, u.ReminderTime.String())
	}
	args = append(args, id)

	return db.mutate(ctx, func(tx *sql.Tx) ([]Change, error) {
		res, err := tx.ExecContext(ctx,
			`UPDATE projects SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to update project: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, fmt.Errorf("project %s: %w", id, model.ErrNotFound)
		}
		return []Change{{Kind: KindProject, Op: OpUpdated, ID: id, ProjectID: id}}, nil
	})
}

// DeleteProject removes a project and every item it owns
func (db *DB) DeleteProject(ctx context.Context, id string) error {
	return db.mutate(ctx, func(tx *sql.Tx) ([]Change, error) {
		return deleteProjectTx(ctx, tx, id, true)
	})
}

// DeleteAll removes every project and every item
func (db *DB) DeleteAll(ctx context.Context) error {
	return db.mutate(ctx, func(tx *sql.Tx) ([]Change, error) {
		return deleteAllTx(ctx, tx, true)
	})
}

func deleteAllTx(ctx context.Context, tx *sql.Tx, tombstone bool) ([]Change, error) {
	ids, err := queryIDs(ctx, tx, `SELECT id FROM projects ORDER BY creation_date`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	var changes []Change
	for _, id := range ids {
		c, err := deleteProjectTx(ctx, tx, id, tombstone)
		if err != nil {
			return nil, err
		}
		changes = append(changes, c...)
	}
	return changes, nil
}

// deleteProjectTx deletes items explicitly so each one is reported and tombstoned
func deleteProjectTx(ctx context.Context, tx *sql.Tx, id string, tombstone bool) ([]Change, error) {
	itemIDs, err := queryIDs(ctx, tx, `SELECT id FROM items WHERE project_id = ? ORDER BY creation_date`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list project items: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE project_id = ?`, id); err != nil {
		return nil, fmt.Errorf("failed to delete project items: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("project %s: %w", id, model.ErrNotFound)
	}

	changes := make([]Change, 0, len(itemIDs)+1)
	for _, itemID := range itemIDs {
		changes = append(changes, Change{Kind: KindItem, Op: OpDeleted, ID: itemID, ProjectID: id})
	}
	changes = append(changes, Change{Kind: KindProject, Op: OpDeleted, ID: id, ProjectID: id})

	if tombstone {
		for _, c := range changes {
			if err := addTombstone(ctx, tx, c); err != nil {
				return nil, err
			}
		}
	}
	return changes, nil
}

func queryIDs(ctx context.Context, q querier, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func projectExists(ctx context.Context, q querier, id string) (bool, error) {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects WHERE id = ?`, id).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to look up project: %w", err)
	}
	return n > 0, nil
}

// Column helpers

func toNull(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func reminderValue(t *model.TimeOfDay) any {
	if t == nil {
		return nil
	}
	return t.String()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
