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

// NewItem holds the initial fields of an item. ProjectID must name an existing project.
type NewItem struct {
	ProjectID    string
	Title        *string
	Detail       *string
	Completed    bool
	Priority     int
	CreationDate time.Time
}

// ItemUpdate lists the fields to change; nil fields are left alone
type ItemUpdate struct {
	ProjectID *string
	Title     *string
	Detail    *string
	Completed *bool
	Priority  *int
}

const itemColumns = `id, project_id, title, detail, creation_date, completed, priority`

func scanItem(row scanner) (model.Item, error) {
	var (
		it            model.Item
		title, detail sql.NullString
		created       string
		completed     int
	)
	if err := row.Scan(&it.ID, &it.ProjectID, &title, &detail, &created, &completed, &it.Priority); err != nil {
		return it, err
	}
	it.Title = fromNull(title)
	it.Detail = fromNull(detail)
	it.CreationDate = parseTime(created)
	it.Completed = completed == 1
	return it, nil
}

// CreateItem inserts a new item under an existing project
func (db *DB) CreateItem(ctx context.Context, ni NewItem) (model.Item, error) {
	if !model.ValidPriority(ni.Priority) {
		return model.Item{}, fmt.Errorf("invalid priority %d", ni.Priority)
	}

	created := ni.CreationDate
	if created.IsZero() {
		created = time.Now()
	}

	it := model.Item{
		ID:           uuid.NewString(),
		ProjectID:    ni.ProjectID,
		Title:        ni.Title,
		Detail:       ni.Detail,
		CreationDate: created.UTC(),
		Completed:    ni.Completed,
		Priority:     ni.Priority,
	}

	err := db.mutate(ctx, func(tx *sql.Tx) ([]Change, error) {
		ok, err := projectExists(ctx, tx, it.ProjectID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("project %s: %w", it.ProjectID, model.ErrInvalidReference)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO items (`+itemColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			it.ID, it.ProjectID, toNull(it.Title), toNull(it.Detail),
			formatTime(it.CreationDate), boolInt(it.Completed), it.Priority,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create item: %w", err)
		}
		return []Change{{Kind: KindItem, Op: OpCreated, ID: it.ID, ProjectID: it.ProjectID}}, nil
	})
	if err != nil {
		return model.Item{}, err
	}
	return it, nil
}

// GetItem returns a single item
func (db *DB) GetItem(ctx context.Context, id string) (model.Item, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	it, err := scanItem(db.q().QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Item{}, fmt.Errorf("item %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return model.Item{}, fmt.Errorf("failed to get item: %w", err)
	}
	return it, nil
}

// UpdateItem applies the non-nil fields of u. Moving an item to an unknown project fails.
func (db *DB) UpdateItem(ctx context.Context, id string, u ItemUpdate) error {
	if u.Priority != nil && !model.ValidPriority(*u.Priority) {
		return fmt.Errorf("invalid priority %d", *u.Priority)
	}

	sets := []string{"dirty = 1", "revision = revision + 1"}
	var args []any

	if u.ProjectID != nil {
		sets = append(sets, "project_id = ?")
		args = append(args, *u.ProjectID)
	}
	if u.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *u.Title)
	}
	if u.Detail != nil {
		sets = append(sets, "detail = ?")
		args = append(args, *u.Detail)
	}
	if u.Completed != nil {
		sets = append(sets, "completed = ?")
		args = append(args, boolInt(*u.Completed))
	}
	if u.Priority != nil {
		sets = append(sets, "priority = ?")
		args = append(args, *u.Priority)
	}
	args = append(args, id)

	return db.mutate(ctx, func(tx *sql.Tx) ([]Change, error) {
		if u.ProjectID != nil {
			ok, err := projectExists(ctx, tx, *u.ProjectID)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, fmt.Errorf("project %s: %w", *u.ProjectID, model.ErrInvalidReference)
			}
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE items SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to update item: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, fmt.Errorf("item %s: %w", id, model.ErrNotFound)
		}

		var projectID string
		if err := tx.QueryRowContext(ctx, `SELECT project_id FROM items WHERE id = ?`, id).Scan(&projectID); err != nil {
			return nil, fmt.Errorf("failed to read item project: %w", err)
		}
		return []Change{{Kind: KindItem, Op: OpUpdated, ID: id, ProjectID: projectID}}, nil
	})
}

// DeleteItem removes a single item
func (db *DB) DeleteItem(ctx context.Context, id string) error {
	return db.mutate(ctx, func(tx *sql.Tx) ([]Change, error) {
		var projectID string
		err := tx.QueryRowContext(ctx, `SELECT project_id FROM items WHERE id = ?`, id).Scan(&projectID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("item %s: %w", id, model.ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to look up item: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id); err != nil {
			return nil, fmt.Errorf("failed to delete item: %w", err)
		}

		c := Change{Kind: KindItem, Op: OpDeleted, ID: id, ProjectID: projectID}
		if err := addTombstone(ctx, tx, c); err != nil {
			return nil, err
		}
		return []Change{c}, nil
	})
}

// loadItems fetches the items of the given projects, oldest first, keyed by project id
func loadItems(ctx context.Context, q querier, projectIDs []string) (map[string][]model.Item, error) {
	result := make(map[string][]model.Item, len(projectIDs))
	if len(projectIDs) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(projectIDs)), ", ")
	args := make([]any, len(projectIDs))
	for i, id := range projectIDs {
		args[i] = id
	}

	rows, err := q.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE project_id IN (`+placeholders+`) ORDER BY creation_date, id`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		result[it.ProjectID] = append(result[it.ProjectID], it)
	}
	return result, rows.Err()
}
