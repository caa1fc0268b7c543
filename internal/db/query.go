package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/existflow/binge/internal/model"
)

// ProjectFilter restricts projects; nil fields match everything
type ProjectFilter struct {
	Closed *bool
}

func (f ProjectFilter) where() (string, []any) {
	var conds []string
	var args []any
	if f.Closed != nil {
		conds = append(conds, "closed = ?")
		args = append(args, boolInt(*f.Closed))
	}
	return joinWhere(conds), args
}

// ItemFilter restricts items; zero fields match everything
type ItemFilter struct {
	Completed     *bool
	ProjectID     string
	ProjectClosed *bool
}

func (f ItemFilter) where() (string, []any) {
	var conds []string
	var args []any
	if f.Completed != nil {
		conds = append(conds, "completed = ?")
		args = append(args, boolInt(*f.Completed))
	}
	if f.ProjectID != "" {
		conds = append(conds, "project_id = ?")
		args = append(args, f.ProjectID)
	}
	if f.ProjectClosed != nil {
		conds = append(conds, "project_id IN (SELECT id FROM projects WHERE closed = ?)")
		args = append(args, boolInt(*f.ProjectClosed))
	}
	return joinWhere(conds), args
}

func joinWhere(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

// ProjectSort orders project queries
type ProjectSort int

const (
	ProjectsByCreationDesc ProjectSort = iota
	ProjectsByCreation
	ProjectsByTitle
)

func (s ProjectSort) orderBy() string {
	switch s {
	case ProjectsByCreation:
		return " ORDER BY creation_date ASC, id"
	case ProjectsByTitle:
		return fmt.Sprintf(" ORDER BY COALESCE(title, '%s') ASC, creation_date ASC", model.DefaultProjectTitle)
	default:
		return " ORDER BY creation_date DESC, id"
	}
}

// ItemSort orders item queries
type ItemSort int

const (
	ItemsByPriority ItemSort = iota // Highest first, unset counts as low
	ItemsByCreation
	ItemsByTitle
)

func (s ItemSort) orderBy() string {
	switch s {
	case ItemsByCreation:
		return " ORDER BY creation_date ASC, id"
	case ItemsByTitle:
		return fmt.Sprintf(" ORDER BY COALESCE(title, '%s') ASC, creation_date ASC", model.DefaultItemTitle)
	default:
		return fmt.Sprintf(" ORDER BY MAX(priority, %d) DESC, creation_date ASC, id", model.PriorityLow)
	}
}

// ProjectQuery selects projects. Limit <= 0 means no limit.
type ProjectQuery struct {
	Filter ProjectFilter
	Sort   ProjectSort
	Limit  int
}

// ItemQuery selects items. Limit <= 0 means no limit.
type ItemQuery struct {
	Filter ItemFilter
	Sort   ItemSort
	Limit  int
}

func limitClause(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d", n)
}

// CountProjects returns the number of projects matching f
func (db *DB) CountProjects(ctx context.Context, f ProjectFilter) (int, error) {
	where, args := f.where()
	return db.count(ctx, `SELECT COUNT(*) FROM projects`+where, args...)
}

// CountItems returns the number of items matching f
func (db *DB) CountItems(ctx context.Context, f ItemFilter) (int, error) {
	where, args := f.where()
	return db.count(ctx, `SELECT COUNT(*) FROM items`+where, args...)
}

func (db *DB) count(ctx context.Context, query string, args ...any) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var n int
	if err := db.q().QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count: %w", err)
	}
	return n, nil
}

// QueryProjects returns matching projects with their items
func (db *DB) QueryProjects(ctx context.Context, pq ProjectQuery) ([]model.Project, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	where, args := pq.Filter.where()
	q := db.q()
	rows, err := q.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects`+where+pq.Sort.orderBy()+limitClause(pq.Limit), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}

	var projects []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	ids := make([]string, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}
	items, err := loadItems(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for i := range projects {
		projects[i].Items = items[projects[i].ID]
	}
	return projects, nil
}

// QueryItems returns matching items
func (db *DB) QueryItems(ctx context.Context, iq ItemQuery) ([]model.Item, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	where, args := iq.Filter.where()
	rows, err := db.q().QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items`+where+iq.Sort.orderBy()+limitClause(iq.Limit), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var items []model.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
