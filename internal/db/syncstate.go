package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/existflow/binge/internal/model"
)

// Tombstone records a local deletion that has not been pushed yet
type Tombstone struct {
	ID        string
	Kind      Kind
	ProjectID string
	DeletedAt time.Time
}

// Pending is the set of local changes awaiting a push. Projects carry no items.
type Pending struct {
	Projects  []model.Project
	Items     []model.Item
	Deletions []Tombstone

	revisions map[string]int64 // Row revision at snapshot time, by entity id
}

// Empty reports whether there is nothing to push
func (p Pending) Empty() bool {
	return len(p.Projects) == 0 && len(p.Items) == 0 && len(p.Deletions) == 0
}

func addTombstone(ctx context.Context, tx *sql.Tx, c Change) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO tombstones (id, kind, project_id, deleted_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET deleted_at = excluded.deleted_at`,
		c.ID, string(c.Kind), c.ProjectID, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to record deletion: %w", err)
	}
	return nil
}

// PendingChanges returns every locally modified entity and every unpushed deletion
func (db *DB) PendingChanges(ctx context.Context) (Pending, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	pending := Pending{revisions: map[string]int64{}}
	q := db.q()

	for _, table := range []string{"projects", "items"} {
		if err := loadRevisions(ctx, q, table, pending.revisions); err != nil {
			return pending, err
		}
	}

	rows, err := q.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE dirty = 1 ORDER BY creation_date`)
	if err != nil {
		return pending, fmt.Errorf("failed to query pending projects: %w", err)
	}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			_ = rows.Close()
			return pending, err
		}
		pending.Projects = append(pending.Projects, p)
	}
	_ = rows.Close()

	rows, err = q.QueryContext(ctx, `SELECT `+itemColumns+` FROM items WHERE dirty = 1 ORDER BY creation_date`)
	if err != nil {
		return pending, fmt.Errorf("failed to query pending items: %w", err)
	}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			_ = rows.Close()
			return pending, err
		}
		pending.Items = append(pending.Items, it)
	}
	_ = rows.Close()

	rows, err = q.QueryContext(ctx, `SELECT id, kind, project_id, deleted_at FROM tombstones ORDER BY deleted_at`)
	if err != nil {
		return pending, fmt.Errorf("failed to query deletions: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()
	for rows.Next() {
		var t Tombstone
		var kind, deleted string
		if err := rows.Scan(&t.ID, &kind, &t.ProjectID, &deleted); err != nil {
			return pending, err
		}
		t.Kind = Kind(kind)
		t.DeletedAt = parseTime(deleted)
		pending.Deletions = append(pending.Deletions, t)
	}
	return pending, rows.Err()
}

func loadRevisions(ctx context.Context, q querier, table string, into map[string]int64) error {
	rows, err := q.QueryContext(ctx, `SELECT id, revision FROM `+table+` WHERE dirty = 1`)
	if err != nil {
		return fmt.Errorf("failed to query %s revisions: %w", table, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	for rows.Next() {
		var id string
		var rev int64
		if err := rows.Scan(&id, &rev); err != nil {
			return err
		}
		into[id] = rev
	}
	return rows.Err()
}

// MarkSynced clears the modified flags of pushed entities and forgets pushed
// deletions. Entities edited since the snapshot was taken stay modified.
func (db *DB) MarkSynced(ctx context.Context, pushed Pending) error {
	return db.mutate(ctx, func(tx *sql.Tx) ([]Change, error) {
		for _, p := range pushed.Projects {
			if _, err := tx.ExecContext(ctx, `UPDATE projects SET dirty = 0 WHERE id = ? AND revision = ?`,
				p.ID, pushed.revisions[p.ID]); err != nil {
				return nil, fmt.Errorf("failed to mark project synced: %w", err)
			}
		}
		for _, it := range pushed.Items {
			if _, err := tx.ExecContext(ctx, `UPDATE items SET dirty = 0 WHERE id = ? AND revision = ?`,
				it.ID, pushed.revisions[it.ID]); err != nil {
				return nil, fmt.Errorf("failed to mark item synced: %w", err)
			}
		}
		for _, t := range pushed.Deletions {
			if _, err := tx.ExecContext(ctx, `DELETE FROM tombstones WHERE id = ?`, t.ID); err != nil {
				return nil, fmt.Errorf("failed to clear deletion: %w", err)
			}
		}
		return nil, nil
	})
}

// MarkAllDirty flags every entity for the next push
func (db *DB) MarkAllDirty(ctx context.Context) error {
	return db.mutate(ctx, func(tx *sql.Tx) ([]Change, error) {
		if _, err := tx.ExecContext(ctx, `UPDATE projects SET dirty = 1`); err != nil {
			return nil, fmt.Errorf("failed to flag projects: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE items SET dirty = 1`); err != nil {
			return nil, fmt.Errorf("failed to flag items: %w", err)
		}
		return nil, nil
	})
}

// Remote is one entity received from the sync server. Project or Item holds
// the payload unless Deleted is set.
type Remote struct {
	Kind    Kind
	ID      string
	Version int64
	Deleted bool
	Project model.Project
	Item    model.Item
}

// ApplyResult counts the outcome of ApplyRemote
type ApplyResult struct {
	Applied int
	Kept    int // Entities with unpushed local changes, left untouched
	Skipped int // Items whose project does not exist
}

// ApplyRemote applies remote entities in order without flagging them for
// push. An entity with unpushed local edits or an unpushed local deletion
// keeps its local state until that change is pushed. The batch runs in its
// own savepoint: on error none of it remains and earlier pending edits are
// untouched.
func (db *DB) ApplyRemote(ctx context.Context, batch []Remote) (ApplyResult, error) {
	var result ApplyResult
	err := db.mutate(ctx, func(tx *sql.Tx) ([]Change, error) {
		result = ApplyResult{}
		var changes []Change
		for _, r := range batch {
			local, err := localPending(ctx, tx, r.Kind, r.ID)
			if err != nil {
				return nil, err
			}
			if local {
				result.Kept++
				continue
			}

			var applied []Change
			switch {
			case r.Deleted:
				applied, err = applyRemoteDelete(ctx, tx, r.Kind, r.ID)
			case r.Kind == KindProject:
				r.Project.ID = r.ID
				applied, err = applyRemoteProject(ctx, tx, r.Project, r.Version)
			case r.Kind == KindItem:
				r.Item.ID = r.ID
				applied, err = applyRemoteItem(ctx, tx, r.Item, r.Version)
			default:
				err = fmt.Errorf("unknown entity kind %q", r.Kind)
			}
			if errors.Is(err, model.ErrInvalidReference) {
				result.Skipped++
				continue
			}
			if err != nil {
				return nil, err
			}

			result.Applied++
			for i := range applied {
				applied[i].Remote = true
			}
			changes = append(changes, applied...)
		}
		return changes, nil
	})
	if err != nil {
		return ApplyResult{}, err
	}
	return result, nil
}

// localPending reports whether an entity has a change that has not been pushed yet
func localPending(ctx context.Context, tx *sql.Tx, kind Kind, id string) (bool, error) {
	table := "items"
	if kind == KindProject {
		table = "projects"
	}

	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM `+table+` WHERE id = ? AND dirty = 1) +
		        (SELECT COUNT(*) FROM tombstones WHERE id = ?)`, id, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check local changes: %w", err)
	}
	return n > 0, nil
}

func applyRemoteProject(ctx context.Context, tx *sql.Tx, p model.Project, version int64) ([]Change, error) {
	exists, err := projectExists(ctx, tx, p.ID)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO projects (`+projectColumns+`, dirty, sync_version) VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title = excluded.title, detail = excluded.detail, color = excluded.color,
		   closed = excluded.closed, reminder_time = excluded.reminder_time,
		   dirty = 0, sync_version = excluded.sync_version`,
		p.ID, toNull(p.Title), toNull(p.Detail), toNull(p.Color),
		formatTime(p.CreationDate), boolInt(p.Closed), reminderValue(p.ReminderTime), version)
	if err != nil {
		return nil, fmt.Errorf("failed to apply remote project: %w", err)
	}

	op := OpCreated
	if exists {
		op = OpUpdated
	}
	return []Change{{Kind: KindProject, Op: op, ID: p.ID, ProjectID: p.ID}}, nil
}

func applyRemoteItem(ctx context.Context, tx *sql.Tx, it model.Item, version int64) ([]Change, error) {
	ok, err := projectExists(ctx, tx, it.ProjectID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("project %s: %w", it.ProjectID, model.ErrInvalidReference)
	}

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE id = ?`, it.ID).Scan(&n); err != nil {
		return nil, fmt.Errorf("failed to look up item: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO items (`+itemColumns+`, dirty, sync_version) VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   project_id = excluded.project_id, title = excluded.title, detail = excluded.detail,
		   completed = excluded.completed, priority = excluded.priority,
		   dirty = 0, sync_version = excluded.sync_version`,
		it.ID, it.ProjectID, toNull(it.Title), toNull(it.Detail),
		formatTime(it.CreationDate), boolInt(it.Completed), it.Priority, version)
	if err != nil {
		return nil, fmt.Errorf("failed to apply remote item: %w", err)
	}

	op := OpCreated
	if n > 0 {
		op = OpUpdated
	}
	return []Change{{Kind: KindItem, Op: op, ID: it.ID, ProjectID: it.ProjectID}}, nil
}

// applyRemoteDelete removes an entity deleted on another device. Unknown ids are ignored.
func applyRemoteDelete(ctx context.Context, tx *sql.Tx, kind Kind, id string) ([]Change, error) {
	switch kind {
	case KindProject:
		exists, err := projectExists(ctx, tx, id)
		if err != nil || !exists {
			return nil, err
		}
		return deleteProjectTx(ctx, tx, id, false)
	case KindItem:
		var projectID string
		err := tx.QueryRowContext(ctx, `SELECT project_id FROM items WHERE id = ?`, id).Scan(&projectID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to look up item: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id); err != nil {
			return nil, fmt.Errorf("failed to delete item: %w", err)
		}
		return []Change{{Kind: KindItem, Op: OpDeleted, ID: id, ProjectID: projectID}}, nil
	}
	return nil, fmt.Errorf("unknown entity kind %q", kind)
}

// ClearLocal removes every entity and unpushed deletion without recording tombstones
func (db *DB) ClearLocal(ctx context.Context) error {
	return db.mutate(ctx, func(tx *sql.Tx) ([]Change, error) {
		changes, err := deleteAllTx(ctx, tx, false)
		if err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM tombstones`); err != nil {
			return nil, fmt.Errorf("failed to clear deletions: %w", err)
		}
		for i := range changes {
			changes[i].Remote = true
		}
		return changes, nil
	})
}
