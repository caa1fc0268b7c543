package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/existflow/binge/internal/search"
)

// SearchIndex is a search.Index backed by the store's FTS5 table
type SearchIndex struct {
	db *DB
}

var _ search.Index = (*SearchIndex)(nil)

// SearchIndex returns the full-text index kept alongside the entities
func (db *DB) SearchIndex() *SearchIndex {
	return &SearchIndex{db: db}
}

// Index adds or replaces records by UniqueID
func (s *SearchIndex) Index(ctx context.Context, records ...search.Record) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	q := s.db.q()
	for _, r := range records {
		if _, err := q.ExecContext(ctx, `DELETE FROM search_index WHERE unique_id = ?`, r.UniqueID); err != nil {
			return fmt.Errorf("failed to replace search record: %w", err)
		}
		if _, err := q.ExecContext(ctx,
			`INSERT INTO search_index (unique_id, group_id, title, description) VALUES (?, ?, ?, ?)`,
			r.UniqueID, r.GroupID, r.Title, r.Description); err != nil {
			return fmt.Errorf("failed to index record: %w", err)
		}
	}
	return nil
}

// DeleteIDs removes records by UniqueID
func (s *SearchIndex) DeleteIDs(ctx context.Context, ids ...string) error {
	return s.deleteBy(ctx, "unique_id", ids)
}

// DeleteGroups removes every record of the given groups
func (s *SearchIndex) DeleteGroups(ctx context.Context, groupIDs ...string) error {
	return s.deleteBy(ctx, "group_id", groupIDs)
}

func (s *SearchIndex) deleteBy(ctx context.Context, column string, values []string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	q := s.db.q()
	for _, v := range values {
		if _, err := q.ExecContext(ctx, `DELETE FROM search_index WHERE `+column+` = ?`, v); err != nil {
			return fmt.Errorf("failed to delete search records: %w", err)
		}
	}
	return nil
}

// Search returns records matching every term of query as a prefix, best match first
func (s *SearchIndex) Search(ctx context.Context, query string, limit int) ([]search.Record, error) {
	match := matchExpression(query)
	if match == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	rows, err := s.db.q().QueryContext(ctx,
		`SELECT unique_id, group_id, title, description FROM search_index
		 WHERE search_index MATCH ? ORDER BY rank LIMIT ?`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var records []search.Record
	for rows.Next() {
		var r search.Record
		if err := rows.Scan(&r.UniqueID, &r.GroupID, &r.Title, &r.Description); err != nil {
			return nil, fmt.Errorf("failed to scan search record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// matchExpression quotes each term so user input is never parsed as FTS syntax
func matchExpression(query string) string {
	terms := strings.Fields(query)
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ReplaceAll(t, `"`, `""`)
		quoted = append(quoted, `"`+t+`"*`)
	}
	return strings.Join(quoted, " ")
}
