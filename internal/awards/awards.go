// Package awards holds the award catalog and decides which awards are earned.
package awards

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"sync"

	"gopkg.in/yaml.v3"
)

// Criterion kinds understood by HasEarned. Any other kind is never earned.
const (
	CriterionItems    = "items"
	CriterionComplete = "complete"
)

// Award is one catalog entry
type Award struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Color       string `yaml:"color"`
	Image       string `yaml:"image"`
	Criterion   string `yaml:"criterion"`
	Value       int    `yaml:"value"`
}

// Counter supplies the counts awards are judged on
type Counter interface {
	CountItems(ctx context.Context) (int, error)
	CountCompletedItems(ctx context.Context) (int, error)
}

//go:embed awards.yaml
var catalog []byte

var (
	loadOnce sync.Once
	all      []Award
)

// All returns the built-in catalog, parsed on first use
func All() []Award {
	loadOnce.Do(func() {
		list, err := Load(bytes.NewReader(catalog))
		if err != nil {
			panic(fmt.Sprintf("awards: invalid built-in catalog: %v", err))
		}
		all = list
	})
	out := make([]Award, len(all))
	copy(out, all)
	return out
}

// Load parses a YAML catalog
func Load(r io.Reader) ([]Award, error) {
	var list []Award
	if err := yaml.NewDecoder(r).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to parse award catalog: %w", err)
	}

	seen := make(map[string]bool, len(list))
	for _, a := range list {
		if a.ID == "" {
			return nil, fmt.Errorf("award %q has no id", a.Name)
		}
		if seen[a.ID] {
			return nil, fmt.Errorf("duplicate award id %q", a.ID)
		}
		seen[a.ID] = true
	}
	return list, nil
}

// HasEarned reports whether the award's threshold is met. It performs at most
// one count; a failed count counts as not earned.
func HasEarned(ctx context.Context, a Award, c Counter) bool {
	var (
		n   int
		err error
	)
	switch a.Criterion {
	case CriterionItems:
		n, err = c.CountItems(ctx)
	case CriterionComplete:
		n, err = c.CountCompletedItems(ctx)
	default:
		return false
	}
	if err != nil {
		return false
	}
	return n >= a.Value
}

// Earned returns the awards of list that have been earned, in catalog order
func Earned(ctx context.Context, list []Award, c Counter) []Award {
	var earned []Award
	for _, a := range list {
		if HasEarned(ctx, a, c) {
			earned = append(earned, a)
		}
	}
	return earned
}
