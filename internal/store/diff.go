package store

import (
	"context"
	"fmt"
	"sort"
)

type rootKey struct {
	method string
	index  int
}

// DiffRuns compares the verdicts of two runs root by root. A root changes
// when its status or code differs, or when it exists in only one run.
// Changes are ordered by method, then root index.
func (s *Store) DiffRuns(ctx context.Context, beforeID, afterID string) ([]Change, error) {
	before, err := s.ReadVerdicts(ctx, beforeID)
	if err != nil {
		return nil, fmt.Errorf("diff runs: %w", err)
	}
	after, err := s.ReadVerdicts(ctx, afterID)
	if err != nil {
		return nil, fmt.Errorf("diff runs: %w", err)
	}

	index := make(map[rootKey]*Change, len(before)+len(after))
	for i := range before {
		v := &before[i]
		index[rootKey{v.Method, v.RootIndex}] = &Change{Method: v.Method, RootIndex: v.RootIndex, Before: v}
	}
	for i := range after {
		v := &after[i]
		k := rootKey{v.Method, v.RootIndex}
		if c, ok := index[k]; ok {
			c.After = v
			continue
		}
		index[k] = &Change{Method: v.Method, RootIndex: v.RootIndex, After: v}
	}

	changes := []Change{}
	for _, c := range index {
		if c.Before != nil && c.After != nil &&
			c.Before.Status == c.After.Status && c.Before.Code == c.After.Code {
			continue
		}
		changes = append(changes, *c)
	}
	sort.Slice(changes, func(i, j int) bool {
		if changes[i].Method != changes[j].Method {
			return changes[i].Method < changes[j].Method
		}
		return changes[i].RootIndex < changes[j].RootIndex
	})
	return changes, nil
}
