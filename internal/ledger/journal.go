// Package ledger holds the append-only mood and prediction histories. Each
// ledger keeps its records in memory, most recent first, and writes the whole
// list to a types.Store as a JSON snapshot on every change.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"lumera/internal/types"
)

// journal is the persistence core shared by both ledgers. A change becomes
// visible in memory only after its snapshot has been stored.
type journal[T any] struct {
	mu     sync.RWMutex
	key    string
	store  types.Store
	logger *slog.Logger
	clone  func(T) T

	items []T
}

func newJournal[T any](store types.Store, key string, logger *slog.Logger, clone func(T) T) *journal[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &journal[T]{key: key, store: store, logger: logger, clone: clone}
}

func (j *journal[T]) load(ctx context.Context) error {
	raw, found, err := j.store.Get(ctx, j.key)
	if err != nil {
		return fmt.Errorf("load %s: %w", j.key, err)
	}

	var items []T
	if found && len(raw) > 0 {
		if err := json.Unmarshal(raw, &items); err != nil {
			return types.NewAppError(types.ErrCodeInternalStorage,
				fmt.Sprintf("decode %s snapshot", j.key), err)
		}
	}

	j.mu.Lock()
	j.items = items
	j.mu.Unlock()

	j.logger.InfoContext(ctx, "ledger loaded", "key", j.key, "count", len(items))
	return nil
}

// commit persists next and, on success, makes it the live list.
// Callers must hold j.mu for writing.
func (j *journal[T]) commit(ctx context.Context, next []T) error {
	if next == nil {
		next = []T{}
	}
	raw, err := json.Marshal(next)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalStorage,
			fmt.Sprintf("encode %s snapshot", j.key), err)
	}
	if err := j.store.Set(ctx, j.key, raw); err != nil {
		j.logger.ErrorContext(ctx, "ledger persist failed", "key", j.key, "error", err)
		var appErr *types.AppError
		if !errors.As(err, &appErr) {
			err = types.NewAppError(types.ErrCodeInternalStorage, "persist "+j.key, err)
		}
		return err
	}
	j.items = next
	return nil
}

func (j *journal[T]) prepend(ctx context.Context, item T) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	next := make([]T, 0, len(j.items)+1)
	next = append(next, item)
	next = append(next, j.items...)
	return j.commit(ctx, next)
}

// replace swaps the first item matching pick for the result of update.
// found is false when nothing matched, in which case nothing is written.
func (j *journal[T]) replace(ctx context.Context, pick func(T) bool, update func(T) T) (out T, found bool, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	idx := -1
	for i, it := range j.items {
		if pick(it) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return out, false, nil
	}

	next := make([]T, len(j.items))
	copy(next, j.items)
	next[idx] = update(j.clone(j.items[idx]))
	if err := j.commit(ctx, next); err != nil {
		return out, true, err
	}
	return j.clone(next[idx]), true, nil
}

// collect returns clones of up to limit items (limit <= 0 means all) that
// satisfy keep, most recent first.
func (j *journal[T]) collect(limit int, keep func(T) bool) []T {
	j.mu.RLock()
	defer j.mu.RUnlock()

	out := make([]T, 0, len(j.items))
	for _, it := range j.items {
		if keep != nil && !keep(it) {
			continue
		}
		out = append(out, j.clone(it))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func (j *journal[T]) size() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.items)
}
