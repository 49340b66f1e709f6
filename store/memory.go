package store

import (
	"context"
	"fmt"
	"sync"
)

// MemoryTree is an in-process Tree. It is safe for concurrent use.
type MemoryTree struct {
	mu      sync.RWMutex
	records map[Path]Fields
}

// NewMemoryTree creates an empty in-memory tree.
func NewMemoryTree() *MemoryTree {
	return &MemoryTree{records: make(map[Path]Fields)}
}

func (m *MemoryTree) Get(ctx context.Context, path Path) (Fields, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.records[path]
	if !ok {
		return nil, ErrNotFound
	}
	return f.Clone(), nil
}

func (m *MemoryTree) Children(ctx context.Context, collection Path) (map[string]Fields, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]Fields)
	for p, f := range m.records {
		parent, key := p.Split()
		if parent == collection {
			out[key] = f.Clone()
		}
	}
	return out, nil
}

func (m *MemoryTree) Set(ctx context.Context, path Path, fields Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !validPath(path) {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[path] = fields.Clone()
	return nil
}

func (m *MemoryTree) Dump(ctx context.Context) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	root := make(map[string]any)
	for p, f := range m.records {
		nest(root, p, f.Clone())
	}
	return root, nil
}

// SetAll implements Transactor.
func (m *MemoryTree) SetAll(ctx context.Context, writes []Write) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, w := range writes {
		if !validPath(w.Path) {
			return fmt.Errorf("%w: %q", ErrInvalidPath, w.Path)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range writes {
		if _, ok := m.records[w.Path]; ok {
			return ErrAlreadyExists
		}
	}
	for _, w := range writes {
		m.records[w.Path] = w.Fields.Clone()
	}
	return nil
}

// Len returns the number of records in the tree.
func (m *MemoryTree) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
