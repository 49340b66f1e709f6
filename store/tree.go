package store

import (
	"context"
	"sync"
)

// Tree is a hierarchical key-path database. Records are flat Fields stored at
// leaf paths; a collection is the parent path of its records.
type Tree interface {
	// Get returns the record at path, or ErrNotFound.
	Get(ctx context.Context, path Path) (Fields, error)

	// Children returns every record directly below a collection, keyed by its
	// last path segment. An empty collection yields an empty map.
	Children(ctx context.Context, collection Path) (map[string]Fields, error)

	// Set writes the record at path, replacing any existing one.
	Set(ctx context.Context, path Path, fields Fields) error

	// Dump returns the whole tree as nested maps of collections down to Fields.
	Dump(ctx context.Context) (map[string]any, error)
}

// Write is one record of a transactional write.
type Write struct {
	Path   Path
	Fields Fields
}

// Transactor is implemented by trees that can create several records atomically.
type Transactor interface {
	// SetAll creates every record or none. It returns ErrAlreadyExists if any
	// target path already holds a record.
	SetAll(ctx context.Context, writes []Write) error
}

// Opener acquires a tree handle.
type Opener func(ctx context.Context) (Tree, error)

// lazyTree acquires the underlying handle on first use and reuses it afterwards.
type lazyTree struct {
	open Opener

	once sync.Once
	tree Tree
	err  error
}

// Lazy returns a Tree that connects on first use. The opener runs at most once;
// a failed open is remembered and returned by every later call.
func Lazy(open Opener) Tree {
	return &lazyTree{open: open}
}

func (l *lazyTree) connect(ctx context.Context) (Tree, error) {
	l.once.Do(func() {
		l.tree, l.err = l.open(ctx)
	})
	return l.tree, l.err
}

func (l *lazyTree) Get(ctx context.Context, path Path) (Fields, error) {
	t, err := l.connect(ctx)
	if err != nil {
		return nil, err
	}
	return t.Get(ctx, path)
}

func (l *lazyTree) Children(ctx context.Context, collection Path) (map[string]Fields, error) {
	t, err := l.connect(ctx)
	if err != nil {
		return nil, err
	}
	return t.Children(ctx, collection)
}

func (l *lazyTree) Set(ctx context.Context, path Path, fields Fields) error {
	t, err := l.connect(ctx)
	if err != nil {
		return err
	}
	return t.Set(ctx, path, fields)
}

func (l *lazyTree) Dump(ctx context.Context) (map[string]any, error) {
	t, err := l.connect(ctx)
	if err != nil {
		return nil, err
	}
	return t.Dump(ctx)
}

// transactor reports whether the connected tree supports SetAll.
func (l *lazyTree) transactor(ctx context.Context) (Transactor, bool, error) {
	t, err := l.connect(ctx)
	if err != nil {
		return nil, false, err
	}
	tx, ok := t.(Transactor)
	return tx, ok, nil
}

// transactorOf resolves the Transactor behind t, connecting lazy trees.
func transactorOf(ctx context.Context, t Tree) (Transactor, bool, error) {
	if l, ok := t.(*lazyTree); ok {
		return l.transactor(ctx)
	}
	tx, ok := t.(Transactor)
	return tx, ok, nil
}

// nest inserts a record into a nested dump map under its path.
func nest(root map[string]any, path Path, fields Fields) {
	segs := path.Segments()
	node := root
	for _, seg := range segs[:len(segs)-1] {
		child, ok := node[seg].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[seg] = child
		}
		node = child
	}
	node[segs[len(segs)-1]] = fields
}
