package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ListView receives the metadata listing of a section.
type ListView interface {
	SetEntries(section string, entries map[string]Metadata)
}

// DetailView receives one entry's content record.
type DetailView interface {
	SetEntry(section string, entry Content)
}

// Store provides the entry operations over a Tree.
type Store struct {
	tree   Tree
	config Config
	logger *zap.Logger
}

// New creates a new Store instance. A nil logger uses zap's global logger.
func New(tree Tree, config Config, logger *zap.Logger) *Store {
	config.validate()
	if logger == nil {
		logger = zap.L()
	}
	return &Store{
		tree:   tree,
		config: config,
		logger: logger.Named("store"),
	}
}

// Tree returns the underlying tree.
func (s *Store) Tree() Tree {
	return s.tree
}

// checkSection validates a section name against the path rules and the registry.
func (s *Store) checkSection(section string) error {
	if !validSegment(section) {
		return fmt.Errorf("%w: section %q", ErrInvalidPath, section)
	}
	// users/ holds user records; entries there would collide with user IDs.
	if section == usersPartition {
		return fmt.Errorf("%w: section %q is reserved", ErrInvalidPath, section)
	}
	if s.config.Sections != nil && !s.config.Sections.Has(section) {
		return fmt.Errorf("%w: %q", ErrUnknownSection, section)
	}
	return nil
}

// Session is a registered identity. Entries are inserted through a Session so
// that every record carries its author.
type Session struct {
	store       *Store
	id          string
	displayName string
}

// ID returns the account ID stamped as authorID.
func (sess *Session) ID() string { return sess.id }

// DisplayName returns the name stamped as author.
func (sess *Session) DisplayName() string { return sess.displayName }

// RegisterSession returns a session for the identity and, in the background,
// creates users/{id} if it does not exist yet. The future reports whether the
// user record was created.
//
// An identity without an ID yields a nil session and ErrEmptyIdentity; nothing
// is read or written. A failed existence check is logged and the write skipped.
func (s *Store) RegisterSession(ctx context.Context, identity Identity) (*Session, *Future[bool]) {
	if identity.ID == "" {
		return nil, completed(false, ErrEmptyIdentity)
	}
	if !validSegment(identity.ID) {
		return nil, completed(false, fmt.Errorf("%w: user id %q", ErrInvalidPath, identity.ID))
	}

	sess := &Session{
		store:       s,
		id:          identity.ID,
		displayName: identity.DisplayName,
	}
	path := UserPath(identity.ID)

	return sess, async(func() (bool, error) {
		_, err := s.tree.Get(ctx, path)
		switch {
		case err == nil:
			s.logger.Info("user exists", zap.String("user", identity.DisplayName))
			return false, nil
		case !errors.Is(err, ErrNotFound):
			s.logger.Warn("register user cancelled",
				zap.String("user", identity.DisplayName),
				zap.Error(err),
			)
			return false, err
		}

		s.logger.Info("adding user", zap.String("user", identity.DisplayName))
		user := User{Name: identity.DisplayName, Email: identity.Email}
		if err := s.tree.Set(ctx, path, user.Fields()); err != nil {
			return false, err
		}
		return true, nil
	})
}

// ListEntries reads the metadata of every entry in a section once. On success
// the listing is pushed to view (if not nil) and returned through the future.
// Failures are logged and leave view untouched.
func (s *Store) ListEntries(ctx context.Context, section string, view ListView) *Future[map[string]Metadata] {
	if err := s.checkSection(section); err != nil {
		return completed[map[string]Metadata](nil, err)
	}

	return async(func() (map[string]Metadata, error) {
		children, err := s.tree.Children(ctx, MetadataPath(section))
		if err != nil {
			s.logger.Warn("list entries cancelled",
				zap.String("section", section),
				zap.Error(err),
			)
			return nil, err
		}

		entries := make(map[string]Metadata, len(children))
		for docID, fields := range children {
			entries[docID] = MetadataFromFields(fields)
		}
		s.logger.Debug("entries listed",
			zap.String("section", section),
			zap.Int("count", len(entries)),
		)

		if view != nil {
			view.SetEntries(section, entries)
		}
		return entries, nil
	})
}

// GetEntry reads one entry's content record once and pushes it to view (if
// not nil). An unknown docID completes with ErrNotFound and view is not called.
func (s *Store) GetEntry(ctx context.Context, section, docID string, view DetailView) *Future[Content] {
	if err := s.checkSection(section); err != nil {
		return completed(Content{}, err)
	}
	if !validSegment(docID) {
		return completed(Content{}, fmt.Errorf("%w: doc id %q", ErrInvalidPath, docID))
	}

	return async(func() (Content, error) {
		fields, err := s.tree.Get(ctx, ContentPath(section).Child(docID))
		if errors.Is(err, ErrNotFound) {
			s.logger.Info("entry not found",
				zap.String("section", section),
				zap.String("docID", docID),
			)
			return Content{}, err
		}
		if err != nil {
			s.logger.Warn("get entry cancelled",
				zap.String("section", section),
				zap.String("docID", docID),
				zap.Error(err),
			)
			return Content{}, err
		}

		entry := ContentFromFields(fields)
		if view != nil {
			view.SetEntry(section, entry)
		}
		return entry, nil
	})
}

// Insert stores a title and content as a new entry. See InsertEntry.
func (sess *Session) Insert(ctx context.Context, section, title, content string) *Future[string] {
	return sess.InsertEntry(ctx, section, Entry{Title: title, Content: content})
}

// InsertEntry stores a new entry under a fresh document ID, writing its
// metadata record to {section}/meta-data/{docID} and its content record to
// {section}/content/{docID}. The future yields the document ID.
//
// Entries without a title or content complete with ErrInvalidEntry and
// nothing is written. Unless Config.AtomicInsert is set and the tree is a
// Transactor, the two records are written independently: one may land
// without the other, and the future reports every failed write.
func (sess *Session) InsertEntry(ctx context.Context, section string, entry Entry) *Future[string] {
	s := sess.store
	if err := s.checkSection(section); err != nil {
		return completed("", err)
	}
	if !entry.valid() {
		return completed("", ErrInvalidEntry)
	}

	docID := s.config.NewID()
	if !validSegment(docID) {
		return completed("", fmt.Errorf("%w: doc id %q", ErrInvalidPath, docID))
	}

	date := formatDate(s.config.Now())
	base := entry.fields(docID)
	writes := []Write{
		{
			Path:   MetadataPath(section).Child(docID),
			Fields: metadataRecord(base, sess.displayName, date),
		},
		{
			Path:   ContentPath(section).Child(docID),
			Fields: contentRecord(base, sess.displayName, sess.id, date),
		},
	}

	return async(func() (string, error) {
		if s.config.AtomicInsert {
			tx, ok, err := transactorOf(ctx, s.tree)
			if err != nil {
				return docID, err
			}
			if ok {
				return docID, tx.SetAll(ctx, writes)
			}
		}
		return docID, s.setIndependently(ctx, writes)
	})
}

// setIndependently issues every write concurrently and waits for all of them.
// A failed write does not undo the others.
func (s *Store) setIndependently(ctx context.Context, writes []Write) error {
	errs := make([]error, len(writes))
	var wg sync.WaitGroup
	for i, w := range writes {
		wg.Add(1)
		go func(i int, w Write) {
			defer wg.Done()
			errs[i] = s.tree.Set(ctx, w.Path, w.Fields)
		}(i, w)
	}
	wg.Wait()
	return multierr.Combine(errs...)
}

// DumpAll reads the whole tree once and logs it. Diagnostic only.
func (s *Store) DumpAll(ctx context.Context) *Future[map[string]any] {
	return async(func() (map[string]any, error) {
		tree, err := s.tree.Dump(ctx)
		if err != nil {
			s.logger.Warn("dump cancelled", zap.Error(err))
			return nil, err
		}
		if len(tree) == 0 {
			s.logger.Info("no data found in tree")
			return tree, nil
		}
		s.logger.Info("data found in tree", zap.Any("tree", tree))
		return tree, nil
	})
}

// EnsureMetadata writes the metadata record of an entry from its content
// record if {section}/meta-data/{docID} is missing. It reports whether a
// record was written.
func (s *Store) EnsureMetadata(ctx context.Context, section, docID string, content Fields) (bool, error) {
	if err := s.checkSection(section); err != nil {
		return false, err
	}
	if !validSegment(docID) {
		return false, fmt.Errorf("%w: doc id %q", ErrInvalidPath, docID)
	}

	path := MetadataPath(section).Child(docID)
	_, err := s.tree.Get(ctx, path)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, fmt.Errorf("check metadata: %w", err)
	}

	rec := metadataFromContent(content)
	rec[KeyDocID] = docID
	if err := s.tree.Set(ctx, path, rec); err != nil {
		return false, fmt.Errorf("write metadata: %w", err)
	}

	s.logger.Info("metadata restored",
		zap.String("section", section),
		zap.String("docID", docID),
	)
	return true, nil
}
