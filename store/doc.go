// Package store provides the data access layer for user-submitted entries
// kept in a hierarchical key-path database.
//
// Every entry is stored twice under its section: a listing record without the
// body and a full content record, both keyed by the same random document ID.
//
//	users/{userID}               -> {name, email}
//	{section}/meta-data/{docID}  -> {docID, title, author, time}
//	{section}/content/{docID}    -> {docID, title, author, authorID, time, content}
//
// # Trees
//
// The database is reached through the [Tree] interface. Three implementations
// are provided:
//
//   - [DynamoTree] - a single DynamoDB table keyed by (pk, sk)
//   - [FirestoreTree] - one Firestore collection per tree collection
//   - [MemoryTree] - in-process, for tests and local runs
//
// Wrap an [Opener] with [Lazy] to connect on first use:
//
//	tree := store.Lazy(func(ctx context.Context) (store.Tree, error) {
//	    return store.OpenDynamo(ctx, store.DefaultDynamoConfig())
//	})
//
// # Operations
//
// Operations never block the caller. Each returns a [Future] that completes
// once the database answers; callers may wait on it, attach a callback with
// [Future.Then], or drop it.
//
//	s := store.New(tree, store.DefaultConfig(), logger)
//	sess, _ := s.RegisterSession(ctx, identity)
//	docID, err := sess.Insert(ctx, "recycling", "Glass", "Rinse jars first.").Wait(ctx)
//
// Inserts are methods of [Session], so an entry cannot be written without an
// author.
//
// # Consistency
//
// By default the two records of an entry are written independently. If one
// write fails the other is not rolled back. Set [Config.AtomicInsert] to use a
// transaction on trees implementing [Transactor], or run the stream repair
// handler, which restores missing listing records from content records.
//
// # Errors
//
//   - [ErrNotFound] - no record at the path
//   - [ErrAlreadyExists] - transactional create hit an existing record
//   - [ErrEmptyIdentity] - identity without an ID
//   - [ErrInvalidEntry] - entry missing title or content
//   - [ErrInvalidPath] - bad or reserved section, user or document ID
//   - [ErrUnknownSection] - section not in the configured [Registry]
package store
