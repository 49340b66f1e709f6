package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// collectionSep joins tree path segments into one Firestore collection ID.
const collectionSep = ":"

// FirestoreTree stores a tree in Cloud Firestore. The record at a/b/c is the
// document "c" in the top-level collection "a:b".
type FirestoreTree struct {
	client *firestore.Client
}

// NewFirestoreTree wraps an existing client.
func NewFirestoreTree(client *firestore.Client) *FirestoreTree {
	return &FirestoreTree{client: client}
}

// OpenFirestore connects to Firestore, or to the emulator when cfg.EmulatorHost is set.
func OpenFirestore(ctx context.Context, cfg FirestoreConfig) (*FirestoreTree, error) {
	var opts []option.ClientOption
	if cfg.EmulatorHost != "" {
		opts = append(opts,
			option.WithEndpoint(cfg.EmulatorHost),
			option.WithoutAuthentication(),
			option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("while creating firestore client: %w", err)
	}
	return NewFirestoreTree(client), nil
}

// Close releases the client.
func (f *FirestoreTree) Close() error {
	return f.client.Close()
}

// collectionID maps a tree collection path to a Firestore collection ID.
func collectionID(collection Path) (string, error) {
	if collection == "" || strings.Contains(collection.String(), collectionSep) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, collection)
	}
	return strings.ReplaceAll(collection.String(), "/", collectionSep), nil
}

// collectionPath is the inverse of collectionID.
func collectionPath(id string) Path {
	return Path(strings.ReplaceAll(id, collectionSep, "/"))
}

func (f *FirestoreTree) doc(path Path) (*firestore.DocumentRef, error) {
	parent, key := path.Split()
	id, err := collectionID(parent)
	if err != nil {
		return nil, err
	}
	return f.client.Collection(id).Doc(key), nil
}

func (f *FirestoreTree) Get(ctx context.Context, path Path) (Fields, error) {
	ref, err := f.doc(path)
	if err != nil {
		return nil, err
	}

	snap, err := ref.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("while reading %s: %w", path, err)
	}
	return fieldsOf(snap.Data()), nil
}

func (f *FirestoreTree) Set(ctx context.Context, path Path, fields Fields) error {
	ref, err := f.doc(path)
	if err != nil {
		return err
	}
	if _, err := ref.Set(ctx, docData(fields)); err != nil {
		return fmt.Errorf("while writing %s: %w", path, err)
	}
	return nil
}

// SetAll creates every record in one transaction.
func (f *FirestoreTree) SetAll(ctx context.Context, writes []Write) error {
	refs := make([]*firestore.DocumentRef, len(writes))
	for i, w := range writes {
		ref, err := f.doc(w.Path)
		if err != nil {
			return err
		}
		refs[i] = ref
	}

	err := f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for i, w := range writes {
			if err := tx.Create(refs[i], docData(w.Fields)); err != nil {
				return err
			}
		}
		return nil
	})
	if status.Code(err) == codes.AlreadyExists {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("while committing transaction: %w", err)
	}
	return nil
}

func (f *FirestoreTree) Children(ctx context.Context, collection Path) (map[string]Fields, error) {
	id, err := collectionID(collection)
	if err != nil {
		return nil, err
	}

	children := make(map[string]Fields)
	iter := f.client.Collection(id).Documents(ctx)
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("while listing %s: %w", collection, err)
		}
		children[snap.Ref.ID] = fieldsOf(snap.Data())
	}
	return children, nil
}

func (f *FirestoreTree) Dump(ctx context.Context) (map[string]any, error) {
	root := make(map[string]any)

	collections := f.client.Collections(ctx)
	for {
		coll, err := collections.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("while listing collections: %w", err)
		}

		parent := collectionPath(coll.ID)
		children, err := f.Children(ctx, parent)
		if err != nil {
			return nil, err
		}
		for key, fields := range children {
			nest(root, parent.Child(key), fields)
		}
	}

	return root, nil
}

func docData(fields Fields) map[string]interface{} {
	data := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		data[k] = v
	}
	return data
}

func fieldsOf(data map[string]interface{}) Fields {
	fields := make(Fields, len(data))
	for k, v := range data {
		if s, ok := v.(string); ok {
			fields[k] = s
			continue
		}
		fields[k] = fmt.Sprint(v)
	}
	return fields
}
