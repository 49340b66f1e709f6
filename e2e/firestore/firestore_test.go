//go:build e2e

// Package e2e contains end-to-end tests of the Firestore tree against the
// Firestore emulator. They are skipped unless FIRESTORE_EMULATOR_HOST is set.
// Run with: go test -tags=e2e -v ./e2e/firestore/...
package e2e

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jacentio/eco/store"
)

func openTree(t *testing.T) *store.FirestoreTree {
	t.Helper()
	host := os.Getenv("FIRESTORE_EMULATOR_HOST")
	if host == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	project := os.Getenv("ECO_GCP_PROJECT")
	if project == "" {
		project = "eco-e2e"
	}

	tree, err := store.OpenFirestore(context.Background(), store.FirestoreConfig{
		ProjectID:    project,
		EmulatorHost: host,
	})
	if err != nil {
		t.Fatalf("OpenFirestore failed: %v", err)
	}
	t.Cleanup(func() { tree.Close() })
	return tree
}

// section returns a section name unique to the calling test.
func section() string {
	return "s" + uuid.New().String()[:8]
}

func TestFirestoreTree_RoundTrip(t *testing.T) {
	ctx := context.Background()
	tree := openTree(t)
	path := store.ContentPath(section()).Child(uuid.New().String())

	fields := store.Fields{store.KeyTitle: "Glass", store.KeyContent: "Rinse jars first."}
	if err := tree.Set(ctx, path, fields); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := tree.Get(ctx, path)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got[store.KeyTitle] != "Glass" || got[store.KeyContent] != "Rinse jars first." {
		t.Errorf("unexpected record %v", got)
	}
}

func TestFirestoreTree_GetNotFound(t *testing.T) {
	ctx := context.Background()
	tree := openTree(t)

	_, err := tree.Get(ctx, store.ContentPath(section()).Child(uuid.New().String()))
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFirestoreTree_SetAllExistingRecord(t *testing.T) {
	ctx := context.Background()
	tree := openTree(t)
	sec := section()
	docID := uuid.New().String()

	if err := tree.Set(ctx, store.ContentPath(sec).Child(docID), store.Fields{store.KeyTitle: "old"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	err := tree.SetAll(ctx, []store.Write{
		{Path: store.MetadataPath(sec).Child(docID), Fields: store.Fields{store.KeyTitle: "new"}},
		{Path: store.ContentPath(sec).Child(docID), Fields: store.Fields{store.KeyTitle: "new"}},
	})
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	// Nothing from the failed transaction landed
	if _, err := tree.Get(ctx, store.MetadataPath(sec).Child(docID)); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected metadata to be absent, got %v", err)
	}
	got, err := tree.Get(ctx, store.ContentPath(sec).Child(docID))
	if err != nil {
		t.Fatalf("Get content failed: %v", err)
	}
	if got[store.KeyTitle] != "old" {
		t.Errorf("expected content to be kept, got %v", got)
	}
}

func TestFirestoreTree_Children(t *testing.T) {
	ctx := context.Background()
	tree := openTree(t)
	sec := section()

	for _, docID := range []string{"d1", "d2", "d3"} {
		if err := tree.Set(ctx, store.MetadataPath(sec).Child(docID), store.Fields{store.KeyDocID: docID}); err != nil {
			t.Fatalf("Set %s failed: %v", docID, err)
		}
	}

	children, err := tree.Children(ctx, store.MetadataPath(sec))
	if err != nil {
		t.Fatalf("Children failed: %v", err)
	}
	if len(children) != 3 {
		t.Fatalf("expected 3 children, got %d", len(children))
	}
	if children["d2"][store.KeyDocID] != "d2" {
		t.Errorf("unexpected child %v", children["d2"])
	}
}

func TestFirestoreTree_DumpNesting(t *testing.T) {
	ctx := context.Background()
	tree := openTree(t)
	sec := section()

	if err := tree.Set(ctx, store.MetadataPath(sec).Child("d1"), store.Fields{store.KeyTitle: "T"}); err != nil {
		t.Fatalf("Set metadata failed: %v", err)
	}
	if err := tree.Set(ctx, store.ContentPath(sec).Child("d1"), store.Fields{store.KeyTitle: "T", store.KeyContent: "C"}); err != nil {
		t.Fatalf("Set content failed: %v", err)
	}

	dump, err := tree.Dump(ctx)
	if err != nil {
		t.Fatalf("Dump failed: %v", err)
	}
	secTree, ok := dump[sec].(map[string]any)
	if !ok {
		t.Fatalf("section %s missing from dump", sec)
	}
	content, ok := secTree["content"].(map[string]any)
	if !ok {
		t.Fatalf("content collection missing from dump")
	}
	rec, ok := content["d1"].(store.Fields)
	if !ok {
		t.Fatalf("expected record at %s/content/d1, got %T", sec, content["d1"])
	}
	if rec[store.KeyContent] != "C" {
		t.Errorf("unexpected record %v", rec)
	}
	if _, ok := secTree["meta-data"].(map[string]any); !ok {
		t.Error("meta-data collection missing from dump")
	}
}

func TestStore_OverFirestoreAtomic(t *testing.T) {
	ctx := context.Background()
	tree := openTree(t)
	cfg := store.DefaultConfig()
	cfg.AtomicInsert = true
	s := store.New(tree, cfg, zap.NewNop())
	sec := section()

	sess, reg := s.RegisterSession(ctx, store.Identity{ID: uuid.New().String(), DisplayName: "E2E User"})
	if _, err := reg.Wait(ctx); err != nil {
		t.Fatalf("RegisterSession failed: %v", err)
	}

	docID, err := sess.Insert(ctx, sec, "Bottles", "Caps off.").Wait(ctx)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	entry, err := s.GetEntry(ctx, sec, docID, nil).Wait(ctx)
	if err != nil {
		t.Fatalf("GetEntry failed: %v", err)
	}
	if entry.AuthorID != sess.ID() || entry.Content != "Caps off." {
		t.Errorf("unexpected entry %+v", entry)
	}

	entries, err := s.ListEntries(ctx, sec, nil).Wait(ctx)
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 entry, got %d", len(entries))
	}
}
