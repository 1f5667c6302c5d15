package blob

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/woorkia/nexus-business/domain"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "attachments.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestPutAndGetRoundTrip(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	payload := []byte("%PDF-1.7 fake contract bytes")

	att, err := s.Put(ctx, "p1", "contract.pdf", "application/pdf", "contract", payload)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if att.ID == "" || att.Size != int64(len(payload)) || att.Category != "contract" {
		t.Fatalf("unexpected stored record: %+v", att)
	}

	got, err := s.Get(ctx, att.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(got.Data, payload) {
		t.Fatal("payload not stored verbatim")
	}
	if got.ProjectID != "p1" || got.Name != "contract.pdf" || got.MimeType != "application/pdf" {
		t.Fatalf("metadata mismatch: %+v", got)
	}
}

func TestPutDefaultsCategory(t *testing.T) {
	s, _ := openTestStore(t)
	att, err := s.Put(context.Background(), "p1", "note.txt", "text/plain", "", []byte("x"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if att.Category != domain.CategoryGeneral {
		t.Fatalf("expected default category, got %q", att.Category)
	}
}

func TestGetUnknownIDIsNotFound(t *testing.T) {
	s, _ := openTestStore(t)
	_, err := s.Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListByOwnerIsolation(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	var p1IDs []string
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		att, err := s.Put(ctx, "p1", name, "text/plain", "", []byte(name))
		if err != nil {
			t.Fatalf("put: %v", err)
		}
		p1IDs = append(p1IDs, att.ID)
	}
	if _, err := s.Put(ctx, "p2", "other.txt", "text/plain", "", []byte("other")); err != nil {
		t.Fatalf("put: %v", err)
	}

	files, err := s.ListByOwner(ctx, "p1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != len(p1IDs) {
		t.Fatalf("expected %d files, got %d", len(p1IDs), len(files))
	}
	for _, f := range files {
		if f.ProjectID != "p1" {
			t.Fatalf("foreign attachment in listing: %+v", f)
		}
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	att, err := s.Put(ctx, "p1", "gone.txt", "text/plain", "", []byte("x"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Remove(ctx, att.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.Remove(ctx, att.ID); err != nil {
		t.Fatalf("second remove must not error: %v", err)
	}
	if _, err := s.Get(ctx, att.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("attachment still present: %v", err)
	}
}

func TestRemoveByOwnerClearsProject(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	for _, name := range []string{"a.txt", "b.txt"} {
		if _, err := s.Put(ctx, "p1", name, "text/plain", "", []byte(name)); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	keep, err := s.Put(ctx, "p2", "keep.txt", "text/plain", "", []byte("keep"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	if err := s.RemoveByOwner(ctx, "p1"); err != nil {
		t.Fatalf("remove by owner: %v", err)
	}
	files, err := s.ListByOwner(ctx, "p1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("expected empty listing, got %d", len(files))
	}
	if _, err := s.Get(ctx, keep.ID); err != nil {
		t.Fatalf("unrelated attachment lost: %v", err)
	}
}

func TestContentsSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attachments.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	att, err := s.Put(context.Background(), "p1", "durable.txt", "text/plain", "", []byte("still here"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Get(context.Background(), att.ID)
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if string(got.Data) != "still here" {
		t.Fatal("payload lost across reopen")
	}
}

func TestIDsAreUniqueUnderBurst(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		att, err := s.Put(ctx, "p1", "f.txt", "text/plain", "", []byte{byte(i)})
		if err != nil {
			t.Fatalf("put %d: %v", i, err)
		}
		if seen[att.ID] {
			t.Fatalf("duplicate id %s", att.ID)
		}
		seen[att.ID] = true
	}
}
