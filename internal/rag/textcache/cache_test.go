package textcache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/anvikal/askapi/internal/domain/docModel"
)

const collection = "openapi_vectors_pets_abc123def456"

func TestCache_ColdStart(t *testing.T) {
	cache, err := Open(t.TempDir(), collection)
	if err != nil {
		t.Fatalf("Open on empty dir failed: %v", err)
	}

	if _, ok := cache.Get(docModel.RepSummary, "operation::listPets::0"); ok {
		t.Error("Cold cache should have no entries")
	}
	for _, kind := range docModel.RepKinds {
		if cache.Len(kind) != 0 {
			t.Errorf("Cold cache Len(%s) = %d, want 0", kind, cache.Len(kind))
		}
	}
}

func TestCache_FlushAndReopen(t *testing.T) {
	dir := t.TempDir()

	cache, err := Open(dir, collection)
	if err != nil {
		t.Fatal(err)
	}
	cache.Put(docModel.RepSummary, "operation::listPets::0", "a summary")
	cache.Put(docModel.RepHyde, "operation::listPets::0", "- q1\n- q2")

	// Nothing on disk until flush
	if _, err := os.Stat(filepath.Join(dir, collection+"_summaries.json")); !os.IsNotExist(err) {
		t.Error("Cache file written before Flush")
	}

	if err := cache.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	reopened, err := Open(dir, collection)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	if text, ok := reopened.Get(docModel.RepSummary, "operation::listPets::0"); !ok || text != "a summary" {
		t.Errorf("Reopened cache Get = (%q, %v), want persisted summary", text, ok)
	}
	if text, ok := reopened.Get(docModel.RepHyde, "operation::listPets::0"); !ok || text != "- q1\n- q2" {
		t.Errorf("Reopened cache hyde Get = (%q, %v)", text, ok)
	}
	if _, ok := reopened.Get(docModel.RepExample, "operation::listPets::0"); ok {
		t.Error("Example kind was never written but reports a hit")
	}
}

func TestCache_FileNaming(t *testing.T) {
	dir := t.TempDir()
	cache, err := Open(dir, collection)
	if err != nil {
		t.Fatal(err)
	}
	cache.Put(docModel.RepSummary, "id", "s")
	cache.Put(docModel.RepHyde, "id", "h")
	cache.Put(docModel.RepExample, "id", "e")
	if err := cache.Flush(); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{
		collection + "_summaries.json",
		collection + "_questions.json",
		collection + "_examples.json",
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("Expected cache file %s: %v", name, err)
		}
	}
}

func TestCache_EmptyValueIsMiss(t *testing.T) {
	cache, err := Open(t.TempDir(), collection)
	if err != nil {
		t.Fatal(err)
	}
	cache.Put(docModel.RepSummary, "id", "")

	if _, ok := cache.Get(docModel.RepSummary, "id"); ok {
		t.Error("Empty cached value should count as a miss so it gets regenerated")
	}
}

func TestCache_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, collection+"_summaries.json")
	if err := os.WriteFile(path, []byte("{not json"), 0640); err != nil {
		t.Fatal(err)
	}

	if _, err := Open(dir, collection); err == nil {
		t.Error("Open should fail on a corrupt cache file")
	}
}

func TestCache_ScopedByCollection(t *testing.T) {
	dir := t.TempDir()

	first, err := Open(dir, "openapi_vectors_a_111111111111")
	if err != nil {
		t.Fatal(err)
	}
	first.Put(docModel.RepSummary, "id", "text")
	if err := first.Flush(); err != nil {
		t.Fatal(err)
	}

	second, err := Open(dir, "openapi_vectors_b_222222222222")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := second.Get(docModel.RepSummary, "id"); ok {
		t.Error("Caches of different collections must not share entries")
	}
}
