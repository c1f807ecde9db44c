package textcache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/anvikal/askapi/internal/domain/docModel"
	"github.com/anvikal/askapi/pkg/logger_i"
)

// FlushPolicy controls when in-memory cache additions reach disk.
type FlushPolicy int

const (
	// FlushEndOfRun persists once after the whole indexing run. A crash
	// mid-run loses additions made so far; index writes stay durable.
	FlushEndOfRun FlushPolicy = iota
	// FlushPerDocument persists after every document for stronger
	// durability at the cost of extra writes.
	FlushPerDocument
)

var fileSuffix = map[docModel.RepKind]string{
	docModel.RepSummary: "summaries.json",
	docModel.RepHyde:    "questions.json",
	docModel.RepExample: "examples.json",
}

// Cache is the on-disk derived-text cache for one collection scope: one
// JSON file per representation kind, each mapping base document id to the
// generated text. Files are read once at open and written whole at flush.
type Cache struct {
	dir        string
	collection string
	entries    map[docModel.RepKind]map[string]string
	logger     *logger_i.Logger
}

// Open loads the three cache files for the collection. A missing file is a
// cold start (empty mapping); a corrupt file propagates as a parse error.
func Open(dir string, collection string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	c := &Cache{
		dir:        dir,
		collection: collection,
		entries:    make(map[docModel.RepKind]map[string]string, len(fileSuffix)),
		logger:     logger_i.NewLogger("TextCache"),
	}
	for kind := range fileSuffix {
		m, err := loadJSON(c.path(kind))
		if err != nil {
			return nil, err
		}
		c.logger.Debug("Loaded cache file", "kind", string(kind), "entries", len(m))
		c.entries[kind] = m
	}
	return c, nil
}

func (c *Cache) path(kind docModel.RepKind) string {
	return filepath.Join(c.dir, c.collection+"_"+fileSuffix[kind])
}

func (c *Cache) Get(kind docModel.RepKind, baseID string) (string, bool) {
	text, ok := c.entries[kind][baseID]
	return text, ok && text != ""
}

func (c *Cache) Put(kind docModel.RepKind, baseID string, text string) {
	c.entries[kind][baseID] = text
}

func (c *Cache) Len(kind docModel.RepKind) int {
	return len(c.entries[kind])
}

// Flush overwrites all three cache files with the current mappings.
func (c *Cache) Flush() error {
	for kind, m := range c.entries {
		if err := dumpJSON(c.path(kind), m); err != nil {
			return err
		}
		c.logger.Debug("Dumped cache file", "kind", string(kind), "entries", len(m))
	}
	return nil
}

func loadJSON(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache file %s: %w", path, err)
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing cache file %s: %w", path, err)
	}
	if m == nil {
		m = map[string]string{}
	}
	return m, nil
}

func dumpJSON(path string, m map[string]string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0640); err != nil {
		return fmt.Errorf("writing cache file %s: %w", path, err)
	}
	return nil
}
