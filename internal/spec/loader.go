package spec

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/anvikal/askapi/pkg/logger_i"
	"gopkg.in/yaml.v3"
)

var logger = logger_i.NewLogger("SpecLoader")

// Load reads a JSON or YAML OpenAPI file, resolves internal $refs and
// returns the dereferenced mapping together with a 12-char lowercase hex
// fingerprint of the raw content. The fingerprint scopes caches and
// vector collections, so it is computed before dereferencing.
func Load(path string, validate bool) (map[string]any, string, error) {
	logger.Info("Loading spec", "path", path)

	raw, err := readRaw(path)
	if err != nil {
		return nil, "", err
	}

	hash, err := Fingerprint(raw)
	if err != nil {
		return nil, "", err
	}
	logger.Debug("Computed spec fingerprint", "hash", hash)

	deref := Dereference(raw)

	if validate {
		if err := validateStructure(deref); err != nil {
			return nil, "", err
		}
	}
	return deref, hash, nil
}

func readRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading spec file: %w", err)
	}

	var doc map[string]any
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing yaml spec: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing json spec: %w", err)
		}
	}
	if doc == nil {
		return nil, errors.New("spec file is empty")
	}
	return doc, nil
}

// Fingerprint hashes the canonical (sorted-key) JSON form of the raw
// document and truncates to 12 hex chars, so JSON and YAML renditions of
// the same content agree.
func Fingerprint(raw map[string]any) (string, error) {
	canonical, err := json.Marshal(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalizing spec: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])[:12], nil
}

func validateStructure(doc map[string]any) error {
	if _, ok := doc["openapi"]; !ok {
		if _, ok := doc["swagger"]; !ok {
			return errors.New("spec has neither an openapi nor a swagger version field")
		}
	}
	if _, ok := doc["paths"].(map[string]any); !ok {
		return errors.New("spec has no paths table")
	}
	return nil
}

// APIName slugifies the spec's info.title into a filesystem- and
// collection-friendly name, falling back to "api".
func APIName(doc map[string]any) string {
	title := ""
	if info, ok := doc["info"].(map[string]any); ok {
		title, _ = info["title"].(string)
	}
	return Slugify(title)
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	slugStripRe  = regexp.MustCompile(`[^a-z0-9_]+`)
)

func Slugify(title string) string {
	slug := whitespaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(title)), "_")
	slug = slugStripRe.ReplaceAllString(slug, "")
	if slug == "" {
		return "api"
	}
	return slug
}
