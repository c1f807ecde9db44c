package builder

import (
	"reflect"
	"strings"
	"testing"

	"github.com/anvikal/askapi/internal/domain/docModel"
)

func petStore() map[string]any {
	return map[string]any{
		"openapi": "3.0.0",
		"info":    map[string]any{"title": "Pet Store", "version": "1.0"},
		"servers": []any{map[string]any{"url": "https://api.example.com/v1"}},
		"paths": map[string]any{
			"/pets": map[string]any{
				"get": map[string]any{
					"operationId": "listPets",
					"summary":     "List all pets",
					"tags":        []any{"pets"},
					"parameters": []any{
						map[string]any{
							"name":     "limit",
							"in":       "query",
							"required": false,
							"schema":   map[string]any{"type": "integer"},
						},
					},
					"responses": map[string]any{
						"200": map[string]any{"description": "A list of pets"},
						"default": map[string]any{"description": "unexpected error"},
					},
				},
				"post": map[string]any{
					"summary": "Create a pet",
					"requestBody": map[string]any{
						"required": true,
						"content":  map[string]any{"application/json": map[string]any{}},
					},
					"responses": map[string]any{
						"201": map[string]any{"description": "Created"},
					},
				},
			},
		},
		"components": map[string]any{
			"schemas": map[string]any{
				"Pet": map[string]any{
					"type":       "object",
					"properties": map[string]any{"name": map[string]any{"type": "string"}},
				},
			},
		},
	}
}

func TestBuildDocuments_PetStore(t *testing.T) {
	docs := BuildDocuments(petStore(), "pet_store", "abc123def456")

	// get: parent + 1 param + 2 responses, post: parent + body + 1 response, plus 1 schema
	if len(docs) != 8 {
		t.Fatalf("Expected 8 documents, got %d", len(docs))
	}

	byKind := map[docModel.Kind]int{}
	for _, d := range docs {
		byKind[d.Kind]++
	}
	want := map[docModel.Kind]int{
		docModel.KindOperation:   2,
		docModel.KindParameter:   1,
		docModel.KindRequestBody: 1,
		docModel.KindResponse:    3,
		docModel.KindSchema:      1,
	}
	if !reflect.DeepEqual(byKind, want) {
		t.Errorf("Kind counts got %v, want %v", byKind, want)
	}

	parent := docs[0]
	if parent.Kind != docModel.KindOperation {
		t.Fatalf("First document should be the GET operation parent, got %s", parent.Kind)
	}
	for _, line := range []string{
		"OPERATION: GET /pets",
		"OPERATION_ID: listPets",
		"TAGS: pets",
		"SUMMARY: List all pets",
		"BASE_URLS: https://api.example.com/v1",
	} {
		if !strings.Contains(parent.Content, line) {
			t.Errorf("Parent content missing %q:\n%s", line, parent.Content)
		}
	}
	// description absent in the source, rendered as the N/A sentinel
	if !strings.Contains(parent.Content, "DESCRIPTION:\nN/A") {
		t.Errorf("Parent content should carry the N/A description sentinel:\n%s", parent.Content)
	}
}

func TestBuildDocuments_SynthesizedOperationID(t *testing.T) {
	spec := map[string]any{
		"paths": map[string]any{
			"/pets": map[string]any{
				"get": map[string]any{
					"responses": map[string]any{"200": map[string]any{"description": "ok"}},
				},
			},
		},
	}

	docs := BuildDocuments(spec, "api", "hash")
	if len(docs) == 0 {
		t.Fatal("No documents built")
	}
	if got := docs[0].OperationID(); got != "get__pets" {
		t.Errorf("Synthesized operationId got %q, want %q", got, "get__pets")
	}
}

func TestBuildDocuments_Deterministic(t *testing.T) {
	first := BuildDocuments(petStore(), "pet_store", "abc123def456")
	second := BuildDocuments(petStore(), "pet_store", "abc123def456")

	if !reflect.DeepEqual(first, second) {
		t.Error("Two builds of the same spec differ")
	}
}

func TestBuildDocuments_MetadataCompaction(t *testing.T) {
	spec := map[string]any{
		"paths": map[string]any{
			"/a": map[string]any{
				"get": map[string]any{
					"operationId": "getA",
					"responses":   map[string]any{"200": map[string]any{"description": "ok"}},
				},
			},
		},
	}

	docs := BuildDocuments(spec, "api", "hash")
	if _, ok := docs[0].Metadata["tags"]; ok {
		t.Error("Empty tags slice should be compacted out of metadata")
	}
	if docs[0].Metadata["operationId"] != "getA" {
		t.Errorf("operationId metadata got %v", docs[0].Metadata["operationId"])
	}
}

func TestBuildDocuments_ResponseOrder(t *testing.T) {
	spec := map[string]any{
		"paths": map[string]any{
			"/a": map[string]any{
				"get": map[string]any{
					"operationId": "getA",
					"responses": map[string]any{
						"500": map[string]any{"description": "boom"},
						"200": map[string]any{"description": "ok"},
						"404": map[string]any{"description": "missing"},
					},
				},
			},
		},
	}

	docs := BuildDocuments(spec, "api", "hash")
	var statuses []string
	for _, d := range docs {
		if d.Kind == docModel.KindResponse {
			statuses = append(statuses, d.Metadata["status_code"].(string))
		}
	}
	if !reflect.DeepEqual(statuses, []string{"200", "404", "500"}) {
		t.Errorf("Responses not emitted in sorted status order: %v", statuses)
	}
}
