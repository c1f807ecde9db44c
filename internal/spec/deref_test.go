package spec

import "testing"

func TestDereference_CycleStopsExpanding(t *testing.T) {
	doc := map[string]any{
		"components": map[string]any{
			"schemas": map[string]any{
				"Node": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"next": map[string]any{"$ref": "#/components/schemas/Node"},
					},
				},
			},
		},
	}

	out := Dereference(doc)

	node := out["components"].(map[string]any)["schemas"].(map[string]any)["Node"].(map[string]any)
	next := node["properties"].(map[string]any)["next"].(map[string]any)
	if next["type"] != "object" {
		t.Fatalf("First level of the cycle should be expanded, got %v", next)
	}
	inner := next["properties"].(map[string]any)["next"].(map[string]any)
	if inner["$ref"] != "#/components/schemas/Node" {
		t.Errorf("Cycle re-entry should keep the $ref literal, got %v", inner)
	}
}

func TestDereference_ExternalAndUnresolvableRefsKept(t *testing.T) {
	doc := map[string]any{
		"a": map[string]any{"$ref": "other.yaml#/Thing"},
		"b": map[string]any{"$ref": "#/does/not/exist"},
	}

	out := Dereference(doc)

	if out["a"].(map[string]any)["$ref"] != "other.yaml#/Thing" {
		t.Errorf("External ref should stay literal, got %v", out["a"])
	}
	if out["b"].(map[string]any)["$ref"] != "#/does/not/exist" {
		t.Errorf("Unresolvable ref should stay literal, got %v", out["b"])
	}
}

func TestDereference_EscapedPointerSegments(t *testing.T) {
	doc := map[string]any{
		"paths": map[string]any{
			"/pets": map[string]any{"description": "target"},
		},
		"x": map[string]any{"$ref": "#/paths/~1pets"},
	}

	out := Dereference(doc)

	if out["x"].(map[string]any)["description"] != "target" {
		t.Errorf("~1 escape not handled, got %v", out["x"])
	}
}
