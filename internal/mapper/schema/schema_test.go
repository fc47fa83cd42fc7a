package schema

import (
	"reflect"
	"testing"
)

func TestUppercaseTypesIdempotent(t *testing.T) {
	node := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x": map[string]any{"type": "string"},
			"y": map[string]any{"type": "array", "items": map[string]any{"type": "number"}},
		},
	}
	UppercaseTypes(node)
	once := deepCopy(node)
	UppercaseTypes(node)
	if !reflect.DeepEqual(once, node) {
		t.Fatalf("UppercaseTypes is not idempotent: %v vs %v", once, node)
	}
	if node["type"] != "OBJECT" {
		t.Fatalf("expected root type OBJECT, got %v", node["type"])
	}
}

func TestDeepCleanUndefined(t *testing.T) {
	in := map[string]any{
		"a": "[undefined]",
		"b": "keep",
		"c": []any{map[string]any{"d": "[undefined]", "e": "keep"}},
	}
	out := DeepCleanUndefined(in).(map[string]any)
	if _, ok := out["a"]; ok {
		t.Fatalf("expected sentinel key removed")
	}
	if out["b"] != "keep" {
		t.Fatalf("expected unrelated key preserved")
	}
	nested := out["c"].([]any)[0].(map[string]any)
	if _, ok := nested["d"]; ok {
		t.Fatalf("expected nested sentinel key removed")
	}
}

func deepCopy(m map[string]any) map[string]any {
	out := map[string]any{}
	for k, v := range m {
		switch t := v.(type) {
		case map[string]any:
			out[k] = deepCopy(t)
		default:
			out[k] = v
		}
	}
	return out
}
