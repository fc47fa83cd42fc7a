// Package schema holds the JSON-Schema normalization shared by the OpenAI
// and Gemini mappers: uppercasing `type` values (protobuf requires enum
// names like "OBJECT" rather than "object"), and recursively stripping the
// `[undefined]` sentinel some clients (e.g. Cherry Studio) inject.
package schema

import "strings"

// UppercaseTypes recursively uppercases every JSON-Schema "type" value in
// place. Idempotent: running it twice is the same as running it once,
// since uppercase strings uppercase to themselves.
func UppercaseTypes(node map[string]any) {
	if node == nil {
		return
	}
	if t, ok := node["type"].(string); ok {
		node["type"] = strings.ToUpper(t)
	}
	if props, ok := node["properties"].(map[string]any); ok {
		for _, v := range props {
			if child, ok := v.(map[string]any); ok {
				UppercaseTypes(child)
			}
		}
	}
	if items, ok := node["items"].(map[string]any); ok {
		UppercaseTypes(items)
	}
	if anyOf, ok := node["anyOf"].([]any); ok {
		for _, v := range anyOf {
			if child, ok := v.(map[string]any); ok {
				UppercaseTypes(child)
			}
		}
	}
}

// EnsureObjectShape injects {type:"OBJECT", properties:{}} when parameters
// is missing or lacks a type.
func EnsureObjectShape(params map[string]any) map[string]any {
	if params == nil {
		params = map[string]any{}
	}
	if _, ok := params["type"]; !ok {
		params["type"] = "OBJECT"
	}
	if _, ok := params["properties"]; !ok {
		if t, _ := params["type"].(string); strings.EqualFold(t, "object") {
			params["properties"] = map[string]any{}
		}
	}
	UppercaseTypes(params)
	return params
}

const undefinedSentinel = "[undefined]"

// maxCleanDepth is the recursion cap for DeepCleanUndefined ("max
// recursion depth 10").
const maxCleanDepth = 10

// DeepCleanUndefined recursively removes object entries whose value is the
// literal string "[undefined]", up to maxCleanDepth levels deep.
func DeepCleanUndefined(v any) any {
	return deepClean(v, 0)
}

func deepClean(v any, depth int) any {
	if depth >= maxCleanDepth {
		return v
	}
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if s, ok := val.(string); ok && s == undefinedSentinel {
				delete(t, k)
				continue
			}
			t[k] = deepClean(val, depth+1)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = deepClean(val, depth+1)
		}
		return t
	default:
		return v
	}
}
