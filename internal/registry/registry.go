// Package registry holds process-wide model metadata: the built-in
// supported-model table, the hot-reloadable custom mapping overlay, model-
// family resolution (supplemented from the original source, grounded on
// the teacher's internal/registry/model_families.go), and per-model
// thinking-budget ranges.
package registry

import (
	"sort"
	"sync"
)

// ThinkingRange describes the supported thinking-budget envelope for a model.
type ThinkingRange struct {
	Min            int
	Max            int
	ZeroAllowed    bool
	DynamicAllowed bool
}

// ModelInfo is the built-in metadata for one physical model.
type ModelInfo struct {
	ID               string
	DisplayName      string
	OutputTokenLimit int
	Thinking         *ThinkingRange
}

// FamilyMember is one provider-specific physical model backing a canonical
// family name, grounded on the teacher's model-family table.
type FamilyMember struct {
	PhysicalModel string
	Priority      int
}

// builtinModels is the static table of physical models the gateway knows
// about out of the box; custom_mapping (below) overlays client-facing
// aliases on top of this.
var builtinModels = map[string]*ModelInfo{
	"gemini-3-pro-high": {
		ID: "gemini-3-pro-high", DisplayName: "Gemini 3 Pro",
		OutputTokenLimit: 65536,
		Thinking:         &ThinkingRange{Min: 128, Max: 32768, ZeroAllowed: false, DynamicAllowed: true},
	},
	"gemini-3-flash": {
		ID: "gemini-3-flash", DisplayName: "Gemini 3 Flash",
		OutputTokenLimit: 65536,
		Thinking:         &ThinkingRange{Min: 0, Max: 24576, ZeroAllowed: true, DynamicAllowed: true},
	},
	"gemini-3-pro-image": {
		ID: "gemini-3-pro-image", DisplayName: "Gemini 3 Pro Image",
		OutputTokenLimit: 8192,
	},
	"gemini-2.5-pro": {
		ID: "gemini-2.5-pro", DisplayName: "Gemini 2.5 Pro",
		OutputTokenLimit: 65536,
		Thinking:         &ThinkingRange{Min: 128, Max: 32768, ZeroAllowed: false, DynamicAllowed: true},
	},
	"gemini-2.5-flash": {
		ID: "gemini-2.5-flash", DisplayName: "Gemini 2.5 Flash",
		OutputTokenLimit: 65536,
		Thinking:         &ThinkingRange{Min: 0, Max: 24576, ZeroAllowed: true, DynamicAllowed: true},
	},
	"gemini-2.5-flash-lite": {
		ID: "gemini-2.5-flash-lite", DisplayName: "Gemini 2.5 Flash Lite",
		OutputTokenLimit: 65536,
	},
}

// modelFamilies generalizes the flat 1:1 custom_mapping config to a
// priority-grouped table: a canonical client-facing name resolves to the
// first available physical model in priority order.
var modelFamilies = map[string][]FamilyMember{
	"claude-sonnet-4-5-thinking": {
		{PhysicalModel: "gemini-3-pro-high", Priority: 1},
	},
	"claude-opus-4-5-thinking": {
		{PhysicalModel: "gemini-3-pro-high", Priority: 1},
	},
}

// Registry is the process-wide, hot-reloadable model table.
type Registry struct {
	mu      sync.RWMutex
	custom  map[string]string // client_model -> physical_model overlay
	models  map[string]*ModelInfo
	families map[string][]FamilyMember
}

var global = New()

// GetGlobalRegistry returns the process-wide registry instance.
func GetGlobalRegistry() *Registry { return global }

// New constructs a Registry seeded with the built-in tables.
func New() *Registry {
	return &Registry{
		custom:   map[string]string{},
		models:   builtinModels,
		families: modelFamilies,
	}
}

// GetModelInfo looks up built-in metadata for a physical model id.
func (r *Registry) GetModelInfo(model string) *ModelInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.models[model]
}

// SetCustomMapping replaces the hot-reloadable overlay table wholesale
// (called by config.Watch on file change).
func (r *Registry) SetCustomMapping(m map[string]string) {
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	r.mu.Lock()
	r.custom = cp
	r.mu.Unlock()
}

// ResolvePhysicalModel resolves a client-facing model name to the physical
// model sent upstream: custom mapping overlay first, then model-family
// priority resolution, else passthrough.
func (r *Registry) ResolvePhysicalModel(clientModel string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if mapped, ok := r.custom[clientModel]; ok && mapped != "" {
		return mapped
	}
	if members, ok := r.families[clientModel]; ok && len(members) > 0 {
		sorted := append([]FamilyMember(nil), members...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Priority < sorted[j].Priority })
		return sorted[0].PhysicalModel
	}
	return clientModel
}

// CustomMappingKeys returns the client-facing keys of the current overlay,
// used by the model-list endpoints to union with the built-in table.
func (r *Registry) CustomMappingKeys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.custom))
	for k := range r.custom {
		keys = append(keys, k)
	}
	return keys
}

// BuiltinModelIDs returns every statically-known physical model id.
func (r *Registry) BuiltinModelIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.models))
	for id := range r.models {
		ids = append(ids, id)
	}
	return ids
}

// ListModels returns the sorted union of built-in and custom-mapping model
// names.
func (r *Registry) ListModels() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, id := range r.BuiltinModelIDs() {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	for _, id := range r.CustomMappingKeys() {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
