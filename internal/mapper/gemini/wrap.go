// Package gemini wraps/unwraps the v1internal envelope around an already
// Gemini-shape request body, and performs the schema cleaning, tool
// rewriting, and networking/model-aliasing rules a real v1internal client needs.
package gemini

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/nghyane/llm-gw/internal/ir"
	"github.com/nghyane/llm-gw/internal/mapper/schema"
)

// EntryPoint identifies which public route is wrapping the request, which
// picks the requestId prefix ("agent-<uuid> (or img-<uuid>,
// openai-<uuid>, imagen-<uuid> depending on entry point)").
type EntryPoint string

const (
	EntryAgent  EntryPoint = "agent"
	EntryImage  EntryPoint = "img"
	EntryOpenAI EntryPoint = "openai"
	EntryImagen EntryPoint = "imagen"
)

// UserAgent is the constant userAgent value stamped on every envelope.
const UserAgent = "llm-gw/1.0"

var networkingToolNames = map[string]bool{
	"web_search":              true,
	"google_search":           true,
	"web_search_20250305":     true,
	"google_search_retrieval": true,
}

// droppedToolNames is the narrower set cleanTools actually strips: only a
// literal web_search or google_search declaration is removed in favor of
// the googleSearch built-in tool. Other networking-flavored names still
// trip detectNetworking but are otherwise passed through untouched.
var droppedToolNames = map[string]bool{
	"web_search":    true,
	"google_search": true,
}

// Wrap builds the v1internal RequestEnvelope from an already-translated
// InnerRequest, applying deep-clean, tool cleaning, networking detection,
// model aliasing, and the image-gen arm.
func Wrap(inner *ir.InnerRequest, projectID, clientModel string, sid string, entry EntryPoint) (*ir.RequestEnvelope, error) {
	cleaned, err := deepCleanInner(inner)
	if err != nil {
		return nil, err
	}

	networking := detectNetworking(cleaned, clientModel)
	cleanTools(cleaned)

	physicalModel := aliasModel(clientModel)
	if networking {
		physicalModel = "gemini-2.5-flash"
	}

	reqType := ir.RequestTypeAgent
	switch {
	case strings.HasPrefix(physicalModel, "gemini-3-pro-image"):
		reqType = ir.RequestTypeImageGen
	case networking:
		reqType = ir.RequestTypeWebSearch
	}

	if networking && !hasFunctionDeclarations(cleaned) {
		cleaned.Tools = append(cleaned.Tools, ir.Tool{GoogleSearch: map[string]any{}})
	}

	if reqType == ir.RequestTypeImageGen {
		applyImageGenArm(cleaned, clientModel)
	}

	env := &ir.RequestEnvelope{
		Project:     projectID,
		RequestID:   string(entry) + "-" + uuid.NewString(),
		Request:     cleaned,
		Model:       physicalModel,
		UserAgent:   UserAgent,
		RequestType: reqType,
	}
	_ = sid // sid anchors account selection upstream of Wrap; carried for callers that log it alongside the envelope.
	return env, nil
}

// deepCleanInner round-trips InnerRequest through its JSON projection so
// DeepCleanUndefined can operate generically on the tree, then re-parses it
// back into the typed shape ("recursively remove object entries whose
// value is the literal string [undefined], max recursion depth 10").
func deepCleanInner(inner *ir.InnerRequest) (*ir.InnerRequest, error) {
	raw, err := json.Marshal(inner)
	if err != nil {
		return nil, err
	}
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	cleaned := schema.DeepCleanUndefined(generic)
	cleanedRaw, err := json.Marshal(cleaned)
	if err != nil {
		return nil, err
	}
	var out ir.InnerRequest
	if err := json.Unmarshal(cleanedRaw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// cleanTools drops web_search/google_search declarations (handled instead
// via the googleSearch built-in tool). The parametersJsonSchema ->
// parameters rename is done on raw JSON by RenameParametersJSONSchema.
func cleanTools(inner *ir.InnerRequest) {
	for ti := range inner.Tools {
		decls := inner.Tools[ti].FunctionDeclarations
		kept := decls[:0]
		for _, d := range decls {
			if droppedToolNames[d.Name] {
				continue
			}
			kept = append(kept, d)
		}
		inner.Tools[ti].FunctionDeclarations = kept
	}
}

// RenameParametersJSONSchema renames a raw declaration's parametersJsonSchema
// key to parameters before typed decoding, for callers that still hold the
// wire-shape JSON (the typed ir.FunctionDeclaration has no such field).
func RenameParametersJSONSchema(raw []byte) []byte {
	result := gjson.ParseBytes(raw)
	out := raw
	toolsResult := result.Get("tools")
	if !toolsResult.Exists() {
		return out
	}
	toolsResult.ForEach(func(tiKey, tool gjson.Result) bool {
		ti := int(tiKey.Int())
		tool.Get("functionDeclarations").ForEach(func(diKey, decl gjson.Result) bool {
			di := int(diKey.Int())
			if schemaVal := decl.Get("parametersJsonSchema"); schemaVal.Exists() {
				base := "tools." + strconv.Itoa(ti) + ".functionDeclarations." + strconv.Itoa(di)
				if updated, err := sjson.SetRawBytes(out, base+".parameters", []byte(schemaVal.Raw)); err == nil {
					out = updated
				}
				if updated, err := sjson.DeleteBytes(out, base+".parametersJsonSchema"); err == nil {
					out = updated
				}
			}
			return true
		})
		return true
	})
	return out
}

func hasFunctionDeclarations(inner *ir.InnerRequest) bool {
	for _, t := range inner.Tools {
		if len(t.FunctionDeclarations) > 0 {
			return true
		}
	}
	return false
}

// detectNetworking reports whether the request should be routed with
// search grounding enabled: either a networking-flavored tool declaration
// is present, or the client model name ends with "-online".
func detectNetworking(inner *ir.InnerRequest, clientModel string) bool {
	if strings.HasSuffix(clientModel, "-online") {
		return true
	}
	for _, t := range inner.Tools {
		if t.GoogleSearch != nil {
			return true
		}
		for _, d := range t.FunctionDeclarations {
			if networkingToolNames[d.Name] {
				return true
			}
		}
	}
	return false
}

var previewAliases = map[string]string{
	"gemini-3-pro-preview":       "gemini-3-pro-high",
	"gemini-3-pro-image-preview": "gemini-3-pro-image",
	"gemini-3-flash-preview":     "gemini-3-flash",
}

// aliasModel strips a trailing "-online" suffix and maps preview aliases to
// their GA physical model names.
func aliasModel(clientModel string) string {
	model := strings.TrimSuffix(clientModel, "-online")
	if alias, ok := previewAliases[model]; ok {
		return alias
	}
	return model
}

var aspectRatios = map[string]float64{
	"21:9": 21.0 / 9.0,
	"16:9": 16.0 / 9.0,
	"9:16": 9.0 / 16.0,
	"4:3":  4.0 / 3.0,
	"3:4":  3.0 / 4.0,
	"3:2":  3.0 / 2.0,
	"2:3":  2.0 / 3.0,
	"5:4":  5.0 / 4.0,
	"4:5":  4.0 / 5.0,
	"1:1":  1.0,
}

const aspectRatioTolerance = 0.05

// applyImageGenArm strips tools/systemInstruction and defaults every content
// role to "user". imageConfig itself is resolved by the per-protocol
// mapper that still has access to the original size/quality/image_size
// fields (see ResolveImageSize/CalculateAspectRatioFromSize below), since by
// the time a request reaches Wrap those protocol-specific fields are gone.
func applyImageGenArm(inner *ir.InnerRequest, clientModel string) {
	inner.Tools = nil
	inner.SystemInstruction = nil
	for i := range inner.Contents {
		if inner.Contents[i].Role == "" {
			inner.Contents[i].Role = ir.RoleUser
		}
	}
	if inner.GenerationConfig == nil {
		inner.GenerationConfig = &ir.GenerationConfig{}
	}
}

// ResolveImageSize applies the size/quality/imageSize precedence: a direct
// imageSize wins, then a quality mapping, then a model-suffix inference.
func ResolveImageSize(directImageSize, quality, model string) string {
	if directImageSize != "" {
		return strings.ToUpper(directImageSize)
	}
	switch strings.ToLower(quality) {
	case "hd", "4k":
		return "4K"
	case "medium", "2k":
		return "2K"
	case "standard", "1k":
		return "1K"
	}
	lower := strings.ToLower(model)
	switch {
	case strings.Contains(lower, "-4k"), strings.Contains(lower, "-hd"):
		return "4K"
	case strings.Contains(lower, "-2k"):
		return "2K"
	}
	return ""
}

// CalculateAspectRatioFromSize parses a "WxH" size string and snaps it to
// the nearest supported aspect ratio within 5% tolerance, defaulting to
// "1:1".
func CalculateAspectRatioFromSize(size string) string {
	w, h, ok := parseWxH(size)
	if !ok || h == 0 {
		return "1:1"
	}
	target := w / h

	best := "1:1"
	bestDiff := math.MaxFloat64
	for label, ratio := range aspectRatios {
		diff := math.Abs(ratio-target) / ratio
		if diff < bestDiff {
			bestDiff = diff
			best = label
		}
	}
	if bestDiff > aspectRatioTolerance {
		return "1:1"
	}
	return best
}

func parseWxH(size string) (w, h float64, ok bool) {
	parts := strings.SplitN(strings.ToLower(size), "x", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	w, errW := strconv.ParseFloat(parts[0], 64)
	h, errH := strconv.ParseFloat(parts[1], 64)
	if errW != nil || errH != nil {
		return 0, 0, false
	}
	return w, h, true
}
