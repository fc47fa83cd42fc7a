package imagegen

import "github.com/nghyane/llm-gw/internal/ir"

// ExtractImages pulls every inlineData part out of the first candidate and
// renders it per the requested response_format.
func ExtractImages(reply *ir.Reply, responseFormat string) []ImageData {
	if reply == nil || len(reply.Candidates) == 0 {
		return nil
	}
	var out []ImageData
	for _, part := range reply.Candidates[0].Content.Parts {
		if part.Kind != ir.PartInlineData || part.InlineData == nil || part.InlineData.Data == "" {
			continue
		}
		if responseFormat == "url" {
			mime := part.InlineData.MimeType
			if mime == "" {
				mime = "image/png"
			}
			out = append(out, ImageData{URL: "data:" + mime + ";base64," + part.InlineData.Data})
			continue
		}
		out = append(out, ImageData{B64JSON: part.InlineData.Data})
	}
	return out
}
