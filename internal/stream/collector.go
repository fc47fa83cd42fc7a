// Package stream folds an upstream v1internal SSE byte stream into a single
// canonical reply, and reframes it for pass-through forwarding. It reuses
// internal/streamutil's pooled scanner buffers against the v1internal
// {"response": {...}} envelope and the three-protocol SSE shape this
// gateway speaks.
package stream

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/tidwall/gjson"

	"github.com/nghyane/llm-gw/internal/ir"
	"github.com/nghyane/llm-gw/internal/streamutil"
)

const scannerBufferSize = 64 * 1024

func jsonUnmarshal(data []byte, v any) error { return sonic.Unmarshal(data, v) }
func jsonMarshal(v any) ([]byte, error)      { return sonic.Marshal(v) }

const (
	dataPrefix = "data: "
	doneMarker = "[DONE]"
)

// Collect folds an upstream byte stream into a final reply: it reads SSE
// lines from r, unwraps each event's v1internal envelope, and folds text
// parts/usageMetadata/finishReason into one canonical Reply. Accumulation
// stops at stream end, first read error, or the first "data: [DONE]" line
// (which is not itself an error).
func Collect(r io.Reader) (*ir.Reply, error) {
	reply := &ir.Reply{Candidates: []ir.Candidate{{Content: ir.Content{Role: ir.RoleModel}}}}

	buf := streamutil.GetBuffer(scannerBufferSize)
	defer streamutil.PutBuffer(buf)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(*buf, 16*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}
		payload := strings.TrimPrefix(line, dataPrefix)
		if payload == doneMarker {
			break
		}
		if payload == "" {
			continue
		}
		applyEvent(reply, []byte(payload))
	}
	if err := scanner.Err(); err != nil {
		return reply, err
	}
	return reply, nil
}

// applyEvent folds one decoded v1internal event into the accumulating reply.
func applyEvent(reply *ir.Reply, raw []byte) {
	body := raw
	if v := gjson.GetBytes(raw, "response"); v.Exists() {
		body = []byte(v.Raw)
	}

	var event ir.Reply
	if err := jsonUnmarshal(body, &event); err != nil {
		return
	}

	if len(event.Candidates) == 0 {
		if event.UsageMetadata != nil {
			reply.UsageMetadata = event.UsageMetadata
		}
		return
	}

	cand := event.Candidates[0]
	target := &reply.Candidates[0]
	target.Content.Parts = appendParts(target.Content.Parts, cand.Content.Parts)
	if cand.FinishReason != "" {
		target.FinishReason = cand.FinishReason
	}
	if event.UsageMetadata != nil {
		reply.UsageMetadata = event.UsageMetadata
	}
}

// appendParts implements the part-accumulation rule: a new text-only,
// non-thought part is appended to the previous part in place when that
// previous part is itself text-only and non-thought; everything else
// (thought parts, functionCall, functionResponse, inlineData) is appended
// as a new part.
func appendParts(existing []ir.Part, incoming []ir.Part) []ir.Part {
	for _, p := range incoming {
		if n := len(existing); n > 0 && existing[n-1].IsTextOnly() && p.IsTextOnly() {
			existing[n-1].Text += p.Text
			continue
		}
		existing = append(existing, p)
	}
	return existing
}

// FrameSSE writes v any as a single "data: <json>\n\n" SSE event.
func FrameSSE(w io.Writer, v any) error {
	b, err := jsonMarshal(v)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	buf.WriteString(dataPrefix)
	buf.Write(b)
	buf.WriteString("\n\n")
	_, err = w.Write(buf.Bytes())
	return err
}

// FrameDone writes the terminal "data: [DONE]\n\n" marker some
// OpenAI-compatible clients expect at stream end.
func FrameDone(w io.Writer) error {
	_, err := w.Write([]byte(dataPrefix + doneMarker + "\n\n"))
	return err
}
