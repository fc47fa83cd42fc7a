// Package fingerprint derives the stable session fingerprint (sid) that
// anchors sticky account scheduling. It hashes the first meaningful
// user utterance only — never the model name or a timestamp — so that the
// same conversation keeps landing on the same upstream account.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// Protocol identifies which client wire format the body came in on.
type Protocol string

const (
	Claude Protocol = "claude"
	OpenAI Protocol = "openai"
	Gemini Protocol = "gemini"
)

const (
	minMessageLen       = 3
	systemReminderMark  = "<system-reminder>"
	systemBracketMark   = "[System"
	sessionSubstring    = "session-"
)

// Fingerprint computes sid-<hex16> for the given raw JSON body under the
// given protocol family.
func Fingerprint(protocol Protocol, body []byte) string {
	root := gjson.ParseBytes(body)

	if protocol == Claude {
		if uid := root.Get("metadata.user_id"); uid.Exists() {
			s := uid.String()
			if s != "" && !strings.Contains(s, sessionSubstring) {
				return s
			}
		}
	}

	messagesKey := "messages"
	if protocol == Gemini {
		messagesKey = "contents"
	}

	messages := root.Get(messagesKey)
	if messages.IsArray() {
		var found string
		messages.ForEach(func(_, msg gjson.Result) bool {
			if msg.Get("role").String() != "user" {
				return true
			}
			text := extractText(protocol, msg)
			clean := strings.TrimSpace(text)
			if isValidUserMessage(clean) {
				found = clean
				return false
			}
			return true
		})
		if found != "" {
			return hashToSid([]byte(found))
		}
	}

	// Fallback: hash the last message, or the whole body for Gemini.
	if protocol == Gemini {
		return hashToSid(body)
	}
	if messages.IsArray() && len(messages.Array()) > 0 {
		last := messages.Array()[len(messages.Array())-1]
		return hashToSid([]byte(last.Raw))
	}
	return hashToSid(body)
}

func isValidUserMessage(s string) bool {
	return len(s) >= minMessageLen &&
		!strings.Contains(s, systemReminderMark) &&
		!strings.Contains(s, systemBracketMark)
}

// extractText pulls the plain-text content out of a user message, handling
// both the string and content-block-array forms used by Claude/OpenAI, and
// Gemini's parts array.
func extractText(protocol Protocol, msg gjson.Result) string {
	if protocol == Gemini {
		parts := msg.Get("parts")
		var texts []string
		parts.ForEach(func(_, part gjson.Result) bool {
			if t := part.Get("text"); t.Exists() {
				texts = append(texts, t.String())
			}
			return true
		})
		return strings.Join(texts, " ")
	}

	content := msg.Get("content")
	if content.Type == gjson.String {
		return content.String()
	}
	if content.IsArray() {
		var texts []string
		content.ForEach(func(_, block gjson.Result) bool {
			if block.Get("type").String() == "text" {
				texts = append(texts, block.Get("text").String())
			}
			return true
		})
		return strings.Join(texts, " ")
	}
	return ""
}

func hashToSid(b []byte) string {
	sum := sha256.Sum256(b)
	return "sid-" + hex.EncodeToString(sum[:])[:16]
}

// CanonicalUserText is a test/property helper: it builds a minimal body for
// the given protocol carrying a single user message with text, so that
// cross-protocol fingerprint-equality tests can be written against it
// without constructing full request payloads inline.
func CanonicalUserText(protocol Protocol, text string) []byte {
	var v any
	switch protocol {
	case Gemini:
		v = map[string]any{
			"contents": []any{
				map[string]any{"role": "user", "parts": []any{map[string]any{"text": text}}},
			},
		}
	default:
		v = map[string]any{
			"messages": []any{
				map[string]any{"role": "user", "content": text},
			},
		}
	}
	b, _ := json.Marshal(v)
	return b
}
