package gemini

import "github.com/tidwall/gjson"

// Unwrap implements  "unwrap(reply)": if the reply has a top-level
// response key, return its value; else return the reply unchanged.
func Unwrap(body []byte) []byte {
	if v := gjson.GetBytes(body, "response"); v.Exists() {
		return []byte(v.Raw)
	}
	return body
}
