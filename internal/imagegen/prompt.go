package imagegen

// AugmentPrompt appends the quality/style phrases ("append ...(high
// quality...) when quality=='hd'; append style phrase for vivid/natural").
func AugmentPrompt(prompt, quality, style string) string {
	out := prompt
	if quality == "hd" {
		out += ", (high quality, highly detailed, 4k resolution, hdr)"
	}
	switch style {
	case "vivid":
		out += ", (vivid colors, dramatic lighting, rich details)"
	case "natural":
		out += ", (natural lighting, realistic, photorealistic)"
	}
	return out
}

// AugmentEditPrompt appends a plain style suffix for the edits route, which
// has no quality field.
func AugmentEditPrompt(prompt, style string) string {
	if style == "" {
		return prompt
	}
	return prompt + ", style: " + style
}
