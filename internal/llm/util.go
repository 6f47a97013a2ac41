package llm

import "strings"

// CleanJSONBlock strips markdown code fences and any conversational text around the
// first JSON object or array in text. Text with no JSON value is returned trimmed.
func CleanJSONBlock(text string) string {
	text = StripCodeFence(text)

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return text
	}

	var candidate string
	if text[start] == '{' {
		candidate = extractJSONObject(text[start:])
	} else {
		candidate = extractJSONArray(text[start:])
	}
	if candidate == "" {
		return text
	}
	return candidate
}

// StripCodeFence removes a surrounding ``` block, with or without a language tag.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	if idx := strings.Index(text, "\n"); idx >= 0 {
		firstLine := text[:idx]
		// language tag: short, no spaces, no JSON
		if len(firstLine) < 20 && !strings.ContainsAny(firstLine, " {[") {
			text = text[idx+1:]
		}
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

func extractJSONObject(text string) string {
	return extractBalanced(text, '{', '}')
}

func extractJSONArray(text string) string {
	return extractBalanced(text, '[', ']')
}

// extractBalanced returns the prefix of text from its opening delimiter to the
// matching close, ignoring delimiters inside JSON strings.
func extractBalanced(text string, openCh, closeCh byte) string {
	if text == "" || text[0] != openCh {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case openCh:
			depth++
		case closeCh:
			depth--
			if depth == 0 {
				return text[:i+1]
			}
		}
	}
	return ""
}
