package ailink

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseObject decodes a JSON object out of free-form model output. Stages,
// in order: strict parse, code-fence stripping, first-to-last-brace
// extraction, malformation repair. Callers that still get an error apply
// their own labeled conservative default.
func ParseObject(raw string, v any) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("empty content")
	}

	if err := json.Unmarshal([]byte(raw), v); err == nil {
		return nil
	}

	stripped := StripCodeFences(raw)
	if err := json.Unmarshal([]byte(stripped), v); err == nil {
		return nil
	}

	extracted := ExtractObject(stripped)
	if extracted == "" {
		// Output may have been cut off before the closing brace.
		if start := strings.Index(stripped, "{"); start >= 0 {
			extracted = stripped[start:]
		}
	}
	if extracted != "" {
		if err := json.Unmarshal([]byte(extracted), v); err == nil {
			return nil
		}
		repaired := RepairJSON(extracted)
		if err := json.Unmarshal([]byte(repaired), v); err == nil {
			return nil
		}
	}

	return fmt.Errorf("unparseable model output")
}

// StripCodeFences removes a surrounding ```json ... ``` (or bare ```) block.
func StripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		// Drop the language tag on the opening fence line.
		first := strings.TrimSpace(trimmed[:idx])
		if len(first) <= 10 && !strings.ContainsAny(first, "{}") {
			trimmed = trimmed[idx+1:]
		}
	}
	trimmed = strings.TrimSpace(trimmed)
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}

// ExtractObject returns the substring between the first '{' and the last
// '}', or "" when no object-looking region exists.
func ExtractObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// RepairJSON fixes the malformations models commonly emit: smart quotes,
// stray control characters, trailing commas, and an unterminated trailing
// array.
func RepairJSON(s string) string {
	replacer := strings.NewReplacer(
		"“", `"`, "”", `"`,
		"‘", "'", "’", "'",
	)
	s = replacer.Replace(s)

	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for _, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			case r == '\n':
				b.WriteString(`\n`)
				continue
			case r == '\t':
				b.WriteString(`\t`)
				continue
			case r < 0x20:
				continue
			}
		} else if r == '"' {
			inString = true
		} else if r < 0x20 && r != '\n' && r != '\t' && r != '\r' {
			continue
		}
		b.WriteRune(r)
	}
	s = b.String()

	s = removeTrailingCommas(s)
	s = closeTrailingArray(s)
	return s
}

func removeTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if inString {
			b.WriteRune(r)
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		if r == '"' {
			inString = true
			b.WriteRune(r)
			continue
		}
		if r == ',' {
			j := i + 1
			for j < len(runes) && (runes[j] == ' ' || runes[j] == '\n' || runes[j] == '\t' || runes[j] == '\r') {
				j++
			}
			if j < len(runes) && (runes[j] == '}' || runes[j] == ']') {
				continue
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

// closeTrailingArray appends missing closers when the output was cut off
// inside an array at the end of the object.
func closeTrailingArray(s string) string {
	depthObj, depthArr := 0, 0
	inString := false
	escaped := false
	for _, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case '{':
			depthObj++
		case '}':
			depthObj--
		case '[':
			depthArr++
		case ']':
			depthArr--
		}
	}
	if inString || depthObj < 0 || depthArr < 0 {
		return s
	}
	s = strings.TrimRight(s, " \n\t\r,")
	for depthArr > 0 {
		s += "]"
		depthArr--
	}
	for depthObj > 0 {
		s += "}"
		depthObj--
	}
	return s
}
