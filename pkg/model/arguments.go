package model

import (
	"encoding/json"
	"strings"
)

// ParseArguments turns a raw argument payload into a mapping. It tries a
// strict JSON parse first, then a permissive pass that tolerates
// Python-literal output (single quotes, True/False/None, trailing commas).
// When both fail the original text survives under the "_raw" key, so the
// caller always receives a valid mapping.
func ParseArguments(raw string) map[string]any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return map[string]any{}
	}

	if parsed, ok := decodeObject(trimmed); ok {
		return parsed
	}
	if parsed, ok := decodeObject(normalizeLiteral(trimmed)); ok {
		return parsed
	}
	return map[string]any{"_raw": trimmed}
}

func decodeObject(text string) (map[string]any, bool) {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, false
	}
	if parsed == nil {
		return nil, false
	}
	return parsed, true
}

// normalizeLiteral rewrites common Python-literal syntax into JSON: single
// quoted strings become double quoted, bare True/False/None become their
// JSON spellings, and trailing commas before a closing brace or bracket are
// dropped. The rewrite is conservative; anything it cannot account for is
// left for the final json.Unmarshal attempt to reject.
func normalizeLiteral(text string) string {
	var out strings.Builder
	out.Grow(len(text))

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case '\'':
			body, consumed, ok := scanSingleQuoted(runes[i:])
			if !ok {
				out.WriteRune(r)
				continue
			}
			out.WriteString(body)
			i += consumed - 1
		case '"':
			body, consumed := scanDoubleQuoted(runes[i:])
			out.WriteString(body)
			i += consumed - 1
		case ',':
			if next := nextNonSpace(runes, i+1); next == '}' || next == ']' {
				continue
			}
			out.WriteRune(r)
		default:
			if replaced, consumed := replaceKeyword(runes, i); consumed > 0 {
				out.WriteString(replaced)
				i += consumed - 1
				continue
			}
			out.WriteRune(r)
		}
	}
	return out.String()
}

// scanSingleQuoted converts one single-quoted literal into a JSON string,
// escaping embedded double quotes and honoring backslash escapes.
func scanSingleQuoted(runes []rune) (string, int, bool) {
	var body strings.Builder
	body.WriteByte('"')
	for i := 1; i < len(runes); i++ {
		switch runes[i] {
		case '\\':
			if i+1 < len(runes) {
				if runes[i+1] == '\'' {
					body.WriteRune('\'')
				} else {
					body.WriteRune('\\')
					body.WriteRune(runes[i+1])
				}
				i++
				continue
			}
			body.WriteRune('\\')
		case '\'':
			body.WriteByte('"')
			return body.String(), i + 1, true
		case '"':
			body.WriteString(`\"`)
		default:
			body.WriteRune(runes[i])
		}
	}
	return "", 0, false
}

// scanDoubleQuoted copies a double-quoted string through untouched so the
// keyword and quote rewrites never fire inside it.
func scanDoubleQuoted(runes []rune) (string, int) {
	var body strings.Builder
	body.WriteByte('"')
	for i := 1; i < len(runes); i++ {
		body.WriteRune(runes[i])
		if runes[i] == '\\' && i+1 < len(runes) {
			body.WriteRune(runes[i+1])
			i++
			continue
		}
		if runes[i] == '"' {
			return body.String(), i + 1
		}
	}
	return body.String(), len(runes)
}

func replaceKeyword(runes []rune, i int) (string, int) {
	for literal, replacement := range pythonKeywords {
		if !hasRunePrefix(runes[i:], literal) {
			continue
		}
		if i > 0 && isWordRune(runes[i-1]) {
			continue
		}
		end := i + len(literal)
		if end < len(runes) && isWordRune(runes[end]) {
			continue
		}
		return replacement, len(literal)
	}
	return "", 0
}

var pythonKeywords = map[string]string{
	"True":  "true",
	"False": "false",
	"None":  "null",
}

func hasRunePrefix(runes []rune, prefix string) bool {
	pr := []rune(prefix)
	if len(runes) < len(pr) {
		return false
	}
	for i, r := range pr {
		if runes[i] != r {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}

func nextNonSpace(runes []rune, from int) rune {
	for i := from; i < len(runes); i++ {
		switch runes[i] {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return runes[i]
		}
	}
	return 0
}
