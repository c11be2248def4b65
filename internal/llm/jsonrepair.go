package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fenceOpenRe     = regexp.MustCompile("^```(?:json)?\\s*\n?")
	fenceCloseRe    = regexp.MustCompile("\n?```\\s*$")
	lineCommentRe   = regexp.MustCompile(`(?m)^\s*//[^\n]*`)
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
)

// Decode extracts well-formed JSON from noisy model output into out.
// It tries, in order: the fence-stripped text as-is, the outermost
// bracketed substring, and a cleanup pass removing line comments and
// trailing commas. It returns false when all attempts fail, leaving
// out untouched — callers pre-fill out with their typed-empty
// fallback so downstream code never distinguishes missing from empty.
func Decode(text string, out any) bool {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = fenceOpenRe.ReplaceAllString(text, "")
		text = fenceCloseRe.ReplaceAllString(text, "")
	}

	if tryUnmarshal(text, out) {
		return true
	}

	extracted, ok := bracketSlice(text)
	if !ok {
		return false
	}
	if tryUnmarshal(extracted, out) {
		return true
	}

	cleaned := lineCommentRe.ReplaceAllString(extracted, "")
	cleaned = trailingCommaRe.ReplaceAllString(cleaned, "$1")
	return tryUnmarshal(cleaned, out)
}

// bracketSlice cuts the outermost object or array out of surrounding
// prose. Whichever opening token appears first decides which closing
// token bounds the slice.
func bracketSlice(text string) (string, bool) {
	objStart := strings.Index(text, "{")
	arrStart := strings.Index(text, "[")
	if objStart < 0 && arrStart < 0 {
		return "", false
	}

	var start, end int
	if arrStart >= 0 && (objStart < 0 || arrStart < objStart) {
		start = arrStart
		end = strings.LastIndex(text, "]") + 1
	} else {
		start = objStart
		end = strings.LastIndex(text, "}") + 1
	}
	if end <= start {
		return "", false
	}
	return text[start:end], true
}

func tryUnmarshal(text string, out any) bool {
	return json.Unmarshal([]byte(sanitizeControlChars(text)), out) == nil
}

// sanitizeControlChars escapes raw control characters that models
// sometimes emit inside string literals, which the standard decoder
// rejects.
func sanitizeControlChars(s string) string {
	if !containsCtrlInString(s) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for _, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
				b.WriteRune(r)
				continue
			case r == '\\':
				escaped = true
				b.WriteRune(r)
				continue
			case r == '"':
				inString = false
				b.WriteRune(r)
				continue
			case r == '\n':
				b.WriteString(`\n`)
				continue
			case r == '\t':
				b.WriteString(`\t`)
				continue
			case r == '\r':
				b.WriteString(`\r`)
				continue
			case r < 0x20:
				b.WriteRune(' ')
				continue
			}
		} else if r == '"' {
			inString = true
		}
		b.WriteRune(r)
	}
	return b.String()
}

func containsCtrlInString(s string) bool {
	inString := false
	escaped := false
	for _, r := range s {
		if !inString {
			if r == '"' {
				inString = true
			}
			continue
		}
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == '"':
			inString = false
		case r < 0x20:
			return true
		}
	}
	return false
}
