// Package jsonrepair recovers JSON values from free-form model output.
package jsonrepair

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ErrMalformedOutput reports that no JSON value could be recovered from model text.
var ErrMalformedOutput = errors.New("malformed model output")

const snippetLimit = 500

var (
	jsonFence = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	anyFence  = regexp.MustCompile("(?s)```[a-zA-Z0-9_-]*\\s*(.*?)\\s*```")
)

// MalformedOutputError carries the head of the raw text for diagnostics.
type MalformedOutputError struct {
	Snippet string
	Err     error
}

func (e *MalformedOutputError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %q", ErrMalformedOutput, e.Snippet)
	}
	return fmt.Sprintf("%s: %v: %q", ErrMalformedOutput, e.Err, e.Snippet)
}

func (e *MalformedOutputError) Is(target error) bool { return target == ErrMalformedOutput }

func (e *MalformedOutputError) Unwrap() error { return e.Err }

// Extract locates and parses the JSON value embedded in raw.
//
// Fenced blocks tagged json win over untagged fences. Text before the first
// '{' and after the last '}' is dropped. When the remainder still fails to
// parse, dangling brackets left by a truncated response are closed and the
// parse is retried once.
func Extract(raw string) (any, error) {
	text := Clean(raw)
	if text == "" {
		return nil, malformed(raw, errors.New("no json value found"))
	}

	var value any
	err := json.Unmarshal([]byte(text), &value)
	if err == nil {
		return value, nil
	}

	if repaired, ok := closeDangling(text); ok {
		if retryErr := json.Unmarshal([]byte(repaired), &value); retryErr == nil {
			return value, nil
		}
	}

	return nil, malformed(raw, err)
}

// Clean applies the fence and brace trimming steps without parsing.
func Clean(raw string) string {
	text := strings.TrimSpace(raw)

	if m := jsonFence.FindStringSubmatch(text); m != nil {
		text = m[1]
	} else if m := anyFence.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	text = strings.TrimSpace(text)

	if isArray(text) {
		return text
	}

	if !strings.HasPrefix(text, "{") {
		idx := strings.Index(text, "{")
		if idx == -1 {
			return ""
		}
		text = text[idx:]
	}

	if !strings.HasSuffix(text, "}") {
		if idx := strings.LastIndex(text, "}"); idx != -1 {
			text = text[:idx+1]
		}
	}

	return strings.TrimSpace(text)
}

func isArray(text string) bool {
	return strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]")
}

// closeDangling appends the closers missing from a truncated document.
func closeDangling(text string) (string, bool) {
	var stack []byte
	inString, escaped := false, false

	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return "", false
			}
			stack = stack[:len(stack)-1]
		}
	}

	if len(stack) == 0 && !inString {
		return "", false
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(text, " \t\r\n,"))
	if inString {
		b.WriteByte('"')
	}
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteByte(stack[i])
	}

	return b.String(), true
}

func malformed(raw string, err error) error {
	return &MalformedOutputError{Snippet: snippet(raw), Err: err}
}

func snippet(raw string) string {
	if utf8.RuneCountInString(raw) <= snippetLimit {
		return raw
	}
	return string([]rune(raw)[:snippetLimit])
}
