// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package parse extracts structured JSON from free-form model output.
// Models are asked for bare JSON but routinely wrap it in prose or
// Markdown fencing; this package isolates the "first top-level JSON
// array" heuristic behind a typed, unit-testable boundary.
package parse

import (
	"encoding/json"
	"fmt"
)

// Error describes why model output could not be parsed. Callers treat it
// as a generation failure: surface to the user, mutate nothing.
type Error struct {
	// Reason is a short human-readable description.
	Reason string

	// Snippet is a bounded excerpt of the offending text.
	Snippet string
}

func (e *Error) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("parsing model output: %s", e.Reason)
	}
	return fmt.Sprintf("parsing model output: %s (near %q)", e.Reason, e.Snippet)
}

const snippetLen = 80

func newError(reason, text string) *Error {
	if len(text) > snippetLen {
		text = text[:snippetLen]
	}
	return &Error{Reason: reason, Snippet: text}
}

// Array locates the first top-level JSON array in text and returns its raw
// bytes. Bracket matching respects strings and escapes, so brackets inside
// string values do not confuse it. Returns *Error when no valid array is
// present.
func Array(text string) (json.RawMessage, error) {
	start := -1
	depth := 0
	inString := false
	escaped := false

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
			if start >= 0 {
				inString = true
			}
		case '[':
			if start < 0 {
				start = i
			}
			depth++
		case ']':
			if start < 0 {
				continue
			}
			depth--
			if depth == 0 {
				raw := json.RawMessage(text[start : i+1])
				if !json.Valid(raw) {
					return nil, newError("bracket-matched span is not valid JSON", string(raw))
				}
				return raw, nil
			}
		}
	}

	if start >= 0 {
		return nil, newError("unterminated JSON array", text[start:])
	}
	return nil, newError("no JSON array found", text)
}

// ArrayInto extracts the first top-level JSON array from text and decodes
// it into v (a pointer to a slice).
func ArrayInto(text string, v any) error {
	raw, err := Array(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return newError(err.Error(), string(raw))
	}
	return nil
}
