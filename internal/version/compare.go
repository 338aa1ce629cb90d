// Package version orders the loosely formatted version strings found in
// package manifests, e.g. "9.2.0.0.1.1510905681" or "10.0.0b2".
package version

import (
	"strings"
)

type tokenKind int

const (
	numberToken tokenKind = iota
	wordToken
)

type token struct {
	kind  tokenKind
	value string
}

// Compare returns -1 if a < b, 0 if a == b and 1 if a > b.
//
// Versions are split into maximal runs of digits and runs of letters; any
// other character only separates runs, so "1-2" equals "1.2". Runs are compared left to right:
// numbers numerically, words lexically, and a number always sorts before a
// word. When one version runs out of runs first it is the lesser one.
func Compare(a, b string) int {
	ta, tb := tokenize(a), tokenize(b)
	for i := 0; i < len(ta) && i < len(tb); i++ {
		if c := compareTokens(ta[i], tb[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(ta) < len(tb):
		return -1
	case len(ta) > len(tb):
		return 1
	default:
		return 0
	}
}

// Greater reports whether a orders strictly after b.
func Greater(a, b string) bool {
	return Compare(a, b) > 0
}

// Truncate keeps the first n dot-separated segments of v.
func Truncate(v string, n int) string {
	if n <= 0 {
		return ""
	}
	parts := strings.Split(v, ".")
	if len(parts) > n {
		parts = parts[:n]
	}
	return strings.Join(parts, ".")
}

func tokenize(v string) []token {
	var tokens []token
	i := 0
	for i < len(v) {
		c := v[i]
		switch {
		case isDigit(c):
			j := i
			for j < len(v) && isDigit(v[j]) {
				j++
			}
			tokens = append(tokens, token{kind: numberToken, value: v[i:j]})
			i = j
		case isLetter(c):
			j := i
			for j < len(v) && isLetter(v[j]) {
				j++
			}
			tokens = append(tokens, token{kind: wordToken, value: v[i:j]})
			i = j
		default:
			i++
		}
	}
	return tokens
}

func compareTokens(a, b token) int {
	if a.kind != b.kind {
		if a.kind == numberToken {
			return -1
		}
		return 1
	}
	if a.kind == numberToken {
		return compareNumeric(a.value, b.value)
	}
	return strings.Compare(a.value, b.value)
}

// compareNumeric compares digit strings of any length without parsing them.
func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
