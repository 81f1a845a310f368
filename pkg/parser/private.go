package parser

import (
	"unicode"
	"unicode/utf8"
)

// regexKeywords are the words after which a "/" starts a regular expression.
var regexKeywords = map[string]bool{
	"return": true, "typeof": true, "case": true, "do": true, "else": true,
	"in": true, "of": true, "new": true, "delete": true, "void": true,
	"throw": true, "yield": true, "await": true, "instanceof": true,
}

type lexState uint8

const (
	stateCode lexState = iota
	stateSingle
	stateDouble
	stateTemplate
	stateLineComment
	stateBlockComment
	stateRegex
)

// rewritePrivateNames turns the "@name" private-name spelling into the
// grammar's "#name". Strings, templates, comments and regular expressions
// are left untouched. The rewrite never changes the byte length, so spans
// computed on the result index the original text too.
func rewritePrivateNames(src []byte) []byte {
	var out []byte

	state := stateCode
	inClass := false

	// Brace depths at which an open template substitution resumes its template.
	var templates []int

	depth := 0
	lastSignificant := byte(0)
	lastWord := ""

	for i := 0; i < len(src); i++ {
		ch := src[i]

		switch state {
		case stateSingle, stateDouble:
			if ch == '\\' {
				i++
			} else if (state == stateSingle && ch == '\'') || (state == stateDouble && ch == '"') || ch == '\n' {
				state = stateCode
				lastSignificant = '"'
			}

			continue

		case stateTemplate:
			switch {
			case ch == '\\':
				i++
			case ch == '`':
				state = stateCode
				lastSignificant = '`'
			case ch == '$' && i+1 < len(src) && src[i+1] == '{':
				i++
				templates = append(templates, depth)
				depth++
				state = stateCode
				lastSignificant = '{'
			}

			continue

		case stateLineComment:
			if ch == '\n' {
				state = stateCode
			}

			continue

		case stateBlockComment:
			if ch == '*' && i+1 < len(src) && src[i+1] == '/' {
				i++
				state = stateCode
			}

			continue

		case stateRegex:
			switch {
			case ch == '\\':
				i++
			case ch == '[':
				inClass = true
			case ch == ']':
				inClass = false
			case ch == '/' && !inClass:
				state = stateCode
				lastSignificant = '/'
				lastWord = ""
			case ch == '\n':
				state = stateCode
			}

			continue
		}

		switch {
		case ch == '\'':
			state = stateSingle
		case ch == '"':
			state = stateDouble
		case ch == '`':
			state = stateTemplate
		case ch == '/' && i+1 < len(src) && src[i+1] == '/':
			state = stateLineComment
			i++
		case ch == '/' && i+1 < len(src) && src[i+1] == '*':
			state = stateBlockComment
			i++
		case ch == '/' && startsRegex(lastSignificant, lastWord):
			state = stateRegex
			inClass = false
		case ch == '{':
			depth++
			lastSignificant = ch
			lastWord = ""
		case ch == '}':
			depth--
			if n := len(templates); n > 0 && templates[n-1] == depth {
				templates = templates[:n-1]
				state = stateTemplate
			}

			lastSignificant = ch
			lastWord = ""
		case ch == '@' && i+1 < len(src) && isIdentStart(src[i+1:]):
			if out == nil {
				out = make([]byte, len(src))
				copy(out, src)
			}

			out[i] = '#'
			lastSignificant = 'a'
		case isIdentByte(ch):
			start := i
			for i+1 < len(src) && isIdentByte(src[i+1]) {
				i++
			}

			lastWord = string(src[start : i+1])
			lastSignificant = 'a'
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
		default:
			lastSignificant = ch
			lastWord = ""
		}
	}

	if out == nil {
		return src
	}

	return out
}

func startsRegex(last byte, word string) bool {
	if last == 0 {
		return true
	}

	if last == 'a' {
		return regexKeywords[word]
	}

	switch last {
	case ')', ']', '}', '"', '`', '/':
		return false
	}

	return true
}

func isIdentByte(ch byte) bool {
	return ch == '_' || ch == '$' || ch >= 0x80 ||
		(ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}

func isIdentStart(b []byte) bool {
	ch := b[0]
	if ch < utf8.RuneSelf {
		return ch == '_' || ch == '$' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
	}

	r, _ := utf8.DecodeRune(b)

	return unicode.IsLetter(r)
}
