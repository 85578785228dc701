// Package textfmt holds the text shaping rules used on printed cards.
package textfmt

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Terminator marks a value that was cut short.
const Terminator = "."

// Name is a full name split for the two-line name block.
type Name struct {
	Given string
	Rest  string
}

// Capitalize upper-cases the first character and lower-cases the rest.
func Capitalize(token string) string {
	if token == "" {
		return ""
	}
	first, size := utf8.DecodeRuneInString(token)
	return string(unicode.ToUpper(first)) + strings.ToLower(token[size:])
}

// SplitName splits on whitespace; the first token is the given name and the
// remaining tokens are individually capitalized and joined by single spaces.
func SplitName(fullName string) Name {
	tokens := strings.Fields(fullName)
	if len(tokens) == 0 {
		return Name{}
	}
	rest := make([]string, 0, len(tokens)-1)
	for _, t := range tokens[1:] {
		rest = append(rest, Capitalize(t))
	}
	return Name{
		Given: Capitalize(tokens[0]),
		Rest:  strings.Join(rest, " "),
	}
}

// Truncate returns text unchanged when it has at most maxLength characters,
// otherwise its first maxLength characters followed by Terminator.
func Truncate(text string, maxLength int) string {
	if maxLength < 0 {
		maxLength = 0
	}
	if utf8.RuneCountInString(text) <= maxLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxLength]) + Terminator
}
