package validator

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mcoot/wordlobby/internal/model"
)

// Dictionary answers set-membership queries for lower-case words
type Dictionary interface {
	Contains(word string) bool
}

// Validator decides whether a guess satisfies a lobby's letter constraint
type Validator struct {
	dictionary Dictionary
}

// New creates a new Validator backed by the given dictionary
func New(dictionary Dictionary) *Validator {
	return &Validator{dictionary: dictionary}
}

// IsCorrect reports whether guess starts with the lobby's first letter, ends
// with its last letter and is a dictionary word. Matching is case-insensitive.
func (v *Validator) IsCorrect(lobby *model.Lobby, guess string) bool {
	word := strings.ToLower(guess)
	if word == "" || lobby == nil || lobby.Letters == "" {
		return false
	}

	first, _ := utf8.DecodeRuneInString(word)
	last, _ := utf8.DecodeLastRuneInString(word)
	if first != unicode.ToLower(lobby.FirstLetter()) || last != unicode.ToLower(lobby.LastLetter()) {
		return false
	}

	return v.dictionary.Contains(word)
}
