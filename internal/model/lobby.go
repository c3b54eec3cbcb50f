package model

import (
	"strings"
	"time"
	"unicode/utf8"
)

// LobbyID uniquely identifies a lobby
type LobbyID string

// JoinCode is a short human-typable identifier used to join a lobby
type JoinCode string

// LettersLength is the number of letters in a lobby's constraint
const LettersLength = 2

// Lobby is a game session with a two-letter constraint and an append-only member list
type Lobby struct {
	ID        LobbyID
	Code      JoinCode
	Letters   string   // Upper-case, exactly LettersLength runes
	Players   []Player // Join order
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Host returns the lobby creator, or nil if the lobby has no host
func (l *Lobby) Host() *Player {
	for i := range l.Players {
		if l.Players[i].IsHost {
			return &l.Players[i]
		}
	}
	return nil
}

// FirstLetter returns the letter a correct guess must start with
func (l *Lobby) FirstLetter() rune {
	r, _ := utf8.DecodeRuneInString(l.Letters)
	return r
}

// LastLetter returns the letter a correct guess must end with
func (l *Lobby) LastLetter() rune {
	r, _ := utf8.DecodeLastRuneInString(l.Letters)
	return r
}

// Clone returns a deep copy of the lobby
func (l *Lobby) Clone() *Lobby {
	c := *l
	c.Players = make([]Player, len(l.Players))
	copy(c.Players, l.Players)
	return &c
}

// NormalizeLetters validates a raw letters constraint and returns its canonical form.
// Surrounding whitespace is ignored, only the first two letters are kept.
func NormalizeLetters(raw string) (string, error) {
	runes := []rune(strings.TrimSpace(raw))
	if len(runes) < LettersLength {
		return "", ErrInvalidLetters
	}
	return strings.ToUpper(string(runes[:LettersLength])), nil
}

// NormalizeJoinCode returns the canonical form of a join code typed by a user
func NormalizeJoinCode(raw string) JoinCode {
	return JoinCode(strings.ToUpper(strings.TrimSpace(raw)))
}

// NormalizeDisplayName validates a display name and trims surrounding whitespace
func NormalizeDisplayName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", ErrInvalidName
	}
	return name, nil
}
