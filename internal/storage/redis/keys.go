package redis

import (
	"fmt"

	"github.com/mcoot/wordlobby/internal/model"
)

// Key prefix for all lobby-related data
const keyPrefix = "wordlobby"

// lobbyKey returns the Redis key for a Lobby
func lobbyKey(id model.LobbyID) string {
	return fmt.Sprintf("%s:lobby:%s", keyPrefix, id)
}

// joinCodeIndexKey returns the Redis key for the join code -> lobby id index
func joinCodeIndexKey(code model.JoinCode) string {
	return fmt.Sprintf("%s:idx:code:%s", keyPrefix, code)
}

// lobbyIDsKey returns the Redis key for the SET of stored lobby ids
func lobbyIDsKey() string {
	return fmt.Sprintf("%s:idx:lobbies", keyPrefix)
}

// dictionaryKey returns the Redis key for the dictionary word set
func dictionaryKey() string {
	return fmt.Sprintf("%s:dictionary", keyPrefix)
}
