package redis

import (
	"fmt"

	"github.com/netpad-project/netpad/internal/model"
)

// Key prefix for all pad-related data
const keyPrefix = "netpad"

// accountKey returns the Redis key for an Account
func accountKey(id model.AccountID) string {
	return fmt.Sprintf("%s:account:%s", keyPrefix, id)
}

// accountIndexKey returns the Redis key for the SET of known account ids
func accountIndexKey() string {
	return fmt.Sprintf("%s:idx:accounts", keyPrefix)
}

// archiveKey returns the Redis key for a game's Archive
func archiveKey(game string) string {
	return fmt.Sprintf("%s:archive:%s", keyPrefix, game)
}
