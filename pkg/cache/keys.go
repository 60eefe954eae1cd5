package cache

import "github.com/google/uuid"

// DecisionKey returns the cache key for a user's gating decision on a feature.
func DecisionKey(userID uuid.UUID, feature string) string {
	return "gate:" + userID.String() + ":" + feature
}

// UserPrefix returns the key prefix covering every cached entry for a user,
// used to drop all of a user's decisions after a subscription mutation.
func UserPrefix(userID uuid.UUID) string {
	return "gate:" + userID.String() + ":"
}
