package redis

import "github.com/google/uuid"

// Cache keys are unprefixed on purpose: invalidation correctness depends on
// the exact "concerts:*" and "concert:{id}*" patterns, shared with every
// other consumer of this cache.

func KeyConcertsAll() string {
	return "concerts:all"
}

func KeyConcert(id uuid.UUID) string {
	return "concert:" + id.String()
}

func PatternConcertsAll() string {
	return "concerts:*"
}

func PatternConcert(id uuid.UUID) string {
	return "concert:" + id.String() + "*"
}

func ChannelConcertsChanged() string {
	return "stagepass:v1:concerts:changed"
}
