package auth

import (
	"maps"
	"time"
)

// ClaimSet is the payload carried by an issued token.
type ClaimSet struct {
	SubjectID   string
	ActorClass  ActorClass
	IsAnonymous bool
	IssuedAt    time.Time
	NotBefore   time.Time
	ExpiresAt   time.Time
	Extra       map[string]any
}

// BuildClaims assembles the claim set for a freshly authenticated subject.
// Times are truncated to whole seconds; the token is valid from now for
// TokenLifetime.
func BuildClaims(now time.Time, subjectID string, class ActorClass, extra map[string]any) ClaimSet {
	issued := time.Unix(now.Unix(), 0)

	custom := make(map[string]any, len(extra))
	maps.Copy(custom, extra)

	return ClaimSet{
		SubjectID:   subjectID,
		ActorClass:  class,
		IsAnonymous: class == ActorAnonymous,
		IssuedAt:    issued,
		NotBefore:   issued,
		ExpiresAt:   issued.Add(TokenLifetime),
		Extra:       custom,
	}
}
