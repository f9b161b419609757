// Package auth resolves an opaque bearer token to an Actor within one
// GameState, and separates admin operations (which require a
// process-wide adminApiKey rather than an actor token) from ordinary
// actor operations.
package auth

import "github.com/cuemby/statekeep/pkg/types"

// Authorizer resolves bearer tokens against a GameState's actor table
// and a process-wide admin key.
type Authorizer struct {
	adminAPIKey string
}

// New returns an Authorizer configured with the process-wide admin key.
// An empty adminAPIKey means admin operations are permanently disabled.
func New(adminAPIKey string) *Authorizer {
	return &Authorizer{adminAPIKey: adminAPIKey}
}

// Resolve returns the actor owning token within state, or nil if no
// actor's apiKey matches.
func (a *Authorizer) Resolve(state *types.GameState, token string) *types.Actor {
	if token == "" {
		return nil
	}
	return state.FindActorByAPIKey(token)
}

// IsAdmin reports whether token matches the configured adminApiKey. An
// unconfigured (empty) adminApiKey never matches, even against an empty
// token.
func (a *Authorizer) IsAdmin(token string) bool {
	if a.adminAPIKey == "" || token == "" {
		return false
	}
	return token == a.adminAPIKey
}

// ActorOwnsPlayer reports whether actor owns playerID. A nil actor owns
// nothing.
func ActorOwnsPlayer(actor *types.Actor, playerID string) bool {
	if actor == nil {
		return false
	}
	return actor.OwnsPlayer(playerID)
}
