// Package model holds the simulation's core data types: entities, AI state,
// commands and status effects.
package model

import "sync/atomic"

// entityIDCounter mints process-wide unique entity ids. Zero is reserved
// to mean "no entity" throughout the package (targets, aggro, commands).
var entityIDCounter atomic.Uint32

// NextEntityID returns a fresh process-wide unique entity id.
// Starts at 1 so the zero value of EntityID always means "none".
func NextEntityID() uint32 {
	return entityIDCounter.Add(1)
}

// ResetEntityIDCounterForTests rewinds the counter. Test-only; production
// code never needs ids to restart.
func ResetEntityIDCounterForTests() {
	entityIDCounter.Store(0)
}
