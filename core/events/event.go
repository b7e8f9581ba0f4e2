// Package events defines the typed notifications the registry emits after
// each successful state mutation.
package events

// Event is one structured notification. Implementations also expose an
// Attributes map for indexers that want flat key/value pairs.
type Event interface {
	EventType() string
}

// Emitter delivers events to downstream consumers such as logs or indexers.
type Emitter interface {
	Emit(Event)
}

// NoopEmitter discards everything. Engines default to it so emission stays
// optional.
type NoopEmitter struct{}

// Emit implements Emitter.
func (NoopEmitter) Emit(Event) {}
