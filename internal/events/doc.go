// Package events provides the event types and emitter used to notify
// presentation-layer subscribers of generation task state changes. It
// decouples the orchestration core from whatever renders its progress:
// the registry emits, subscribers read, nothing flows back.
package events
