// Package store defines the persistence interfaces the application is
// written against: content units, generated artifacts, generation job
// records and media blobs. Implementations live under internal/platform.
package store
