// Package postgres provides PostgreSQL-specific implementations for the data
// storage interfaces defined in the internal/store package. It handles query
// execution, error mapping to store sentinels, and the goose migrations that
// define the schema.
package postgres
