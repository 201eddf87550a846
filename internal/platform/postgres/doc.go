// Package postgres implements the internal/store interfaces on PostgreSQL
// through the pgx database/sql driver, and embeds the goose migrations that
// create the schema.
package postgres
