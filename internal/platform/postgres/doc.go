// Package postgres implements the store interfaces on PostgreSQL through the
// pgx stdlib driver, and carries the goose migrations of the schema.
package postgres
