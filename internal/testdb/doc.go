// Package testdb provides a migrated PostgreSQL database for integration
// tests. It is compiled only with the integration build tag.
package testdb
