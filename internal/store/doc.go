// Package store defines the persistence ports of the task service: the task
// and audit stores, the DBTX abstraction shared by *sql.DB and *sql.Tx, and
// the transaction runner that gives each write its atomic boundary.
package store
