// Package postgres provides PostgreSQL implementations of the store
// interfaces. All stores accept a store.DBTX so they work identically with a
// *sql.DB or a *sql.Tx, and all database errors pass through MapError so
// callers can test against the store sentinel errors.
package postgres
