// Package postgres provides PostgreSQL implementations of the store
// interfaces, using the pgx driver through database/sql. It also owns the
// embedded schema migrations and maps driver errors onto store errors.
package postgres
