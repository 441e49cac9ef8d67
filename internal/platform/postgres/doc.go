// Package postgres contains the PostgreSQL implementations of the store
// interfaces. All implementations use database/sql over the pgx stdlib driver.
package postgres
