// Package postgres provides the PostgreSQL backend for the store interfaces.
// It registers the pgx database/sql driver, opens connection pools, and
// supplies the sqlstore.Dialect that classifies PostgreSQL error codes and
// locks reimbursement rows during resolution.
package postgres
