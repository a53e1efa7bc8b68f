package folio

import (
	"fmt"
	"net/http"
)

type ErrorInvalidColumn struct {
	Column string
	Table  string
}

func (err ErrorInvalidColumn) Error() string {
	if err.Table != "" {
		return fmt.Sprintf("folio: column '%s' not found on model for table '%s'", err.Column, err.Table)
	}
	return fmt.Sprintf("folio: column '%s' not found on model", err.Column)
}

type NoDialectError struct{}

func (err NoDialectError) Error() string {
	return "folio: no dialect registered. Use folio.SetDialect(dialect folio.Dialect) to register a default for SQL queries"
}

type UseDatabaseError struct{}

func (err UseDatabaseError) Error() string {
	return "folio: missing database connection. Register with `folio.UseDatabase(db *sql.DB)`"
}

type ErrorBadRequest struct {
	Message string
}

func (err ErrorBadRequest) Error() string {
	if err.Message != "" {
		return err.Message
	}
	return "Bad request"
}

func (err ErrorBadRequest) Status() int {
	return http.StatusBadRequest
}

type ErrorNotFound struct{}

func (err ErrorNotFound) Error() string {
	return "Not found"
}

func (err ErrorNotFound) Status() int {
	return http.StatusNotFound
}

type ErrorUnauthorized struct{}

func (err ErrorUnauthorized) Error() string {
	return "Unauthorized"
}

func (err ErrorUnauthorized) Status() int {
	return http.StatusUnauthorized
}

// ErrorWithStatus is an error that maps onto an HTTP status code.
type ErrorWithStatus interface {
	error
	Status() int
}
