// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrConflict indicates that an item could not be claimed
// because another session holds it, while ErrItemNotFound signals
// that a catalog lookup matched nothing.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrConflict is returned when an operation loses a race for an item
// (the conditional status update matched zero rows, or the unique hold
// constraint rejected the insert) or when a unique value such as an
// item code or order code already exists. Handlers should translate
// this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrItemNotFound is returned when no item exists with the requested
// identifier. Handlers should translate this into an HTTP 404 response.
var ErrItemNotFound = errors.New("item not found")

// ErrOrderNotFound is returned when no order exists with the requested
// order code. Handlers should translate this into an HTTP 404 response.
var ErrOrderNotFound = errors.New("order not found")

// IsDuplicateKey reports whether err is a MySQL duplicate-key error
// (error number 1062), raised when a UNIQUE constraint rejects an
// insert or update.
func IsDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
