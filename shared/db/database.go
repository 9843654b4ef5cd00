// Package db holds the portal's relational storage plumbing: the database
// handle abstraction and transaction-in-context helpers shared by the
// repositories built on it.
package db

import (
	"database/sql"
)

type Database interface {
	Connect() error
	Close() error
	DB() *sql.DB
}
