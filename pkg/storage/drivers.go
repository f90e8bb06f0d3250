package storage

import (
	// database/sql drivers for the SQL backend dialects.
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)
