// Package database opens the supervisor's local SQLite store and applies
// its schema migrations.
//
// The store is small: it holds the history of backend lifecycle events so
// a crashed or killed sidecar can be diagnosed after the fact. It is
// optional and disabled with database.enabled=false.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: path, WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with an
// optional matching .down.sql. Each one is applied in its own transaction.
package database
