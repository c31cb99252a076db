// Package database provides the SQLite connection that backs the sample
// history when the sqlite storage backend is selected.
//
// This package manages:
//   - Database connection with WAL mode so the read API never blocks the collector
//   - Schema migrations loaded from an fs.FS (see the migrations package)
//   - Connection pooling and lifecycle management
//
// Usage:
//
//	db, err := database.Open(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migrations are additive-only: new columns must be NULLABLE or have
// DEFAULT values, and each .up.sql file has a matching .down.sql.
package database
