// Package database provides SQLite persistence for Zeo Core.
//
// It wraps database/sql with connection management, embedded migrations,
// and health checks. SQLite is used for the attribute history audit trail;
// the coordinator's live cache is never persisted (it is rebuilt by the
// initial load on every start).
//
// # Usage
//
//	db, err := database.Open(database.Config{
//	    Path:        cfg.Database.Path,
//	    WALMode:     cfg.Database.WALMode,
//	    BusyTimeout: cfg.Database.BusyTimeout,
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// The underlying sql.DB is safe for concurrent use. The pool is limited to
// a single open connection because SQLite supports only one writer.
package database
