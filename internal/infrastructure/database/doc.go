// Package database provides SQLite database connectivity for mqttcore.
//
// This package manages:
//   - Database connection with WAL mode for concurrent access
//   - Connection pooling and lifecycle management
//
// The message journal owns its own schema; this package only opens and
// maintains the connection underneath it.
//
// Security Considerations:
//   - All queries use parameterised statements (no SQL injection)
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Performance Characteristics:
//   - WAL mode allows concurrent reads during writes
//   - Busy timeout prevents lock contention errors
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Journal.Path})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
package database
