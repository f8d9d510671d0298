// Package database is the storage boundary of the worship API.
//
// Database abstracts the handful of SurrealDB calls the repositories need. Query
// returns one {"status", "result"} map per statement; QueryOne unwraps the first
// record of the first statement and reports ErrNotFound when it is empty.
//
// # Batches
//
// Writes that must land together go through Batch, which wraps its statements in
// BEGIN/COMMIT TRANSACTION and namespaces variables so statements built by
// different callers cannot collide:
//
//	b := database.NewBatch()
//	b.Add("UPDATE type::record('worship_set', $id) SET leader_id = $leader", vars)
//	b.Add(...)
//	err := b.Execute(ctx, db)
//
// Renumber appends the two-phase (negative then positive) position rewrite used
// for tables with a unique position index.
//
// # Errors
//
// Unique index violations surface as ErrDuplicate; everything else the server
// rejects is ErrQuery. Connection problems are ErrConnection.
package database
