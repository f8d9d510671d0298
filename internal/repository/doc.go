// Package repository implements the service layer's storage contracts on SurrealDB.
//
// Every table is keyed by a UUID chosen in Go (type::record($tb, $rid)), so the
// id a client sees is the id in the database. Writes go through insert and patch,
// which stamp created_on / updated_on server side; rows come back through
// decodeRecord, which flattens record ids and driver datetimes before a JSON
// round trip into the model type.
//
// Lookups by id return (nil, nil) for a missing record. Unique index violations
// surface as database.ErrDuplicate.
//
// Statements that must land together (rotation renumbering, set deletion,
// default assignment replacement, leader recalculation) are built as a
// database.Batch and executed in one transaction.
package repository
