// Package store provides durable on-device storage for the reading core.
//
// The store owns all ProgressRecord and HistoryEntry state plus the
// content catalog. It is a versioned SQLite database: each schema
// version declares its full table set and opening an older on-disk
// version upgrades in place without data loss.
//
// Every read returns nil (not an error) for absent rows, and every
// write replaces the prior row for its key wholesale. When the
// underlying storage cannot be reached, operations fail with
// ErrStorageUnavailable and callers degrade to in-memory operation.
package store
