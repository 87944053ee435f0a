// Package reading defines the shared domain types for the offline-first
// reading core: per-identity progress records, bookmarks, and daily
// reading history.
//
// These types are the contract between the persistent store, the
// progress manager, and the change-notification bus. They carry no
// behavior beyond pure queries; all mutation goes through the manager.
package reading
