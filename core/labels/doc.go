// Package labels canonicalizes label references and reconciles which
// label an entity belongs to.
//
// # Normalization
//
// Callers reference labels by numeric ID, URL slug, display name, or
// free-text alias. Table.Resolve collapses all four surface forms into
// the one canonical ID; nothing outside this package is allowed to
// treat a surface form as authoritative.
//
// # Reconciliation
//
// Engine.Reconcile assigns an entity its canonical label from partial
// and possibly conflicting evidence, trying strategies in a fixed
// confidence order: an explicit direct reference, join-table links
// (with a keyword tie-break, then lowest canonical ID), free-text
// alias matching, and finally the configured default label. The
// default path is flagged as such in the result so downstream
// consumers can distinguish a known assignment from a guess.
//
// The table is built once at process start and passed explicitly; no
// package-level state, no re-parsing per call.
package labels
