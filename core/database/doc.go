// Package database connects to the relational system of record and
// exposes the narrow repository surface the core needs: label
// definitions for seeding the normalizer, artist projections for
// reconciliation, paginated release listings, and the explicit
// write-back of an accepted label assignment.
//
// The connection is optional at startup. Without it the service runs
// on the static label catalog and upstream data alone.
package database
