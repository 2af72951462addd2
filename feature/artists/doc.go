// Package artists serves artist lookups and the label-reconciliation
// surface: resolving which label an artist canonically belongs to and
// persisting that assignment only on explicit acceptance.
package artists
