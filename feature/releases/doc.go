// Package releases serves release lookups, label-scoped recency
// listings backed by the per-label index, upstream re-ingestion, and
// cover-art streaming from object storage.
package releases
