// Package storage provides the object-storage client holding release
// cover art. The catalog stores only object keys; bytes live in a
// Minio/S3-compatible bucket and are streamed through on demand.
package storage
