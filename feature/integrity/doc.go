// Package integrity sweeps the catalog for inconsistencies: release
// artwork keys pointing at missing objects, and artist or release
// label references that no longer resolve against the label table.
package integrity
