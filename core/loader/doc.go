// Package loader wires feature packages onto the HTTP application.
// Each feature registers its own routes; the manager only sequences
// loading and honors the enabled flag.
package loader
