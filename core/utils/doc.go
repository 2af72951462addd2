// Package utils provides small shared helpers for the catalog-manager
// application, mainly loose-type conversion for values whose JSON or
// SQL encoding varies by source.
package utils
