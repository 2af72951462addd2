// Package middleware contains HTTP middleware for the Fiber
// application.
//
//   - auth enforces API key validation on protected routes.
//   - rayid assigns every request a unique ray ID for tracing,
//     injected into locals and the response headers.
package middleware
