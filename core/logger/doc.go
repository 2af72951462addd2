// Package logger provides the structured logging facility, based on
// zap, shared by the server and the CLI commands.
//
// Request-scoped logs attach the ray_id generated by the rayid
// middleware via WithRayID, so every log line belonging to one request
// can be correlated.
package logger
