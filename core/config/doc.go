// Package config assembles the application configuration from
// environment variables and an optional .env file. Defaults come from
// `default:` struct tags on the partial configs, bound recursively by
// reflection, so each package documents and owns its own settings.
package config
