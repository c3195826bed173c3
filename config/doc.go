// Package config loads application configuration from YAML files with
// environment-variable overrides for secrets. A single file carries the
// content provider credentials, reader service endpoint, AI host
// settings, storage location, and quota overrides.
package config
