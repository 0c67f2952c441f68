// Package config provides configuration loading, merging, and
// validation facilities for compvault.
//
// Configuration is assembled from multiple sources in the following
// priority order (later sources override earlier non-zero fields):
//
//  1. Environment variables (caarlos0/env tags)
//  2. Command-line flags
//  3. An optional JSON file, whose path is resolved from sources 1–2
//
// The merged [StructuredConfig] serves both binaries; the agent obtains
// its runtime view through [GetAgentConfig], which also applies the
// documented defaults for sync intervals, debounces, and backoff shape.
package config
