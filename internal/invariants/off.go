//go:build !invariants && !race

// Package invariants gates expensive self-checks behind a build tag.
package invariants

// Enabled is true if we were built with the "invariants" or "race" build tags.
const Enabled = false
