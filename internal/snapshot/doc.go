// Package snapshot persists the last-known normalized shop state between
// poll cycles.
//
// It currently supports:
//   - A flat pretty-printed JSON file (default, dependency-free)
//   - An optional SQLite database (build with -tags sqlite)
package snapshot
