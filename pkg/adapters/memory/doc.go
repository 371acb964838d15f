// Package memory provides an in-process backend for pools, used by examples,
// the CLI demo mode and tests that need no server.
package memory
