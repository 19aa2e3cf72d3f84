// Package memory implements the cache and lock ports inside the process.
// They coordinate goroutines of one instance only and suit single-node
// deployments and tests.
package memory
