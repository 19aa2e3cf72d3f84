// Package domain contains the task list entities and the rules that keep them
// valid. It has no knowledge of storage, caching or transport.
package domain
