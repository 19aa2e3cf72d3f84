// Package redis implements the cache and lock ports on a single Redis
// instance, giving every API instance one shared coordination point.
package redis
