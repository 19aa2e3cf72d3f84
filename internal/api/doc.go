// Package api exposes the task service over HTTP. Handlers translate
// requests into service calls for the authenticated owner and map service
// errors to status codes without leaking internal details.
package api
