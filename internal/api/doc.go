// Package api defines the transport DTOs shared by the HTTP server, the
// unix-socket IPC surface, and the CLI, along with converters from the
// persistence records.
package api
