// Package server provides the shared runtime context for the MCP server.
//
// ServerContext bundles the Microsoft Graph client, configuration, logger,
// and instrumentation provider behind functional options so transports and
// tool handlers receive one coherent dependency. The package also hosts the
// health check endpoints used by liveness and readiness probes and the
// standalone metrics server that exposes Prometheus metrics on a separate
// listener.
package server
