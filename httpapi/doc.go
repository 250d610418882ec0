// Package httpapi serves the sandbox over HTTP with a chi router.
//
// POST /run-code takes {"language", "code"} and answers with the same
// {stdout, stderr, exit_code} object the MCP tool returns. The MCP
// streamable HTTP transport, a toolchain listing, a health check and the
// Prometheus endpoint are mounted on the same listener.
package httpapi
