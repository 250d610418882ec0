// Package mcpserver exposes the sandbox as a Model Context Protocol tool.
//
// It registers a single tool, run_code, taking a language and a piece of
// code and answering with a JSON text block of the form
// {"stdout": ..., "stderr": ..., "exit_code": ...}. Every sandbox outcome,
// including unsupported languages and timeouts, is reported in that shape;
// the MCP error flag is only raised for internal sandbox faults.
//
// The server speaks stdio or streamable HTTP, as chosen by configuration.
//
// Usage:
//
//	srv, err := mcpserver.New(cfg, logger, executor, registry)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = srv.ServeStdio(ctx, os.Stdin, os.Stdout) // or mount srv.Handler()
package mcpserver
