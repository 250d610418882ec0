// Package main is the entry point for the coderunner server.
//
// coderunner executes short programs and fragments in Python, JavaScript,
// Java, C# and C++ using the toolchains installed on the host, and reports
// {stdout, stderr, exit_code}. By default it serves the run_code MCP tool
// over streamable HTTP on port 8001 together with a REST /run-code bridge;
// --transport stdio switches to the stdio MCP transport.
//
// Subcommands:
//
//	serve      start the server (default)
//	run        execute one snippet from a file or stdin and print JSON
//	languages  list languages and toolchain availability
//	version    print build information
//
// The application uses Uber's fx framework for dependency injection and lifecycle
// management, with zap for structured logging, viper for configuration and
// cobra for the command line.
package main
