// Package sandbox runs submitted programs on the host.
//
// An execution moves through a fixed sequence: a private workspace
// directory is created, the synthesized source is written into it, the
// compiler runs for languages that need one, and the program runs. Every
// step that spawns a child process does so under its own wall-clock limit
// and in its own process group, so a timeout kills the whole process tree.
// The workspace is removed on every exit path, including panics.
//
// Callers never receive an error. Each execution ends in an Outcome whose
// Status tells success, runtime failure, compile failure, timeout, missing
// toolchain, unsupported language, invalid request and internal error
// apart, and Outcome.Result flattens that into {stdout, stderr, exit_code}.
//
// Usage:
//
//	executor := sandbox.NewExecutor(logger, cfg, registry, locator)
//	outcome := executor.Execute(ctx, sandbox.Request{
//	    Language: "python",
//	    Code:     "print(1+1)",
//	})
//	result := outcome.Result() // {Stdout: "2\n", ExitCode: 0}
//
// This is not a security boundary against hostile code: isolation is
// limited to process groups, timeouts and a scratch directory.
package sandbox
