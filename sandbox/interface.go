package sandbox

import (
	"context"
	"io/fs"
	"os"
	"time"
)

// Request is one "run this code in this language" call.
type Request struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// Result is the uniform shape returned to callers for every outcome.
type Result struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
}

// SandboxExecutor runs a request to completion. Every failure mode is
// reported through the returned Outcome; implementations never panic past
// this boundary.
type SandboxExecutor interface {
	Execute(ctx context.Context, req Request) Outcome
}

// ToolchainLocator resolves the first installed binary among candidates.
type ToolchainLocator interface {
	Locate(candidates ...string) (string, error)
}

// Command is a single child process invocation.
type Command struct {
	Args    []string
	Dir     string
	Env     []string
	Timeout time.Duration
}

// ProcessResult is what a finished child process produced.
type ProcessResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	// Signal names the signal that killed the process, e.g. "SIGSEGV".
	Signal string
	// TimedOut is set when the process tree was killed because the deadline passed.
	TimedOut bool
	Duration time.Duration
}

// CommandRunner runs one child process. A non-zero exit status is a result,
// not an error; errors mean the process could not be run at all.
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) (ProcessResult, error)
}

// FileSystem defines the file system operations used for workspaces
type FileSystem interface {
	MkdirTemp(dir, pattern string) (string, error)
	MkdirAll(path string, perm os.FileMode) error
	WriteFile(filename string, data []byte, perm os.FileMode) error
	ReadDir(name string) ([]fs.DirEntry, error)
	RemoveAll(path string) error
}

// RealFileSystem implements FileSystem using actual file system operations
type RealFileSystem struct{}

func (RealFileSystem) MkdirTemp(dir, pattern string) (string, error) {
	return os.MkdirTemp(dir, pattern)
}

func (RealFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (RealFileSystem) WriteFile(filename string, data []byte, perm os.FileMode) error {
	return os.WriteFile(filename, data, perm)
}

func (RealFileSystem) ReadDir(name string) ([]fs.DirEntry, error) {
	return os.ReadDir(name)
}

func (RealFileSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// File permission constants
const (
	DirPermission  = 0o755
	FilePermission = 0o600
)
