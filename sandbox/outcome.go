package sandbox

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/isdmx/coderunner/language"
	"github.com/isdmx/coderunner/synth"
	"github.com/isdmx/coderunner/toolchain"
)

// Status classifies how an execution ended.
type Status int

const (
	StatusSuccess Status = iota
	// StatusRuntimeFailure is a program that ran and exited non-zero.
	StatusRuntimeFailure
	StatusCompileFailure
	StatusTimeout
	StatusToolchainMissing
	StatusUnsupportedLanguage
	// StatusInvalidRequest is an empty language or empty code.
	StatusInvalidRequest
	// StatusInternalError is a fault in the sandbox itself.
	StatusInternalError
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusRuntimeFailure:
		return "runtime_failure"
	case StatusCompileFailure:
		return "compile_failure"
	case StatusTimeout:
		return "timeout"
	case StatusToolchainMissing:
		return "toolchain_missing"
	case StatusUnsupportedLanguage:
		return "unsupported_language"
	case StatusInvalidRequest:
		return "invalid_request"
	case StatusInternalError:
		return "internal_error"
	default:
		return "unknown"
	}
}

// Phase names the step a timeout happened in.
type Phase string

const (
	PhaseQueue   Phase = "queue"
	PhaseCompile Phase = "compile"
	PhaseRun     Phase = "run"
)

// Messages shown to callers.
const (
	MissingInputMessage  = "Missing language or code"
	InternalErrorMessage = "internal sandbox error"
	queueTimeoutMessage  = "Timed out waiting for a free execution slot."
	signalMessage        = "Process terminated by signal %s (%d)."
)

// Outcome is the full record of one execution. Result flattens it into the
// caller-facing shape.
type Outcome struct {
	Status Status
	// Language is the canonical name, empty when the request named no known language.
	Language string
	Stdout   string
	Stderr   string
	ExitCode int
	// Phase and Limit describe a StatusTimeout.
	Phase Phase
	Limit time.Duration
	// Err holds the typed cause for unsupported, missing-toolchain and
	// internal outcomes.
	Err            error
	Classification synth.Classification
	Duration       time.Duration
}

// Result maps the outcome to {stdout, stderr, exit_code}. Non-success
// branches that have no process exit status of their own report exit code 1.
func (o Outcome) Result() Result {
	switch o.Status {
	case StatusSuccess, StatusRuntimeFailure:
		return Result{Stdout: o.Stdout, Stderr: o.Stderr, ExitCode: o.ExitCode}
	case StatusCompileFailure:
		return Result{Stderr: o.Stderr, ExitCode: o.ExitCode}
	case StatusTimeout:
		return Result{Stdout: o.Stdout, Stderr: timeoutMessage(o.Phase, o.Limit), ExitCode: 1}
	case StatusToolchainMissing, StatusUnsupportedLanguage:
		if o.Err == nil {
			return Result{Stderr: InternalErrorMessage, ExitCode: 1}
		}
		return Result{Stderr: o.Err.Error(), ExitCode: 1}
	case StatusInvalidRequest:
		return Result{Stderr: MissingInputMessage, ExitCode: 1}
	default:
		return Result{Stderr: InternalErrorMessage, ExitCode: 1}
	}
}

// Missing returns the toolchain candidates that were not found.
func (o Outcome) Missing() []string {
	var missing *toolchain.MissingError
	if errors.As(o.Err, &missing) {
		return missing.Names
	}
	return nil
}

// Supported returns the supported language list of an unsupported-language outcome.
func (o Outcome) Supported() []string {
	var unsupported *language.UnsupportedError
	if errors.As(o.Err, &unsupported) {
		return unsupported.Supported
	}
	return nil
}

func timeoutMessage(phase Phase, limit time.Duration) string {
	secs := strconv.FormatFloat(limit.Seconds(), 'f', -1, 64)
	switch phase {
	case PhaseQueue:
		return queueTimeoutMessage
	case PhaseCompile:
		return fmt.Sprintf("Compilation timed out after %s seconds.", secs)
	default:
		return fmt.Sprintf("Execution timed out after %s seconds.", secs)
	}
}
