package sandbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/xid"
	"go.uber.org/zap"

	"github.com/isdmx/coderunner/language"
	"github.com/isdmx/coderunner/synth"
)

// Config holds the executor limits.
type Config struct {
	WorkspaceRoot  string
	RunTimeout     time.Duration
	CompileTimeout time.Duration
	KillGrace      time.Duration
	MaxOutputBytes int
	// MaxConcurrent caps simultaneous executions; zero means no cap.
	MaxConcurrent int
}

// LocalExecutor implements SandboxExecutor with host toolchains. Each
// execution gets its own workspace directory which is removed on every
// exit path.
type LocalExecutor struct {
	logger    *zap.Logger
	config    Config
	registry  *language.Registry
	locator   ToolchainLocator
	cmdRunner CommandRunner
	fs        FileSystem
	slots     chan struct{}
}

// LocalExecutorOption defines a functional option for LocalExecutor
type LocalExecutorOption func(*LocalExecutor)

// WithCommandRunner sets the CommandRunner for LocalExecutor
func WithCommandRunner(cmdRunner CommandRunner) LocalExecutorOption {
	return func(l *LocalExecutor) {
		l.cmdRunner = cmdRunner
	}
}

// WithFileSystem sets the FileSystem for LocalExecutor
func WithFileSystem(fs FileSystem) LocalExecutorOption {
	return func(l *LocalExecutor) {
		l.fs = fs
	}
}

// NewLocalExecutor creates a new LocalExecutor with default implementations and optional interfaces
func NewLocalExecutor(logger *zap.Logger, config Config, registry *language.Registry, locator ToolchainLocator, opts ...LocalExecutorOption) *LocalExecutor {
	executor := &LocalExecutor{
		logger:    logger,
		config:    config,
		registry:  registry,
		locator:   locator,
		cmdRunner: NewProcessRunner(config.MaxOutputBytes, config.KillGrace),
		fs:        RealFileSystem{},
	}
	if config.MaxConcurrent > 0 {
		executor.slots = make(chan struct{}, config.MaxConcurrent)
	}

	for _, opt := range opts {
		opt(executor)
	}

	return executor
}

// toolchains holds the binaries resolved for one profile.
type toolchains struct {
	compiler string
	runtime  string
}

// Execute normalizes, writes, compiles and runs req.
func (l *LocalExecutor) Execute(ctx context.Context, req Request) (outcome Outcome) {
	start := time.Now()
	id := xid.New().String()
	log := l.logger.With(zap.String("workspace", id))

	defer func() {
		if r := recover(); r != nil {
			log.Error("sandbox panic", zap.Any("panic", r), zap.Stack("stack"))
			outcome = Outcome{
				Status:   StatusInternalError,
				Language: outcome.Language,
				Err:      fmt.Errorf("panic: %v", r),
			}
		}
		outcome.Duration = time.Since(start)
		log.Info("execution finished",
			zap.String("language", outcome.Language),
			zap.Stringer("status", outcome.Status),
			zap.Int("exit_code", outcome.Result().ExitCode),
			zap.Duration("duration", outcome.Duration),
		)
	}()

	if strings.TrimSpace(req.Language) == "" || strings.TrimSpace(req.Code) == "" {
		return Outcome{Status: StatusInvalidRequest}
	}

	profile, err := l.registry.Lookup(req.Language)
	if err != nil {
		log.Debug("unsupported language", zap.String("requested", req.Language))
		return Outcome{Status: StatusUnsupportedLanguage, Err: err}
	}
	outcome.Language = profile.Name
	log = log.With(zap.String("language", profile.Name))

	tools, err := l.resolve(profile)
	if err != nil {
		log.Warn("toolchain missing", zap.Error(err))
		return Outcome{Status: StatusToolchainMissing, Language: profile.Name, Err: err}
	}

	release, err := l.acquire(ctx)
	if err != nil {
		log.Warn("no execution slot", zap.Error(err))
		return Outcome{Status: StatusTimeout, Language: profile.Name, Phase: PhaseQueue}
	}
	defer release()

	cls, source := synth.Program(profile.Name, req.Code)
	log.Debug("source classified", zap.Stringer("kind", cls.Kind), zap.String("type", cls.TypeName))

	return l.run(ctx, log, id, profile, tools, cls, source)
}

// run drives the workspace through write, compile and execute. The
// workspace is removed whatever happens.
func (l *LocalExecutor) run(ctx context.Context, log *zap.Logger, id string, profile *language.Profile, tools toolchains, cls synth.Classification, source string) Outcome {
	base := Outcome{Language: profile.Name, Classification: cls}

	dir, err := createWorkspace(l.fs, l.config.WorkspaceRoot, id)
	if err != nil {
		return l.internal(log, base, err)
	}
	defer removeWorkspace(l.fs, log, dir)
	log.Debug("workspace created", zap.String("dir", dir))

	paths := profile.PathsIn(dir)
	if err := l.fs.WriteFile(paths.Source, []byte(source), FilePermission); err != nil {
		return l.internal(log, base, fmt.Errorf("failed to write source: %w", err))
	}
	log.Debug("source written", zap.String("path", paths.Source))

	env := l.environment(profile, dir)

	if profile.RequiresCompilation() {
		res, err := l.cmdRunner.Run(ctx, Command{
			Args:    profile.CompileCommand(tools.compiler, paths),
			Dir:     dir,
			Env:     env,
			Timeout: l.config.CompileTimeout,
		})
		if err != nil {
			return l.internal(log, base, fmt.Errorf("compile: %w", err))
		}
		if res.TimedOut {
			log.Warn("compilation timed out", zap.Duration("limit", l.config.CompileTimeout))
			base.Status, base.Phase, base.Limit = StatusTimeout, PhaseCompile, l.config.CompileTimeout
			base.Stdout = res.Stdout
			return base
		}
		if res.ExitCode != 0 {
			log.Debug("compilation failed", zap.Int("exit_code", res.ExitCode))
			base.Status, base.ExitCode = StatusCompileFailure, res.ExitCode
			base.Stderr = relativeToWorkspace(diagnostics(res), dir)
			return base
		}
		log.Debug("compiled", zap.Duration("duration", res.Duration))
	}

	res, err := l.cmdRunner.Run(ctx, Command{
		Args:    profile.RunCommand(tools.runtime, paths),
		Dir:     dir,
		Env:     env,
		Timeout: l.config.RunTimeout,
	})
	if err != nil {
		return l.internal(log, base, fmt.Errorf("run: %w", err))
	}
	log.Debug("executed", zap.Duration("duration", res.Duration), zap.Bool("timed_out", res.TimedOut))

	base.Stdout, base.Stderr, base.ExitCode = res.Stdout, res.Stderr, res.ExitCode
	switch {
	case res.TimedOut:
		base.Status, base.Phase, base.Limit = StatusTimeout, PhaseRun, l.config.RunTimeout
	case res.ExitCode != 0:
		base.Status = StatusRuntimeFailure
		if res.Signal != "" && strings.TrimSpace(res.Stderr) == "" {
			base.Stderr = fmt.Sprintf(signalMessage, res.Signal, -res.ExitCode)
		}
	default:
		base.Status = StatusSuccess
	}
	return base
}

func (l *LocalExecutor) resolve(profile *language.Profile) (toolchains, error) {
	var tools toolchains
	var err error
	if profile.RequiresCompilation() {
		if tools.compiler, err = l.locator.Locate(profile.Compilers...); err != nil {
			return tools, err
		}
	}
	if tools.runtime, err = l.locator.Locate(profile.Runtimes...); err != nil {
		return tools, err
	}
	return tools, nil
}

func (l *LocalExecutor) acquire(ctx context.Context) (func(), error) {
	if l.slots == nil {
		return func() {}, nil
	}
	select {
	case l.slots <- struct{}{}:
		return func() { <-l.slots }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// environment inherits the host environment so toolchains keep working,
// points temporary files into the workspace and adds the profile's variables.
func (*LocalExecutor) environment(profile *language.Profile, dir string) []string {
	env := os.Environ()
	env = append(env, "TMPDIR="+dir, "TMP="+dir, "TEMP="+dir)
	for key, value := range profile.Environment {
		env = append(env, key+"="+value)
	}
	return env
}

func (*LocalExecutor) internal(log *zap.Logger, base Outcome, err error) Outcome {
	log.Error("sandbox internal error", zap.Error(err))
	base.Status = StatusInternalError
	base.Err = err
	return base
}

// diagnostics picks the compiler output stream. Some compilers, mcs among
// them, report errors on stdout.
func diagnostics(res ProcessResult) string {
	if strings.TrimSpace(res.Stderr) != "" {
		return res.Stderr
	}
	return res.Stdout
}

// relativeToWorkspace strips the workspace directory from compiler output so
// diagnostics name files the way the caller wrote them, not by host path.
func relativeToWorkspace(text, dir string) string {
	text = strings.ReplaceAll(text, dir+string(filepath.Separator), "")
	return strings.ReplaceAll(text, dir, ".")
}

// ToolchainStatus reports whether one language can run on this host.
type ToolchainStatus struct {
	Language  string   `json:"language"`
	Aliases   []string `json:"aliases"`
	Compiled  bool     `json:"compiled"`
	Compiler  string   `json:"compiler,omitempty"`
	Runtime   string   `json:"runtime,omitempty"`
	Available bool     `json:"available"`
	Error     string   `json:"error,omitempty"`
}

// ToolchainReporter lists toolchain availability per language.
type ToolchainReporter interface {
	Toolchains() []ToolchainStatus
}

// Toolchains resolves every profile's toolchain without running anything.
func (l *LocalExecutor) Toolchains() []ToolchainStatus {
	profiles := l.registry.Profiles()
	statuses := make([]ToolchainStatus, 0, len(profiles))
	for _, p := range profiles {
		status := ToolchainStatus{
			Language: p.Name,
			Aliases:  append([]string{}, p.Aliases...),
			Compiled: p.RequiresCompilation(),
		}
		tools, err := l.resolve(p)
		if err != nil {
			status.Error = err.Error()
		} else {
			status.Available = true
			status.Compiler, status.Runtime = tools.compiler, tools.runtime
		}
		statuses = append(statuses, status)
	}
	return statuses
}
