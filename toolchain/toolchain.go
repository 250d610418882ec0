// Package toolchain resolves compiler and interpreter binaries on the host.
package toolchain

import (
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/isdmx/coderunner/config"
)

// MissingError reports that none of the candidate binaries is installed.
type MissingError struct {
	Names []string
}

func (e *MissingError) Error() string {
	if len(e.Names) == 1 {
		return fmt.Sprintf("Toolchain not installed: %s was not found on PATH.", e.Names[0])
	}
	return fmt.Sprintf("Toolchain not installed: none of %s was found on PATH.", strings.Join(e.Names, ", "))
}

// LookPathFunc matches exec.LookPath.
type LookPathFunc func(file string) (string, error)

// Locator finds binaries on the executable search path. Successful lookups
// may be cached; misses never are, so a toolchain installed while the
// process runs is picked up by the next request.
type Locator struct {
	logger   *zap.Logger
	lookPath LookPathFunc
	cache    bool

	mu    sync.RWMutex
	found map[string]string
}

// Option configures a Locator.
type Option func(*Locator)

// WithLookPath replaces exec.LookPath, mainly for tests.
func WithLookPath(fn LookPathFunc) Option {
	return func(l *Locator) {
		l.lookPath = fn
	}
}

// WithCache enables or disables caching of resolved paths.
func WithCache(enabled bool) Option {
	return func(l *Locator) {
		l.cache = enabled
	}
}

// NewLocator creates a Locator backed by exec.LookPath with caching enabled.
func NewLocator(logger *zap.Logger, opts ...Option) *Locator {
	l := &Locator{
		logger:   logger,
		lookPath: exec.LookPath,
		cache:    true,
		found:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewLocatorFromConfig creates a Locator honouring sandbox.cache_toolchains.
func NewLocatorFromConfig(logger *zap.Logger, cfg *config.Config) *Locator {
	return NewLocator(logger, WithCache(cfg.Sandbox.CacheToolchains))
}

// Locate returns the path of the first candidate present on PATH, trying
// them in order. An empty candidate list resolves to "" without error.
func (l *Locator) Locate(candidates ...string) (string, error) {
	if len(candidates) == 0 {
		return "", nil
	}

	for _, name := range candidates {
		if path, ok := l.cached(name); ok {
			return path, nil
		}
		path, err := l.lookPath(name)
		if err != nil {
			continue
		}
		if l.cache {
			l.mu.Lock()
			l.found[name] = path
			l.mu.Unlock()
		}
		l.logger.Debug("toolchain resolved", zap.String("binary", name), zap.String("path", path))
		return path, nil
	}

	return "", &MissingError{Names: append([]string(nil), candidates...)}
}

func (l *Locator) cached(name string) (string, bool) {
	if !l.cache {
		return "", false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	path, ok := l.found[name]
	return path, ok
}
