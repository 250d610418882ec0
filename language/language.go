// Package language holds the static catalog of supported languages.
//
// A Profile describes everything the sandbox needs to know about one
// language: which file name the source is written to, whether it must be
// compiled first, which binaries implement its toolchain and how to build
// the compile and run command lines. Profiles are built once at startup and
// only read afterwards, so a Registry is safe for concurrent use.
package language

import (
	"fmt"
	"path/filepath"
	"runtime"
	"slices"
	"sort"
	"strings"

	"github.com/isdmx/coderunner/config"
)

// Canonical language keys.
const (
	Python     = "python"
	JavaScript = "javascript"
	Java       = "java"
	CSharp     = "csharp"
	CPP        = "cpp"
)

// Paths locates the files of one execution inside its workspace.
type Paths struct {
	Dir      string
	Source   string
	Artifact string
}

// CommandFunc builds an argv. tool is the resolved binary, or "" when the
// language runs its compiled artifact directly.
type CommandFunc func(tool string, p Paths) []string

// Profile is the immutable description of one supported language.
type Profile struct {
	Name    string
	Aliases []string
	// SourceFile is the file name the synthesized program is written to.
	SourceFile string
	// ArtifactFile is the compiled output name, empty for interpreted languages.
	ArtifactFile string
	// Compilers are ordered candidates for the compile step; nil when not compiled.
	Compilers []string
	// Runtimes are ordered candidates for the run step; nil when the artifact is executed directly.
	Runtimes    []string
	Compile     CommandFunc
	Run         CommandFunc
	Environment map[string]string
}

// RequiresCompilation reports whether a compile step precedes execution.
func (p *Profile) RequiresCompilation() bool {
	return p.Compile != nil
}

// PathsIn returns the source and artifact locations inside dir.
func (p *Profile) PathsIn(dir string) Paths {
	paths := Paths{
		Dir:    dir,
		Source: filepath.Join(dir, p.SourceFile),
	}
	if p.ArtifactFile != "" {
		paths.Artifact = filepath.Join(dir, p.ArtifactFile)
	}
	return paths
}

// CompileCommand returns the compile argv, or nil for interpreted languages.
func (p *Profile) CompileCommand(tool string, paths Paths) []string {
	if p.Compile == nil {
		return nil
	}
	return p.Compile(tool, paths)
}

// RunCommand returns the argv that executes the program.
func (p *Profile) RunCommand(tool string, paths Paths) []string {
	return p.Run(tool, paths)
}

// executable returns name with the platform executable suffix.
func executable(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

func builtinProfiles() []Profile {
	csharpRuntimes := []string{"mono"}
	if runtime.GOOS == "windows" {
		// csc output runs natively on Windows.
		csharpRuntimes = nil
	}

	return []Profile{
		{
			Name:       Python,
			Aliases:    []string{"py", "python3"},
			SourceFile: "main.py",
			Runtimes:   []string{"python3", "python"},
			Run: func(tool string, p Paths) []string {
				return []string{tool, p.Source}
			},
			Environment: map[string]string{
				"PYTHONNOUSERSITE":        "1",
				"PYTHONDONTWRITEBYTECODE": "1",
				"PYTHONUNBUFFERED":        "1",
			},
		},
		{
			Name:       JavaScript,
			Aliases:    []string{"js", "node", "nodejs"},
			SourceFile: "main.js",
			Runtimes:   []string{"node", "nodejs"},
			Run: func(tool string, p Paths) []string {
				return []string{tool, p.Source}
			},
		},
		{
			Name:         Java,
			SourceFile:   "Main.java",
			ArtifactFile: "Main.class",
			Compilers:    []string{"javac"},
			Runtimes:     []string{"java"},
			Compile: func(tool string, p Paths) []string {
				return []string{tool, "-encoding", "UTF-8", "-d", p.Dir, p.Source}
			},
			Run: func(tool string, p Paths) []string {
				return []string{tool, "-cp", p.Dir, "Main"}
			},
		},
		{
			Name:         CSharp,
			Aliases:      []string{"c#", "cs"},
			SourceFile:   "Program.cs",
			ArtifactFile: "Program.exe",
			Compilers:    []string{"mcs", "csc"},
			Runtimes:     csharpRuntimes,
			Compile: func(tool string, p Paths) []string {
				return []string{tool, "-nologo", "-out:" + p.Artifact, p.Source}
			},
			Run: runArtifact,
		},
		{
			Name:         CPP,
			Aliases:      []string{"c++", "cxx"},
			SourceFile:   "main.cpp",
			ArtifactFile: executable("main"),
			Compilers:    []string{"g++", "clang++"},
			Compile: func(tool string, p Paths) []string {
				return []string{tool, "-std=c++17", "-O2", "-o", p.Artifact, p.Source}
			},
			Run: runArtifact,
		},
	}
}

// runArtifact executes the compiled artifact, through tool when one is configured.
func runArtifact(tool string, p Paths) []string {
	if tool == "" {
		return []string{p.Artifact}
	}
	return []string{tool, p.Artifact}
}

// Registry resolves language names, including aliases, to profiles.
type Registry struct {
	profiles map[string]*Profile
	aliases  map[string]string
	names    []string
}

// NewRegistry builds the registry from the built-in profiles, applying any
// per-language overrides. Override keys must be canonical names.
func NewRegistry(overrides map[string]config.Language) *Registry {
	r := &Registry{
		profiles: make(map[string]*Profile),
		aliases:  make(map[string]string),
	}

	for _, p := range builtinProfiles() {
		profile := p
		if o, ok := overrides[profile.Name]; ok {
			applyOverride(&profile, o)
		}
		r.profiles[profile.Name] = &profile
		r.aliases[profile.Name] = profile.Name
		for _, alias := range profile.Aliases {
			r.aliases[alias] = profile.Name
		}
		r.names = append(r.names, profile.Name)
	}
	sort.Strings(r.names)

	return r
}

// NewRegistryFromConfig builds the registry from the languages section.
func NewRegistryFromConfig(cfg *config.Config) *Registry {
	return NewRegistry(cfg.Languages)
}

func applyOverride(p *Profile, o config.Language) {
	if len(o.Compilers) > 0 && p.Compilers != nil {
		p.Compilers = slices.Clone(o.Compilers)
	}
	if len(o.Runtimes) > 0 {
		p.Runtimes = slices.Clone(o.Runtimes)
	}
	if len(o.Environment) > 0 {
		env := make(map[string]string, len(p.Environment)+len(o.Environment))
		for k, v := range p.Environment {
			env[k] = v
		}
		for k, v := range o.Environment {
			env[k] = v
		}
		p.Environment = env
	}
}

// Canonicalize folds case, surrounding whitespace and aliases. The second
// result is false when the name is not a known language or alias.
func (r *Registry) Canonicalize(name string) (string, bool) {
	canonical, ok := r.aliases[strings.ToLower(strings.TrimSpace(name))]
	return canonical, ok
}

// Lookup returns the profile for name or an *UnsupportedError.
func (r *Registry) Lookup(name string) (*Profile, error) {
	canonical, ok := r.Canonicalize(name)
	if !ok {
		return nil, &UnsupportedError{Name: name, Supported: r.Supported()}
	}
	return r.profiles[canonical], nil
}

// Supported returns the sorted canonical language names.
func (r *Registry) Supported() []string {
	return slices.Clone(r.names)
}

// Profiles returns every profile ordered by canonical name.
func (r *Registry) Profiles() []*Profile {
	out := make([]*Profile, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.profiles[name])
	}
	return out
}

// UnsupportedError reports a language outside the catalog. Its message is
// meant to be shown to the caller verbatim.
type UnsupportedError struct {
	Name      string
	Supported []string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("Language '%s' is not supported. Supported: %s.", e.Name, strings.Join(e.Supported, ", "))
}
