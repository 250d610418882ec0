package sandbox

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/isdmx/coderunner/language"
	"github.com/isdmx/coderunner/toolchain"
)

func TestOutcomeResult(t *testing.T) {
	unsupported := &language.UnsupportedError{Name: "cobol", Supported: []string{"cpp", "csharp", "java", "javascript", "python"}}
	missing := &toolchain.MissingError{Names: []string{"javac"}}

	tests := []struct {
		name     string
		outcome  Outcome
		expected Result
	}{
		{
			name:     "success",
			outcome:  Outcome{Status: StatusSuccess, Stdout: "2\n"},
			expected: Result{Stdout: "2\n"},
		},
		{
			name:     "runtime failure keeps the program's exit code",
			outcome:  Outcome{Status: StatusRuntimeFailure, Stdout: "partial", Stderr: "Traceback", ExitCode: 3},
			expected: Result{Stdout: "partial", Stderr: "Traceback", ExitCode: 3},
		},
		{
			name:     "compile failure carries diagnostics",
			outcome:  Outcome{Status: StatusCompileFailure, Stdout: "ignored", Stderr: "Main.java:1: error", ExitCode: 2},
			expected: Result{Stderr: "Main.java:1: error", ExitCode: 2},
		},
		{
			name:     "run timeout",
			outcome:  Outcome{Status: StatusTimeout, Phase: PhaseRun, Limit: 10 * time.Second, Stdout: "tick\n", ExitCode: -1},
			expected: Result{Stdout: "tick\n", Stderr: "Execution timed out after 10 seconds.", ExitCode: 1},
		},
		{
			name:     "compile timeout",
			outcome:  Outcome{Status: StatusTimeout, Phase: PhaseCompile, Limit: 15 * time.Second},
			expected: Result{Stderr: "Compilation timed out after 15 seconds.", ExitCode: 1},
		},
		{
			name:     "fractional timeout",
			outcome:  Outcome{Status: StatusTimeout, Phase: PhaseRun, Limit: 500 * time.Millisecond},
			expected: Result{Stderr: "Execution timed out after 0.5 seconds.", ExitCode: 1},
		},
		{
			name:     "queue timeout",
			outcome:  Outcome{Status: StatusTimeout, Phase: PhaseQueue},
			expected: Result{Stderr: "Timed out waiting for a free execution slot.", ExitCode: 1},
		},
		{
			name:     "toolchain missing",
			outcome:  Outcome{Status: StatusToolchainMissing, Err: missing},
			expected: Result{Stderr: "Toolchain not installed: javac was not found on PATH.", ExitCode: 1},
		},
		{
			name:     "unsupported language",
			outcome:  Outcome{Status: StatusUnsupportedLanguage, Err: unsupported},
			expected: Result{Stderr: "Language 'cobol' is not supported. Supported: cpp, csharp, java, javascript, python.", ExitCode: 1},
		},
		{
			name:     "invalid request",
			outcome:  Outcome{Status: StatusInvalidRequest},
			expected: Result{Stderr: "Missing language or code", ExitCode: 1},
		},
		{
			name:     "internal error hides the diagnostic",
			outcome:  Outcome{Status: StatusInternalError, Err: errors.New("disk full")},
			expected: Result{Stderr: "internal sandbox error", ExitCode: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.outcome.Result())
		})
	}
}

func TestOutcomeAccessors(t *testing.T) {
	o := Outcome{Status: StatusToolchainMissing, Err: &toolchain.MissingError{Names: []string{"mcs", "csc"}}}
	assert.Equal(t, []string{"mcs", "csc"}, o.Missing())
	assert.Nil(t, o.Supported())

	o = Outcome{Status: StatusUnsupportedLanguage, Err: &language.UnsupportedError{Name: "go", Supported: []string{"python"}}}
	assert.Equal(t, []string{"python"}, o.Supported())
	assert.Nil(t, o.Missing())
}

func TestStatusString(t *testing.T) {
	expected := map[Status]string{
		StatusSuccess:             "success",
		StatusRuntimeFailure:      "runtime_failure",
		StatusCompileFailure:      "compile_failure",
		StatusTimeout:             "timeout",
		StatusToolchainMissing:    "toolchain_missing",
		StatusUnsupportedLanguage: "unsupported_language",
		StatusInvalidRequest:      "invalid_request",
		StatusInternalError:       "internal_error",
		Status(99):                "unknown",
	}
	for status, name := range expected {
		assert.Equal(t, name, status.String())
	}
}

func TestLimitedWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &limitedWriter{w: &buf, remaining: 5}

	n, err := w.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = w.Write([]byte("defgh"))
	require.NoError(t, err)
	assert.Equal(t, 5, n, "full length is reported even when truncated")

	n, err = w.Write([]byte("ijk"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	assert.Equal(t, "abcde", buf.String())
}

func TestPurgeOrphans(t *testing.T) {
	logger := zaptest.NewLogger(t)

	t.Run("RemovesOnlyWorkspaces", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(root, "job-abc-1", "nested"), DirPermission))
		require.NoError(t, os.MkdirAll(filepath.Join(root, "job-def-2"), DirPermission))
		require.NoError(t, os.MkdirAll(filepath.Join(root, "keep"), DirPermission))
		require.NoError(t, os.WriteFile(filepath.Join(root, "job-file"), []byte("x"), FilePermission))

		removed, err := PurgeOrphans(logger, root)
		require.NoError(t, err)
		assert.Equal(t, 2, removed)

		entries, err := os.ReadDir(root)
		require.NoError(t, err)
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		assert.ElementsMatch(t, []string{"keep", "job-file"}, names)
	})

	t.Run("MissingRoot", func(t *testing.T) {
		removed, err := PurgeOrphans(logger, filepath.Join(t.TempDir(), "absent"))
		require.NoError(t, err)
		assert.Zero(t, removed)
	})
}

func TestCreateWorkspace(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "root")

	a, err := createWorkspace(RealFileSystem{}, root, "id1")
	require.NoError(t, err)
	b, err := createWorkspace(RealFileSystem{}, root, "id1")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, root, filepath.Dir(a))
	assert.True(t, len(filepath.Base(a)) > len("job-id1-"))
	assert.Contains(t, filepath.Base(a), "job-id1-")

	info, err := os.Stat(a)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
