package sandbox

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// WorkspacePrefix starts the name of every workspace directory.
const WorkspacePrefix = "job-"

// createWorkspace makes a private directory for one execution under root.
// The id is embedded in the name so log lines can be matched to directories.
func createWorkspace(fsys FileSystem, root, id string) (string, error) {
	if err := fsys.MkdirAll(root, DirPermission); err != nil {
		return "", fmt.Errorf("failed to create workspace root: %w", err)
	}
	dir, err := fsys.MkdirTemp(root, WorkspacePrefix+id+"-*")
	if err != nil {
		return "", fmt.Errorf("failed to create workspace: %w", err)
	}
	return dir, nil
}

func removeWorkspace(fsys FileSystem, logger *zap.Logger, dir string) {
	if err := fsys.RemoveAll(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("failed to remove workspace", zap.String("dir", dir), zap.Error(err))
		return
	}
	logger.Debug("workspace removed", zap.String("dir", dir))
}

// PurgeOrphans deletes workspaces left under root by a previous process that
// died mid-execution. It must run before any execution starts. A missing
// root is not an error.
func PurgeOrphans(logger *zap.Logger, root string) (int, error) {
	return purgeOrphans(RealFileSystem{}, logger, root)
}

func purgeOrphans(fsys FileSystem, logger *zap.Logger, root string) (int, error) {
	entries, err := fsys.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to scan workspace root: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), WorkspacePrefix) {
			continue
		}
		path := filepath.Join(root, entry.Name())
		if err := fsys.RemoveAll(path); err != nil {
			logger.Warn("failed to purge orphaned workspace", zap.String("dir", path), zap.Error(err))
			continue
		}
		removed++
	}

	if removed > 0 {
		logger.Info("purged orphaned workspaces", zap.String("root", root), zap.Int("count", removed))
	}
	return removed, nil
}
