package transfer

import (
	"fmt"
	"log/slog"
	"path/filepath"
)

// PathResolver maps remote items to local destinations, creating missing
// directories on the way.
type PathResolver struct {
	fs     LocalFS
	logger *slog.Logger
	// created counts directories this resolver had to create.
	created int
}

func NewPathResolver(fs LocalFS, logger *slog.Logger) *PathResolver {
	return &PathResolver{fs: fs, logger: logger}
}

// ResolveFileDestination returns localPath/remoteFileName when localPath is
// an existing directory. Otherwise localPath itself is the target file and
// its parent directories are created if needed.
func (r *PathResolver) ResolveFileDestination(remoteFileName, localPath string) (string, error) {
	isDir, err := r.fs.IsDir(localPath)
	if err != nil {
		return "", fmt.Errorf("%w: failed to inspect %s: %w", ErrTransferIO, localPath, err)
	}
	if isDir {
		return filepath.Join(localPath, remoteFileName), nil
	}

	parent := filepath.Dir(localPath)
	if parent != "." && parent != "" {
		if err := r.ResolveDirectoryDestination(parent); err != nil {
			return "", err
		}
	}
	return localPath, nil
}

// ResolveDirectoryDestination creates dir and its ancestors. Calling it on an
// existing directory does nothing.
func (r *PathResolver) ResolveDirectoryDestination(dir string) error {
	exists, err := r.fs.Exists(dir)
	if err != nil {
		return fmt.Errorf("%w: failed to inspect %s: %w", ErrTransferIO, dir, err)
	}
	if exists {
		return nil
	}
	if err := r.fs.MkdirAll(dir); err != nil {
		return fmt.Errorf("%w: failed to create directory %s: %w", ErrTransferIO, dir, err)
	}
	r.created++
	r.logger.Info("Directory created", "path", dir)
	return nil
}

func (r *PathResolver) Created() int {
	return r.created
}
