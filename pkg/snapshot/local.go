package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalSink writes snapshots into a directory on disk.
type LocalSink struct {
	Dir string
}

// NewLocalSink returns a sink writing into dir, created on first write.
func NewLocalSink(dir string) *LocalSink {
	return &LocalSink{Dir: dir}
}

// Name implements Sink.
func (s *LocalSink) Name() string { return "local" }

// Put writes data to Dir/name through a temporary file and rename, so a
// reader never sees a partial snapshot. An existing file is replaced.
func (s *LocalSink) Put(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.Dir, "."+name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return "", fmt.Errorf("chmod %s: %w", tmpName, err)
	}

	path := filepath.Join(s.Dir, name)
	if err := os.Rename(tmpName, path); err != nil {
		return "", fmt.Errorf("rename to %s: %w", path, err)
	}
	return path, nil
}
