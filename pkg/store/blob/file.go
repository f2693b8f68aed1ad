package blob

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type fileSink struct {
	root string
}

// NewFileSink writes blobs below root on the local filesystem.
func NewFileSink(root string) (Sink, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create sink directory %s: %w", root, err)
	}
	return &fileSink{root: root}, nil
}

func (s *fileSink) Put(ctx context.Context, key string, payload string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := filepath.Join(s.root, filepath.FromSlash(ResolveKey("", key)))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func (s *fileSink) Close() error {
	return nil
}

func contentType(payload string) string {
	if json.Valid([]byte(payload)) {
		return "application/json"
	}
	return "text/plain; charset=utf-8"
}
