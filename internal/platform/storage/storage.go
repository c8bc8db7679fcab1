// Package storage persists rendered documents and returns the URL they are
// served from.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Storage stores document files.
type Storage interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// ObjectKey builds a collision-free key such as
// delivery-orders/2026/03/DO-2026-0007-<uuid>.pdf.
func ObjectKey(folder, name, ext string, at time.Time) string {
	at = at.UTC()
	file := fmt.Sprintf("%s-%s%s", name, uuid.NewString(), ext)
	return path.Join(folder, fmt.Sprintf("%04d", at.Year()), fmt.Sprintf("%02d", int(at.Month())), file)
}

// Local writes files below a base directory.
type Local struct {
	baseDir string
	baseURL string
}

// NewLocal creates the base directory when missing.
func NewLocal(baseDir, baseURL string) (*Local, error) {
	if baseDir == "" {
		return nil, errors.New("storage: local directory is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", baseDir, err)
	}
	return &Local{baseDir: baseDir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (l *Local) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("storage: invalid key %q", key)
	}
	full := filepath.Join(l.baseDir, clean)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("storage: create directory: %w", err)
	}
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write %s: %w", key, err)
	}
	if err := os.Rename(tmp, full); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("storage: commit %s: %w", key, err)
	}
	return l.baseURL + "/" + filepath.ToSlash(clean), nil
}
