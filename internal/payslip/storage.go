package payslip

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Storage is where rendered slips live. The local implementation is the
// default; an object-store implementation satisfies the same seam.
type Storage interface {
	Save(ctx context.Context, relativePath string, data []byte) (string, error)
	Load(ctx context.Context, relativePath string) ([]byte, error)
}

type localStorage struct {
	baseDir string
}

func NewLocalStorage(baseDir string) Storage {
	return &localStorage{baseDir: baseDir}
}

func (s *localStorage) Save(ctx context.Context, relativePath string, data []byte) (string, error) {
	fullPath := filepath.Join(s.baseDir, relativePath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("create slip directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write slip: %w", err)
	}
	return relativePath, nil
}

func (s *localStorage) Load(ctx context.Context, relativePath string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.baseDir, relativePath))
}
