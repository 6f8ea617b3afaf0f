package secret

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultSecretsDir is where container runtimes mount secrets.
const DefaultSecretsDir = "/run/secrets"

// FileProvider resolves references as file names inside a directory, such as
// Docker or Kubernetes mounted secrets. Trailing newlines are trimmed.
type FileProvider struct {
	root *os.Root
	dir  string
}

// NewFileProvider opens dir for reading secrets. References cannot escape
// dir.
func NewFileProvider(dir string) (*FileProvider, error) {
	if dir == "" {
		dir = DefaultSecretsDir
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("secret: open secrets dir: %w", err)
	}
	return &FileProvider{root: root, dir: dir}, nil
}

// NewFileProviderFromConfig is the ProviderFactory for "file". It reads the
// optional "dir" key.
func NewFileProviderFromConfig(cfg map[string]any) (Provider, error) {
	dir, err := stringOption(cfg, "dir")
	if err != nil {
		return nil, err
	}
	return NewFileProvider(dir)
}

func (p *FileProvider) Name() string { return "file" }

func (p *FileProvider) Resolve(_ context.Context, ref string) (string, error) {
	if !filepath.IsLocal(ref) {
		return "", fmt.Errorf("%w: %q escapes %s", ErrInvalidRef, ref, p.dir)
	}
	data, err := p.root.ReadFile(ref)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: file %s", ErrNotFound, ref)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

func (p *FileProvider) Close() error {
	return p.root.Close()
}
