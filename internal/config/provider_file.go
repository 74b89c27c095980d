package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// FileSecretProvider resolves each reference as a file path and returns the
// file contents with surrounding whitespace trimmed. This matches how
// container orchestrators mount secrets.
type FileSecretProvider struct {
	readFile func(name string) ([]byte, error)
}

// NewFileSecretProvider creates a FileSecretProvider reading from disk.
func NewFileSecretProvider() *FileSecretProvider {
	return &FileSecretProvider{readFile: os.ReadFile}
}

// Resolve implements SecretProvider. A path that does not exist is omitted;
// any other read failure is returned.
func (p *FileSecretProvider) Resolve(ctx context.Context, refs []string) (map[string]string, error) {
	out := make(map[string]string, len(refs))
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("secret resolution cancelled: %w", err)
		}
		data, err := p.readFile(ref)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read secret file %s: %w", ref, err)
		}
		out[ref] = strings.TrimSpace(string(data))
	}
	return out, nil
}
