package config

import "context"

// SecretProvider resolves secret references (for example file paths) to
// plaintext values. Missing references are omitted from the result.
type SecretProvider interface {
	Resolve(ctx context.Context, refs []string) (map[string]string, error)
}
