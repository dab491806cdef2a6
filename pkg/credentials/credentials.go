// Package credentials stores the backend token and model provider API keys
// in credentials.toml.
package credentials

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/gongwen/pkg/dotdir"
)

const (
	credentialsFile = "credentials.toml"

	currentVersion = 0
)

// TokenEnvVar overrides the stored backend token when set.
const TokenEnvVar = "GONGWEN_TOKEN"

// provider describes a model vendor whose key can be uploaded to the backend.
type provider struct {
	name   string
	envVar string
}

// providers is ordered the way "gongwen auth --list" prints them.
var providers = []provider{
	{name: "deepseek", envVar: "DEEPSEEK_API_KEY"},
	{name: "qwen", envVar: "DASHSCOPE_API_KEY"},
	{name: "zhipu", envVar: "ZHIPUAI_API_KEY"},
	{name: "openai", envVar: "OPENAI_API_KEY"},
}

// Manager reads and writes credentials.toml in the .gongwen/ directory.
type Manager struct {
	path string
}

// NewManager creates a Manager for the .gongwen/ directory resolved from
// override, creating ~/.gongwen/ when none exists.
func NewManager(override string) (*Manager, error) {
	dir, err := dotdir.NewManager().Ensure(override)
	if err != nil {
		return nil, err
	}
	return &Manager{path: filepath.Join(dir, credentialsFile)}, nil
}

// Load reads credentials.toml. A missing file yields empty credentials.
func (m *Manager) Load() (*Credentials, error) {
	creds := &Credentials{Version: currentVersion}

	data, err := os.ReadFile(m.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading credentials: %w", err)
	default:
		if err := toml.Unmarshal(data, creds); err != nil {
			return nil, fmt.Errorf("parsing credentials: %w", err)
		}
	}

	if creds.Providers == nil {
		creds.Providers = make(map[string]ProviderCredential)
	}
	return creds, nil
}

// Save replaces credentials.toml with creds. The file is written to a
// temporary sibling with 0600 permissions and renamed into place, so a
// concurrent reader never sees a partial file.
func (m *Manager) Save(creds *Credentials) error {
	if creds == nil {
		return errors.New("cannot save nil credentials")
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(creds); err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(m.path), credentialsFile+".*")
	if err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("writing credentials: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}

	if err := os.Rename(tmp.Name(), m.path); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}

// update loads the credentials, applies fn and saves the result.
func (m *Manager) update(fn func(*Credentials)) error {
	creds, err := m.Load()
	if err != nil {
		return err
	}
	fn(creds)
	return m.Save(creds)
}

// SetToken stores the backend bearer token. An empty token logs out.
func (m *Manager) SetToken(token string) error {
	return m.update(func(c *Credentials) { c.Token = token })
}

// Token implements transport.TokenSource. GONGWEN_TOKEN wins over the
// stored token.
func (m *Manager) Token(context.Context) (string, error) {
	if token := os.Getenv(TokenEnvVar); token != "" {
		return token, nil
	}

	creds, err := m.Load()
	if err != nil {
		return "", err
	}
	return creds.Token, nil
}

// SetKey stores the API key of provider.
func (m *Manager) SetKey(provider, key string) error {
	return m.update(func(c *Credentials) {
		c.Providers[provider] = ProviderCredential{APIKey: key}
	})
}

// GetKey returns the stored API key of provider, or "" if there is none.
func (m *Manager) GetKey(provider string) (string, error) {
	creds, err := m.Load()
	if err != nil {
		return "", err
	}
	return creds.Providers[provider].APIKey, nil
}

// ResolveKey returns the provider's key from its environment variable,
// falling back to the stored key.
func (m *Manager) ResolveKey(provider string) (string, error) {
	if env := EnvVarForProvider(provider); env != "" {
		if key := os.Getenv(env); key != "" {
			return key, nil
		}
	}
	return m.GetKey(provider)
}

// RemoveKey deletes the stored key of provider.
func (m *Manager) RemoveKey(provider string) error {
	return m.update(func(c *Credentials) { delete(c.Providers, provider) })
}

// ListProviders returns the providers with stored keys, sorted by name.
func (m *Manager) ListProviders() ([]string, error) {
	creds, err := m.Load()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(creds.Providers))
	for name := range creds.Providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// GetTarget returns the path of credentials.toml.
func (m *Manager) GetTarget() string {
	return m.path
}

// EnvVarForProvider returns the environment variable read for provider, or
// "" for unknown providers.
func EnvVarForProvider(name string) string {
	for _, p := range providers {
		if p.name == name {
			return p.envVar
		}
	}
	return ""
}

// SupportedProviders returns the providers whose keys can be stored.
func SupportedProviders() []string {
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.name
	}
	return names
}

// IsSupportedProvider reports whether name is a supported provider.
func IsSupportedProvider(name string) bool {
	return EnvVarForProvider(name) != ""
}
