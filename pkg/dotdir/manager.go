// Package dotdir manages the .gongwen/ and ~/.gongwen directories.
//
// The directory holds config.toml, credentials.toml, the local generation
// archive and active.json, the pointer to the conversation "gongwen chat
// --resume" continues.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const dirName = ".gongwen"

// HomeEnvVar names a directory used in place of ~/.gongwen.
const HomeEnvVar = "GONGWEN_HOME"

// Manager resolves the gongwen directory.
type Manager struct{}

// NewManager creates a Manager.
func NewManager() *Manager {
	return &Manager{}
}

// Target returns the absolute path of the gongwen directory, checking in
// order:
//  1. overrideDir, created if missing
//  2. ./.gongwen in the working directory
//  3. $GONGWEN_HOME, or ~/.gongwen without it
//
// It returns "" when overrideDir is empty and neither of the others exists.
func (m *Manager) Target(overrideDir string) (string, error) {
	if overrideDir != "" {
		if err := mkdir(overrideDir); err != nil {
			return "", err
		}
		return filepath.Abs(overrideDir)
	}

	if local, ok := localDir(); ok {
		return local, nil
	}

	home, err := homeDir()
	if err != nil {
		return "", err
	}
	if isDir(home) {
		return home, nil
	}
	return "", nil
}

// Ensure resolves the directory like Target, creating the home directory
// when none exists yet. Call it before writing state.
func (m *Manager) Ensure(overrideDir string) (string, error) {
	dir, err := m.Target(overrideDir)
	if err != nil || dir != "" {
		return dir, err
	}

	home, err := homeDir()
	if err != nil {
		return "", err
	}
	if err := mkdir(home); err != nil {
		return "", err
	}
	return home, nil
}

func homeDir() (string, error) {
	if dir := os.Getenv(HomeEnvVar); dir != "" {
		return filepath.Abs(dir)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

func localDir() (string, bool) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", false
	}
	dir := filepath.Join(cwd, dirName)
	return dir, isDir(dir)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func mkdir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating gongwen directory %s: %w", dir, err)
	}
	return nil
}
