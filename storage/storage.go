// Package storage keeps the bridge's on-disk state: config.json and the
// captures directory that screenshots and WAV recordings go to. Both live
// under a per-machine data directory named by Init.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

var dataDirName string

// Init names the data directory. It must be called before anything else in
// this package.
func Init(name string) {
	dataDirName = name
}

const (
	configFile = "config.json"
	captureDir = "captures"
)

// GetBaseDir returns the machine's data directory:
//
//	macOS    ~/Library/Application Support/<name>
//	Windows  %APPDATA%/<name>
//	other    $XDG_DATA_HOME/<name>, or ~/.local/share/<name>
func GetBaseDir() (string, error) {
	root, err := dataRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, dataDirName), nil
}

func dataRoot() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, "Library", "Application Support"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return appData, nil
		}
		return "", fmt.Errorf("APPDATA environment variable not set")
	}

	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return dataHome, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share"), nil
}

func dataPath(name string) (string, error) {
	baseDir, err := GetBaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(baseDir, name), nil
}

// EnsureDirectories creates the data directory and its captures directory.
func EnsureDirectories() error {
	dir, err := dataPath(captureDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// GetConfigPath returns the path of the bridge's config.json.
func GetConfigPath() (string, error) {
	return dataPath(configFile)
}

// GetCaptureDir returns the directory screenshots and WAV captures are
// written to.
func GetCaptureDir() (string, error) {
	return dataPath(captureDir)
}

// AtomicWriteJSON writes data as indented JSON to path.tmp and renames it
// over path. A failed write leaves the old file in place.
func AtomicWriteJSON(path string, data any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
