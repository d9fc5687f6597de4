package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the name looked up in the working and home directories.
const DefaultConfigFile = ".schoolscan"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile reads the YAML configuration at path. A missing file yields
// ErrConfigNotFound; whether that is fatal is up to the caller.
func LoadConfigFile(path string) (*File, error) {
	f, err := os.Open(filepath.Clean(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrConfigNotFound
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cf, err := decodeFile(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cf, nil
}

// decodeFile decodes a configuration document. An empty document is a
// valid, empty configuration.
func decodeFile(r io.Reader) (*File, error) {
	var cf File
	if err := yaml.NewDecoder(r).Decode(&cf); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if cf.Schools == nil {
		cf.Schools = map[string]SchoolConfig{}
	}
	return &cf, nil
}

// FindConfigFile returns the configuration file to use, or "" if there is
// none. An explicit configPath is used only if it exists. Otherwise the
// candidates are tried in order:
//
//	./.schoolscan
//	~/.schoolscan
//	$XDG_CONFIG_HOME/schoolscan/config.yaml
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if exists(configPath) {
			return configPath
		}
		return ""
	}
	for _, path := range searchPaths() {
		if exists(path) {
			return path
		}
	}
	return ""
}

func searchPaths() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, DefaultConfigFile))
	}
	return append(paths, filepath.Join(XDGConfigDir(), "config.yaml"))
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
