package main

import (
	"errors"
	"fmt"

	"github.com/nao1215/schoolscan/internal/catalog"
	"github.com/nao1215/schoolscan/internal/config"
)

// loadConfigFile finds and loads the configuration file.
//
// A path given explicitly must exist. Without one, the usual locations
// are searched and a missing file yields nil, nil.
func loadConfigFile(path string) (*config.File, error) {
	found := config.FindConfigFile(path)
	if found == "" {
		if path != "" {
			return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, path)
		}
		return nil, nil
	}

	f, err := config.LoadConfigFile(found)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, fmt.Errorf("%w: %s", err, found)
		}
		return nil, fmt.Errorf("failed to load config file %s: %w", found, err)
	}
	return f, nil
}

// resolveDatasetPath returns the dataset flag value, falling back to the
// dataset named in the configuration file.
func resolveDatasetPath(flagValue, configPath string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	f, err := loadConfigFile(configPath)
	if err != nil {
		return "", err
	}
	if f == nil || f.Dataset == "" {
		return "", config.ErrNoDataset
	}
	return f.Dataset, nil
}

// loadCatalog returns the catalog at path, or the embedded catalog when
// path is empty. Catalog defects are returned wrapped so callers can
// abort before any work starts.
func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		cat, err := catalog.Default()
		if err != nil {
			return nil, fmt.Errorf("embedded catalog: %w", err)
		}
		return cat, nil
	}
	cat, err := catalog.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return cat, nil
}
