package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// File is the on-disk catalog layout
type File struct {
	Stations []Station `json:"stations" yaml:"stations"`
}

// Load reads a catalog from a YAML or JSON file. An empty path yields the
// built-in catalog.
func Load(filePath string) (*Catalog, error) {
	if filePath == "" {
		return Default(), nil
	}

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("catalog file does not exist: %s", filePath)
	}

	var file *File
	var err error

	switch filepath.Ext(filePath) {
	case ".yaml", ".yml":
		file, err = loadFromYAML(filePath)
	case ".json":
		file, err = loadFromJSON(filePath)
	default:
		// Try YAML first, then JSON
		if file, err = loadFromYAML(filePath); err != nil {
			file, err = loadFromJSON(filePath)
		}
	}
	if err != nil {
		return nil, err
	}

	if len(file.Stations) == 0 {
		return nil, fmt.Errorf("catalog file %s contains no stations", filePath)
	}

	return New(file.Stations)
}

func loadFromYAML(filePath string) (*File, error) {
	data, err := readFile(filePath)
	if err != nil {
		return nil, err
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML catalog: %w", err)
	}

	return &file, nil
}

func loadFromJSON(filePath string) (*File, error) {
	data, err := readFile(filePath)
	if err != nil {
		return nil, err
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse JSON catalog: %w", err)
	}

	return &file, nil
}

func readFile(filePath string) ([]byte, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	return data, nil
}
