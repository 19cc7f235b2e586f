// Package routes manages the transit-line registry and the loading of each
// line's route geometry document.
package routes

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Line is one registered transit line: display metadata plus the URL of
// its route geometry document.
type Line struct {
	Slug     string `yaml:"slug" json:"slug"`
	Name     string `yaml:"name" json:"name"`
	Color    string `yaml:"color" json:"color"`
	Schedule string `yaml:"schedule" json:"schedule"`
	KMLURL   string `yaml:"kml_url" json:"kml_url"`
}

// registryFile is the on-disk shape of lines.yaml.
type registryFile struct {
	Lines []Line `yaml:"lines"`
}

// LoadRegistry reads the transit-line registry from a YAML file. Every line
// needs a slug, a name and a document URL; duplicates by slug are rejected
// so later lookups are collision-free.
func LoadRegistry(path string) ([]Line, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "routes: read registry %s", path)
	}
	return parseRegistry(data)
}

func parseRegistry(data []byte) ([]Line, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrap(err, "routes: parse registry")
	}

	seen := make(map[string]bool, len(file.Lines))
	for _, l := range file.Lines {
		if l.Slug == "" || l.Name == "" || l.KMLURL == "" {
			return nil, eris.Errorf("routes: line %q missing slug, name or kml_url", l.Name)
		}
		if seen[l.Slug] {
			return nil, eris.Errorf("routes: duplicate line slug %q", l.Slug)
		}
		seen[l.Slug] = true
	}
	return file.Lines, nil
}
