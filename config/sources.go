package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SourceOverride adjusts one registered source from the sources file.
type SourceOverride struct {
	Disabled bool     `yaml:"disabled"`
	Seeds    []string `yaml:"seeds"`
}

// SourcesFile is the YAML document pointed to by SOURCES_FILE:
//
//	sources:
//	  bienici:
//	    seeds: ["https://www.bienici.com/recherche/achat/vitre-35500/maison"]
//	  figaro:
//	    disabled: true
type SourcesFile struct {
	Sources map[string]SourceOverride `yaml:"sources"`
}

// LoadSources parses the sources file. An empty path yields no overrides.
func LoadSources(path string) (*SourcesFile, error) {
	sf := &SourcesFile{Sources: map[string]SourceOverride{}}
	if path == "" {
		return sf, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read sources file: %w", err)
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), sf); err != nil {
		return nil, fmt.Errorf("config: parse sources file %q: %w", path, err)
	}
	if sf.Sources == nil {
		sf.Sources = map[string]SourceOverride{}
	}
	return sf, nil
}

// Override returns the override for name, if any.
func (sf *SourcesFile) Override(name string) (SourceOverride, bool) {
	if sf == nil {
		return SourceOverride{}, false
	}
	o, ok := sf.Sources[name]
	return o, ok
}
