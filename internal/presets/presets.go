// Package presets lists the OpenAI-compatible providers offered in settings.
package presets

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/BurntSushi/toml"
)

//go:embed presets.toml
var presetsTOML string

// Provider is one selectable endpoint.
type Provider struct {
	ID      string   `toml:"id" json:"id"`
	Name    string   `toml:"name" json:"name"`
	BaseURL string   `toml:"base_url" json:"baseUrl"`
	Models  []string `toml:"models" json:"models"`
}

type presetFile struct {
	Providers []Provider `toml:"provider"`
}

var (
	loadOnce  sync.Once
	providers []Provider
	loadErr   error
)

// Providers returns the embedded provider list.
func Providers() ([]Provider, error) {
	loadOnce.Do(func() {
		providers, loadErr = Parse(presetsTOML)
	})
	if loadErr != nil {
		return nil, loadErr
	}
	return append([]Provider(nil), providers...), nil
}

// Parse decodes a preset document and rejects duplicate ids.
func Parse(data string) ([]Provider, error) {
	var file presetFile
	if _, err := toml.Decode(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse provider presets: %w", err)
	}
	seen := make(map[string]bool, len(file.Providers))
	for _, provider := range file.Providers {
		if provider.ID == "" {
			return nil, fmt.Errorf("provider preset without id")
		}
		if seen[provider.ID] {
			return nil, fmt.Errorf("duplicate provider preset %q", provider.ID)
		}
		seen[provider.ID] = true
	}
	return file.Providers, nil
}

// Lookup finds a provider by id.
func Lookup(id string) (Provider, bool) {
	list, err := Providers()
	if err != nil {
		return Provider{}, false
	}
	for _, provider := range list {
		if provider.ID == id {
			return provider, true
		}
	}
	return Provider{}, false
}
