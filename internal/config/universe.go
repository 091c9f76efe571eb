package config

import (
	"fmt"
	"os"

	yamlv2 "gopkg.in/yaml.v2"

	"github.com/quantrun/quantrun/internal/domain"
)

// UniverseEntry is one scannable symbol with its sector tag.
type UniverseEntry struct {
	Symbol string `yaml:"symbol"`
	Sector string `yaml:"sector"`
}

// Universe is the ticker list a batch scan walks.
type Universe struct {
	Name    string          `yaml:"name"`
	Tickers []UniverseEntry `yaml:"tickers"`
}

// Symbols returns the plain symbol list in file order.
func (u *Universe) Symbols() []string {
	out := make([]string, len(u.Tickers))
	for i, t := range u.Tickers {
		out[i] = t.Symbol
	}
	return out
}

// LoadUniverse reads a universe file. Duplicate or empty symbols are
// configuration errors, surfaced at load time.
func LoadUniverse(path string) (*Universe, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read universe: %w", err)
	}
	var u Universe
	if err := yamlv2.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("%w: parse universe %s: %v", domain.ErrInvalidConfig, path, err)
	}
	if len(u.Tickers) == 0 {
		return nil, fmt.Errorf("%w: universe %s has no tickers", domain.ErrInvalidConfig, path)
	}
	seen := make(map[string]struct{}, len(u.Tickers))
	for _, t := range u.Tickers {
		if t.Symbol == "" {
			return nil, fmt.Errorf("%w: universe %s has an empty symbol", domain.ErrInvalidConfig, path)
		}
		if _, dup := seen[t.Symbol]; dup {
			return nil, fmt.Errorf("%w: duplicate symbol %s in universe", domain.ErrInvalidConfig, t.Symbol)
		}
		seen[t.Symbol] = struct{}{}
	}
	return &u, nil
}
