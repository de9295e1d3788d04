package config

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

// Encode renders cfg as TOML, in the same shape Load reads.
func Encode(cfg *Config) ([]byte, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return data, nil
}
