package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

//go:embed stations.toml
var defaultStations []byte

// Stations lists the archive locations to sonify.
type Stations struct {
	BaseURLs []string `toml:"base_urls"`
	Folders  []string `toml:"folders"`
}

// LoadStations reads a stations file. An empty path selects the built-in list.
func LoadStations(path string) (Stations, error) {
	data := defaultStations
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return Stations{}, fmt.Errorf("read stations file: %w", err)
		}
	}

	var s Stations
	if err := toml.Unmarshal(data, &s); err != nil {
		return Stations{}, fmt.Errorf("parse stations file: %w", err)
	}
	return s, nil
}
