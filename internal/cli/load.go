package cli

import (
	"errors"
	"io/fs"
	"os"

	"github.com/example/climseir/internal/config"
	"github.com/example/climseir/internal/wire"
)

// loadConfig reads the explicit --config file, else climseir.yaml in the
// working directory, else the reference configuration.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if _, err := os.Stat(config.DefaultFileName); errors.Is(err, fs.ErrNotExist) {
			return config.DefaultConfig(), nil
		}
		path = config.DefaultFileName
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if dbPath == "" {
		wire.SetDBPath(cfg.Database)
	}
	return cfg, nil
}
