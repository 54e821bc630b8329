package appdir

import (
	_ "embed"
	"fmt"
	"os"
)

//go:embed default_config.toml
var defaultConfigTOML []byte

func writeDefaultConfig(path string) error {
	if err := os.WriteFile(path, defaultConfigTOML, 0644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}

// DefaultConfigTOML возвращает содержимое дефолтного конфига.
func DefaultConfigTOML() []byte {
	return defaultConfigTOML
}
