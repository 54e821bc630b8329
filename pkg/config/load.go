package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"

	"github.com/udisondev/jlud/internal/appdir"
)

// Load загружает конфигурацию из файла.
// Файлы .toml разбираются как TOML, остальные как YAML.
// Отсутствующие ключи сохраняют значения Default().
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		data, err = tomlToYAML(data)
		if err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	resolvePaths(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// LoadFromAppDir загружает конфигурацию из XDG директории приложения.
func LoadFromAppDir() (*Config, error) {
	return Load(appdir.ConfigPath())
}

// tomlToYAML перекладывает TOML дерево в YAML, чтобы один набор
// yaml тегов обслуживал оба формата.
func tomlToYAML(data []byte) ([]byte, error) {
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(tree.ToMap())
}

// resolvePaths подставляет дефолтные пути для пустых значений.
func resolvePaths(cfg *Config) {
	if cfg.User.File == "" {
		cfg.User.File = appdir.UserFilePath()
	}
	if cfg.Log.File == "" && cfg.Log.ToFile {
		cfg.Log.File = appdir.LogFilePath()
	}
}
