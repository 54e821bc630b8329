// Package appdir управляет директориями приложения с XDG-совместимыми путями.
package appdir

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const appName = "jlud"

// Dir возвращает путь к директории конфигурации.
// Linux: ~/.config/jlud
// macOS: ~/Library/Application Support/jlud
// Windows: %AppData%\jlud
func Dir() string {
	return filepath.Join(xdg.ConfigHome, appName)
}

// CacheDir возвращает директорию для файла учётных данных.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, appName)
}

// ConfigPath возвращает путь к файлу конфигурации.
func ConfigPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// UserFilePath возвращает путь к зашифрованному файлу учётных данных по умолчанию.
func UserFilePath() string {
	return filepath.Join(CacheDir(), "user")
}

// LogsDir возвращает путь к директории логов.
func LogsDir() string {
	return filepath.Join(Dir(), "logs")
}

// LogFilePath возвращает путь к файлу логов.
func LogFilePath() string {
	return filepath.Join(LogsDir(), "jlud.log")
}

// Init создаёт директории приложения и дефолтный конфиг, если его нет.
func Init() error {
	dirs := []string{Dir(), CacheDir(), LogsDir()}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	if err := ensureDefaultConfig(ConfigPath()); err != nil {
		return fmt.Errorf("ensure default config: %w", err)
	}
	return nil
}

func ensureDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return writeDefaultConfig(path)
}
