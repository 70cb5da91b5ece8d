package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultDBName = "overseastax.db"

	envDataDir = "OVERSEAS_TAX_DATA_DIR"
	envDBPath  = "OVERSEAS_TAX_DB_PATH"
)

// UserConfig is the persisted application configuration.
type UserConfig struct {
	DBName  string `json:"db_name"`
	DataDir string `json:"data_dir"`
}

var runtimeDataDir string
var runtimePort = 8000

// LoadEnv loads a .env file from the working directory if one exists.
// Missing files are not an error; real environment variables win.
func LoadEnv() {
	_ = godotenv.Load()
}

// SetRuntimeDataDir overrides the data directory for this process.
func SetRuntimeDataDir(dir string) {
	runtimeDataDir = dir
}

// SetRuntimePort overrides the HTTP port for this process.
func SetRuntimePort(port int) {
	if port > 0 {
		runtimePort = port
	}
}

// GetRuntimePort returns the configured HTTP port.
func GetRuntimePort() int {
	return runtimePort
}

func appConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return "", homeErr
		}
		return filepath.Join(home, ".config", "overseastax"), nil
	}
	return filepath.Join(configDir, "overseastax"), nil
}

func appConfigPath() (string, error) {
	dir, err := appConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadUserConfig reads the stored configuration, falling back to defaults
// when the file is missing or malformed.
func LoadUserConfig() UserConfig {
	defaults := UserConfig{DBName: defaultDBName}
	configPath, err := appConfigPath()
	if err != nil {
		return defaults
	}
	file, err := os.Open(configPath)
	if err != nil {
		return defaults
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&defaults); err != nil {
		return UserConfig{DBName: defaultDBName}
	}
	if strings.TrimSpace(defaults.DBName) == "" {
		defaults.DBName = defaultDBName
	}
	return defaults
}

// SaveUserConfig writes the configuration to the per-user config directory.
func SaveUserConfig(cfg UserConfig) error {
	path, err := appConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// GetDataDir resolves the data directory: runtime override, then the
// environment, then stored config, then the per-user config directory.
// The directory is created if absent.
func GetDataDir() (string, error) {
	candidates := []string{
		runtimeDataDir,
		os.Getenv(envDataDir),
		LoadUserConfig().DataDir,
	}
	for _, dir := range candidates {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
		return dir, nil
	}

	defaultDir, err := appConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(defaultDir, 0o755); err != nil {
		return "", err
	}
	return defaultDir, nil
}

// GetDBPath resolves the database path. OVERSEAS_TAX_DB_PATH wins outright;
// otherwise the configured name inside the data directory is used.
func GetDBPath() (string, error) {
	if envPath := os.Getenv(envDBPath); envPath != "" {
		return envPath, nil
	}
	cfg := LoadUserConfig()
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	name := strings.TrimSpace(cfg.DBName)
	if name == "" {
		name = defaultDBName
	}
	return filepath.Join(dataDir, name), nil
}
