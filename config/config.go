// Package config loads and stores emulator configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config represents the emulator configuration.
type Config struct {
	// Execution settings
	Execution struct {
		MaxCycles     uint64 `toml:"max_cycles"`
		ROMImage      string `toml:"rom_image"`
		FlashImage    string `toml:"flash_image"`
		EnableTrace   bool   `toml:"enable_trace"`
		BootFromFlash bool   `toml:"boot_from_flash"`
	} `toml:"execution"`

	// SysTick settings
	SysTick struct {
		// UseWaitHook enables the SysTick.wait_function host bridge that
		// sleeps the process to mimic firmware busy-wait loops.
		UseWaitHook bool `toml:"use_wait_hook"`
	} `toml:"systick"`

	// Monitor settings (the tcell/tview boot-monitor console)
	Monitor struct {
		HistorySize int  `toml:"history_size"`
		ColorOutput bool `toml:"color_output"`
	} `toml:"monitor"`

	// API server settings
	API struct {
		Port            int  `toml:"port"`
		EnableWebSocket bool `toml:"enable_websocket"`
	} `toml:"api"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Execution.MaxCycles = 10_000_000
	cfg.Execution.BootFromFlash = false

	cfg.SysTick.UseWaitHook = false

	cfg.Monitor.HistorySize = 1000
	cfg.Monitor.ColorOutput = true

	cfg.API.Port = 8080
	cfg.API.EnableWebSocket = true

	return cfg
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "sam3x-emu")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "sam3x-emu")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file, merging onto defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveTo saves configuration to the specified file.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- caller-supplied config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
