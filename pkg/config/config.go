// pkg/config/config.go - configuration settings for the Kolibri setup core.

package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const ConfigPath = `C:\ProgramData\Kolibri\Setup.yaml`

// Registry locations mutated by the setup core. The setup key records the
// installed version; the Run key carries the tray autostart entry.
const (
	SetupRegistryPath = `SOFTWARE\Kolibri`
	VersionValueName  = "Version"
	RunRegistryPath   = `SOFTWARE\Microsoft\Windows\CurrentVersion\Run`
	TrayRunValueName  = "KolibriTray"
)

// Configuration holds the configurable options for the setup core in YAML format.
type Configuration struct {
	InstallPath        string `yaml:"InstallPath"`
	DataPath           string `yaml:"DataPath"`
	ServiceName        string `yaml:"ServiceName"`
	ServiceAccount     string `yaml:"ServiceAccount"`
	ServiceDescription string `yaml:"ServiceDescription"`
	UIExecutable       string `yaml:"UIExecutable"`
	ServerArguments    string `yaml:"ServerArguments"`
	NssmPath           string `yaml:"NssmPath"`
	LogPath            string `yaml:"LogPath"`
	LogLevel           string `yaml:"LogLevel"`
	Debug              bool   `yaml:"Debug"`
	Verbose            bool   `yaml:"Verbose"`
}

// LoadConfig loads the configuration from a YAML file. A missing file is not
// an error: the installer runs on machines that have never seen Kolibri, so
// defaults must always be available.
func LoadConfig() (*Configuration, error) {
	if _, err := os.Stat(ConfigPath); os.IsNotExist(err) {
		return GetDefaultConfig(), nil
	}

	data, err := os.ReadFile(ConfigPath)
	if err != nil {
		log.Printf("Failed to read configuration file: %v", err)
		return nil, err
	}

	config := GetDefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		log.Printf("Failed to parse configuration file: %v", err)
		return nil, err
	}

	applyDerivedDefaults(config)
	return config, nil
}

// SaveConfig saves the current configuration to a YAML file.
func SaveConfig(config *Configuration) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		log.Printf("Failed to serialize configuration: %v", err)
		return err
	}

	if err := os.MkdirAll(filepath.Dir(ConfigPath), 0755); err != nil {
		log.Printf("Failed to create configuration directory: %v", err)
		return err
	}

	if err := os.WriteFile(ConfigPath, data, 0644); err != nil {
		log.Printf("Failed to write configuration file: %v", err)
		return err
	}

	return nil
}

// GetDefaultConfig provides default configuration values in YAML format.
func GetDefaultConfig() *Configuration {
	// Use ProgramW6432 environment variable to force 64-bit Program Files path
	programFiles := os.Getenv("ProgramW6432")
	if programFiles == "" {
		programFiles = `C:\Program Files`
	}
	cfg := &Configuration{
		InstallPath:        filepath.Join(programFiles, "Kolibri"),
		DataPath:           `C:\ProgramData\Kolibri`,
		ServiceName:        "Kolibri",
		ServiceAccount:     `NT AUTHORITY\LocalService`,
		ServiceDescription: "Kolibri learning platform server",
		UIExecutable:       "Kolibri.exe",
		ServerArguments:    "--run-as-server",
		LogLevel:           "INFO",
		Debug:              false,
		Verbose:            false,
	}
	applyDerivedDefaults(cfg)
	return cfg
}

// applyDerivedDefaults fills paths that hang off InstallPath/DataPath when the
// configuration file leaves them empty.
func applyDerivedDefaults(cfg *Configuration) {
	if cfg.NssmPath == "" {
		cfg.NssmPath = filepath.Join(cfg.InstallPath, "nssm.exe")
	}
	if cfg.LogPath == "" {
		cfg.LogPath = filepath.Join(cfg.DataPath, "logs", "setup.log")
	}
}

// UIExecutablePath returns the absolute path of the tray/UI executable.
func (c *Configuration) UIExecutablePath() string {
	return filepath.Join(c.InstallPath, c.UIExecutable)
}

// TrayCommand is the command line registered for tray autostart on logon.
func (c *Configuration) TrayCommand() string {
	return fmt.Sprintf(`"%s" --tray-only`, c.UIExecutablePath())
}
