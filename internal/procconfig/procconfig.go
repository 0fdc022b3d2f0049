// Package procconfig loads corectl's own process-level settings
// (storage path, audit log path, log file, listen address) and the
// bootstrap scheduled-process definitions used to seed a fresh database.
//
// Grounded on the teacher's internal/config package: a package-level
// *viper.Viper initialized once at startup, BD_-prefixed environment
// variables taking precedence over a config file, SetDefault for every
// known key. The bootstrap process list is a supplemented feature (the
// literal spec treats scheduled_processes as already persisted) read
// with BurntSushi/toml directly, since it is a small declarative list
// rather than a layered settings surface viper's precedence rules suit.
package procconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// Settings is corectl's resolved process-level configuration.
type Settings struct {
	DBPath       string
	AuditLogPath string
	LogFilePath  string
	ListenAddr   string
	LockPath     string
}

// Load resolves Settings from (in increasing precedence) built-in
// defaults, a TOML config file at configPath if present, and CORECTL_-
// prefixed environment variables, following the teacher's config.go
// env-prefix-plus-defaults discipline.
func Load(configPath string) (Settings, error) {
	v := viper.New()
	v.SetConfigType("toml")

	v.SetDefault("db-path", "/var/lib/corectl/corectl.db")
	v.SetDefault("audit-log-path", "/var/log/corectl/audit.jsonl")
	v.SetDefault("log-file-path", "/var/log/corectl/corectl.log")
	v.SetDefault("listen-addr", "127.0.0.1:8761")
	v.SetDefault("lock-path", "/var/run/corectl.lock")

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return Settings{}, fmt.Errorf("read config %s: %w", configPath, err)
			}
		}
	}

	v.SetEnvPrefix("CORECTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return Settings{
		DBPath:       v.GetString("db-path"),
		AuditLogPath: v.GetString("audit-log-path"),
		LogFilePath:  v.GetString("log-file-path"),
		ListenAddr:   v.GetString("listen-addr"),
		LockPath:     v.GetString("lock-path"),
	}, nil
}

// ProcessDef is one bootstrap scheduled-process declaration.
type ProcessDef struct {
	Name string   `toml:"name"`
	Argv []string `toml:"argv"`
}

// processesFile is the shape of a processes.toml bootstrap file.
type processesFile struct {
	Process []ProcessDef `toml:"process"`
}

// LoadProcesses parses a TOML bootstrap file declaring scheduled
// processes to seed into storage on first run. Returns an empty slice,
// not an error, when path does not exist.
func LoadProcesses(path string) ([]ProcessDef, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil
	}
	var pf processesFile
	if _, err := toml.DecodeFile(path, &pf); err != nil {
		return nil, fmt.Errorf("decode processes file %s: %w", filepath.Clean(path), err)
	}
	return pf.Process, nil
}
