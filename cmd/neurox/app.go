package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rebryk/neurox"
	"github.com/rebryk/neurox/config"
	"github.com/rebryk/neurox/settings"
)

// newLogger creates a JSON logger for CLI use.
func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// configDir returns the neurox directory under the user config dir.
func configDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(base, "neurox"), nil
}

// loadConfig resolves and loads the YAML config.
//
// An explicitly passed --config path must exist; the default path is
// optional and a missing file just means "run from settings alone".
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	explicit := path != ""

	if !explicit {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "config.yaml")
		if _, err := os.Stat(path); err != nil {
			return nil, nil
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// openStore opens the settings store, seeding it from the config when one
// was loaded. Config values win over stale stored ones so rotating a token
// in the config file takes effect immediately.
func openStore(cmd *cobra.Command, cfg *config.Config) (*settings.Store, error) {
	path, _ := cmd.Flags().GetString("settings")
	if path == "" && cfg != nil {
		path = cfg.SettingsPath
	}
	if path == "" {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "settings.json")
	}

	store, err := settings.Open(path)
	if err != nil {
		return nil, err
	}

	if cfg != nil {
		err := store.Update(func(s *settings.Settings) {
			s.APIURL = cfg.URL
			s.Username = cfg.Username
			if cfg.Token != "" {
				s.Token = cfg.Token
			}
			if cfg.RSAPath != "" {
				s.RSAPath = cfg.RSAPath
			}
		})
		if err != nil {
			return nil, err
		}
	}

	current := store.Get()
	if current.APIURL == "" || current.Username == "" {
		return nil, fmt.Errorf("platform url and username are not configured; create a config file or pass --config")
	}

	return store, nil
}

// newApp builds the [neurox.App] shared by all commands.
func newApp(cmd *cobra.Command, extra ...neurox.Option) (*neurox.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	store, err := openStore(cmd, cfg)
	if err != nil {
		return nil, err
	}

	opts := []neurox.Option{neurox.WithLogger(newLogger())}
	if cfg != nil {
		opts = append(opts,
			neurox.WithUpdateInterval(cfg.UpdateInterval.Duration()),
			neurox.WithMaxUpdateCycle(cfg.MaxUpdateCycle),
		)
	}
	opts = append(opts, extra...)

	app, err := neurox.New(store, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create neurox: %w", err)
	}
	return app, nil
}
