package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-bake/internal/config"
)

// prompter asks the init questions. surveyPrompter talks to the terminal.
type prompter interface {
	Input(message, def string) (string, error)
	Select(message string, options []string, def string) (string, error)
	Confirm(message string, def bool) (bool, error)
}

type surveyPrompter struct{}

func (surveyPrompter) Input(message, def string) (string, error) {
	var out string
	err := survey.AskOne(&survey.Input{Message: message, Default: def}, &out)
	return out, err
}

func (surveyPrompter) Select(message string, options []string, def string) (string, error) {
	var out string
	err := survey.AskOne(&survey.Select{Message: message, Options: options, Default: def}, &out)
	return out, err
}

func (surveyPrompter) Confirm(message string, def bool) (bool, error) {
	var out bool
	err := survey.AskOne(&survey.Confirm{Message: message, Default: def}, &out)
	return out, err
}

// defaultsPrompter answers every question with its default.
type defaultsPrompter struct{}

func (defaultsPrompter) Input(_, def string) (string, error) { return def, nil }

func (defaultsPrompter) Select(_ string, _ []string, def string) (string, error) { return def, nil }

func (defaultsPrompter) Confirm(_ string, def bool) (bool, error) { return def, nil }

func newInitCmd(root *rootOptions, ask prompter) *cobra.Command {
	var (
		yes   bool
		force bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a bake.yaml config file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := root.configFile
			if path == "" {
				path = filepath.Join(root.configDir, config.FileName+".yaml")
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			}

			p := ask
			if yes {
				p = defaultsPrompter{}
			}
			cfg, err := askConfig(p, config.Default())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "accept every default without prompting")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}

func askConfig(p prompter, cfg *config.Config) (*config.Config, error) {
	var err error
	if cfg.Templates.Folder, err = p.Input("Template folder", defaultString(cfg.Templates.Folder, "templates")); err != nil {
		return nil, err
	}
	depth, err := p.Input("Maximum nested render depth", strconv.Itoa(cfg.Templates.MaxDepth))
	if err != nil {
		return nil, err
	}
	if cfg.Templates.MaxDepth, err = strconv.Atoi(depth); err != nil {
		return nil, fmt.Errorf("max depth: %w", err)
	}
	if cfg.Content.Driver, err = p.Select("Content store", []string{config.DriverMemory, config.DriverSQLite}, cfg.Content.Driver); err != nil {
		return nil, err
	}
	if cfg.Content.Driver == config.DriverSQLite {
		if cfg.Content.DSN, err = p.Input("SQLite database", cfg.Content.DSN); err != nil {
			return nil, err
		}
	}
	if cfg.Log.Level, err = p.Select("Log level", []string{"debug", "info", "warn", "error"}, cfg.Log.Level); err != nil {
		return nil, err
	}
	if cfg.Server.Addr, err = p.Input("Preview server address", cfg.Server.Addr); err != nil {
		return nil, err
	}
	if cfg.Telemetry.Enabled, err = p.Confirm("Enable telemetry", cfg.Telemetry.Enabled); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultString(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
