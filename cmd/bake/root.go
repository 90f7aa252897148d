package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-bake/internal/logger"
)

type rootOptions struct {
	configFile   string
	configDir    string
	templates    string
	contentFiles []string
	logLevel     string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "bake",
		Short: "Render templates against content",
		Long: `bake renders named templates against data models. Templates are looked up
in the configured folder first and then in the bundled stock templates.
Repository-backed names such as published_posts and tags are served by
extractors over the configured content store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "config file (default: bake.yaml in --dir)")
	flags.StringVar(&opts.configDir, "dir", ".", "directory searched for bake.yaml and .env")
	flags.StringVarP(&opts.templates, "templates", "t", "", "template folder, overrides templates.folder")
	flags.StringArrayVar(&opts.contentFiles, "content", nil, "YAML content file loaded into the memory store (repeatable)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level, overrides log.level")

	cmd.AddCommand(
		newRenderCmd(opts),
		newServeCmd(opts),
		newContentCmd(opts),
		newInitCmd(opts, surveyPrompter{}),
	)
	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		l, logErr := logger.New(&logger.Config{Level: "debug", Format: "console"})
		if logErr != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		l.Error("command failed", zap.Error(err))
		_ = l.Sync()
		os.Exit(1)
	}
}
