package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-bake/pkg/model"
)

type renderOptions struct {
	modelFile string
	set       []string
	out       string
}

func newRenderCmd(root *rootOptions) *cobra.Command {
	opts := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render <template>",
		Short: "Render a template to stdout or a file",
		Long: `Render resolves <template>, renders it against the model built from
--model and --set, and writes the result to stdout. With --out the output
replaces the target file atomically, and only when the render succeeds.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, root, opts, args[0])
		},
	}
	cmd.Flags().StringVarP(&opts.modelFile, "model", "m", "", "YAML or JSON file holding the model")
	cmd.Flags().StringArrayVar(&opts.set, "set", nil, "model value as key=value (repeatable, applied after --model)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output file")
	return cmd
}

func runRender(cmd *cobra.Command, root *rootOptions, opts *renderOptions, name string) error {
	ctx := cmd.Context()
	m, err := buildModel(opts.modelFile, opts.set)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, root)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	engine, err := a.engine()
	if err != nil {
		return err
	}

	if opts.out == "" {
		return engine.Render(ctx, m, name, cmd.OutOrStdout())
	}

	out, err := engine.RenderString(ctx, m, name)
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(opts.out, bytes.NewReader([]byte(out))); err != nil {
		return fmt.Errorf("write %s: %w", opts.out, err)
	}
	a.log.Info("rendered", zap.String("template", name), zap.String("out", opts.out), zap.Int("bytes", len(out)))
	return nil
}

// buildModel reads path (when set) and applies key=value pairs on top.
func buildModel(path string, pairs []string) (model.Model, error) {
	m := model.Model{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read model: %w", err)
		}
		var decoded map[string]any
		if err := yaml.Unmarshal(data, &decoded); err != nil {
			return nil, fmt.Errorf("decode model %s: %w", path, err)
		}
		for key, value := range decoded {
			m[key] = value
		}
	}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q, want key=value", pair)
		}
		m[key] = value
	}
	return m, nil
}
