package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/docfill/internal"
	pkgconfig "github.com/starford/docfill/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunMCP(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("mcp run error: %w", err)
	}
	return nil
}

func fill(_ context.Context, cmd *cli.Command) error {
	filled, res, err := internal.FillFile(internal.FillOptions{
		TemplatePath: cmd.String("template"),
		AnalysisPath: cmd.String("analysis"),
		Values:       cmd.StringSlice("set"),
		Format:       cmd.String("format"),
		Out:          cmd.String("out"),
	})
	if err != nil {
		return err
	}
	if filled.AnalysisError != "" {
		fmt.Fprintf(cmd.Root().ErrWriter, "warning: analysis ignored: %s\n", filled.AnalysisError)
	}
	fmt.Fprintf(cmd.Root().Writer, "wrote %s (%d bytes)\n", res.Path, res.Size)
	if len(filled.Unfilled) > 0 {
		fmt.Fprintf(cmd.Root().Writer, "unfilled: %s\n", strings.Join(filled.Unfilled, ", "))
	}
	return nil
}

func fields(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("usage: docfill fields <template file>")
	}
	names, err := internal.TemplateFields(cmd.Args().First())
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Fprintln(cmd.Root().Writer, n)
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "docfill",
		Usage:  "Fill bracketed text templates from document analyses and export PDF or DOCX",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API and the template watcher",
				Action: serve,
			},
			{
				Name:  "fill",
				Usage: "Fill a template file and export it",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "template", Aliases: []string{"t"}, Usage: "Template file", Required: true},
					&cli.StringFlag{Name: "analysis", Aliases: []string{"a"}, Usage: "Analysis file (JSON or YAML)"},
					&cli.StringSliceFlag{Name: "set", Aliases: []string{"s"}, Usage: "Field override FIELD=VALUE (repeatable)"},
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "Output format: pdf or docx", Value: "pdf"},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file (default <template>_filled.<ext>)"},
				},
				Action: fill,
			},
			{
				Name:      "fields",
				Usage:     "Print the placeholder fields of a template file",
				ArgsUsage: "<template file>",
				Action:    fields,
			},
			{
				Name:   "mcp",
				Usage:  "Serve docfill tools over MCP on stdio",
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
