package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/fieldsites/sitebuilder/internal/config"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Serve struct {
	} `cmd:"" help:"Run the HTTP server and revalidation daemon"`

	Generate struct {
		Business string `short:"b" required:"" help:"Business ID to generate"`
	} `cmd:"" help:"Generate page bundles for one business into the page store"`

	Sitemap struct {
		Business string `short:"b" required:"" help:"Business ID to build the sitemap for"`
		BaseURL  string `help:"Absolute base URL for sitemap entries; defaults to the business's mapped host"`
	} `cmd:"" help:"Print the sitemap XML for a business"`

	Map struct {
		Host     string `arg:"" help:"Site host, for example acmeplumbing.com"`
		Business string `arg:"" optional:"" help:"Business ID to map the host to"`
		Remove   bool   `help:"Remove the mapping for the host"`
	} `cmd:"" help:"Add or remove a host mapping in the mapping database"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a starter configuration file"`
}

func main() {
	ctx := kong.Parse(&CLI)

	var err error
	switch ctx.Command() {
	case "serve":
		err = runServe(CLI.Config)
	case "generate":
		err = runGenerate(CLI.Config, CLI.Generate.Business)
	case "sitemap":
		err = runSitemap(CLI.Config, CLI.Sitemap.Business, CLI.Sitemap.BaseURL)
	case "map <host> <business>", "map <host>":
		err = runMap(CLI.Config, CLI.Map.Host, CLI.Map.Business, CLI.Map.Remove)
	case "init":
		err = runInit(CLI.Config, CLI.Init.Force)
	default:
		err = fmt.Errorf("unknown command %q", ctx.Command())
	}
	if err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// setupLogging configures the process logger from config plus the verbose
// flag, which wins over the configured level.
func setupLogging(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if CLI.Verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
