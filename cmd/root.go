package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"

	"github.com/lepinkainen/bookscout/internal/config"
	bserrors "github.com/lepinkainen/bookscout/internal/errors"
)

const (
	appName        = "bookscout"
	appDescription = "Find books and the public libraries that hold them."
)

// Output destination for command results; logs go to stderr.
var out io.Writer = os.Stdout

// CLI represents the complete command structure for the bookscout application
type CLI struct {
	// Global flags
	Verbose bool   `short:"v" help:"Enable debug logging"`
	JSON    bool   `help:"Print results as JSON"`
	Refresh bool   `help:"Ignore cached responses and fetch fresh data"`
	APIKey  string `help:"data4library.kr API key (defaults to library.apikey or LIBRARY_API_KEY)"`

	// Export flags
	Output    string `short:"o" help:"Also write results as JSON to this file"`
	Overwrite bool   `help:"Overwrite the --output file if it exists"`

	// Cache flags
	CacheDBFile string `help:"Path to cache SQLite database file"`
	CacheTTL    string `help:"Cache time-to-live duration (e.g., 30m, 2h)"`

	// History flags
	HistoryDBFile string `help:"Path to search history SQLite database file"`
	NoHistory     bool   `help:"Do not record searches"`

	Libraries LibrariesCmd `cmd:"" help:"List libraries, fetching pages in parallel"`
	Search    SearchCmd    `cmd:"" help:"Search for books"`
	Holdings  HoldingsCmd  `cmd:"" help:"Find libraries holding a book across regions"`
	Cache     CacheCmd     `cmd:"" help:"Inspect and clear the response cache"`
	OCR       OCRCmd       `cmd:"" name:"ocr" help:"Use the OCR backend to read a book cover"`
	History   HistoryCmd   `cmd:"" help:"Show or clear search history"`
}

func kongOptions(ctx context.Context) []kong.Option {
	return []kong.Option{
		kong.Name(appName),
		kong.Description(appDescription),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	}
}

// Execute runs the Kong-based CLI
func Execute() {
	initLogging(false)
	initConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var cli CLI
	kctx := kong.Parse(&cli, kongOptions(ctx)...)

	if cli.Verbose {
		initLogging(true)
	}
	updateGlobalConfig(&cli)

	err := kctx.Run()
	if bserrors.IsStopProcessingError(err) {
		slog.Info("Stopped", "reason", err)
		return
	}
	if err != nil {
		slog.Error("Command failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func initConfig() {
	config.SetDefaults()

	viper.AutomaticEnv()
	if err := config.BindEnv(); err != nil {
		slog.Error("Failed to bind environment variables", "error", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			slog.Debug("Config file not found, using defaults")
			return
		}
		slog.Error("Fatal error config file", "error", err)
		os.Exit(1)
	}
	slog.Debug("Loaded config", "file", viper.ConfigFileUsed())
}

// updateGlobalConfig lets flags that were given override config and environment.
func updateGlobalConfig(cli *CLI) {
	if cli.APIKey != "" {
		viper.Set(config.KeyLibraryAPIKey, cli.APIKey)
	}
	if cli.CacheDBFile != "" {
		viper.Set(config.KeyCacheDBFile, cli.CacheDBFile)
	}
	if cli.CacheTTL != "" {
		viper.Set(config.KeyCacheTTL, cli.CacheTTL)
	}
	if cli.HistoryDBFile != "" {
		viper.Set(config.KeyHistoryDBFile, cli.HistoryDBFile)
	}
	if cli.NoHistory {
		viper.Set(config.KeyHistoryEnabled, false)
	}
	jsonOutput = cli.JSON
	outputFile = cli.Output
	overwrite = cli.Overwrite
	refresh = cli.Refresh
}

func logLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(os.Getenv("BOOKSCOUT_LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func initLogging(verbose bool) {
	handler := humanlog.NewHandler(os.Stderr, &humanlog.Options{
		Level: logLevel(verbose),
	})
	slog.SetDefault(slog.New(handler))
}
