// OttoBrowse, a faceted recipe browser for the terminal.
//
// Usage:
//
//	ottobrowse [--config file] [--verbose] [--quiet] [--log-file path]
//	ottobrowse serve
//	ottobrowse search --tag vegan --sort "cook ASC"
//	ottobrowse seed
package main

import (
	"context"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/ottobrowse/internal/config"
	"github.com/hammamikhairi/ottobrowse/internal/domain"
	"github.com/hammamikhairi/ottobrowse/internal/engine"
	"github.com/hammamikhairi/ottobrowse/internal/logger"
	"github.com/hammamikhairi/ottobrowse/internal/metrics"
	"github.com/hammamikhairi/ottobrowse/internal/provider"
	"github.com/hammamikhairi/ottobrowse/internal/recipe"
	"github.com/hammamikhairi/ottobrowse/internal/storage"
)

var (
	// Global flags
	cfgPath string
	verbose bool
	quiet   bool
	logFile string

	// Set up in PersistentPreRunE.
	cfg       *config.Config
	log       *logger.Logger
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "ottobrowse",
	Short: "Browse recipes by category, tags, ingredients, instructions and title",
	Long: `OttoBrowse filters, sorts and searches a recipe collection.

Run without arguments to start the interactive browser. Recipes come from
the built-in collection, a SQLite database or a remote /api/recipes
service, as configured.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-file") {
			cfg.Log.File = logFile
		}
		log, logCloser = setupLogging(cfg.Log)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBrowser(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default: "+config.DefaultFile+" when present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose/debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "disable all logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "file to write logs to (use \"stderr\" to log to console)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging builds the logger from the config and flags. Logs go to a
// file by default so the terminal UI stays clean.
func setupLogging(lc config.LogConfig) (*logger.Logger, io.Closer) {
	level := logger.ParseLevel(lc.Level)
	if verbose {
		level = logger.LevelVerbose
	}
	if quiet {
		level = logger.LevelOff
	}

	var out io.Writer = os.Stderr
	var closer io.Closer
	if lc.File != "" && lc.File != "stderr" {
		if dir := filepath.Dir(lc.File); dir != "" && dir != "." {
			_ = os.MkdirAll(dir, 0o755)
		}
		f, err := os.OpenFile(lc.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", lc.File, err)
		} else {
			out = f
			closer = f
		}
	}

	// Third-party libraries logging through the standard logger end up
	// in the same place.
	stdlog.SetOutput(out)
	stdlog.SetFlags(stdlog.Ltime)

	return logger.New(level, out), closer
}

// openProvider builds the configured recipe provider. The returned close
// function is never nil.
func openProvider(pc config.ProviderConfig, log *logger.Logger) (domain.RecipeProvider, func() error, error) {
	noop := func() error { return nil }

	switch pc.Kind {
	case config.ProviderSQLite:
		src, err := recipe.OpenSQLite(pc.DBPath, log.Named("sqlite"))
		if err != nil {
			return nil, noop, err
		}
		return src, src.Close, nil
	case config.ProviderHTTP:
		return provider.NewClient(pc.URL, log.Named("provider"), provider.WithHTTPTimeout(pc.Timeout)), noop, nil
	default:
		return recipe.NewMemorySource(log.Named("memory")), noop, nil
	}
}

// newEngine fetches the first page and builds a browsing engine around p.
// A failed first fetch is logged; the browser then starts empty.
func newEngine(ctx context.Context, p domain.RecipeProvider, m *metrics.Collector) *engine.Engine {
	bootCtx, cancel := context.WithTimeout(ctx, cfg.Provider.Timeout)
	defer cancel()

	start := time.Now()
	boot, err := engine.Bootstrap(bootCtx, p)
	m.RecordFetch(time.Since(start), err)
	if err != nil {
		log.Warn("bootstrap: %v", err)
	}

	cache := storage.NewPageCache(log.Named("cache"),
		storage.WithTTL(cfg.Cache.TTL),
		storage.WithMaxEntries(cfg.Cache.MaxEntries),
	)
	return engine.New(p, log.Named("engine"),
		engine.WithBootstrap(boot),
		engine.WithCache(cache),
		engine.WithMetrics(m),
		engine.WithLocale(cfg.Browse.Locale),
		engine.WithDebounceDelay(cfg.Browse.Debounce),
		engine.WithFetchTimeout(cfg.Provider.Timeout),
	)
}
