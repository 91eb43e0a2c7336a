package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scrollguide/guide/internal/config"
	"github.com/scrollguide/guide/internal/logging"
)

const defaultConfigPath = "scrollguide.yaml"

var (
	configPath string
	logLevel   string
	port       int
	maxConns   int
	noWatch    bool
)

var rootCmd = &cobra.Command{
	Use:   "scrollguide",
	Short: "A scroll-reactive guide character",
	Long: `scrollguide renders a page of sections with a small animated guide beside it.
As sections scroll into view the guide switches pose and shows a message,
then settles back after a while.

Run without a subcommand to open the terminal page.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd)
	},
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the page in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the guide over websocket, one instance per connection",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "Path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noWatch, "no-watch", false, "Do not reload when the config file changes")

	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "Override server port")
	serveCmd.Flags().IntVar(&maxConns, "max-conns", 0, "Maximum concurrent connections (0 = unlimited)")

	rootCmd.AddCommand(tuiCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file. A missing file is only an error when the
// path was given explicitly; otherwise the built-in defaults are used and the
// returned path is empty.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	path := configPath
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		path = ""
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, path, nil
}

func newLogger(cfg *config.Config, file string) (*zap.Logger, error) {
	return logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   file,
	})
}
