package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"blockopt/internal/api"
	"blockopt/internal/auth"
	"blockopt/internal/config"
	"blockopt/internal/logging"
	"blockopt/internal/session"
)

var (
	// Global flags
	verbose    bool
	apiURL     string
	configPath string

	// Shared state built in PersistentPreRunE
	logger     *zap.Logger
	cfg        config.Config
	store      *session.Store
	httpClient *http.Client
	refresher  *auth.Refresher
	apiClient  *api.Client

	// blocksPath is where an imported record set is handed to later
	// invocations.
	blocksPath string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "blockopt",
	Short: "blockopt - client for the block cutting optimization service",
	Long: `blockopt drives the block cutting optimization service from the
command line.

Workflow:
  1. login                  establish a session
  2. import <file>          ingest a block spreadsheet (.xlsx, .csv, .tsv)
  3. optimize --stock WxHxL submit selected blocks for optimization
  4. viz <name>             fetch a result's 3D visualization document

The session survives between invocations; expired access credentials are
renewed transparently.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A .env next to the working directory may carry BLOCKOPT_* settings.
		_ = godotenv.Load()

		stateDir, err := config.Dir()
		if err != nil {
			return fmt.Errorf("failed to locate state directory: %w", err)
		}
		logger, err = logging.New(stateDir, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if configPath == "" {
			configPath = filepath.Join(stateDir, "config.yaml")
		}
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if apiURL != "" {
			cfg.BaseURL = apiURL
		}
		blocksPath = filepath.Join(stateDir, "blocks.json")

		sessionPath, err := session.DefaultPath()
		if err != nil {
			return err
		}
		store = session.NewStore(sessionPath)
		if _, err := store.Restore(); err != nil {
			logger.Warn("could not restore previous session", zap.Error(err))
		}

		httpClient = &http.Client{Timeout: cfg.RequestTimeout()}
		refresher = auth.NewRefresher(cfg.BaseURL, httpClient, store, logger)
		authClient := auth.NewClient(httpClient, store, refresher, logger)
		apiClient = api.NewClient(cfg.BaseURL, authClient, logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "optimization service base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(optimizeCmd)
	rootCmd.AddCommand(vizCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
