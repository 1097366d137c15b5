package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"medassist/auth"
	"medassist/automation"
	"medassist/campaign"
	"medassist/config"
	"medassist/database"
	"medassist/importer"
	"medassist/loader"
	"medassist/logging"
)

const (
	watchDebounce   = 2 * time.Second
	shutdownTimeout = 10 * time.Second
)

var (
	configPath string
	logger     *zap.Logger

	importCampaign int64
	importKind     string
	importFile     string
	importSheet    string
	importDryRun   bool

	tokenSubject string
	tokenTTL     time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "medassist",
	Short: "Back office des campagnes d'assistance médicale",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.SetPath(configPath)
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger, err = logging.New(cfg.LogLevel)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server and the import folder watcher",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations and dictionary seeds",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()
		logger.Info("database is up to date")
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a CSV or XLSX file into a campaign",
	Example: `  medassist import --campagne 3 --type beneficiaires --fichier liste.xlsx --feuille Liste
  medassist import --campagne 3 --type participants --fichier appels.csv --dry-run`,
	RunE: runImport,
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token signed with the configured secret",
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := config.GetConfig().JWTSecret
		if secret == "" {
			return errors.New("jwtSecret is not configured; authentication is disabled")
		}
		token, err := auth.Mint(secret, tokenSubject, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

var statusRefreshCmd = &cobra.Command{
	Use:   "status-refresh",
	Short: "Recompute campaign statuses from their dates",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()
		n, err := campaign.RefreshStatuses(cmd.Context(), db, campaign.CurrentDay())
		if err != nil {
			return err
		}
		logger.Info("campaign statuses refreshed", zap.Int("updated", n))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./medassist_config.json", "path to the JSON configuration file")

	importCmd.Flags().Int64Var(&importCampaign, "campagne", 0, "target campaign id")
	importCmd.Flags().StringVar(&importKind, "type", string(importer.KindBeneficiaries), "beneficiaires or participants")
	importCmd.Flags().StringVar(&importFile, "fichier", "", "CSV or XLSX file")
	importCmd.Flags().StringVar(&importSheet, "feuille", "", "XLSX sheet name (first sheet by default)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "validate without writing")
	_ = importCmd.MarkFlagRequired("campagne")
	_ = importCmd.MarkFlagRequired("fichier")

	tokenCmd.Flags().StringVar(&tokenSubject, "sub", "admin", "token subject")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 12*time.Hour, "token lifetime")

	rootCmd.AddCommand(serveCmd, migrateCmd, importCmd, tokenCmd, statusRefreshCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openDatabase connects and brings the schema and dictionaries up to date.
func openDatabase(ctx context.Context) (*sqlx.DB, error) {
	cfg := config.GetConfig()
	logger.Info("connecting to database", zap.String("path", cfg.DatabasePath))
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	if err := loader.InitDatabase(ctx, db, cfg.SeedPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("database initialization failed: %w", err)
	}
	return db, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.GetConfig()
	db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if n, err := campaign.RefreshStatuses(ctx, db, campaign.CurrentDay()); err != nil {
		logger.Warn("failed to refresh campaign statuses", zap.Error(err))
	} else {
		logger.Info("campaign statuses refreshed", zap.Int("updated", n))
	}

	if err := os.MkdirAll(filepath.Join(cfg.UploadDir, "kafala"), 0o755); err != nil {
		return fmt.Errorf("failed to create upload dir: %w", err)
	}

	if cfg.JWTSecret == "" {
		logger.Warn("jwtSecret is empty: the API is served without authentication")
	}

	if cfg.ImportFolderPath != "" {
		watcher, err := importer.NewWatcher(db, cfg.ImportFolderPath, watchDebounce)
		if err != nil {
			logger.Warn("import folder watcher disabled", zap.String("dir", cfg.ImportFolderPath), zap.Error(err))
		} else {
			defer watcher.Close()
			go watcher.Run(ctx)
			logger.Info("watching import folder", zap.String("dir", cfg.ImportFolderPath))
		}
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           SetupRoutes(db, automation.ChromePrinter(cfg.BrowserPath)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server start error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runImport(cmd *cobra.Command, args []string) error {
	kind := importer.Kind(importKind)
	if !kind.Valid() {
		return fmt.Errorf("unknown import type %q", importKind)
	}

	f, err := os.Open(importFile)
	if err != nil {
		return err
	}
	defer f.Close()

	db, err := openDatabase(cmd.Context())
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := importer.Import(cmd.Context(), db, kind, importCampaign, filepath.Base(importFile), f,
		importer.Options{SheetName: importSheet, DryRun: importDryRun})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
