package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/saltyorg/projectdb/internal/config"
	"github.com/saltyorg/projectdb/internal/database"
	"github.com/saltyorg/projectdb/internal/logging"
	"github.com/saltyorg/projectdb/internal/maintenance"
	"github.com/saltyorg/projectdb/internal/web"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const defaultDBPath = "./projects.db"

// CLI flags
var (
	dbPath      string
	logFile     string
	verbosity   int
	port        int
	bind        string
	readTimeout time.Duration
	idleTimeout time.Duration
	reqTimeout  time.Duration
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
	}

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "projectdb",
		Short: "projectdb - project tracking store",
		Long:  `projectdb manages the SQLite store behind the project-tracking bot: users, projects, skills and statuses.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if !cmd.Flags().Changed("db") {
				if envDB := os.Getenv("DB_PATH"); envDB != "" {
					dbPath = envDB
				}
			}
			logging.Console(logging.LevelForVerbosity(verbosity))
		},
		RunE: runInit,
	}

	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", defaultDBPath, "SQLite database path (or set DB_PATH env var)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Log file path (default: next to the database)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v debug, -vv trace)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the schema, seed statuses and add the photo column",
		RunE:  runInit,
	})

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		RunE:  runServe,
	}
	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP server port (required, or set PORT env var)")
	serveCmd.Flags().StringVarP(&bind, "bind", "b", "", "IP address to bind to (e.g., 127.0.0.1, 0.0.0.0)")
	serveCmd.Flags().DurationVar(&readTimeout, "read-timeout", 15*time.Second, "Maximum time to read a request")
	serveCmd.Flags().DurationVar(&idleTimeout, "idle-timeout", 120*time.Second, "Keep-alive idle timeout")
	serveCmd.Flags().DurationVar(&reqTimeout, "request-timeout", 30*time.Second, "Per-request handler timeout")
	rootCmd.AddCommand(serveCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("projectdb %s (commit: %s, built: %s)\n", version, commit, date)
		},
	})

	return rootCmd
}

// prepare initializes the schema, adds the photo column when it is missing
// and hashes any plaintext passwords left by older stores.
func prepare(db *database.Manager) error {
	if err := db.InitializeSchema(); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	hasPhoto, err := db.HasPhotoColumn()
	if err != nil {
		return fmt.Errorf("failed to inspect schema: %w", err)
	}
	if !hasPhoto {
		if err := db.AddPhotoColumn(); err != nil {
			log.Warn().Err(err).Msg("Failed to add photo column")
		}
	}

	if migrated, err := db.MigrateLegacyPasswords(); err != nil {
		log.Warn().Err(err).Msg("Failed to migrate plaintext passwords")
	} else if migrated > 0 {
		log.Info().Int("count", migrated).Msg("Hashed plaintext passwords")
	}

	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	db := database.New(dbPath)
	if err := prepare(db); err != nil {
		return err
	}
	log.Info().Str("database", dbPath).Msg("Database ready")
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if port == 0 {
		if envPort := os.Getenv("PORT"); envPort != "" {
			if _, err := fmt.Sscanf(envPort, "%d", &port); err != nil {
				return fmt.Errorf("invalid PORT environment variable %q: %w", envPort, err)
			}
		}
	}
	if port == 0 {
		return fmt.Errorf("--port flag or PORT environment variable is required")
	}
	if bind != "" {
		if ip := net.ParseIP(bind); ip == nil {
			return fmt.Errorf("invalid bind address: %s", bind)
		}
	}

	db := database.New(dbPath)
	if err := prepare(db); err != nil {
		return err
	}
	if err := db.InitializeDefaults(); err != nil {
		return fmt.Errorf("failed to initialize settings: %w", err)
	}

	loader := config.NewLoader(db)
	level := logging.LevelForVerbosity(verbosity)
	if verbosity == 0 {
		level = loader.String("log.level", level)
	}
	if logFile == "" {
		logFile = logging.FilePathForDB(dbPath)
	}
	logging.Apply(level, loader, logFile)

	log.Info().
		Str("version", version).
		Int("port", port).
		Str("bind", bind).
		Str("database", dbPath).
		Msg("Starting projectdb")

	scheduler := maintenance.New(db, maintenance.LoadConfig(loader))
	if err := scheduler.Start(); err != nil {
		log.Warn().Err(err).Msg("Maintenance scheduler not started")
	} else {
		defer scheduler.Stop()
	}

	server := web.NewServer(db, port, bind, config.ServerTimeouts{
		Read:    readTimeout,
		Idle:    idleTimeout,
		Request: reqTimeout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info().Msg("projectdb stopped")
	return nil
}
