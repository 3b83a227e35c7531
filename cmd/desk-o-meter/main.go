package main

import (
	"context"
	"fmt"
	"os"
	"os/user"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/username/desk-o-meter/internal/config"
	"github.com/username/desk-o-meter/internal/manager"
	"github.com/username/desk-o-meter/internal/store"
)

var (
	configPath string
	userFlag   string
	cfg        *config.Config
	logger     *zap.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "desk-o-meter",
		Short:         "Office attendance quota tracker",
		Long:          "Track office, WFH and vacation days against a monthly in-office quota with public holiday handling",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				initLogger("info")
				return err
			}

			if cfg.Log.File != "" {
				logger, err = initFileLogger(cfg.Log.File, cfg.Log.Level)
				if err != nil {
					initLogger(cfg.Log.Level) // Fallback to console
				}
			} else {
				initLogger(cfg.Log.Level)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (default: ./config.yaml, $HOME/.desk-o-meter, /etc/desk-o-meter)")
	rootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "User id (default: config user, then the OS user)")

	rootCmd.AddCommand(
		monthCmd(),
		cycleCmd(),
		dayCmd(),
		vacationCmd(),
		settingsCmd(),
		holidaysCmd(),
		exportCmd(),
		importCmd(),
		serveCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, Error("Error: "+err.Error()))
		os.Exit(1)
	}
}

// app holds the wired components of one command run
type app struct {
	store   *store.SQLiteStore
	manager *manager.Manager
	closers []func() error
}

func openApp(ctx context.Context) (*app, error) {
	st, err := store.OpenSQLite(ctx, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a := &app{store: st, closers: []func() error{st.Close}}

	resolver, closeResolver, err := buildResolver(cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	if closeResolver != nil {
		a.closers = append(a.closers, closeResolver)
	}

	defaults, err := cfg.Defaults.Settings()
	if err != nil {
		a.Close()
		return nil, err
	}
	seed, err := manager.ParseSeedPattern(cfg.Defaults.Seed)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.manager = manager.NewManager(st, resolver, defaults, seed, logger)
	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("Close failed", zap.Error(err))
		}
	}
}

// currentUser resolves the user id: --user, then config, then the OS user
func currentUser() (string, error) {
	if userFlag != "" {
		return userFlag, nil
	}
	if cfg != nil && cfg.User != "" {
		return cfg.User, nil
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username, nil
	}
	return "", fmt.Errorf("no user: pass --user or set user in config")
}

func initLogger(level string) {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.Level = zap.NewAtomicLevelAt(parseLevel(level))

	var err error
	logger, err = config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
}

func initFileLogger(logFile string, level string) (*zap.Logger, error) {
	logWriter := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    100,  // MB
		MaxBackups: 3,    // Keep max 3 old log files
		MaxAge:     28,   // days
		Compress:   true, // Compress old logs with gzip
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(logWriter),
		parseLevel(level),
	)

	return zap.New(core), nil
}

func parseLevel(level string) zapcore.Level {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel
	}
	return zapLevel
}
