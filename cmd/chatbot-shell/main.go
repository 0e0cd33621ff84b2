// cmd/chatbot-shell/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rental-chatbot/internal/app"
	"rental-chatbot/internal/common/config"
	"rental-chatbot/internal/common/logger"
	"rental-chatbot/internal/shell"
)

var (
	configPath  string
	catalogPath string
	debug       bool
	seed        int64
)

var rootCmd = &cobra.Command{
	Use:   "chatbot-shell",
	Short: "Talk to the rental chatbot on the terminal",
	Long: `Starts an interactive session with the rental chatbot.

Lines starting with ':' or '!' are shell commands (:debug, :get <name>, :help, :exit);
everything else is said to the bot.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file (default: configs/config.yaml)")
	rootCmd.Flags().StringVar(&catalogPath, "catalog", "", "Catalog file, overrides catalog.path and selects the file source")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Start in debug mode")
	rootCmd.Flags().Int64Var(&seed, "seed", 0, "Seed for phrase selection (0 seeds from the clock)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if catalogPath != "" {
		cfg.Catalog.Source = "file"
		cfg.Catalog.Path = catalogPath
	}
	if cmd.Flags().Changed("seed") {
		cfg.Dialogue.Seed = seed
	}
	if debug {
		cfg.Dialogue.Debug = true
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer func() { _ = zapLog.Sync() }()
	log := logger.NewZapAdapter(zapLog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := app.Build(ctx, cfg, log)
	if err != nil {
		zapLog.Error("startup failed", zap.Error(err))
		return err
	}
	defer components.Close()

	engine, err := components.NewEngine(log.WithFields(map[string]interface{}{"sessionId": "shell"}))
	if err != nil {
		return err
	}

	err = shell.New(engine, os.Stdin, os.Stdout).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}
