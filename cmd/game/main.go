package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tatianab/grave-master/internal/config"
	"github.com/tatianab/grave-master/internal/engine"
	"github.com/tatianab/grave-master/internal/store"
	"github.com/tatianab/grave-master/internal/tui"
)

var (
	verbose        bool
	conversationID string
	preset         string
	withParty      bool
	seed           int64

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "grave",
	Short: "The Grave Master: a text adventure in the underworld",
	Long: `The Grave Master narrates an endless three-dimensional dungeon.

The map, items, monsters and characters are tracked by the game; the
narrator only describes them. Every turn is saved, so a conversation can
be resumed with --conversation.

Run without arguments to start playing.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger, err = newLogger(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runPlay,
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start or resume a game",
	Args:  cobra.NoArgs,
	RunE:  runPlay,
}

// newLogger writes JSON logs to the configured file; the terminal belongs
// to the game.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if dir := filepath.Dir(cfg.LogFile); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	zc := zap.NewProductionConfig()
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zc.Level = level
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	zc.OutputPaths = []string{cfg.LogFile}
	zc.ErrorOutputPaths = []string{cfg.LogFile}
	return zc.Build()
}

// openEngine opens the turn log and builds an engine around it. Commands
// that never narrate pass withNarrator false and need no API key.
func openEngine(ctx context.Context, withNarrator bool) (*engine.Engine, func(), error) {
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	closers := []func(){func() { _ = st.Close() }}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var gen engine.Generator
	if withNarrator {
		if err := cfg.RequireAPIKey(); err != nil {
			cleanup()
			return nil, nil, err
		}
		backend, err := engine.NewGeminiBackend(ctx, cfg.GeminiAPIKey, cfg.Model)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, backend.Close)
		gen = backend
	}

	return engine.New(gen, st, *cfg, logger), cleanup, nil
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	eng, cleanup, err := openEngine(ctx, true)
	if err != nil {
		return err
	}
	defer cleanup()

	id := conversationID
	if id == "" && preset != "" {
		view, err := eng.NewConversation(ctx, engine.NewGameOptions{Preset: preset, Party: withParty, Seed: seed})
		if err != nil {
			return err
		}
		id = view.ID
	}

	logger.Info("starting interface", zap.String("conversation", id))
	return tui.Run(eng, id)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	for _, c := range []*cobra.Command{rootCmd, playCmd} {
		c.Flags().StringVarP(&conversationID, "conversation", "c", "", "Resume a stored conversation")
		c.Flags().StringVar(&preset, "preset", "", "Start immediately as mortacia or suzerain")
		c.Flags().BoolVar(&withParty, "party", false, "Start with a party of companions")
		c.Flags().Int64Var(&seed, "seed", 0, "Fix the world seed (0 picks one)")
	}

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(contextCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
