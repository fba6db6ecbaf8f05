package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"bobo-live/domain"
	apperrors "bobo-live/errors"
	"bobo-live/internal"
	"bobo-live/moderation"
	"bobo-live/room"
	"bobo-live/search"
	"bobo-live/store"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
)

// Exit codes keep service managers informed about why the node stopped.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Node terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run owns the full lifecycle so every defer executes before the process
// exits, and so initialization failures come back as errors instead of
// os.Exit calls scattered through the wiring.
func run() (int, error) {
	_ = godotenv.Load()

	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	level, err := ParseLevel(config.LogLevel)
	if err != nil {
		return exitConfig, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx := context.Background()

	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	docs := store.NewBadger(db, logger)

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	settings, err := loadSettings(docs)
	if err != nil {
		return exitRuntime, fmt.Errorf("settings load failed: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return exitConfig, fmt.Errorf("settings rejected: %w", err)
	}
	logger.Info("Game settings ready",
		"luckyWinRate", settings.LuckyGiftWinRate,
		"bannedWords", len(settings.BannedWords))

	if _, err := moderation.NewFilter(settings.BannedWords); err != nil {
		return exitConfig, fmt.Errorf("banned word list rejected: %w", err)
	}

	index := search.NewMessageIndex(blugeWriter, logger)

	if logger.Enabled(ctx, slog.LevelDebug) {
		endpoint := "/inspect"
		logger.Info("Debug store inspector available",
			"url", fmt.Sprintf("http://localhost:%d%s", config.DebugPort, endpoint))
		internal.StartDebugServer(db, config.DebugPort, endpoint, internal.DefaultMapper, nodeStats(docs))
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 3)

	ingester := search.NewIngester(docs, index, logger)
	go func() {
		if err := ingester.Run(ctx); err != nil && ctx.Err() == nil {
			errChan <- fmt.Errorf("message ingestion error: %w", err)
		}
	}()

	directory := room.NewDirectory(docs, logger)
	go func() {
		if err := directory.Run(ctx); err != nil && ctx.Err() == nil {
			errChan <- fmt.Errorf("directory mirror error: %w", err)
		}
	}()

	feed := room.NewAnnouncementFeed(docs, logger)
	go func() {
		if err := feed.Run(ctx); err != nil && ctx.Err() == nil {
			errChan <- fmt.Errorf("announcement feed error: %w", err)
		}
	}()
	go func() {
		for ann := range feed.Announcements() {
			logger.Info("Global announcement",
				"type", ann.Type, "sender", ann.SenderName, "amount", ann.Amount)
		}
	}()

	logger.Info("Node ready", "users", directory.Count())

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	logger.Info("Program stopped cleanly")
	return exitOK, nil
}

// loadSettings merges the admin-managed overrides onto the defaults. A
// missing document is not an error, it just means nothing was overridden yet.
func loadSettings(docs store.Store) (domain.GameSettings, error) {
	defaults := domain.DefaultGameSettings()

	doc, err := docs.Get("appSettings/global")
	if errors.Is(err, apperrors.ErrNotFound) {
		return defaults, nil
	}
	if err != nil {
		return domain.GameSettings{}, err
	}

	overrides, _ := doc.Data["gameSettings"].(map[string]any)
	return domain.MergeSettings(defaults, overrides), nil
}

func nodeStats(docs store.Store) internal.StatsProvider {
	return func() map[string]any {
		stats := internal.SelfStats()
		for _, collection := range []string{"users", "rooms", "global_announcements", "lucky_bags"} {
			if found, err := docs.QueryDocs(store.Query{Collection: collection}); err == nil {
				stats[collection] = len(found)
			}
		}
		return stats
	}
}

func buildBadgerOpts(config Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.INFO)
	}

	return options
}
