package main

import (
	"fmt"
	"log/slog"

	"github.com/mmcdole/hearlearn/internal/adapter"
	"github.com/mmcdole/hearlearn/internal/conversion"
	"github.com/mmcdole/hearlearn/internal/device"
	"github.com/mmcdole/hearlearn/internal/domain"
	"github.com/mmcdole/hearlearn/internal/library"
	"github.com/mmcdole/hearlearn/internal/playback"
	"github.com/mmcdole/hearlearn/internal/store"
)

// App holds the wired services for one run
type App struct {
	Config  *adapter.Config
	Logger  *slog.Logger
	Store   *store.LibraryStore
	Library *library.Service
	Player  *playback.Controller
	Speaker *device.Speaker
}

// NewApp builds the store, conversion client, renderers and services from cfg
func NewApp(cfg *adapter.Config, logger *slog.Logger) (*App, error) {
	st, err := store.NewLibraryStore(cfg.Library.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open library: %w", err)
	}

	client := conversion.NewClient(cfg.Server.URL, cfg.Server.Timeout, logger)

	var fetcher playback.Fetcher
	switch conversion.ParseMode(cfg.Playback.Mode) {
	case conversion.ModeAudio:
		fetcher = conversion.NewAudioFetcher(client)
	default:
		fetcher = conversion.NewTextFetcher(client, logger)
	}
	if cfg.Library.CachePages {
		fetcher = library.NewCachingFetcher(fetcher, st, logger)
	}

	svc := library.NewService(client, fetcher, st, cfg.Library.VerifyOnImport, logger)

	// A voice chosen in the settings screen wins over the config file
	voice := cfg.Speech.Voice
	if saved := svc.Voice(); saved != "" {
		voice = saved
	}
	speaker := device.NewSpeaker(cfg.Speech.Command, voice, cfg.Speech.WordsPerMinute, logger)
	audio := device.NewAudioPlayer(cfg.Player.Command, cfg.Player.Args, cfg.Player.RateFlag, logger)

	rate, err := domain.ParseRate(cfg.Playback.DefaultRate)
	if err != nil {
		logger.Warn("ignoring configured playback rate", "rate", cfg.Playback.DefaultRate, "error", err)
		rate = domain.DefaultRate
	}
	opts := playback.Options{
		BatchSize:    cfg.Playback.BatchSize,
		FetchTimeout: cfg.Playback.FetchTimeout,
		AutoAdvance:  cfg.Playback.AutoAdvance,
		DefaultRate:  rate,
	}
	player := playback.NewController(fetcher, device.NewMux(audio, speaker), svc, opts, logger)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Store:   st,
		Library: svc,
		Player:  player,
		Speaker: speaker,
	}, nil
}

// Close saves the open session, waits for fetches and closes the store
func (a *App) Close() {
	if err := a.Player.CloseSession(); err != nil {
		a.Logger.Error("failed to save progress", "error", err)
	}
	a.Player.Wait()
	if err := a.Store.Close(); err != nil {
		a.Logger.Error("failed to close library", "error", err)
	}
}
