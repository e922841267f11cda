package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/wordbomb-backend/internal/config"
	"github.com/DoyleJ11/wordbomb-backend/internal/dictionary"
	"github.com/DoyleJ11/wordbomb-backend/internal/engine"
	"github.com/DoyleJ11/wordbomb-backend/internal/httpapi"
	"github.com/DoyleJ11/wordbomb-backend/internal/hub"
	"github.com/DoyleJ11/wordbomb-backend/internal/lobby"
	"github.com/DoyleJ11/wordbomb-backend/internal/logging"
	"github.com/DoyleJ11/wordbomb-backend/internal/store"
)

const shutdownGrace = 5 * time.Second

func serve(parent context.Context, cfg *config.Config) (err error) {
	log, err := logging.New(cfg.LogLevel, cfg.Dev)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	dict, err := dictionary.Load(cfg.WordsPath, cfg.SequencesPath, cfg.DictionaryOptions())
	if err != nil {
		return fmt.Errorf("load dictionary: %w", err)
	}
	srvLog := log.Named("server")
	srvLog.Info("dictionary loaded",
		zap.Int("words", dict.Len()),
		zap.Int("sequences", len(dict.Sequences())))

	storeCfg, err := store.ConfigFromEnv()
	if err != nil {
		return err
	}
	archive, err := store.Open(storeCfg, log.Named("store"))
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, archive.Close()) }()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := hub.NewHub(ctx, log.Named("hub"))
	game := engine.NewGame(cfg.Teams, cfg.Rules(), dict, dict)
	lb := lobby.NewLobby(ctx, game, h,
		lobby.WithRecorder(archive),
		lobby.WithLogger(log.Named("game-state")))

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: httpapi.SetupRoutes(lb, h, archive, httpapi.Options{
			Origins:      cfg.AllowedOrigins(),
			HistoryLimit: cfg.HistoryLimit,
			Log:          log,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		srvLog.Info("listening", zap.String("addr", srv.Addr), zap.Strings("teams", cfg.Teams))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		srvLog.Info("shutting down")

		_ = lb.Send(context.Background(), lobby.Shutdown{})
		<-lb.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
