package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/blackjack-live/backend/internal/account"
	"github.com/blackjack-live/backend/internal/config"
	"github.com/blackjack-live/backend/internal/httpapi"
	"github.com/blackjack-live/backend/internal/hub"
	"github.com/blackjack-live/backend/internal/payout"
	"github.com/blackjack-live/backend/internal/room"
	"github.com/blackjack-live/backend/internal/store"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var accounts interface {
		room.Accounts
		httpapi.Balances
	}
	var snaps *store.Store

	if cfg.DatabaseURL != "" {
		db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
		if err != nil {
			log.Fatal("open database", zap.Error(err))
		}
		accounts, err = account.NewStore(db)
		if err != nil {
			log.Fatal("init accounts", zap.Error(err))
		}
		snaps, err = store.New(db)
		if err != nil {
			log.Fatal("init store", zap.Error(err))
		}
	} else {
		log.Warn("DATABASE_URL not set, running with in-memory accounts and no persistence")
		accounts = account.NewMemory()
	}

	var payouts room.Payouts
	if cfg.PayoutURL != "" {
		payouts = payout.NewClient(cfg.PayoutURL, &http.Client{Timeout: cfg.PayoutTimeout})
	} else {
		log.Warn("PAYOUT_URL not set, payouts are accepted locally")
		payouts = payout.Noop{}
	}

	deps := hub.Deps{
		Config: room.Config{
			BetWindow:     cfg.BetWindow,
			TurnTimeout:   cfg.TurnTimeout,
			PayoutTimeout: cfg.PayoutTimeout,
			Capacity:      cfg.RoomCap,
		},
		Accounts: accounts,
		Payouts:  payouts,
		Log:      log,
	}
	if snaps != nil {
		deps.Snaps = snaps
	}
	h := hub.NewHub(ctx, deps)

	handlers := &httpapi.Handlers{Hub: h, Balances: accounts, Log: log}
	if snaps != nil {
		handlers.Snaps = snaps
	}

	srv := &http.Server{Addr: cfg.Addr, Handler: httpapi.SetupRoutes(handlers)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		h.Inbox() <- hub.ShutdownHub{}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
