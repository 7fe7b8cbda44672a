package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"ledgerd/internal/config"
	httpapi "ledgerd/internal/httpapi/v1"
	"ledgerd/internal/ledger"
	"ledgerd/internal/service/auth"
	"ledgerd/internal/service/movement"
	"ledgerd/internal/service/refdata"
	"ledgerd/internal/storage/memory"
	pgstore "ledgerd/internal/storage/postgres"
)

// storage groups the repository/writer implementations the services share.
type storage interface {
	auth.Repo
	auth.Writer
	refdata.Repo
	refdata.Writer
	movement.Repo
	movement.Writer
}

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := buildLogger(cfg)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store storage
	var ready httpapi.ReadyChecker
	var closeFn func()

	if cfg.DatabaseURL != "" {
		if err := pgstore.RunMigrations(cfg.DatabaseURL); err != nil {
			logger.Error("migrations failed", "err", err)
			os.Exit(1)
		}
		pg, err := pgstore.Open(ctx, cfg.DatabaseURL, cfg.Currency)
		if err != nil {
			logger.Error("failed to connect to postgres", "err", err)
			os.Exit(1)
		}
		store = pg
		ready = pg
		closeFn = pg.Close
		logger.Info("storage backend: postgres")
	} else {
		mem := memory.New()
		if dev := strings.ToLower(strings.TrimSpace(os.Getenv("DEV_SEED"))); dev == "1" || dev == "true" || dev == "yes" {
			seedDev(mem, logger)
		}
		store = mem
		logger.Info("storage backend: memory")
	}

	authSvc := auth.New(store, store, cfg.BcryptCost)
	refdataSvc := refdata.New(store, store)
	movementSvc := movement.New(store, store, cfg.Currency, cfg.HistoryDefaultLimit, cfg.HistoryMaxLimit)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpapi.New(authSvc, refdataSvc, movementSvc, ready, logger).Handler(),
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("ledger service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			logger.Error("server shutdown error", "err", err)
		}
	case err := <-errCh:
		logger.Error("server error", "err", err)
	}
	if closeFn != nil {
		closeFn()
	}
}

// seedDev loads a throwaway user with one account and a credit payment
// method so the API is usable immediately with the logged token.
func seedDev(store *memory.Store, l *slog.Logger) {
	token := uuid.NewString()
	user := ledger.User{
		ID:    uuid.New(),
		Name:  "Dev User",
		Email: "dev@localhost",
		// password login is not seeded; use the token directly
		PasswordHash: "",
		APIToken:     &token,
	}
	store.SeedUser(user)
	wallet := ledger.Account{ID: uuid.New(), UserID: user.ID, Name: "Wallet"}
	store.SeedAccount(wallet)
	groceries := ledger.Category{ID: uuid.New(), UserID: user.ID, Name: "Groceries"}
	store.SeedCategory(groceries)
	credit := ledger.PaymentMethod{ID: uuid.New(), UserID: user.ID, Name: "Credit Card", Kind: ledger.PaymentMethodCredit}
	store.SeedPaymentMethod(credit)
	l.Info("DEV seed (memory)",
		"user_id", user.ID.String(),
		"token", token,
		"account_id", wallet.ID.String(),
		"category_id", groceries.ID.String(),
		"credit_payment_method_id", credit.ID.String(),
	)
}

// parseLogLevel maps env values to slog.Leveler
func parseLogLevel(s string) slog.Leveler {
	switch s {
	case "DEBUG", "debug":
		return slog.LevelDebug
	case "WARN", "WARNING", "warn", "warning":
		return slog.LevelWarn
	case "ERROR", "ERR", "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildLogger(cfg *config.Config) *slog.Logger {
	level := parseLogLevel(cfg.LogLevel)
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	// default to JSON
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
