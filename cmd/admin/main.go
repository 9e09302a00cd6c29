// Command admin runs operator tasks against the configured store.
//
//	admin set-plan <email> <free|pro>
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/lalith-99/reelroom/internal/auth"
	"github.com/lalith-99/reelroom/internal/config"
	"github.com/lalith-99/reelroom/internal/models"
	"github.com/lalith-99/reelroom/internal/observ"
	"github.com/lalith-99/reelroom/internal/service"
	"github.com/lalith-99/reelroom/internal/storage"
	"go.uber.org/zap"
)

const usage = "usage: admin set-plan <email> <free|pro>"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) != 3 || args[0] != "set-plan" {
		return fmt.Errorf("%s", usage)
	}
	email, plan := args[1], models.Plan(args[2])
	if !plan.Valid() {
		return fmt.Errorf("unknown plan %q\n%s", args[2], usage)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	backend, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}
	defer backend.Close(context.Background())

	creds := service.NewCredentials(
		backend.Store.Users,
		auth.NewHasher(cfg.BcryptCost),
		auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
		logger,
	)
	user, err := creds.SetPlan(ctx, email, plan)
	if err != nil {
		return err
	}

	logger.Info("plan updated",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email),
		zap.String("plan", string(user.Plan)),
	)
	fmt.Printf("%s is now on the %s plan\n", user.Email, user.Plan)
	return nil
}
