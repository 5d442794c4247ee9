package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mediscan/mediscan-api/internal/app"
	"github.com/mediscan/mediscan-api/internal/config"
	"github.com/mediscan/mediscan-api/internal/repository/postgres"
	"github.com/mediscan/mediscan-api/internal/service"
	"github.com/mediscan/mediscan-api/pkg/logger"
	"github.com/mediscan/mediscan-api/pkg/security"
)

const usage = `usage: admin [-config path] <command> [flags]

commands:
  migrate                     create the database schema
  seed                        insert the sample data set
  health                      ping the configured store
  purge-medication -id <id>   permanently delete a medication and its logs
`

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stderr,
		Pretty:     true,
	})
	log.Logger = appLogger.Zerolog()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cmd, args := flag.Arg(0), flag.Args()[1:]
	if err := run(ctx, cfg, appLogger, cmd, args); err != nil {
		cancel()
		appLogger.Fatal(err, cmd+" failed")
	}
}

func run(ctx context.Context, cfg *config.Config, appLogger *logger.Logger, cmd string, args []string) error {
	switch cmd {
	case "migrate":
		if cfg.Database.Driver != "postgres" {
			return fmt.Errorf("migrate requires the postgres driver, got %q", cfg.Database.Driver)
		}
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		appLogger.Info("schema migrated")
		return nil

	case "health":
		store, err := app.OpenStore(ctx, cfg.Database, appLogger)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Repos.Health.PingContext(ctx); err != nil {
			return fmt.Errorf("store unhealthy: %w", err)
		}
		appLogger.Info("store healthy", "driver", cfg.Database.Driver)
		return nil

	case "seed":
		store, err := app.OpenStore(ctx, cfg.Database, appLogger)
		if err != nil {
			return err
		}
		defer store.Close()
		services := app.NewServices(store.Repos, security.NewBcryptHasher(cfg.Security.BcryptCost), service.NewBase(appLogger, nil, nil))
		result, err := app.Seed(ctx, services)
		if err != nil {
			return err
		}
		appLogger.Info("sample data inserted",
			"patient_id", result.PatientID,
			"guardian_code", result.GuardianCode,
			"pharmacy_id", result.PharmacyID,
		)
		return nil

	case "purge-medication":
		fs := flag.NewFlagSet("purge-medication", flag.ContinueOnError)
		rawID := fs.String("id", "", "medication id")
		if err := fs.Parse(args); err != nil {
			return err
		}
		id, err := uuid.Parse(*rawID)
		if err != nil {
			return fmt.Errorf("invalid -id %q: %w", *rawID, err)
		}

		store, err := app.OpenStore(ctx, cfg.Database, appLogger)
		if err != nil {
			return err
		}
		defer store.Close()
		services := app.NewServices(store.Repos, security.NewBcryptHasher(cfg.Security.BcryptCost), service.NewBase(appLogger, nil, nil))
		if err := services.Medications.DeleteMedication(ctx, id); err != nil {
			return err
		}
		appLogger.Info("medication purged", "medication_id", id.String())
		return nil

	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}
