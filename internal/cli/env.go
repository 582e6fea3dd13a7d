package cli

import (
	"context"
	"fmt"

	deploymentsstore "github.com/dalemusser/nftjr/internal/app/store/deployments"
	"github.com/dalemusser/nftjr/internal/app/system/indexes"
	"github.com/dalemusser/nftjr/internal/app/system/timeouts"
	"github.com/dalemusser/nftjr/internal/app/system/validators"
	"github.com/dalemusser/nftjr/internal/deploy/config"
	"github.com/dalemusser/nftjr/internal/deploy/ethdriver"
	"github.com/dalemusser/nftjr/internal/deploy/migration"
	"github.com/dalemusser/nftjr/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Ledger is the migration ledger as the CLI uses it.
type Ledger interface {
	migration.Ledger
	LatestRun(ctx context.Context, network string) ([]models.MigrationStep, error)
}

// Env holds the external dependencies of the commands. Tests swap in fakes.
type Env struct {
	LoadConfig func(envFiles []string) (config.Config, error)
	OpenLedger func(ctx context.Context, cfg config.Config, logger *zap.Logger) (Ledger, func(), error)
	NewDriver  func(ctx context.Context, cfg config.Config, logger *zap.Logger) (migration.Driver, func(), error)
}

// DefaultEnv wires the real configuration loader, MongoDB ledger and
// go-ethereum driver.
func DefaultEnv() Env {
	return Env{
		LoadConfig: func(envFiles []string) (config.Config, error) {
			return config.Load(envFiles...)
		},
		OpenLedger: openMongoLedger,
		NewDriver: func(ctx context.Context, cfg config.Config, logger *zap.Logger) (migration.Driver, func(), error) {
			return ethdriver.Dial(ctx, cfg, logger)
		},
	}
}

func openMongoLedger(ctx context.Context, cfg config.Config, logger *zap.Logger) (Ledger, func(), error) {
	connectCtx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.Ledger.MongoURI))
	if err != nil {
		return nil, nil, fmt.Errorf("connect ledger: %w", err)
	}
	closeFn := func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Short())
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			logger.Warn("ledger disconnect failed", zap.Error(err))
		}
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("ping ledger: %w", err)
	}

	db := client.Database(cfg.Ledger.MongoDatabase)

	schemaCtx, cancelSchema := context.WithTimeout(ctx, timeouts.Medium())
	defer cancelSchema()
	if err := validators.EnsureAll(schemaCtx, db, logger); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("ensure ledger validators: %w", err)
	}
	if err := indexes.EnsureAll(schemaCtx, db, logger); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("ensure ledger indexes: %w", err)
	}

	return deploymentsstore.New(db), closeFn, nil
}
