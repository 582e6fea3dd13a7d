// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	deploymentsstore "github.com/dalemusser/nftjr/internal/app/store/deployments"
	"github.com/dalemusser/nftjr/internal/app/system/addressbook"
	"github.com/dalemusser/nftjr/internal/app/system/indexes"
	"github.com/dalemusser/nftjr/internal/app/system/timeouts"
	"github.com/dalemusser/nftjr/internal/app/system/validators"
	"github.com/dalemusser/nftjr/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB connects to MongoDB and builds the ledger-backed dependencies.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	connectCtx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(appCfg.MongoURI))
	if err != nil {
		logger.Error("MongoDB connect failed", zap.Error(err))
		return DBDeps{}, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		logger.Error("MongoDB ping failed", zap.Error(err))
		return DBDeps{}, fmt.Errorf("ping mongo: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	return newDeps(client, client.Database(appCfg.MongoDatabase), appCfg, logger), nil
}

func newDeps(client *mongo.Client, db *mongo.Database, appCfg AppConfig, logger *zap.Logger) DBDeps {
	ledger := deploymentsstore.New(db)
	book := addressbook.New(ledger, appCfg.Network, logger)

	deps := DBDeps{
		MongoClient:   client,
		MongoDatabase: db,
		Ledger:        ledger,
		Book:          book,
	}
	if appCfg.AddressBookRefresh > 0 {
		deps.Refresh = workers.NewAddressBookRefresh(book, logger, appCfg.AddressBookRefresh)
	}
	return deps
}

// EnsureSchema sets up indexes or schema as needed.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	schemaCtx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()
	if err := validators.EnsureAll(schemaCtx, deps.MongoDatabase, logger); err != nil {
		logger.Error("ensure validators failed", zap.Error(err))
		return err
	}
	return indexes.EnsureAll(schemaCtx, deps.MongoDatabase, logger)
}
