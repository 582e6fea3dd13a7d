// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/nftjr/internal/app/system/timeouts"
	"github.com/dalemusser/nftjr/internal/deploy/multibaas"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
//
// The address book is loaded here and awaited: the handler is only served
// once the client can be told where the contracts live. A ledger read
// failure aborts startup; an empty ledger does not.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	loadCtx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	if err := deps.Book.Load(loadCtx); err != nil {
		logger.Error("address book load failed", zap.Error(err))
		return err
	}

	if appCfg.MultiBaasAPIKey != "" && deps.Book.Len() > 0 {
		verifyCtx, cancelVerify := context.WithTimeout(ctx, timeouts.Short())
		mb := multibaas.NewClient(verifyCtx, appCfg.MultiBaasURL, appCfg.MultiBaasAPIKey, logger)
		if bad := deps.Book.Verify(verifyCtx, mb); len(bad) > 0 {
			logger.Warn("address book disagrees with MultiBaas", zap.Int("labels", len(bad)))
		}
		cancelVerify()
	}

	if deps.Refresh != nil {
		deps.Refresh.Start()
	}
	return nil
}
