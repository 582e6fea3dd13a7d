// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	appconfigfeature "github.com/dalemusser/nftjr/internal/app/features/appconfig"
	chainapifeature "github.com/dalemusser/nftjr/internal/app/features/chainapi"
	healthfeature "github.com/dalemusser/nftjr/internal/app/features/health"
	spafeature "github.com/dalemusser/nftjr/internal/app/features/spa"
	uploadfeature "github.com/dalemusser/nftjr/internal/app/features/upload"
	"github.com/dalemusser/nftjr/internal/app/system/clientroutes"
	"github.com/dalemusser/nftjr/internal/app/system/limits"
	"github.com/dalemusser/nftjr/internal/app/system/proxy"
	"github.com/dalemusser/nftjr/internal/app/system/ratelimit"
	"github.com/dalemusser/nftjr/internal/app/system/theme"
	"github.com/dalemusser/nftjr/internal/deploy/multibaas"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed, so the address book is already loaded.
//
// nftjr serves:
//   - /health                   Mongo ping and address book summary
//   - POST /upload              reverse proxy to the storage service
//   - MultiBaas address labels  label reads and contract method calls, API key attached
//   - /app-config.json          route table, theme, API base and contract addresses
//   - the client route table    index.html (history mode), plus built assets
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	variant, err := clientroutes.Parse(appCfg.RouteVariant)
	if err != nil {
		return nil, err
	}
	routes := clientroutes.Routes(variant)

	if err := spafeature.CheckDir(appCfg.FrontendDir); err != nil {
		logger.Warn("frontend build not found; client routes will 404 until it exists",
			zap.String("frontend_dir", appCfg.FrontendDir), zap.Error(err))
	}

	chainProxy, err := proxy.New(appCfg.MultiBaasURL, appCfg.MultiBaasAPIKey, logger)
	if err != nil {
		return nil, err
	}

	var uploadProxy http.Handler
	if appCfg.StorageToken != "" {
		p, err := proxy.New(appCfg.UploadTarget, appCfg.StorageToken, logger)
		if err != nil {
			return nil, err
		}
		uploadProxy = p
	}

	r := chi.NewRouter()
	if appCfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.StripSlashes)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Book, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Proxies
	uploadHandler := uploadfeature.NewHandler(uploadProxy, appCfg.UploadMaxBytes, logger)
	if appCfg.UploadRateLimit > 0 {
		limiter := ratelimit.New(appCfg.UploadRateLimit, limits.UploadWindow)
		r.With(ratelimit.PerClient(limiter, logger)).Post("/upload", uploadHandler.Serve)
	} else {
		r.Post("/upload", uploadHandler.Serve)
	}

	chainHandler := chainapifeature.NewHandler(chainProxy, logger)
	r.Mount(multibaas.AddressesPath, chainapifeature.Routes(chainHandler))

	// Client bootstrap document
	appConfigHandler := appconfigfeature.NewHandler(string(variant), routes, theme.Default(),
		multibaas.AddressesPath, deps.Book, logger)
	r.Mount("/app-config.json", appconfigfeature.Routes(appConfigHandler))

	// Single-page app: assets, declared client routes, 404 for the rest
	spaHandler := spafeature.NewHandler(appCfg.FrontendDir, routes, logger)
	spafeature.Register(r, spaHandler)

	logger.Info("routes built",
		zap.String("variant", string(variant)),
		zap.Int("client_routes", len(routes)),
		zap.Bool("uploads", uploadProxy != nil),
		zap.Bool("trust_proxy_headers", appCfg.TrustProxyHeaders))

	return r, nil
}
