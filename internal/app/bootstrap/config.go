// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"net/url"
	"time"

	"github.com/dalemusser/nftjr/internal/app/system/clientroutes"
	"github.com/dalemusser/nftjr/internal/app/system/limits"
	"github.com/dalemusser/nftjr/internal/app/system/timeouts"
	"github.com/dalemusser/nftjr/internal/deploy/multibaas"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for nftjr.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, route_variant, etc.
//   - Environment variables: NFTJR_MONGO_URI, NFTJR_ROUTE_VARIANT, etc.
//   - Command-line flags: --mongo_uri, --route_variant, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI (migration ledger)"},
	{Name: "mongo_database", Default: "nftjr", Desc: "MongoDB database name"},
	{Name: "network", Default: "development", Desc: "Network whose deployed contracts the client uses"},

	// Single-page app
	{Name: "frontend_dir", Default: "../frontend/dist", Desc: "Directory holding the built frontend"},
	{Name: "route_variant", Default: string(clientroutes.Default), Desc: "Client route table: 'store' or 'login'"},

	// Upload proxy
	{Name: "storage_token", Default: "", Desc: "Bearer token for the storage service (uploads disabled when blank)"},
	{Name: "upload_target", Default: "https://nft.storage/api", Desc: "Storage service URL that POST /upload forwards to"},
	{Name: "upload_max_bytes", Default: limits.DefaultMaxUploadSize, Desc: "Largest accepted upload body in bytes"},
	{Name: "upload_rate_limit", Default: limits.DefaultUploadsPerWindow, Desc: "Uploads per client IP per minute (0 disables)"},
	{Name: "trust_proxy_headers", Default: false, Desc: "Take the client IP from X-Real-IP/X-Forwarded-For (only behind a trusted reverse proxy)"},

	// MultiBaas
	{Name: "multibaas_url", Default: "http://localhost:8080", Desc: "MultiBaas deployment URL"},
	{Name: "multibaas_api_key", Default: "", Desc: "MultiBaas API key (attached server-side to /api/v0 requests)"},

	{Name: "addressbook_refresh", Default: "1m", Desc: "How often to re-read deployed addresses from the ledger (0 disables)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, NFTJR_* for app) and
// command-line flags, merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "NFTJR", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:      appValues.String("mongo_uri"),
		MongoDatabase: appValues.String("mongo_database"),
		Network:       appValues.String("network"),

		FrontendDir:  appValues.String("frontend_dir"),
		RouteVariant: appValues.String("route_variant"),

		StorageToken:    appValues.String("storage_token"),
		UploadTarget:    appValues.String("upload_target"),
		UploadMaxBytes:  int64(appValues.Int("upload_max_bytes")),
		UploadRateLimit: appValues.Int("upload_rate_limit"),

		TrustProxyHeaders: appValues.Bool("trust_proxy_headers"),

		MultiBaasURL:    appValues.String("multibaas_url"),
		MultiBaasAPIKey: appValues.String("multibaas_api_key"),

		AddressBookRefresh: appValues.Duration("addressbook_refresh", time.Minute),
	}

	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts overridden from environment", zap.Int("count", n))
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.Network == "" {
		return fmt.Errorf("network must be set")
	}

	if _, err := clientroutes.Parse(appCfg.RouteVariant); err != nil {
		return err
	}

	if err := checkAbsoluteURL("upload_target", appCfg.UploadTarget); err != nil {
		return err
	}
	if err := checkAbsoluteURL("multibaas_url", appCfg.MultiBaasURL); err != nil {
		return err
	}

	switch appCfg.MultiBaasAPIKey {
	case multibaas.PlaceholderAPIKey:
		return fmt.Errorf("multibaas_api_key is still the placeholder %q", multibaas.PlaceholderAPIKey)
	case "":
		logger.Warn("multibaas_api_key is blank; /api/v0 requests will be forwarded unauthenticated")
	}

	if appCfg.StorageToken == "" {
		logger.Warn("storage_token is blank; POST /upload is disabled")
	}

	if appCfg.UploadMaxBytes < 0 || appCfg.UploadRateLimit < 0 {
		return fmt.Errorf("upload_max_bytes and upload_rate_limit must not be negative")
	}

	if appCfg.AddressBookRefresh < 0 {
		return fmt.Errorf("addressbook_refresh must not be negative (got %s)", appCfg.AddressBookRefresh)
	}

	return nil
}

func checkAbsoluteURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL (got %q)", key, raw)
	}
	return nil
}
