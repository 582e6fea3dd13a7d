// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, logging, CORS); everything here is
// specific to nftjr.
type AppConfig struct {
	// MongoDB holds the migration ledger the address book is read from.
	MongoURI      string
	MongoDatabase string

	// Network selects which ledger entries the address book exposes.
	Network string

	// Single-page app
	FrontendDir  string // built frontend (index.html, js/, css/, ...)
	RouteVariant string // "store" or "login"

	// Upload proxy
	StorageToken    string // bearer token sent to the storage service
	UploadTarget    string // e.g. https://nft.storage/api
	UploadMaxBytes  int64  // largest accepted upload body
	UploadRateLimit int    // uploads per client IP per minute (0 disables)

	// TrustProxyHeaders takes the client IP from X-Real-IP / X-Forwarded-For.
	// Enable only behind a reverse proxy that sets them.
	TrustProxyHeaders bool

	// MultiBaas
	MultiBaasURL    string // scheme and host of the deployment
	MultiBaasAPIKey string // injected by the /api/v0 proxy; never sent to the browser

	// AddressBookRefresh is how often the ledger is re-read (0 disables).
	AddressBookRefresh time.Duration
}
