// Package config holds the network, compiler and provider configuration for
// contract migrations.
//
// A Config is built once at process start from NFTJR_* environment variables
// (optionally seeded from a .env file) and passed by reference to the
// deployment routine. Nothing here is global.
package config

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"io/fs"
	"math/big"
	"net/url"
	"slices"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// EnvPrefix is prepended to every variable name below.
const EnvPrefix = "NFTJR_"

// Config is the complete migration configuration.
type Config struct {
	Network  Network
	Provider Provider
	Compiler Compiler
	Deployer Deployer
	Ledger   Ledger

	ArtifactsDir string `env:"ARTIFACTS_DIR" envDefault:"build/contracts"`
}

// Network describes the deployment target and per-transaction gas settings.
type Network struct {
	Name     string `env:"NETWORK" envDefault:"development"`
	ID       uint64 `env:"NETWORK_ID,required,notEmpty"`
	GasLimit uint64 `env:"GAS_LIMIT" envDefault:"8000000"`
	GasPrice int64  `env:"GAS_PRICE" envDefault:"1"` // wei
}

// Provider binds the deployer key to a MultiBaas deployment.
type Provider struct {
	PrivateKey   string `env:"DEPLOYER_PRIVATE_KEY,required,notEmpty"`
	DeploymentID string `env:"MULTIBAAS_DEPLOYMENT_ID,required,notEmpty"`
	APIKey       string `env:"MULTIBAAS_API_KEY,required,notEmpty"`
	URL          string `env:"MULTIBAAS_URL"` // blank: derived from DeploymentID
}

// Compiler records the solc settings the artifacts must have been built with.
type Compiler struct {
	Version   string `env:"SOLC_VERSION" envDefault:"0.6.8"`
	Optimizer Optimizer
}

// Optimizer settings. Most contracts exceed the 24 KB size limit without it.
type Optimizer struct {
	Enabled bool `env:"SOLC_OPTIMIZER" envDefault:"true"`
	Runs    int  `env:"SOLC_OPTIMIZER_RUNS" envDefault:"200"`
}

// Deployer controls MultiBaas address label handling.
type Deployer struct {
	// AllowUpdateAddress lists networks on which an existing address label
	// may be re-pointed at a fresh deployment.
	AllowUpdateAddress []string `env:"ALLOW_UPDATE_ADDRESS" envSeparator:"," envDefault:"development"`
}

// Ledger is where completed migration steps are recorded.
type Ledger struct {
	MongoURI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"nftjr"`
}

// Load reads the given .env files (default ".env"; missing files are
// skipped), then parses NFTJR_* variables from the process environment
// and validates the result.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return Parse(nil)
}

// Parse builds a Config from environ (nil means the process environment)
// and validates it.
func Parse(environ map[string]string) (Config, error) {
	var cfg Config
	opts := env.Options{Prefix: EnvPrefix, Environment: environ}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that parse cleanly but are unusable.
func (c Config) Validate() error {
	if c.Network.ID == 0 {
		return errors.New(EnvPrefix + "NETWORK_ID must be non-zero")
	}
	if c.Network.GasLimit == 0 {
		return errors.New(EnvPrefix + "GAS_LIMIT must be non-zero")
	}
	if c.Network.GasPrice < 0 {
		return errors.New(EnvPrefix + "GAS_PRICE must not be negative")
	}
	if _, err := c.DeployerKey(); err != nil {
		return err
	}
	if _, err := url.ParseRequestURI(c.MultiBaasURL()); err != nil {
		return fmt.Errorf("invalid MultiBaas URL %q: %w", c.MultiBaasURL(), err)
	}
	if strings.TrimSpace(c.Compiler.Version) == "" {
		return errors.New(EnvPrefix + "SOLC_VERSION must be set")
	}
	if c.Compiler.Optimizer.Enabled && c.Compiler.Optimizer.Runs <= 0 {
		return errors.New(EnvPrefix + "SOLC_OPTIMIZER_RUNS must be positive when the optimizer is enabled")
	}
	return nil
}

// DeployerKey parses the deployer private key. A leading 0x is accepted.
func (c Config) DeployerKey() (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(c.Provider.PrivateKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid %sDEPLOYER_PRIVATE_KEY: %w", EnvPrefix, err)
	}
	return key, nil
}

// DeployerAddress is the account that signs every migration transaction.
func (c Config) DeployerAddress() common.Address {
	key, err := c.DeployerKey()
	if err != nil {
		return common.Address{}
	}
	return crypto.PubkeyToAddress(key.PublicKey)
}

// MultiBaasURL is the deployment's base URL, without a trailing slash.
func (c Config) MultiBaasURL() string {
	if u := strings.TrimSpace(c.Provider.URL); u != "" {
		return strings.TrimRight(u, "/")
	}
	return fmt.Sprintf("https://%s.multibaas.com", c.Provider.DeploymentID)
}

// Web3URL is the JSON-RPC endpoint MultiBaas exposes for the deployment.
func (c Config) Web3URL() string {
	return c.MultiBaasURL() + "/web3/" + c.Provider.APIKey
}

// GasPriceWei returns the configured gas price as a big.Int.
func (c Config) GasPriceWei() *big.Int {
	return big.NewInt(c.Network.GasPrice)
}

// AllowsAddressUpdate reports whether existing address labels may be
// re-pointed on the configured network.
func (c Config) AllowsAddressUpdate() bool {
	return slices.Contains(c.Deployer.AllowUpdateAddress, c.Network.Name)
}

// LogFields returns the non-secret settings for structured logging.
func (c Config) LogFields() []zap.Field {
	return []zap.Field{
		zap.String("network", c.Network.Name),
		zap.Uint64("network_id", c.Network.ID),
		zap.Uint64("gas_limit", c.Network.GasLimit),
		zap.Int64("gas_price_wei", c.Network.GasPrice),
		zap.String("multibaas_url", c.MultiBaasURL()),
		zap.String("deployer", c.DeployerAddress().Hex()),
		zap.String("solc", c.Compiler.Version),
		zap.Bool("optimizer", c.Compiler.Optimizer.Enabled),
		zap.Int("optimizer_runs", c.Compiler.Optimizer.Runs),
		zap.Bool("allow_update_address", c.AllowsAddressUpdate()),
	}
}
