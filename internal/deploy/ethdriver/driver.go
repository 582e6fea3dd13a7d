// Package ethdriver is the go-ethereum implementation of migration.Driver.
//
// Transactions are signed locally with the deployer key and submitted
// through the MultiBaas JSON-RPC proxy. Around each deployment the driver
// maintains MultiBaas labels the way the truffle deployer plugin does:
// upload the contract if missing, claim the address label, and link the
// label to the contract once the deployment is mined.
package ethdriver

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"github.com/dalemusser/nftjr/internal/app/system/timeouts"
	"github.com/dalemusser/nftjr/internal/deploy/artifacts"
	"github.com/dalemusser/nftjr/internal/deploy/config"
	"github.com/dalemusser/nftjr/internal/deploy/migration"
	"github.com/dalemusser/nftjr/internal/deploy/multibaas"
	"github.com/dalemusser/nftjr/internal/domain/models"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

var (
	// ErrReverted is returned when a mined transaction has a failed status.
	ErrReverted = errors.New("transaction reverted")
	// ErrLabelTaken is returned when the address label already exists and
	// the network does not allow updating it.
	ErrLabelTaken = errors.New("address label already exists")
	// ErrNetworkMismatch is returned when the RPC endpoint reports a
	// different network id than configured.
	ErrNetworkMismatch = errors.New("network id mismatch")
)

// Backend is the chain access the driver needs. *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	NetworkID(ctx context.Context) (*big.Int, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// Labels is the MultiBaas label API. *multibaas.Client satisfies it.
type Labels interface {
	GetAddress(ctx context.Context, label string) (multibaas.AddressInfo, error)
	CreateAddress(ctx context.Context, label, address string) error
	DeleteAddress(ctx context.Context, label string) error
	GetContract(ctx context.Context, label, version string) (multibaas.ContractInfo, error)
	UploadContract(ctx context.Context, up multibaas.ContractUpload) error
	LinkContract(ctx context.Context, addressLabel, contractLabel, version string) error
}

// ArtifactSource loads compiled contracts by name. *artifacts.Loader satisfies it.
type ArtifactSource interface {
	Load(name string) (artifacts.Artifact, error)
}

// Driver deploys contracts and sends transactions as the deployer account.
type Driver struct {
	backend     Backend
	labels      Labels
	arts        ArtifactSource
	key         *ecdsa.PrivateKey
	chainID     *big.Int
	gasLimit    uint64
	gasPrice    *big.Int
	allowUpdate bool
	log         *zap.Logger
}

// New checks that backend is on the configured network and returns a driver.
// No transaction is sent.
func New(ctx context.Context, backend Backend, labels Labels, arts ArtifactSource, cfg config.Config, logger *zap.Logger) (*Driver, error) {
	key, err := cfg.DeployerKey()
	if err != nil {
		return nil, err
	}

	netID, err := backend.NetworkID(ctx)
	if err != nil {
		return nil, fmt.Errorf("read network id: %w", err)
	}
	if !netID.IsUint64() || netID.Uint64() != cfg.Network.ID {
		return nil, fmt.Errorf("%w: endpoint reports %s, configured %d", ErrNetworkMismatch, netID, cfg.Network.ID)
	}

	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("read chain id: %w", err)
	}

	return &Driver{
		backend:     backend,
		labels:      labels,
		arts:        arts,
		key:         key,
		chainID:     chainID,
		gasLimit:    cfg.Network.GasLimit,
		gasPrice:    cfg.GasPriceWei(),
		allowUpdate: cfg.AllowsAddressUpdate(),
		log:         logger,
	}, nil
}

// Dial connects to the MultiBaas deployment described by cfg and returns a
// driver plus a close function for the RPC connection.
func Dial(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Driver, func(), error) {
	dialCtx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	client, err := ethclient.DialContext(dialCtx, cfg.Web3URL())
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", cfg.MultiBaasURL(), err)
	}

	labels := multibaas.NewClient(ctx, cfg.MultiBaasURL(), cfg.Provider.APIKey, logger)
	arts := artifacts.NewLoader(cfg.ArtifactsDir, cfg.Compiler)

	d, err := New(dialCtx, client, labels, arts, cfg, logger)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return d, client.Close, nil
}

// Deploy implements migration.Driver.
func (d *Driver) Deploy(ctx context.Context, rec models.DeploymentRecord, contract string, args ...any) (migration.Deployment, error) {
	art, err := d.arts.Load(contract)
	if err != nil {
		return migration.Deployment{}, err
	}

	params, err := convertArgs(args)
	if err != nil {
		return migration.Deployment{}, fmt.Errorf("%s constructor: %w", contract, err)
	}

	if err := d.ensureContract(ctx, rec, art); err != nil {
		return migration.Deployment{}, err
	}
	if err := d.claimLabel(ctx, rec.AddressLabel); err != nil {
		return migration.Deployment{}, err
	}

	opts, err := d.transactOpts(ctx)
	if err != nil {
		return migration.Deployment{}, err
	}

	addr, tx, bound, err := bind.DeployContract(opts, art.ABI, art.Bytecode, d.backend, params...)
	if err != nil {
		return migration.Deployment{}, fmt.Errorf("deploy %s: %w", contract, err)
	}
	d.log.Debug("deployment submitted",
		zap.String("contract", contract),
		zap.String("tx", tx.Hash().Hex()),
		zap.String("address", addr.Hex()))

	receipt, err := d.waitMined(ctx, tx, "deploy "+contract)
	if err != nil {
		return migration.Deployment{}, err
	}

	if err := d.labels.CreateAddress(ctx, rec.AddressLabel, addr.Hex()); err != nil {
		return migration.Deployment{}, fmt.Errorf("label %s: %w", rec.AddressLabel, err)
	}
	if err := d.labels.LinkContract(ctx, rec.AddressLabel, rec.ContractLabel, rec.ContractVersion); err != nil {
		return migration.Deployment{}, fmt.Errorf("link %s to %s %s: %w", rec.AddressLabel, rec.ContractLabel, rec.ContractVersion, err)
	}

	return migration.Deployment{
		Receipt:  receipt,
		Address:  models.Address(addr.Hex()),
		Instance: &Contract{driver: d, name: contract, address: addr, bound: bound},
	}, nil
}

// ensureContract uploads the compiled contract under its label and version
// unless MultiBaas already has it.
func (d *Driver) ensureContract(ctx context.Context, rec models.DeploymentRecord, art artifacts.Artifact) error {
	_, err := d.labels.GetContract(ctx, rec.ContractLabel, rec.ContractVersion)
	if err == nil {
		return nil
	}
	if !multibaas.IsNotFound(err) {
		return fmt.Errorf("lookup contract %s %s: %w", rec.ContractLabel, rec.ContractVersion, err)
	}

	d.log.Info("uploading contract",
		zap.String("contract_label", rec.ContractLabel),
		zap.String("version", rec.ContractVersion))
	up := multibaas.ContractUpload{
		Label:        rec.ContractLabel,
		ContractName: art.ContractName,
		Version:      rec.ContractVersion,
		Bin:          "0x" + hex.EncodeToString(art.Bytecode),
		RawABI:       art.RawABI,
	}
	if err := d.labels.UploadContract(ctx, up); err != nil {
		return fmt.Errorf("upload contract %s %s: %w", rec.ContractLabel, rec.ContractVersion, err)
	}
	return nil
}

// claimLabel makes the address label available for the new deployment.
// Existing labels are removed only when the network allows address updates.
func (d *Driver) claimLabel(ctx context.Context, label string) error {
	existing, err := d.labels.GetAddress(ctx, label)
	if multibaas.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup address label %s: %w", label, err)
	}
	if !d.allowUpdate {
		return fmt.Errorf("%w: %s -> %s", ErrLabelTaken, label, existing.Address)
	}

	d.log.Info("replacing address label",
		zap.String("address_label", label),
		zap.String("previous", existing.Address))
	if err := d.labels.DeleteAddress(ctx, label); err != nil {
		return fmt.Errorf("delete address label %s: %w", label, err)
	}
	return nil
}

func (d *Driver) transactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(d.key, d.chainID)
	if err != nil {
		return nil, fmt.Errorf("transactor: %w", err)
	}
	opts.Context = ctx
	opts.GasLimit = d.gasLimit
	opts.GasPrice = d.gasPrice
	return opts, nil
}

func (d *Driver) waitMined(ctx context.Context, tx *types.Transaction, operation string) (models.Receipt, error) {
	waitCtx, cancel := timeouts.WithTimeout(ctx, timeouts.Mined(), d.log, operation)
	defer cancel()

	r, err := bind.WaitMined(waitCtx, d.backend, tx)
	if err != nil {
		return models.Receipt{}, fmt.Errorf("%s: wait for %s: %w", operation, tx.Hash().Hex(), err)
	}
	receipt := toReceipt(r)
	if r.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%s: %w (tx %s)", operation, ErrReverted, receipt.TxHash)
	}
	return receipt, nil
}

// Contract is a deployed instance bound to the driver's signer.
type Contract struct {
	driver  *Driver
	name    string
	address common.Address
	bound   *bind.BoundContract
}

// Transact implements migration.Contract.
func (c *Contract) Transact(ctx context.Context, method string, args ...any) (models.Receipt, error) {
	params, err := convertArgs(args)
	if err != nil {
		return models.Receipt{}, fmt.Errorf("%s.%s: %w", c.name, method, err)
	}
	opts, err := c.driver.transactOpts(ctx)
	if err != nil {
		return models.Receipt{}, err
	}
	tx, err := c.bound.Transact(opts, method, params...)
	if err != nil {
		return models.Receipt{}, fmt.Errorf("%s.%s: %w", c.name, method, err)
	}
	return c.driver.waitMined(ctx, tx, c.name+"."+method)
}

func toReceipt(r *types.Receipt) models.Receipt {
	out := models.Receipt{TxHash: r.TxHash.Hex(), GasUsed: r.GasUsed}
	if r.BlockNumber != nil {
		out.BlockNumber = r.BlockNumber.Uint64()
	}
	return out
}

// convertArgs maps driver-neutral argument types onto ABI types.
func convertArgs(args []any) ([]any, error) {
	out := make([]any, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case models.Address:
			if !common.IsHexAddress(string(v)) {
				return nil, fmt.Errorf("argument %d: %q is not an address", i, v)
			}
			out[i] = common.HexToAddress(string(v))
		default:
			out[i] = a
		}
	}
	return out, nil
}
