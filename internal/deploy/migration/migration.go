// Package migration deploys and wires the Market, Families and Media
// contracts.
//
// Order matters: Media's constructor takes the Market and Families
// addresses, and Market is configured with Media's address only after Media
// exists. Every step waits for its transaction to be mined before the next
// one starts. The first failure aborts the run; nothing is retried or
// rolled back, and re-running deploys fresh instances.
package migration

import (
	"context"
	"fmt"

	"github.com/dalemusser/nftjr/internal/domain/models"
	"go.uber.org/zap"
)

// Contract names as they appear in the build artifacts.
const (
	MarketContract   = "Market"
	FamiliesContract = "Families"
	MediaContract    = "Media"
)

// Arguments for the family every fresh deployment starts with.
const (
	FirstFamilyName  = "Smith"
	FirstFamilyRole  = "Dad"
	FirstFamilyEmoji = "👨"
)

// Deployment records for each contract.
var (
	MarketRecord   = models.DeploymentRecord{ContractLabel: "market", ContractVersion: "1.0", AddressLabel: "market"}
	FamiliesRecord = models.DeploymentRecord{ContractLabel: "families", ContractVersion: "1.0", AddressLabel: "families"}
	MediaRecord    = models.DeploymentRecord{ContractLabel: "media", ContractVersion: "1.0", AddressLabel: "media"}
)

// Contract is a deployed instance that accepts state-changing calls.
type Contract interface {
	// Transact sends method(args...) and waits until it is mined.
	Transact(ctx context.Context, method string, args ...any) (models.Receipt, error)
}

// Deployment is what a driver returns for one deployed contract.
type Deployment struct {
	Receipt  models.Receipt
	Address  models.Address
	Instance Contract
}

// Driver submits contract creations and records their addresses.
// Address arguments are passed as models.Address.
type Driver interface {
	Deploy(ctx context.Context, rec models.DeploymentRecord, contract string, args ...any) (Deployment, error)
}

// Recorder is told about each step as soon as it completes.
type Recorder interface {
	Record(ctx context.Context, step models.MigrationStep) error
}

// Options tune a run. The zero value is usable.
type Options struct {
	Recorder Recorder
	Logger   *zap.Logger
}

// Result holds the deployed addresses and every completed step.
type Result struct {
	Market   models.Address
	Families models.Address
	Media    models.Address
	Steps    []models.MigrationStep
}

// StepError identifies the step a run failed on.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string { return fmt.Sprintf("migration step %q: %v", e.Step, e.Err) }
func (e *StepError) Unwrap() error { return e.Err }

// PlannedStep describes one step of the fixed plan.
type PlannedStep struct {
	Name   string
	Kind   string
	Target string   // contract name
	Args   []string // symbolic for addresses, literal otherwise
}

// Plan returns the ordered steps Run performs.
func Plan() []PlannedStep {
	return []PlannedStep{
		{Name: "deploy market", Kind: models.StepKindDeploy, Target: MarketContract},
		{Name: "deploy families", Kind: models.StepKindDeploy, Target: FamiliesContract},
		{Name: "deploy media", Kind: models.StepKindDeploy, Target: MediaContract, Args: []string{"<market>", "<families>"}},
		{Name: "configure market", Kind: models.StepKindCall, Target: MarketContract, Args: []string{"<media>"}},
		{Name: "start first family", Kind: models.StepKindCall, Target: FamiliesContract, Args: []string{FirstFamilyName, FirstFamilyRole, FirstFamilyEmoji}},
	}
}

type runner struct {
	driver Driver
	opts   Options
	log    *zap.Logger
	result Result
}

// Run executes the migration against driver.
func Run(ctx context.Context, driver Driver, opts Options) (Result, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	r := &runner{driver: driver, opts: opts, log: log}

	market, err := r.deploy(ctx, "deploy market", &r.result.Market, MarketRecord, MarketContract)
	if err != nil {
		return r.result, err
	}

	families, err := r.deploy(ctx, "deploy families", &r.result.Families, FamiliesRecord, FamiliesContract)
	if err != nil {
		return r.result, err
	}

	media, err := r.deploy(ctx, "deploy media", &r.result.Media, MediaRecord, MediaContract, market.Address, families.Address)
	if err != nil {
		return r.result, err
	}

	if err := r.call(ctx, "configure market", market, MarketRecord, "configure", media.Address); err != nil {
		return r.result, err
	}

	if err := r.call(ctx, "start first family", families, FamiliesRecord, "startFirstFamily",
		FirstFamilyName, FirstFamilyRole, FirstFamilyEmoji); err != nil {
		return r.result, err
	}

	log.Info("migration complete",
		zap.String("market", market.Address.String()),
		zap.String("families", families.Address.String()),
		zap.String("media", media.Address.String()))
	return r.result, nil
}

// deploy stores the new address in *addr as soon as the contract exists on
// chain, so a failed record still reports what was deployed.
func (r *runner) deploy(ctx context.Context, name string, addr *models.Address, rec models.DeploymentRecord, contract string, args ...any) (Deployment, error) {
	r.log.Info("deploying contract",
		zap.String("contract", contract),
		zap.String("address_label", rec.AddressLabel),
		zap.Strings("args", stringArgs(args)))

	d, err := r.driver.Deploy(ctx, rec, contract, args...)
	if err != nil {
		return Deployment{}, &StepError{Step: name, Err: err}
	}
	if d.Instance == nil || d.Address == "" {
		return Deployment{}, &StepError{Step: name, Err: fmt.Errorf("driver returned no address or instance for %s", contract)}
	}
	*addr = d.Address

	step := models.MigrationStep{
		Kind:             models.StepKindDeploy,
		DeploymentRecord: rec,
		ContractName:     contract,
		Address:          d.Address,
		Args:             stringArgs(args),
		Receipt:          d.Receipt,
	}
	if err := r.record(ctx, name, step); err != nil {
		return Deployment{}, err
	}

	r.log.Info("contract deployed",
		zap.String("contract", contract),
		zap.String("address", d.Address.String()),
		zap.String("tx", d.Receipt.TxHash))
	return d, nil
}

func (r *runner) call(ctx context.Context, name string, target Deployment, rec models.DeploymentRecord, method string, args ...any) error {
	r.log.Info("calling contract",
		zap.String("address_label", rec.AddressLabel),
		zap.String("method", method),
		zap.Strings("args", stringArgs(args)))

	receipt, err := target.Instance.Transact(ctx, method, args...)
	if err != nil {
		return &StepError{Step: name, Err: err}
	}

	step := models.MigrationStep{
		Kind:             models.StepKindCall,
		DeploymentRecord: rec,
		Address:          target.Address,
		Method:           method,
		Args:             stringArgs(args),
		Receipt:          receipt,
	}
	return r.record(ctx, name, step)
}

func (r *runner) record(ctx context.Context, name string, step models.MigrationStep) error {
	step.Seq = len(r.result.Steps) + 1
	if r.opts.Recorder != nil {
		if err := r.opts.Recorder.Record(ctx, step); err != nil {
			return &StepError{Step: name, Err: fmt.Errorf("record step: %w", err)}
		}
	}
	r.result.Steps = append(r.result.Steps, step)
	return nil
}

func stringArgs(args []any) []string {
	if len(args) == 0 {
		return nil
	}
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = fmt.Sprint(a)
	}
	return out
}
