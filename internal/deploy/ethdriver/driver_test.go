package ethdriver

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/dalemusser/nftjr/internal/deploy/artifacts"
	"github.com/dalemusser/nftjr/internal/deploy/config"
	"github.com/dalemusser/nftjr/internal/deploy/multibaas"
	"github.com/dalemusser/nftjr/internal/domain/models"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

const testKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

// fakeBackend only answers network queries; any other call panics on the
// nil embedded interface, which is how these tests prove nothing was sent.
type fakeBackend struct {
	Backend
	networkID *big.Int
	chainID   *big.Int
}

func (b *fakeBackend) NetworkID(ctx context.Context) (*big.Int, error) { return b.networkID, nil }
func (b *fakeBackend) ChainID(ctx context.Context) (*big.Int, error)   { return b.chainID, nil }

type fakeLabels struct {
	addresses map[string]string
	contracts map[string]bool
	uploaded  []string
	deleted   []string
}

func newFakeLabels() *fakeLabels {
	return &fakeLabels{addresses: map[string]string{}, contracts: map[string]bool{}}
}

func notFound(path string) error {
	return &multibaas.APIError{StatusCode: 404, Message: "not found", Path: path}
}

func (f *fakeLabels) GetAddress(ctx context.Context, label string) (multibaas.AddressInfo, error) {
	addr, ok := f.addresses[label]
	if !ok {
		return multibaas.AddressInfo{}, notFound(label)
	}
	return multibaas.AddressInfo{Label: label, Address: addr}, nil
}

func (f *fakeLabels) CreateAddress(ctx context.Context, label, address string) error {
	f.addresses[label] = address
	return nil
}

func (f *fakeLabels) DeleteAddress(ctx context.Context, label string) error {
	f.deleted = append(f.deleted, label)
	delete(f.addresses, label)
	return nil
}

func (f *fakeLabels) GetContract(ctx context.Context, label, version string) (multibaas.ContractInfo, error) {
	if !f.contracts[label+"@"+version] {
		return multibaas.ContractInfo{}, notFound(label)
	}
	return multibaas.ContractInfo{Label: label, Version: version}, nil
}

func (f *fakeLabels) UploadContract(ctx context.Context, up multibaas.ContractUpload) error {
	f.uploaded = append(f.uploaded, up.Label+"@"+up.Version)
	f.contracts[up.Label+"@"+up.Version] = true
	return nil
}

func (f *fakeLabels) LinkContract(ctx context.Context, addressLabel, contractLabel, version string) error {
	return nil
}

type staticArtifacts map[string]artifacts.Artifact

func (s staticArtifacts) Load(name string) (artifacts.Artifact, error) {
	a, ok := s[name]
	if !ok {
		return artifacts.Artifact{}, errors.New("no artifact " + name)
	}
	return a, nil
}

func testConfig(t *testing.T, network string) config.Config {
	t.Helper()
	cfg, err := config.Parse(map[string]string{
		"NFTJR_DEPLOYER_PRIVATE_KEY":    testKey,
		"NFTJR_NETWORK_ID":              "5",
		"NFTJR_NETWORK":                 network,
		"NFTJR_MULTIBAAS_DEPLOYMENT_ID": "abc",
		"NFTJR_MULTIBAAS_API_KEY":       "k",
	})
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func TestNew_NetworkMismatch(t *testing.T) {
	backend := &fakeBackend{networkID: big.NewInt(1), chainID: big.NewInt(1)}

	_, err := New(context.Background(), backend, newFakeLabels(), staticArtifacts{}, testConfig(t, "development"), zap.NewNop())
	if !errors.Is(err, ErrNetworkMismatch) {
		t.Fatalf("got %v, want ErrNetworkMismatch", err)
	}
}

func TestNew_UsesConfiguredGas(t *testing.T) {
	backend := &fakeBackend{networkID: big.NewInt(5), chainID: big.NewInt(1337)}

	d, err := New(context.Background(), backend, newFakeLabels(), staticArtifacts{}, testConfig(t, "development"), zap.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	opts, err := d.transactOpts(context.Background())
	if err != nil {
		t.Fatalf("transactOpts: %v", err)
	}
	if opts.GasLimit != 8000000 {
		t.Errorf("GasLimit: got %d", opts.GasLimit)
	}
	if opts.GasPrice.Cmp(big.NewInt(1)) != 0 {
		t.Errorf("GasPrice: got %s, want 1 wei", opts.GasPrice)
	}
	if got, want := opts.From.Hex(), "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"; got != want {
		t.Errorf("From: got %s, want %s", got, want)
	}
}

func TestDeploy_LabelTakenFailsBeforeSending(t *testing.T) {
	backend := &fakeBackend{networkID: big.NewInt(5), chainID: big.NewInt(5)}
	labels := newFakeLabels()
	labels.addresses["market"] = "0x00000000000000000000000000000000000000aa"
	arts := staticArtifacts{"Market": {ContractName: "Market", Bytecode: []byte{0x60}}}

	d, err := New(context.Background(), backend, labels, arts, testConfig(t, "production"), zap.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	rec := models.DeploymentRecord{ContractLabel: "market", ContractVersion: "1.0", AddressLabel: "market"}
	_, err = d.Deploy(context.Background(), rec, "Market")
	if !errors.Is(err, ErrLabelTaken) {
		t.Fatalf("got %v, want ErrLabelTaken", err)
	}
	if len(labels.deleted) != 0 {
		t.Errorf("label should not be deleted on a protected network, deleted %v", labels.deleted)
	}
}

func TestClaimLabel_ReplacesWhenAllowed(t *testing.T) {
	backend := &fakeBackend{networkID: big.NewInt(5), chainID: big.NewInt(5)}
	labels := newFakeLabels()
	labels.addresses["media"] = "0x00000000000000000000000000000000000000bb"

	d, err := New(context.Background(), backend, labels, staticArtifacts{}, testConfig(t, "development"), zap.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := d.claimLabel(context.Background(), "media"); err != nil {
		t.Fatalf("claimLabel: %v", err)
	}
	if len(labels.deleted) != 1 || labels.deleted[0] != "media" {
		t.Errorf("deleted: got %v, want [media]", labels.deleted)
	}
}

func TestEnsureContract_UploadsOnce(t *testing.T) {
	backend := &fakeBackend{networkID: big.NewInt(5), chainID: big.NewInt(5)}
	labels := newFakeLabels()
	d, err := New(context.Background(), backend, labels, staticArtifacts{}, testConfig(t, "development"), zap.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	rec := models.DeploymentRecord{ContractLabel: "families", ContractVersion: "1.0", AddressLabel: "families"}
	art := artifacts.Artifact{ContractName: "Families", Bytecode: []byte{0x60, 0x80}}

	for i := 0; i < 2; i++ {
		if err := d.ensureContract(context.Background(), rec, art); err != nil {
			t.Fatalf("ensureContract #%d: %v", i+1, err)
		}
	}
	if len(labels.uploaded) != 1 || labels.uploaded[0] != "families@1.0" {
		t.Errorf("uploaded: got %v, want [families@1.0]", labels.uploaded)
	}
}

func TestConvertArgs(t *testing.T) {
	in := []any{models.Address("0x00000000000000000000000000000000000000aa"), "Smith"}
	out, err := convertArgs(in)
	if err != nil {
		t.Fatalf("convertArgs: %v", err)
	}
	if _, ok := out[0].(common.Address); !ok {
		t.Errorf("arg 0: got %T, want common.Address", out[0])
	}
	if out[1] != "Smith" {
		t.Errorf("arg 1: got %v", out[1])
	}

	if _, err := convertArgs([]any{models.Address("nope")}); err == nil {
		t.Error("expected error for malformed address")
	}
}
