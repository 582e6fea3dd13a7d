package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	deploymentsstore "github.com/dalemusser/nftjr/internal/app/store/deployments"
	"github.com/dalemusser/nftjr/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating ledger test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// Deployed pairs an address label with the address it was deployed at.
type Deployed struct {
	Label   string
	Address string
}

// CreateRun inserts one deploy step per entry, in order, under a fresh run
// id, all stamped at the given time. It returns the run id.
func (f *Fixtures) CreateRun(ctx context.Context, network string, at time.Time, deployed ...Deployed) string {
	f.t.Helper()

	runID := uuid.NewString()
	coll := f.db.Collection(deploymentsstore.CollectionName)
	for i, d := range deployed {
		step := models.MigrationStep{
			ID:        primitive.NewObjectID(),
			RunID:     runID,
			Seq:       i + 1,
			Network:   network,
			NetworkID: 2017072401,
			Kind:      models.StepKindDeploy,
			DeploymentRecord: models.DeploymentRecord{
				ContractLabel:   d.Label,
				ContractVersion: "1.0",
				AddressLabel:    d.Label,
			},
			ContractName: d.Label,
			Address:      models.Address(d.Address),
			Receipt: models.Receipt{
				TxHash:      fmt.Sprintf("0x%064x", i+1),
				BlockNumber: uint64(i + 1),
				GasUsed:     21000,
			},
			CreatedAt: at,
		}
		if _, err := coll.InsertOne(ctx, step); err != nil {
			f.t.Fatalf("insert fixture step %s: %v", d.Label, err)
		}
	}
	return runID
}
