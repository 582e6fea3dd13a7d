// internal/app/store/deployments/deploymentsstore.go
package deploymentsstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/nftjr/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the ledger collection shared by the migrate CLI and the server.
const CollectionName = "migration_steps"

// ErrNoRuns is returned by LatestRun when the network has no recorded steps.
var ErrNoRuns = errors.New("no migration runs recorded")

// ErrDuplicateStep is returned by Append when the run already has a step
// with the same sequence number.
var ErrDuplicateStep = errors.New("step already recorded for this run")

// Store provides access to the migration ledger.
// Steps are append-only; a re-run adds new documents under a new run id.
type Store struct {
	c *mongo.Collection
}

// New creates a new deployments store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(CollectionName)}
}

// Append records one completed step. ID and CreatedAt are filled in when unset.
func (s *Store) Append(ctx context.Context, step models.MigrationStep) (models.MigrationStep, error) {
	if step.ID.IsZero() {
		step.ID = primitive.NewObjectID()
	}
	if step.CreatedAt.IsZero() {
		step.CreatedAt = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, step); err != nil {
		if wafflemongo.IsDup(err) {
			return models.MigrationStep{}, ErrDuplicateStep
		}
		return models.MigrationStep{}, err
	}
	return step, nil
}

// ListRun returns every step of a run in execution order.
func (s *Store) ListRun(ctx context.Context, runID string) ([]models.MigrationStep, error) {
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"run_id": runID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.MigrationStep
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LatestRun returns the steps of the most recent run on the network.
func (s *Store) LatestRun(ctx context.Context, network string) ([]models.MigrationStep, error) {
	var last models.MigrationStep
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "seq", Value: -1}})
	err := s.c.FindOne(ctx, bson.M{"network": network}, opts).Decode(&last)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, err
	}
	return s.ListRun(ctx, last.RunID)
}

// LatestAddresses returns, for each address label on the network, the most
// recent deploy step. Older deployments under the same label are shadowed.
func (s *Store) LatestAddresses(ctx context.Context, network string) (map[string]models.MigrationStep, error) {
	filter := bson.M{"network": network, "kind": models.StepKindDeploy}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "seq", Value: -1}})

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[string]models.MigrationStep)
	for cur.Next(ctx) {
		var step models.MigrationStep
		if err := cur.Decode(&step); err != nil {
			return nil, err
		}
		if _, seen := out[step.AddressLabel]; seen {
			continue
		}
		out[step.AddressLabel] = step
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
