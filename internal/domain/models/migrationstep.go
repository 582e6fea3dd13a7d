// internal/domain/models/migrationstep.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Step kinds recorded in the migration ledger.
const (
	StepKindDeploy = "deploy"
	StepKindCall   = "call"
)

// MigrationStep is one completed step of a migration run, as stored in the
// migration_steps collection. Deploy steps carry the deployed address; call
// steps carry the target label, method and arguments.
type MigrationStep struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	RunID string             `bson:"run_id" json:"run_id"` // uuid shared by every step of one run
	Seq   int                `bson:"seq" json:"seq"`       // 1-based order within the run

	Network   string `bson:"network" json:"network"`
	NetworkID uint64 `bson:"network_id" json:"network_id"`
	Kind      string `bson:"kind" json:"kind"`

	// Deploy steps
	DeploymentRecord `bson:",inline"`
	ContractName     string  `bson:"contract_name,omitempty" json:"contract_name,omitempty"`
	Address          Address `bson:"address,omitempty" json:"address,omitempty"`

	// Call steps
	Method string   `bson:"method,omitempty" json:"method,omitempty"`
	Args   []string `bson:"args,omitempty" json:"args,omitempty"`

	Receipt   `bson:",inline"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// IsDeploy reports whether the step deployed a contract.
func (s MigrationStep) IsDeploy() bool { return s.Kind == StepKindDeploy }
