package migration

import (
	"context"

	"github.com/dalemusser/nftjr/internal/domain/models"
	"github.com/google/uuid"
)

// Ledger appends completed steps to durable storage.
type Ledger interface {
	Append(ctx context.Context, step models.MigrationStep) (models.MigrationStep, error)
}

// LedgerRecorder stamps each step with the run id and network before
// appending it to a Ledger.
type LedgerRecorder struct {
	Ledger    Ledger
	RunID     string
	Network   string
	NetworkID uint64
}

// NewLedgerRecorder starts a new run with a fresh run id.
func NewLedgerRecorder(l Ledger, network string, networkID uint64) *LedgerRecorder {
	return &LedgerRecorder{
		Ledger:    l,
		RunID:     uuid.NewString(),
		Network:   network,
		NetworkID: networkID,
	}
}

// Record implements Recorder.
func (r *LedgerRecorder) Record(ctx context.Context, step models.MigrationStep) error {
	step.RunID = r.RunID
	step.Network = r.Network
	step.NetworkID = r.NetworkID
	_, err := r.Ledger.Append(ctx, step)
	return err
}
