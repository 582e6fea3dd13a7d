// internal/app/system/addressbook/addressbook.go
package addressbook

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dalemusser/nftjr/internal/domain/models"
	"go.uber.org/zap"
)

// Source supplies the latest deploy step per address label.
type Source interface {
	LatestAddresses(ctx context.Context, network string) (map[string]models.MigrationStep, error)
}

// Entry is one deployed contract as the client sees it.
type Entry struct {
	Label           string         `json:"label"`
	Address         models.Address `json:"address"`
	ContractName    string         `json:"contract_name"`
	ContractVersion string         `json:"contract_version"`
	TxHash          string         `json:"tx_hash"`
	BlockNumber     uint64         `json:"block_number"`
	DeployedAt      time.Time      `json:"deployed_at"`
}

// Book is an in-memory snapshot of the deployed contract addresses for one
// network. It is safe for concurrent use.
type Book struct {
	src     Source
	network string
	log     *zap.Logger

	mu       sync.RWMutex
	entries  map[string]Entry
	loadedAt time.Time
}

// New creates an empty Book. Call Load before serving.
func New(src Source, network string, logger *zap.Logger) *Book {
	return &Book{
		src:     src,
		network: network,
		log:     logger,
		entries: map[string]Entry{},
	}
}

// Network returns the network the book tracks.
func (b *Book) Network() string { return b.network }

// Load replaces the snapshot with the ledger's current state. On error the
// previous snapshot is kept.
func (b *Book) Load(ctx context.Context) error {
	steps, err := b.src.LatestAddresses(ctx, b.network)
	if err != nil {
		return fmt.Errorf("load address book for %s: %w", b.network, err)
	}

	entries := make(map[string]Entry, len(steps))
	for label, s := range steps {
		entries[label] = Entry{
			Label:           label,
			Address:         s.Address,
			ContractName:    s.ContractName,
			ContractVersion: s.ContractVersion,
			TxHash:          s.TxHash,
			BlockNumber:     s.BlockNumber,
			DeployedAt:      s.CreatedAt,
		}
	}

	b.mu.Lock()
	changed := !sameAddresses(b.entries, entries)
	b.entries = entries
	b.loadedAt = time.Now().UTC()
	b.mu.Unlock()

	if len(entries) == 0 {
		b.log.Warn("address book is empty; run the migration for this network",
			zap.String("network", b.network))
	} else if changed {
		b.log.Info("address book loaded",
			zap.String("network", b.network),
			zap.Int("contracts", len(entries)))
	}
	return nil
}

// Get returns the entry for an address label.
func (b *Book) Get(label string) (Entry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.entries[label]
	return e, ok
}

// All returns every entry ordered by label.
func (b *Book) All() []Entry {
	b.mu.RLock()
	out := make([]Entry, 0, len(b.entries))
	for _, e := range b.entries {
		out = append(out, e)
	}
	b.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// Addresses returns label → address.
func (b *Book) Addresses() map[string]models.Address {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]models.Address, len(b.entries))
	for label, e := range b.entries {
		out[label] = e.Address
	}
	return out
}

// Len returns the number of labels in the snapshot.
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// LoadedAt is the time of the last successful Load, zero before the first.
func (b *Book) LoadedAt() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loadedAt
}

func sameAddresses(a, b map[string]Entry) bool {
	if len(a) != len(b) {
		return false
	}
	for label, e := range a {
		if b[label].Address != e.Address {
			return false
		}
	}
	return true
}
