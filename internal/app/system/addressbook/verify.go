package addressbook

import (
	"context"
	"strings"

	"github.com/dalemusser/nftjr/internal/deploy/multibaas"
	"go.uber.org/zap"
)

// Resolver looks up an address label in MultiBaas.
type Resolver interface {
	GetAddress(ctx context.Context, label string) (multibaas.AddressInfo, error)
}

// Mismatch is a label whose MultiBaas address differs from the ledger's.
type Mismatch struct {
	Label  string
	Ledger string
	Remote string // empty when the label is missing or unreachable
}

// Verify checks every label in the snapshot against MultiBaas and logs
// what differs.
func (b *Book) Verify(ctx context.Context, r Resolver) []Mismatch {
	var out []Mismatch
	for _, e := range b.All() {
		info, err := r.GetAddress(ctx, e.Label)
		if err != nil {
			if multibaas.IsNotFound(err) {
				b.log.Warn("address label missing in MultiBaas", zap.String("label", e.Label))
			} else {
				b.log.Warn("address label lookup failed", zap.String("label", e.Label), zap.Error(err))
			}
			out = append(out, Mismatch{Label: e.Label, Ledger: e.Address.String()})
			continue
		}
		if !strings.EqualFold(info.Address, e.Address.String()) {
			b.log.Warn("address label points elsewhere",
				zap.String("label", e.Label),
				zap.String("ledger", e.Address.String()),
				zap.String("multibaas", info.Address))
			out = append(out, Mismatch{Label: e.Label, Ledger: e.Address.String(), Remote: info.Address})
		}
	}
	return out
}
