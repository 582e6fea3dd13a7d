// internal/app/system/workers/addressbookrefresh.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/nftjr/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Loader is anything that can reload itself from the ledger.
type Loader interface {
	Load(ctx context.Context) error
}

// AddressBookRefresh is a background worker that re-reads the deployment
// ledger so a migration run while the server is up is picked up without a
// restart.
type AddressBookRefresh struct {
	book     Loader
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewAddressBookRefresh creates a refresher that reloads book every interval.
func NewAddressBookRefresh(book Loader, logger *zap.Logger, interval time.Duration) *AddressBookRefresh {
	return &AddressBookRefresh{
		book:     book,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background refresh loop.
func (w *AddressBookRefresh) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("address book refresh worker started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish. It is safe to
// call more than once.
func (w *AddressBookRefresh) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		w.log.Info("address book refresh worker stopped")
	})
}

func (w *AddressBookRefresh) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.refresh()
		}
	}
}

func (w *AddressBookRefresh) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Medium())
	defer cancel()

	if err := w.book.Load(ctx); err != nil {
		w.log.Error("address book refresh failed", zap.Error(err))
	}
}
