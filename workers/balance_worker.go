package workers

import (
	"context"
	"log"
	"sync"
	"time"

	"bounty-payout-system/escrow"
	"bounty-payout-system/ledger"
)

// BalanceWorker polls the custodial escrow balance and caches the latest
// snapshot for logging and monitoring. It never gates a transfer: the
// gateway re-reads the balance under its own lock.
type BalanceWorker struct {
	Gateway *escrow.Gateway

	mu       sync.RWMutex
	latest   ledger.Balance
	latestAt time.Time
}

func NewBalanceWorker(gw *escrow.Gateway) *BalanceWorker {
	return &BalanceWorker{Gateway: gw}
}

// Latest returns the last observed balance and when it was read.
func (w *BalanceWorker) Latest() (ledger.Balance, time.Time) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.latest, w.latestAt
}

// Poll runs until the context is cancelled.
func (w *BalanceWorker) Poll(ctx context.Context, interval time.Duration) {
	log.Println("Starting escrow balance polling...")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Escrow balance polling stopped.")
			return
		case <-ticker.C:
			bal, err := w.Gateway.Balance(ctx)
			if err != nil {
				log.Printf("❌ Error polling escrow balance: %v", err)
				continue
			}

			w.mu.Lock()
			w.latest = bal
			w.latestAt = time.Now().UTC()
			w.mu.Unlock()

			log.Printf("💰 Escrow balance: %s / %s",
				ledger.FormatAsset(bal.Hive, "HIVE"), ledger.FormatAsset(bal.HBD, "HBD"))
		}
	}
}
