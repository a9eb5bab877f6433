// Package ledgermem is an in-process LedgerClient used when no ledger
// gateway is configured, and by tests. Records confirm after an optional
// simulated latency and identifiers are minted locally.
package ledgermem

import (
	"context"
	"fmt"
	"sync"
	"time"

	"notary/internal/domain"

	"github.com/google/uuid"
)

type Ledger struct {
	mu      sync.Mutex
	entries map[string]domain.LedgerEntry
	submits int
	latency time.Duration
}

func New() *Ledger {
	return &Ledger{entries: make(map[string]domain.LedgerEntry)}
}

// NewWithLatency delays every confirmation by d, mimicking the confirmation
// wait of a real ledger.
func NewWithLatency(d time.Duration) *Ledger {
	l := New()
	l.latency = d
	return l
}

func (l *Ledger) Submit(ctx context.Context, record domain.LedgerRecord) (domain.LedgerConfirmation, error) {
	if l.latency > 0 {
		select {
		case <-ctx.Done():
			return domain.LedgerConfirmation{}, fmt.Errorf("%w: %v", domain.ErrLedgerTimeout, ctx.Err())
		case <-time.After(l.latency):
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.submits++

	entry := domain.LedgerEntry{
		AssetID:         uuid.NewString(),
		LedgerReference: "memledger:" + uuid.NewString(),
		Record:          record,
	}
	l.entries[record.Fingerprint] = entry
	return domain.LedgerConfirmation{AssetID: entry.AssetID, LedgerReference: entry.LedgerReference}, nil
}

func (l *Ledger) Query(ctx context.Context, fingerprint string) (*domain.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[fingerprint]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &entry, nil
}

// Submissions reports how many times Submit has been called. The registry
// must never submit twice for one fingerprint; tests assert through this.
func (l *Ledger) Submissions() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.submits
}

var _ domain.LedgerClient = (*Ledger)(nil)
