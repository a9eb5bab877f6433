package domain

import (
	"context"
	"time"
)

// LedgerRecord is the small record durably written to the external ledger.
// The content itself never leaves the service; only its fingerprint does.
type LedgerRecord struct {
	Fingerprint string
	Publisher   string
	Creator     string
	Description string
	Location    Location
	Timestamp   time.Time
}

// LedgerConfirmation carries the identifiers assigned by the ledger once a
// record is confirmed. AssetID is globally unique and never reused.
type LedgerConfirmation struct {
	AssetID         string
	LedgerReference string
}

// LedgerEntry is a confirmed record as read back from the ledger.
type LedgerEntry struct {
	AssetID         string
	LedgerReference string
	Record          LedgerRecord
}

// LedgerClient is the append-only external system of record.
//
// Submit blocks until the ledger confirms the record or ctx expires; it is
// never fire-and-forget. Query returns ErrNotFound when no confirmed record
// exists for the fingerprint.
type LedgerClient interface {
	Submit(ctx context.Context, record LedgerRecord) (LedgerConfirmation, error)
	Query(ctx context.Context, fingerprint string) (*LedgerEntry, error)
}
