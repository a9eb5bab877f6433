package usecase

import (
	"context"
	"time"

	"notary/internal/domain"
)

type Fingerprinter interface {
	Fingerprint(content string) string
}

// AssetRepository indexes confirmed assets by fingerprint and by asset id.
//
// Put is idempotent on asset id: writing an asset that is already present is
// a no-op, not an error. List and ListVerified return point-in-time
// snapshots. Implementations must support concurrent readers and serialize
// writers per key.
type AssetRepository interface {
	GetByFingerprint(ctx context.Context, fingerprint string) (*domain.ContentAsset, error)
	GetByID(ctx context.Context, assetID string) (*domain.ContentAsset, error)
	List(ctx context.Context) ([]domain.AssetSummary, error)
	ListVerified(ctx context.Context) ([]domain.AssetSummary, error)
	Put(ctx context.Context, asset domain.ContentAsset) error
	MarkVerified(ctx context.Context, assetID string) error
}

// AssetCache is a short-lived cache in front of ledger queries on the
// verification fallback path. The local store remains the primary index.
type AssetCache interface {
	Get(ctx context.Context, fingerprint string) (*domain.ContentAsset, bool, error)
	Put(ctx context.Context, fingerprint string, asset domain.ContentAsset, ttl time.Duration) error
}
