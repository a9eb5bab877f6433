package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"notary/internal/domain"
)

type VerifyAssetRequest struct {
	Content string
	Claimed *ClaimedMetadata
}

// ClaimedMetadata is provenance the verifier believes to be true. Empty
// fields are not compared.
type ClaimedMetadata struct {
	Publisher   string
	Creator     string
	Description string
}

// VerifyAsset recomputes the fingerprint of presented content and checks it
// against registered assets. The store is consulted first; the ledger is the
// source of truth and is queried whenever the store misses or is
// unavailable. Content that was never registered, or that differs from the
// registered text by even one byte, produces no match.
type VerifyAsset struct {
	Assets       AssetRepository
	Ledger       domain.LedgerClient
	Fingerprints Fingerprinter
	Cache        AssetCache
	CacheTTL     time.Duration
}

func (uc *VerifyAsset) Execute(ctx context.Context, req VerifyAssetRequest) (*domain.VerificationResult, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("%w: content is required", domain.ErrValidation)
	}

	fp := uc.Fingerprints.Fingerprint(req.Content)

	asset, err := uc.lookup(ctx, fp)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.VerificationResult{}, nil
		}
		return nil, err
	}

	result := &domain.VerificationResult{Matched: true, Asset: asset}
	if req.Claimed != nil {
		result.Discrepancies = compareClaims(*req.Claimed, *asset)
	}

	// Marking is a best-effort side effect on the store's verified view. A
	// ledger-confirmed match must not fail because the store is down; the
	// fallback path only exists when it is.
	_ = uc.Assets.MarkVerified(ctx, asset.AssetID)
	return result, nil
}

func (uc *VerifyAsset) lookup(ctx context.Context, fingerprint string) (*domain.ContentAsset, error) {
	asset, storeErr := uc.Assets.GetByFingerprint(ctx, fingerprint)
	if storeErr == nil {
		return asset, nil
	}
	if uc.Ledger == nil {
		return nil, storeErr
	}

	if uc.Cache != nil {
		if cached, ok, err := uc.Cache.Get(ctx, fingerprint); err == nil && ok {
			return cached, nil
		}
	}

	entry, err := uc.Ledger.Query(ctx, fingerprint)
	if err != nil {
		// Includes ErrNotFound: the ledger is authoritative, so a confirmed
		// ledger miss is a definitive no-match even if the store was down.
		return nil, err
	}

	asset = assetFromLedger(*entry)
	if uc.Cache != nil {
		_ = uc.Cache.Put(ctx, fingerprint, *asset, uc.CacheTTL)
	}
	if errors.Is(storeErr, domain.ErrNotFound) {
		// The store missed a record the ledger has confirmed. The ledger is
		// authoritative, so refresh the store entry; the refresh itself is
		// best-effort.
		_ = uc.Assets.Put(ctx, *asset)
	}
	return asset, nil
}

// assetFromLedger rebuilds an asset from its ledger record. The ledger only
// holds the fingerprint and provenance metadata, so Content stays empty.
func assetFromLedger(entry domain.LedgerEntry) *domain.ContentAsset {
	return &domain.ContentAsset{
		AssetID:         entry.AssetID,
		Fingerprint:     entry.Record.Fingerprint,
		Description:     entry.Record.Description,
		Creator:         entry.Record.Creator,
		Publisher:       entry.Record.Publisher,
		Location:        entry.Record.Location,
		Timestamp:       entry.Record.Timestamp,
		LedgerReference: entry.LedgerReference,
		CreatedAt:       entry.Record.Timestamp,
	}
}

func compareClaims(claimed ClaimedMetadata, asset domain.ContentAsset) []domain.Discrepancy {
	var out []domain.Discrepancy
	if claimed.Publisher != "" && claimed.Publisher != asset.Publisher {
		out = append(out, domain.Discrepancy{Field: "publisher", Claimed: claimed.Publisher, Stored: asset.Publisher})
	}
	if claimed.Creator != "" && claimed.Creator != asset.Creator {
		out = append(out, domain.Discrepancy{Field: "creator", Claimed: claimed.Creator, Stored: asset.Creator})
	}
	if claimed.Description != "" && claimed.Description != asset.Description {
		out = append(out, domain.Discrepancy{Field: "description", Claimed: claimed.Description, Stored: asset.Description})
	}
	return out
}
