// Package memstore is the in-memory AssetRepository used when no database is
// configured, and by tests.
package memstore

import (
	"context"
	"sync"

	"notary/internal/domain"
	"notary/internal/usecase"
)

type Store struct {
	mu            sync.RWMutex
	byID          map[string]domain.ContentAsset
	byFingerprint map[string]string
	order         []string
	verified      map[string]bool
}

func New() *Store {
	return &Store{
		byID:          make(map[string]domain.ContentAsset),
		byFingerprint: make(map[string]string),
		verified:      make(map[string]bool),
	}
}

func (s *Store) GetByFingerprint(ctx context.Context, fingerprint string) (*domain.ContentAsset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byFingerprint[fingerprint]
	if !ok {
		return nil, domain.ErrNotFound
	}
	asset := s.byID[id]
	return &asset, nil
}

func (s *Store) GetByID(ctx context.Context, assetID string) (*domain.ContentAsset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	asset, ok := s.byID[assetID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &asset, nil
}

func (s *Store) List(ctx context.Context) ([]domain.AssetSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.AssetSummary, 0, len(s.order))
	for _, id := range s.order {
		asset := s.byID[id]
		out = append(out, domain.AssetSummary{AssetID: asset.AssetID, Description: asset.Description})
	}
	return out, nil
}

func (s *Store) ListVerified(ctx context.Context) ([]domain.AssetSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.AssetSummary, 0, len(s.verified))
	for _, id := range s.order {
		if !s.verified[id] {
			continue
		}
		asset := s.byID[id]
		out = append(out, domain.AssetSummary{AssetID: asset.AssetID, Description: asset.Description})
	}
	return out, nil
}

// Put indexes a confirmed asset. Re-putting an asset id is a no-op; the
// first record for a fingerprint stays authoritative.
func (s *Store) Put(ctx context.Context, asset domain.ContentAsset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[asset.AssetID]; ok {
		return nil
	}
	s.byID[asset.AssetID] = asset
	s.order = append(s.order, asset.AssetID)
	if _, ok := s.byFingerprint[asset.Fingerprint]; !ok {
		s.byFingerprint[asset.Fingerprint] = asset.AssetID
	}
	return nil
}

func (s *Store) MarkVerified(ctx context.Context, assetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[assetID]; !ok {
		return domain.ErrNotFound
	}
	s.verified[assetID] = true
	return nil
}

var _ usecase.AssetRepository = (*Store)(nil)
