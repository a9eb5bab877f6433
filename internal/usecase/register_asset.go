package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"notary/internal/domain"
)

type RegisterAssetRequest struct {
	Content     string
	Publisher   string
	Creator     string
	Description string
	Location    domain.Location
	Timestamp   time.Time
}

type RegisterAssetResponse struct {
	AssetID string
	Created bool
}

// RegisterAsset orchestrates a registration: validate, fingerprint, dedupe
// against the store, submit to the ledger, and index the confirmed asset.
// The store write happens strictly after ledger confirmation, so a failed or
// aborted submission never leaves a local record without ledger backing.
type RegisterAsset struct {
	Assets       AssetRepository
	Ledger       domain.LedgerClient
	Fingerprints Fingerprinter
	Policy       domain.PolicyEngine

	// SubmitTimeout bounds a single ledger submission. MaxRetries additional
	// attempts are made on retryable failures, with doubling backoff.
	SubmitTimeout time.Duration
	MaxRetries    int
	RetryBackoff  time.Duration

	mu    sync.Mutex
	locks map[string]*fingerprintLock
}

type fingerprintLock struct {
	mu   sync.Mutex
	refs int
}

func (uc *RegisterAsset) Execute(ctx context.Context, req RegisterAssetRequest) (*RegisterAssetResponse, error) {
	if err := validateRegisterRequest(req); err != nil {
		return nil, err
	}

	fp := uc.Fingerprints.Fingerprint(req.Content)

	// Fast path: identical content was already registered.
	if existing, err := uc.Assets.GetByFingerprint(ctx, fp); err == nil {
		return &RegisterAssetResponse{AssetID: existing.AssetID}, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	if uc.Policy != nil {
		decision, err := uc.Policy.Evaluate(ctx, domain.PolicyInput{
			Publisher:   req.Publisher,
			Creator:     req.Creator,
			Description: req.Description,
			ContentSize: len(req.Content),
		})
		if err != nil {
			return nil, fmt.Errorf("evaluate policy: %w", err)
		}
		if !decision.Allow {
			return nil, fmt.Errorf("%w: %s", domain.ErrPolicyDenied, denialSummary(decision.Deny))
		}
	}

	// Concurrent registrations of the same fingerprint serialize here so the
	// ledger sees at most one submission per fingerprint.
	lock := uc.lock(fp)
	defer uc.unlock(fp, lock)

	if existing, err := uc.Assets.GetByFingerprint(ctx, fp); err == nil {
		// A racing registration won the lock first and confirmed.
		return &RegisterAssetResponse{AssetID: existing.AssetID}, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	timestamp := req.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	confirmation, err := uc.submitWithRetry(ctx, domain.LedgerRecord{
		Fingerprint: fp,
		Publisher:   req.Publisher,
		Creator:     req.Creator,
		Description: req.Description,
		Location:    req.Location,
		Timestamp:   timestamp,
	})
	if err != nil {
		return nil, err
	}

	asset := domain.ContentAsset{
		AssetID:         confirmation.AssetID,
		Fingerprint:     fp,
		Content:         req.Content,
		Description:     req.Description,
		Creator:         req.Creator,
		Publisher:       req.Publisher,
		Location:        req.Location,
		Timestamp:       timestamp,
		LedgerReference: confirmation.LedgerReference,
		CreatedAt:       time.Now().UTC(),
	}
	if err := uc.Assets.Put(ctx, asset); err != nil {
		return nil, fmt.Errorf("index confirmed asset: %w", err)
	}

	return &RegisterAssetResponse{AssetID: asset.AssetID, Created: true}, nil
}

func (uc *RegisterAsset) submitWithRetry(ctx context.Context, record domain.LedgerRecord) (domain.LedgerConfirmation, error) {
	retries := uc.MaxRetries
	if retries < 0 {
		retries = 0
	}
	backoff := uc.RetryBackoff
	if backoff <= 0 {
		backoff = 250 * time.Millisecond
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return domain.LedgerConfirmation{}, fmt.Errorf("%w: %v", domain.ErrLedgerTimeout, ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		submitCtx := ctx
		cancel := func() {}
		if uc.SubmitTimeout > 0 {
			submitCtx, cancel = context.WithTimeout(ctx, uc.SubmitTimeout)
		}
		confirmation, err := uc.Ledger.Submit(submitCtx, record)
		cancel()
		if err == nil {
			return confirmation, nil
		}
		if errors.Is(err, domain.ErrLedgerRejected) {
			return domain.LedgerConfirmation{}, err
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}

	if lastErr == nil {
		lastErr = domain.ErrLedgerTimeout
	}
	if !errors.Is(lastErr, domain.ErrLedgerTimeout) {
		lastErr = fmt.Errorf("%w: %v", domain.ErrLedgerTimeout, lastErr)
	}
	return domain.LedgerConfirmation{}, lastErr
}

func (uc *RegisterAsset) lock(fingerprint string) *fingerprintLock {
	uc.mu.Lock()
	if uc.locks == nil {
		uc.locks = make(map[string]*fingerprintLock)
	}
	l, ok := uc.locks[fingerprint]
	if !ok {
		l = &fingerprintLock{}
		uc.locks[fingerprint] = l
	}
	l.refs++
	uc.mu.Unlock()

	l.mu.Lock()
	return l
}

func (uc *RegisterAsset) unlock(fingerprint string, l *fingerprintLock) {
	l.mu.Unlock()

	uc.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(uc.locks, fingerprint)
	}
	uc.mu.Unlock()
}

func validateRegisterRequest(req RegisterAssetRequest) error {
	for _, field := range []struct {
		name  string
		value string
	}{
		{"content", req.Content},
		{"publisher", req.Publisher},
		{"creator", req.Creator},
		{"description", req.Description},
	} {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("%w: %s is required", domain.ErrValidation, field.name)
		}
	}
	return nil
}

func denialSummary(denials []domain.PolicyDenial) string {
	if len(denials) == 0 {
		return "denied"
	}
	codes := make([]string, 0, len(denials))
	for _, d := range denials {
		codes = append(codes, d.Code)
	}
	return strings.Join(codes, ", ")
}
