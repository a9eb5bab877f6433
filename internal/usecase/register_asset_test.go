package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"notary/internal/domain"
	"notary/internal/infra/fingerprint"
)

type memAssetRepo struct {
	mu            sync.Mutex
	byID          map[string]domain.ContentAsset
	byFingerprint map[string]string
	verified      map[string]bool
	getErr        error
	markErr       error
}

func newMemAssetRepo() *memAssetRepo {
	return &memAssetRepo{
		byID:          make(map[string]domain.ContentAsset),
		byFingerprint: make(map[string]string),
		verified:      make(map[string]bool),
	}
}

func (r *memAssetRepo) GetByFingerprint(ctx context.Context, fp string) (*domain.ContentAsset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	id, ok := r.byFingerprint[fp]
	if !ok {
		return nil, domain.ErrNotFound
	}
	asset := r.byID[id]
	return &asset, nil
}

func (r *memAssetRepo) GetByID(ctx context.Context, assetID string) (*domain.ContentAsset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	asset, ok := r.byID[assetID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &asset, nil
}

func (r *memAssetRepo) List(ctx context.Context) ([]domain.AssetSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AssetSummary, 0, len(r.byID))
	for _, asset := range r.byID {
		out = append(out, domain.AssetSummary{AssetID: asset.AssetID, Description: asset.Description})
	}
	return out, nil
}

func (r *memAssetRepo) ListVerified(ctx context.Context) ([]domain.AssetSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AssetSummary, 0, len(r.verified))
	for id := range r.verified {
		asset := r.byID[id]
		out = append(out, domain.AssetSummary{AssetID: asset.AssetID, Description: asset.Description})
	}
	return out, nil
}

func (r *memAssetRepo) Put(ctx context.Context, asset domain.ContentAsset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[asset.AssetID]; ok {
		return nil
	}
	r.byID[asset.AssetID] = asset
	if _, ok := r.byFingerprint[asset.Fingerprint]; !ok {
		r.byFingerprint[asset.Fingerprint] = asset.AssetID
	}
	return nil
}

func (r *memAssetRepo) MarkVerified(ctx context.Context, assetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.markErr != nil {
		return r.markErr
	}
	if _, ok := r.byID[assetID]; !ok {
		return domain.ErrNotFound
	}
	r.verified[assetID] = true
	return nil
}

func (r *memAssetRepo) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

type countingLedger struct {
	mu        sync.Mutex
	entries   map[string]domain.LedgerEntry
	submits   int
	queries   int
	submitErr error
	delay     time.Duration
}

func newCountingLedger() *countingLedger {
	return &countingLedger{entries: make(map[string]domain.LedgerEntry)}
}

func (l *countingLedger) Submit(ctx context.Context, record domain.LedgerRecord) (domain.LedgerConfirmation, error) {
	if l.delay > 0 {
		select {
		case <-ctx.Done():
			return domain.LedgerConfirmation{}, fmt.Errorf("%w: %v", domain.ErrLedgerTimeout, ctx.Err())
		case <-time.After(l.delay):
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.submits++
	if l.submitErr != nil {
		return domain.LedgerConfirmation{}, l.submitErr
	}
	entry := domain.LedgerEntry{
		AssetID:         fmt.Sprintf("asset-%d", l.submits),
		LedgerReference: fmt.Sprintf("txn-%d", l.submits),
		Record:          record,
	}
	l.entries[record.Fingerprint] = entry
	return domain.LedgerConfirmation{AssetID: entry.AssetID, LedgerReference: entry.LedgerReference}, nil
}

func (l *countingLedger) Query(ctx context.Context, fp string) (*domain.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.queries++
	entry, ok := l.entries[fp]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &entry, nil
}

func (l *countingLedger) submissions() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.submits
}

type staticPolicyEngine struct {
	decision domain.PolicyDecision
}

func (e *staticPolicyEngine) Evaluate(ctx context.Context, input domain.PolicyInput) (domain.PolicyDecision, error) {
	return e.decision, nil
}

func validRequest(content string) RegisterAssetRequest {
	return RegisterAssetRequest{
		Content:     content,
		Publisher:   "ReutersX",
		Creator:     "J.Doe",
		Description: "Climate report",
		Location:    domain.Location{Latitude: 52.52, Longitude: 13.405},
	}
}

func newRegisterUC(repo *memAssetRepo, ledger *countingLedger) *RegisterAsset {
	return &RegisterAsset{
		Assets:       repo,
		Ledger:       ledger,
		Fingerprints: fingerprint.Computer{},
		RetryBackoff: time.Millisecond,
	}
}

func TestRegisterAssetValidatesRequiredFields(t *testing.T) {
	uc := newRegisterUC(newMemAssetRepo(), newCountingLedger())

	cases := []struct {
		name   string
		mutate func(*RegisterAssetRequest)
	}{
		{"missing content", func(r *RegisterAssetRequest) { r.Content = "" }},
		{"blank content", func(r *RegisterAssetRequest) { r.Content = "   " }},
		{"missing publisher", func(r *RegisterAssetRequest) { r.Publisher = "" }},
		{"missing creator", func(r *RegisterAssetRequest) { r.Creator = "" }},
		{"missing description", func(r *RegisterAssetRequest) { r.Description = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest("Ocean levels rose 3mm")
			tc.mutate(&req)
			_, err := uc.Execute(context.Background(), req)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestRegisterAssetIdempotentOnDuplicateContent(t *testing.T) {
	repo := newMemAssetRepo()
	ledger := newCountingLedger()
	uc := newRegisterUC(repo, ledger)

	first, err := uc.Execute(context.Background(), validRequest("Ocean levels rose 3mm"))
	if err != nil {
		t.Fatalf("first register: %v", err)
	}
	if !first.Created {
		t.Fatalf("expected first registration to create an asset")
	}

	second, err := uc.Execute(context.Background(), validRequest("Ocean levels rose 3mm"))
	if err != nil {
		t.Fatalf("second register: %v", err)
	}
	if second.Created {
		t.Fatalf("expected duplicate registration to resolve, not create")
	}
	if second.AssetID != first.AssetID {
		t.Fatalf("duplicate resolved to %q, want %q", second.AssetID, first.AssetID)
	}
	if got := ledger.submissions(); got != 1 {
		t.Fatalf("ledger submissions = %d, want 1", got)
	}
}

func TestRegisterAssetDistinctContentMintsDistinctAssets(t *testing.T) {
	repo := newMemAssetRepo()
	ledger := newCountingLedger()
	uc := newRegisterUC(repo, ledger)

	a, err := uc.Execute(context.Background(), validRequest("Ocean levels rose 3mm"))
	if err != nil {
		t.Fatalf("register a: %v", err)
	}
	b, err := uc.Execute(context.Background(), validRequest("Ocean levels rose 30mm"))
	if err != nil {
		t.Fatalf("register b: %v", err)
	}
	if a.AssetID == b.AssetID {
		t.Fatalf("distinct content shares asset id %q", a.AssetID)
	}
	if got := ledger.submissions(); got != 2 {
		t.Fatalf("ledger submissions = %d, want 2", got)
	}
}

func TestRegisterAssetConcurrentDuplicatesSubmitOnce(t *testing.T) {
	repo := newMemAssetRepo()
	ledger := newCountingLedger()
	ledger.delay = 10 * time.Millisecond
	uc := newRegisterUC(repo, ledger)

	const workers = 16
	ids := make([]string, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := uc.Execute(context.Background(), validRequest("Ocean levels rose 3mm"))
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = resp.AssetID
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("worker %d: %v", i, err)
		}
	}
	for i := 1; i < workers; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("worker %d got asset %q, worker 0 got %q", i, ids[i], ids[0])
		}
	}
	if got := ledger.submissions(); got != 1 {
		t.Fatalf("ledger submissions = %d, want 1", got)
	}
	if got := repo.size(); got != 1 {
		t.Fatalf("store holds %d assets, want 1", got)
	}
}

func TestRegisterAssetLedgerFailureLeavesNoPartialState(t *testing.T) {
	repo := newMemAssetRepo()
	ledger := newCountingLedger()
	ledger.submitErr = errors.New("connection refused")
	uc := newRegisterUC(repo, ledger)
	uc.MaxRetries = 2

	_, err := uc.Execute(context.Background(), validRequest("Ocean levels rose 3mm"))
	if !errors.Is(err, domain.ErrLedgerTimeout) {
		t.Fatalf("expected retryable ledger error, got %v", err)
	}
	if got := ledger.submissions(); got != 3 {
		t.Fatalf("ledger submissions = %d, want 3 (initial + 2 retries)", got)
	}
	if got := repo.size(); got != 0 {
		t.Fatalf("store holds %d assets after failed submission, want 0", got)
	}
}

func TestRegisterAssetLedgerRejectionIsNotRetried(t *testing.T) {
	repo := newMemAssetRepo()
	ledger := newCountingLedger()
	ledger.submitErr = fmt.Errorf("%w: fingerprint malformed", domain.ErrLedgerRejected)
	uc := newRegisterUC(repo, ledger)
	uc.MaxRetries = 3

	_, err := uc.Execute(context.Background(), validRequest("Ocean levels rose 3mm"))
	if !errors.Is(err, domain.ErrLedgerRejected) {
		t.Fatalf("expected rejection error, got %v", err)
	}
	if got := ledger.submissions(); got != 1 {
		t.Fatalf("ledger submissions = %d, want 1", got)
	}
	if got := repo.size(); got != 0 {
		t.Fatalf("store holds %d assets after rejection, want 0", got)
	}
}

func TestRegisterAssetSubmitTimeout(t *testing.T) {
	repo := newMemAssetRepo()
	ledger := newCountingLedger()
	ledger.delay = 50 * time.Millisecond
	uc := newRegisterUC(repo, ledger)
	uc.SubmitTimeout = 5 * time.Millisecond

	_, err := uc.Execute(context.Background(), validRequest("Ocean levels rose 3mm"))
	if !errors.Is(err, domain.ErrLedgerTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if got := repo.size(); got != 0 {
		t.Fatalf("store holds %d assets after timeout, want 0", got)
	}
}

func TestRegisterAssetPolicyDenialBlocksSubmission(t *testing.T) {
	repo := newMemAssetRepo()
	ledger := newCountingLedger()
	uc := newRegisterUC(repo, ledger)
	uc.Policy = &staticPolicyEngine{decision: domain.PolicyDecision{
		Allow: false,
		Deny:  []domain.PolicyDenial{{Code: "PUBLISHER_BLOCKED"}},
	}}

	_, err := uc.Execute(context.Background(), validRequest("Ocean levels rose 3mm"))
	if !errors.Is(err, domain.ErrPolicyDenied) {
		t.Fatalf("expected policy denial, got %v", err)
	}
	if got := ledger.submissions(); got != 0 {
		t.Fatalf("ledger submissions = %d, want 0", got)
	}
}

func TestRegisterAssetAssignsTimestampWhenMissing(t *testing.T) {
	repo := newMemAssetRepo()
	ledger := newCountingLedger()
	uc := newRegisterUC(repo, ledger)

	before := time.Now().UTC()
	resp, err := uc.Execute(context.Background(), validRequest("Ocean levels rose 3mm"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	asset, err := repo.GetByID(context.Background(), resp.AssetID)
	if err != nil {
		t.Fatalf("get asset: %v", err)
	}
	if asset.Timestamp.Before(before) || asset.Timestamp.After(time.Now().UTC()) {
		t.Fatalf("timestamp %v not assigned at submission time", asset.Timestamp)
	}
}
