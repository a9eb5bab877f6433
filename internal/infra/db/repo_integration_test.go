//go:build integration
// +build integration

package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"notary/internal/domain"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv("POSTGRES_DSN_TEST"))
	if dsn == "" {
		t.Skip("POSTGRES_DSN_TEST not set")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := gdb.AutoMigrate(&AssetModel{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := gdb.Exec("DELETE FROM assets").Error; err != nil {
		t.Fatalf("reset assets: %v", err)
	}
	return gdb
}

func storedAsset(description string) domain.ContentAsset {
	id := uuid.NewString()
	return domain.ContentAsset{
		AssetID:         id,
		Fingerprint:     "fp-" + id,
		Content:         "content " + id,
		Description:     description,
		Creator:         "J.Doe",
		Publisher:       "ReutersX",
		Location:        domain.Location{Latitude: 46.94, Longitude: 7.44},
		Timestamp:       time.Date(2026, 1, 22, 16, 0, 0, 0, time.UTC),
		LedgerReference: "txn-" + id,
		CreatedAt:       time.Now().UTC(),
	}
}

func TestAssetRepository_PutGet(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewAssetRepository(gdb)
	ctx := context.Background()

	asset := storedAsset("Climate report")
	if err := repo.Put(ctx, asset); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := repo.GetByFingerprint(ctx, asset.Fingerprint)
	if err != nil {
		t.Fatalf("get by fingerprint: %v", err)
	}
	if got.AssetID != asset.AssetID || got.Content != asset.Content || got.LedgerReference != asset.LedgerReference {
		t.Fatalf("asset mismatch: %+v", got)
	}
	if got.Location != asset.Location {
		t.Fatalf("location mismatch: %+v", got.Location)
	}

	byID, err := repo.GetByID(ctx, asset.AssetID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if byID.Fingerprint != asset.Fingerprint {
		t.Fatal("fingerprint mismatch")
	}

	if _, err := repo.GetByID(ctx, uuid.NewString()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAssetRepository_PutIsIdempotent(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewAssetRepository(gdb)
	ctx := context.Background()

	asset := storedAsset("Climate report")
	if err := repo.Put(ctx, asset); err != nil {
		t.Fatalf("put: %v", err)
	}
	again := asset
	again.Description = "mutated"
	if err := repo.Put(ctx, again); err != nil {
		t.Fatalf("second put: %v", err)
	}
	got, err := repo.GetByID(ctx, asset.AssetID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Description != "Climate report" {
		t.Fatalf("re-put mutated stored record: %q", got.Description)
	}
}

func TestAssetRepository_ListAndVerify(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewAssetRepository(gdb)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		asset := storedAsset(fmt.Sprintf("report %d", i))
		asset.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Second)
		if err := repo.Put(ctx, asset); err != nil {
			t.Fatalf("put %d: %v", i, err)
		}
		ids = append(ids, asset.AssetID)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("list length = %d", len(list))
	}
	for i, summary := range list {
		if summary.AssetID != ids[i] {
			t.Fatalf("list out of created order: %v", list)
		}
	}

	verified, err := repo.ListVerified(ctx)
	if err != nil {
		t.Fatalf("list verified: %v", err)
	}
	if len(verified) != 0 {
		t.Fatalf("verified view = %v, want empty", verified)
	}

	if err := repo.MarkVerified(ctx, ids[1]); err != nil {
		t.Fatalf("mark verified: %v", err)
	}
	verified, err = repo.ListVerified(ctx)
	if err != nil {
		t.Fatalf("list verified: %v", err)
	}
	if len(verified) != 1 || verified[0].AssetID != ids[1] {
		t.Fatalf("verified view = %v, want [%s]", verified, ids[1])
	}

	if err := repo.MarkVerified(ctx, uuid.NewString()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found marking unknown asset, got %v", err)
	}
}
