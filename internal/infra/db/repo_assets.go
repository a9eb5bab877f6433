package db

import (
	"context"
	"errors"

	"notary/internal/domain"
	"notary/internal/usecase"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errDBUnavailable = errors.New("db unavailable")

type AssetRepository struct {
	db *gorm.DB
}

func NewAssetRepository(db *gorm.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

func (r *AssetRepository) GetByFingerprint(ctx context.Context, fingerprint string) (*domain.ContentAsset, error) {
	return r.getOne(ctx, "fingerprint = ?", fingerprint)
}

func (r *AssetRepository) GetByID(ctx context.Context, assetID string) (*domain.ContentAsset, error) {
	return r.getOne(ctx, "id = ?", assetID)
}

func (r *AssetRepository) getOne(ctx context.Context, query string, arg string) (*domain.ContentAsset, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model AssetModel
	err := r.db.WithContext(ctx).First(&model, query, arg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	asset := assetFromModel(model)
	return &asset, nil
}

func (r *AssetRepository) List(ctx context.Context) ([]domain.AssetSummary, error) {
	return r.list(ctx, false)
}

func (r *AssetRepository) ListVerified(ctx context.Context) ([]domain.AssetSummary, error) {
	return r.list(ctx, true)
}

func (r *AssetRepository) list(ctx context.Context, verifiedOnly bool) ([]domain.AssetSummary, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	tx := r.db.WithContext(ctx).Model(&AssetModel{}).Select("id", "description").Order("created_at")
	if verifiedOnly {
		tx = tx.Where("verified = ?", true)
	}
	var models []AssetModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.AssetSummary, 0, len(models))
	for _, model := range models {
		out = append(out, domain.AssetSummary{AssetID: model.ID, Description: model.Description})
	}
	return out, nil
}

// Put inserts a confirmed asset. Conflicts on the asset id are ignored so a
// repeated write of the same record is a no-op.
func (r *AssetRepository) Put(ctx context.Context, asset domain.ContentAsset) error {
	if r.db == nil {
		return errDBUnavailable
	}
	model := AssetModel{
		ID:              asset.AssetID,
		Fingerprint:     asset.Fingerprint,
		Content:         asset.Content,
		Description:     asset.Description,
		Creator:         asset.Creator,
		Publisher:       asset.Publisher,
		Latitude:        asset.Location.Latitude,
		Longitude:       asset.Location.Longitude,
		Timestamp:       asset.Timestamp,
		LedgerReference: asset.LedgerReference,
		CreatedAt:       asset.CreatedAt,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&model).Error
}

func (r *AssetRepository) MarkVerified(ctx context.Context, assetID string) error {
	if r.db == nil {
		return errDBUnavailable
	}
	result := r.db.WithContext(ctx).Model(&AssetModel{}).Where("id = ?", assetID).Update("verified", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func assetFromModel(model AssetModel) domain.ContentAsset {
	return domain.ContentAsset{
		AssetID:         model.ID,
		Fingerprint:     model.Fingerprint,
		Content:         model.Content,
		Description:     model.Description,
		Creator:         model.Creator,
		Publisher:       model.Publisher,
		Location:        domain.Location{Latitude: model.Latitude, Longitude: model.Longitude},
		Timestamp:       model.Timestamp,
		LedgerReference: model.LedgerReference,
		CreatedAt:       model.CreatedAt,
	}
}

var _ usecase.AssetRepository = (*AssetRepository)(nil)
