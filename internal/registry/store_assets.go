package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// InsertAsset persists a completed registration. The UNIQUE constraint on
// verification_token_id makes duplicate inserts for the same verified
// content fail loudly instead of double-minting.
func (s *Store) InsertAsset(ctx context.Context, asset *IPAsset) (*IPAsset, error) {
	if asset == nil {
		return nil, errors.New("asset is nil")
	}
	if asset.IPID == "" {
		return nil, errors.New("asset ip id is empty")
	}
	if asset.VerificationTokenID == "" {
		return nil, errors.New("asset verification token id is empty")
	}

	termsJSON, err := json.Marshal(asset.LicenseTermsIDs)
	if err != nil {
		return nil, fmt.Errorf("marshal license terms ids: %w", err)
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO ip_assets (
            work_id, ip_id, chain_token_id, verification_token_id, tx_hash,
            license_terms_ids, metadata_url, nft_metadata_url, explorer_url,
            verified, confidence, fallback, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullableInt64(asset.WorkID),
		asset.IPID,
		nullableString(asset.ChainTokenID),
		asset.VerificationTokenID,
		nullableString(asset.TxHash),
		string(termsJSON),
		nullableString(asset.MetadataURL),
		nullableString(asset.NFTMetadataURL),
		nullableString(asset.ExplorerURL),
		boolToInt(asset.Verified),
		asset.Confidence,
		boolToInt(asset.Fallback),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert asset: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.AssetByID(ctx, id)
}

// AssetByID fetches an asset by row identifier.
func (s *Store) AssetByID(ctx context.Context, id int64) (*IPAsset, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM ip_assets WHERE id = ?`, id)
	asset, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get asset: %w", err)
	}
	return asset, nil
}

// AssetByIPID fetches an asset by its on-chain identifier.
func (s *Store) AssetByIPID(ctx context.Context, ipID string) (*IPAsset, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM ip_assets WHERE ip_id = ?`, ipID)
	asset, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get asset by ip id: %w", err)
	}
	return asset, nil
}

// AssetByVerificationTokenID returns the asset already registered for a
// verification token, if any. Callers use this as the pre-mint idempotency
// check.
func (s *Store) AssetByVerificationTokenID(ctx context.Context, tokenID string) (*IPAsset, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM ip_assets WHERE verification_token_id = ?`, tokenID)
	asset, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get asset by verification token: %w", err)
	}
	return asset, nil
}

// ListAssets returns all registered assets ordered by creation time.
func (s *Store) ListAssets(ctx context.Context) ([]*IPAsset, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+assetColumns+` FROM ip_assets ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var assets []*IPAsset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

const assetColumns = "id, work_id, ip_id, chain_token_id, verification_token_id, tx_hash, license_terms_ids, metadata_url, nft_metadata_url, explorer_url, verified, confidence, fallback, created_at"

func scanAsset(scanner interface{ Scan(dest ...any) error }) (*IPAsset, error) {
	var (
		id           int64
		workID       sql.NullInt64
		ipID         string
		chainTokenID sql.NullString
		verifToken   string
		txHash       sql.NullString
		termsJSON    sql.NullString
		metadataURL  sql.NullString
		nftURL       sql.NullString
		explorerURL  sql.NullString
		verified     sql.NullInt64
		confidence   int
		fallback     sql.NullInt64
		createdRaw   sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&workID,
		&ipID,
		&chainTokenID,
		&verifToken,
		&txHash,
		&termsJSON,
		&metadataURL,
		&nftURL,
		&explorerURL,
		&verified,
		&confidence,
		&fallback,
		&createdRaw,
	); err != nil {
		return nil, err
	}

	asset := &IPAsset{
		ID:                  id,
		WorkID:              workID.Int64,
		IPID:                ipID,
		ChainTokenID:        chainTokenID.String,
		VerificationTokenID: verifToken,
		TxHash:              txHash.String,
		MetadataURL:         metadataURL.String,
		NFTMetadataURL:      nftURL.String,
		ExplorerURL:         explorerURL.String,
		Confidence:          confidence,
	}
	if verified.Valid {
		asset.Verified = verified.Int64 != 0
	}
	if fallback.Valid {
		asset.Fallback = fallback.Int64 != 0
	}
	if termsJSON.Valid && termsJSON.String != "" {
		if err := json.Unmarshal([]byte(termsJSON.String), &asset.LicenseTermsIDs); err != nil {
			return nil, fmt.Errorf("unmarshal license terms ids: %w", err)
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		asset.CreatedAt = created
	}
	return asset, nil
}

func nullableInt64(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}
