package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// InsertClaim appends one royalty claim against an ancestor asset. Amounts
// are validated and normalized through decimal so "1.50" and "1.5" sum
// consistently.
func (s *Store) InsertClaim(ctx context.Context, claim *RevenueClaim) (*RevenueClaim, error) {
	if claim == nil {
		return nil, fmt.Errorf("claim is nil")
	}
	if claim.AncestorIPID == "" {
		return nil, fmt.Errorf("claim ancestor ip id is empty")
	}
	amount, err := decimal.NewFromString(claim.ClaimedAmount)
	if err != nil {
		return nil, fmt.Errorf("parse claimed amount %q: %w", claim.ClaimedAmount, err)
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("claimed amount %s is negative", amount)
	}

	childJSON, err := json.Marshal(claim.ChildIPIDs)
	if err != nil {
		return nil, fmt.Errorf("marshal child ip ids: %w", err)
	}
	policiesJSON, err := json.Marshal(claim.RoyaltyPolicies)
	if err != nil {
		return nil, fmt.Errorf("marshal royalty policies: %w", err)
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO revenue_claims (ancestor_ip_id, claimer, child_ip_ids, royalty_policies, claimed_amount, currency_token, tx_hash, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		claim.AncestorIPID,
		nullableString(claim.Claimer),
		string(childJSON),
		string(policiesJSON),
		amount.String(),
		nullableString(claim.CurrencyToken),
		nullableString(claim.TxHash),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert claim: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	inserted := *claim
	inserted.ID = id
	inserted.ClaimedAmount = amount.String()
	return &inserted, nil
}

// SumClaimed totals every claim recorded against an ancestor. The sum runs
// in Go over decimal text rather than SQL so precision survives.
func (s *Store) SumClaimed(ctx context.Context, ancestorIPID string) (decimal.Decimal, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT claimed_amount FROM revenue_claims WHERE ancestor_ip_id = ?`,
		ancestorIPID,
	)
	if err != nil {
		return decimal.Zero, fmt.Errorf("query claims: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, err
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse stored amount %q: %w", raw, err)
		}
		total = total.Add(amount)
	}
	return total, rows.Err()
}

// ClaimsByAncestor returns the claim history for an ancestor asset.
func (s *Store) ClaimsByAncestor(ctx context.Context, ancestorIPID string) ([]*RevenueClaim, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, ancestor_ip_id, claimer, child_ip_ids, royalty_policies, claimed_amount, currency_token, tx_hash, created_at
         FROM revenue_claims WHERE ancestor_ip_id = ? ORDER BY id`,
		ancestorIPID,
	)
	if err != nil {
		return nil, fmt.Errorf("query claims: %w", err)
	}
	defer rows.Close()

	var claims []*RevenueClaim
	for rows.Next() {
		var (
			claim        RevenueClaim
			claimer      sql.NullString
			childJSON    sql.NullString
			policiesJSON sql.NullString
			currency     sql.NullString
			txHash       sql.NullString
			createdRaw   sql.NullString
		)
		if err := rows.Scan(&claim.ID, &claim.AncestorIPID, &claimer, &childJSON, &policiesJSON, &claim.ClaimedAmount, &currency, &txHash, &createdRaw); err != nil {
			return nil, err
		}
		claim.Claimer = claimer.String
		claim.CurrencyToken = currency.String
		claim.TxHash = txHash.String
		if childJSON.Valid && childJSON.String != "" {
			if err := json.Unmarshal([]byte(childJSON.String), &claim.ChildIPIDs); err != nil {
				return nil, fmt.Errorf("unmarshal child ip ids: %w", err)
			}
		}
		if policiesJSON.Valid && policiesJSON.String != "" {
			if err := json.Unmarshal([]byte(policiesJSON.String), &claim.RoyaltyPolicies); err != nil {
				return nil, fmt.Errorf("unmarshal royalty policies: %w", err)
			}
		}
		if created, err := parseTimeString(createdRaw.String); err == nil {
			claim.CreatedAt = created
		}
		claims = append(claims, &claim)
	}
	return claims, rows.Err()
}
