package registry

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// InsertDerivativeLinks records one edge per parent for a derivative
// registration. termsIDs pairs positionally with parents; a short list
// leaves the remaining edges without a terms id.
func (s *Store) InsertDerivativeLinks(ctx context.Context, childIPID string, parentIPIDs, termsIDs []string, txHash string) ([]*DerivativeLink, error) {
	if childIPID == "" {
		return nil, fmt.Errorf("child ip id is empty")
	}
	if len(parentIPIDs) == 0 {
		return nil, fmt.Errorf("no parent ip ids")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin links tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	links := make([]*DerivativeLink, 0, len(parentIPIDs))
	for i, parent := range parentIPIDs {
		termsID := ""
		if i < len(termsIDs) {
			termsID = termsIDs[i]
		}
		res, err := tx.ExecContext(
			ctx,
			`INSERT INTO derivative_links (child_ip_id, parent_ip_id, license_terms_id, tx_hash, created_at)
             VALUES (?, ?, ?, ?, ?)`,
			childIPID,
			parent,
			nullableString(termsID),
			nullableString(txHash),
			now,
		)
		if err != nil {
			return nil, fmt.Errorf("insert derivative link %s -> %s: %w", parent, childIPID, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
		links = append(links, &DerivativeLink{
			ID:             id,
			ChildIPID:      childIPID,
			ParentIPID:     parent,
			LicenseTermsID: termsID,
			TxHash:         txHash,
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit links: %w", err)
	}
	return links, nil
}

// LinksByChild returns the parent edges of a derivative.
func (s *Store) LinksByChild(ctx context.Context, childIPID string) ([]*DerivativeLink, error) {
	return s.queryLinks(ctx, `SELECT `+linkColumns+` FROM derivative_links WHERE child_ip_id = ? ORDER BY id`, childIPID)
}

// LinksByParent returns the derivative edges descending from an ancestor.
func (s *Store) LinksByParent(ctx context.Context, parentIPID string) ([]*DerivativeLink, error) {
	return s.queryLinks(ctx, `SELECT `+linkColumns+` FROM derivative_links WHERE parent_ip_id = ? ORDER BY id`, parentIPID)
}

func (s *Store) queryLinks(ctx context.Context, query string, args ...any) ([]*DerivativeLink, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query derivative links: %w", err)
	}
	defer rows.Close()

	var links []*DerivativeLink
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

const linkColumns = "id, child_ip_id, parent_ip_id, license_terms_id, tx_hash, created_at"

func scanLink(scanner interface{ Scan(dest ...any) error }) (*DerivativeLink, error) {
	var (
		id         int64
		child      string
		parent     string
		termsID    sql.NullString
		txHash     sql.NullString
		createdRaw sql.NullString
	)
	if err := scanner.Scan(&id, &child, &parent, &termsID, &txHash, &createdRaw); err != nil {
		return nil, err
	}
	link := &DerivativeLink{
		ID:             id,
		ChildIPID:      child,
		ParentIPID:     parent,
		LicenseTermsID: termsID.String,
		TxHash:         txHash.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		link.CreatedAt = created
	}
	return link, nil
}
