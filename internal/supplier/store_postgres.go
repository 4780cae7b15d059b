package supplier

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// PostgresStore implements Store using pgx against a pool or an open
// transaction.
type PostgresStore struct {
	q Querier
}

// NewPostgresStore creates a PostgresStore over q.
func NewPostgresStore(q Querier) *PostgresStore {
	return &PostgresStore{q: q}
}

var _ Store = (*PostgresStore)(nil)

const supplierColumns = `id, tenant_id, legal_name, display_name, normalized_name, slug,
	company_number, vat_number, status, created_at, updated_at, deleted_at`

func supplierDests(s *Supplier) []any {
	return []any{
		&s.ID, &s.TenantID, &s.LegalName, &s.DisplayName, &s.NormalizedName, &s.Slug,
		&s.CompanyNumber, &s.VATNumber, &s.Status, &s.CreatedAt, &s.UpdatedAt, &s.DeletedAt,
	}
}

// CreateSupplier inserts a new supplier. The insert is conflict-tolerant:
// on a unique-constraint collision (slug or normalized name race) it
// returns created=false without error, leaving the enclosing transaction
// usable so the caller can re-read and fall back to the matched path.
func (s *PostgresStore) CreateSupplier(ctx context.Context, sup *Supplier) (bool, error) {
	if sup.ID == "" {
		sup.ID = uuid.NewString()
	}
	if sup.Status == "" {
		sup.Status = StatusActive
	}
	err := s.q.QueryRow(ctx, `
		INSERT INTO suppliers (id, tenant_id, legal_name, display_name, normalized_name, slug, company_number, vat_number, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT DO NOTHING
		RETURNING created_at, updated_at`,
		sup.ID, sup.TenantID, sup.LegalName, sup.DisplayName, sup.NormalizedName,
		sup.Slug, sup.CompanyNumber, sup.VATNumber, sup.Status,
	).Scan(&sup.CreatedAt, &sup.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, eris.Wrap(err, "supplier: create")
	}
	return true, nil
}

// GetSupplier fetches a supplier by ID within a tenant.
func (s *PostgresStore) GetSupplier(ctx context.Context, tenantID, id string) (*Supplier, error) {
	sup := &Supplier{}
	err := s.q.QueryRow(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE tenant_id=$1 AND id=$2`,
		tenantID, id).Scan(supplierDests(sup)...)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "supplier: get %s", id)
	}
	return sup, nil
}

// GetByNormalizedName fetches the non-deleted supplier carrying a
// normalized name within a tenant.
func (s *PostgresStore) GetByNormalizedName(ctx context.Context, tenantID, normalizedName string) (*Supplier, error) {
	sup := &Supplier{}
	err := s.q.QueryRow(ctx, `
		SELECT `+supplierColumns+`
		FROM suppliers
		WHERE tenant_id=$1 AND normalized_name=$2 AND status != 'deleted'`,
		tenantID, normalizedName).Scan(supplierDests(sup)...)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "supplier: get by normalized name %q", normalizedName)
	}
	return sup, nil
}

// FindByIdentifier finds an active supplier by company number or VAT number.
func (s *PostgresStore) FindByIdentifier(ctx context.Context, tenantID, identifierKind, value string) (*Supplier, error) {
	var column string
	switch identifierKind {
	case IdentifierCompanyNumber:
		column = "company_number"
	case IdentifierVATNumber:
		column = "vat_number"
	default:
		return nil, eris.Errorf("supplier: unknown identifier kind %q", identifierKind)
	}

	sup := &Supplier{}
	err := s.q.QueryRow(ctx, `
		SELECT `+supplierColumns+`
		FROM suppliers
		WHERE tenant_id=$1 AND `+column+`=$2 AND status='active'
		LIMIT 1`,
		tenantID, value).Scan(supplierDests(sup)...)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "supplier: find by %s", identifierKind)
	}
	return sup, nil
}

// SearchByName returns active suppliers by trigram similarity against legal
// and display names, best first.
func (s *PostgresStore) SearchByName(ctx context.Context, tenantID, name string, limit int) ([]Supplier, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.q.Query(ctx, `
		SELECT `+supplierColumns+`
		FROM suppliers
		WHERE tenant_id=$1 AND status='active' AND (legal_name % $2 OR display_name % $2)
		ORDER BY GREATEST(similarity(legal_name, $2), similarity(display_name, $2)) DESC
		LIMIT $3`, tenantID, name, limit)
	if err != nil {
		return nil, eris.Wrap(err, "supplier: search by name")
	}
	defer rows.Close()

	var out []Supplier
	for rows.Next() {
		var sup Supplier
		if err := rows.Scan(supplierDests(&sup)...); err != nil {
			return nil, eris.Wrap(err, "supplier: scan")
		}
		out = append(out, sup)
	}
	return out, rows.Err()
}

// SlugExists reports whether a slug is taken within a tenant.
func (s *PostgresStore) SlugExists(ctx context.Context, tenantID, slug string) (bool, error) {
	var exists bool
	err := s.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM suppliers WHERE tenant_id=$1 AND slug=$2)`,
		tenantID, slug).Scan(&exists)
	if err != nil {
		return false, eris.Wrap(err, "supplier: slug exists")
	}
	return exists, nil
}

// UpsertAttribute records one attribute observation as an atomic
// insert-or-increment. A resighting bumps seen_count and last_seen_at and
// ratchets confidence up (never down). Returns whether a new row was
// created.
func (s *PostgresStore) UpsertAttribute(ctx context.Context, a *Attribute) (bool, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	var inserted bool
	err := s.q.QueryRow(ctx, `
		INSERT INTO supplier_attributes
			(id, supplier_id, attribute_type, value, hash, source, source_id, confidence, is_primary, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false, true)
		ON CONFLICT (supplier_id, attribute_type, hash) DO UPDATE SET
			seen_count   = supplier_attributes.seen_count + 1,
			last_seen_at = now(),
			confidence   = GREATEST(supplier_attributes.confidence, EXCLUDED.confidence),
			is_active    = true,
			source       = EXCLUDED.source,
			source_id    = COALESCE(EXCLUDED.source_id, supplier_attributes.source_id)
		RETURNING id, confidence, is_primary, is_active, first_seen_at, last_seen_at, seen_count, (xmax = 0)`,
		a.ID, a.SupplierID, a.AttributeType, a.Value, a.Hash,
		a.Source, a.SourceID, a.Confidence,
	).Scan(&a.ID, &a.Confidence, &a.IsPrimary, &a.IsActive,
		&a.FirstSeenAt, &a.LastSeenAt, &a.SeenCount, &inserted)
	if err != nil {
		return false, eris.Wrap(err, "supplier: upsert attribute")
	}
	return inserted, nil
}

// GetPrimaryAttribute returns the current active primary value for an
// attribute type, or nil when none is set.
func (s *PostgresStore) GetPrimaryAttribute(ctx context.Context, supplierID, attributeType string) (*Attribute, error) {
	a := &Attribute{}
	err := s.q.QueryRow(ctx, `
		SELECT id, supplier_id, attribute_type, value, hash, source, source_id,
			confidence, is_primary, is_active, first_seen_at, last_seen_at, seen_count
		FROM supplier_attributes
		WHERE supplier_id=$1 AND attribute_type=$2 AND is_primary AND is_active`,
		supplierID, attributeType).
		Scan(&a.ID, &a.SupplierID, &a.AttributeType, &a.Value, &a.Hash, &a.Source, &a.SourceID,
			&a.Confidence, &a.IsPrimary, &a.IsActive, &a.FirstSeenAt, &a.LastSeenAt, &a.SeenCount)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrap(err, "supplier: get primary attribute")
	}
	return a, nil
}

// PromotePrimary flips the primary flag to attributeID. The clear runs
// before the set so the partial unique index never sees two primaries;
// callers run both writes inside one transaction.
func (s *PostgresStore) PromotePrimary(ctx context.Context, supplierID, attributeType, attributeID string) error {
	if _, err := s.q.Exec(ctx, `
		UPDATE supplier_attributes SET is_primary = false
		WHERE supplier_id=$1 AND attribute_type=$2 AND is_primary`,
		supplierID, attributeType); err != nil {
		return eris.Wrap(err, "supplier: clear primary")
	}
	if _, err := s.q.Exec(ctx, `
		UPDATE supplier_attributes SET is_primary = true
		WHERE id=$1 AND supplier_id=$2`,
		attributeID, supplierID); err != nil {
		return eris.Wrap(err, "supplier: set primary")
	}
	return nil
}
