package supplier

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the query surface stores run against. Both a pool and an open
// transaction satisfy it, so the same store logic serves standalone reads
// and the orchestrator's single-transaction ingestion path.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store defines persistence operations for suppliers and their attribute
// ledger.
type Store interface {
	// Suppliers
	CreateSupplier(ctx context.Context, s *Supplier) (created bool, err error)
	GetSupplier(ctx context.Context, tenantID, id string) (*Supplier, error)
	GetByNormalizedName(ctx context.Context, tenantID, normalizedName string) (*Supplier, error)
	FindByIdentifier(ctx context.Context, tenantID, identifierKind, value string) (*Supplier, error)
	SearchByName(ctx context.Context, tenantID, name string, limit int) ([]Supplier, error)
	SlugExists(ctx context.Context, tenantID, slug string) (bool, error)

	// Attribute ledger
	UpsertAttribute(ctx context.Context, a *Attribute) (created bool, err error)
	GetPrimaryAttribute(ctx context.Context, supplierID, attributeType string) (*Attribute, error)
	PromotePrimary(ctx context.Context, supplierID, attributeType, attributeID string) error
}

// Identifier kinds accepted by FindByIdentifier.
const (
	IdentifierCompanyNumber = "company_number"
	IdentifierVATNumber     = "vat_number"
)
