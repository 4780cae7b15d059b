// Package supplier implements canonical vendor identity: matching incoming
// vendor references to existing suppliers, creating new ones, and merging
// observed attributes into a provenance-tracked ledger.
package supplier

import (
	"time"
)

// Supplier statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusDeleted  = "deleted"
)

// Attribute types. Discriminates the structured value payload; the same
// tags appear in the attribute rows' attribute_type column.
const (
	AttrAddress       = "address"
	AttrEmail         = "email"
	AttrPhone         = "phone"
	AttrWebsite       = "website"
	AttrBankAccount   = "bank_account"
	AttrCompanyNumber = "company_number"
	AttrVATNumber     = "vat_number"
)

// singlePrimaryTypes are attribute types where only one active value may be
// primary at a time.
var singlePrimaryTypes = map[string]bool{
	AttrAddress:     true,
	AttrEmail:       true,
	AttrPhone:       true,
	AttrWebsite:     true,
	AttrBankAccount: true,
}

// AllowsSinglePrimary reports whether attributeType is subject to primary
// arbitration.
func AllowsSinglePrimary(attributeType string) bool {
	return singlePrimaryTypes[attributeType]
}

// Supplier is the canonical vendor identity record, scoped to a tenant.
// Deleted suppliers are retained for audit and excluded from matching.
type Supplier struct {
	ID             string     `json:"id" db:"id"`
	TenantID       string     `json:"tenant_id" db:"tenant_id"`
	LegalName      string     `json:"legal_name" db:"legal_name"`
	DisplayName    string     `json:"display_name,omitempty" db:"display_name"`
	NormalizedName string     `json:"normalized_name" db:"normalized_name"`
	Slug           string     `json:"slug" db:"slug"`
	CompanyNumber  *string    `json:"company_number,omitempty" db:"company_number"`
	VATNumber      *string    `json:"vat_number,omitempty" db:"vat_number"`
	Status         string     `json:"status" db:"status"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Attribute is one versioned fact about a supplier. For a given
// (supplier_id, attribute_type, hash) there is at most one row; repeated
// observations increment SeenCount and bump LastSeenAt.
type Attribute struct {
	ID            string         `json:"id" db:"id"`
	SupplierID    string         `json:"supplier_id" db:"supplier_id"`
	AttributeType string         `json:"attribute_type" db:"attribute_type"`
	Value         map[string]any `json:"value" db:"value"`
	Hash          string         `json:"hash" db:"hash"`
	Source        string         `json:"source" db:"source"`
	SourceID      *string        `json:"source_id,omitempty" db:"source_id"`
	Confidence    int            `json:"confidence" db:"confidence"`
	IsPrimary     bool           `json:"is_primary" db:"is_primary"`
	IsActive      bool           `json:"is_active" db:"is_active"`
	FirstSeenAt   time.Time      `json:"first_seen_at" db:"first_seen_at"`
	LastSeenAt    time.Time      `json:"last_seen_at" db:"last_seen_at"`
	SeenCount     int            `json:"seen_count" db:"seen_count"`
}

// PrimaryPolicy decides which of several candidate values for the same
// attribute type is the canonical one. The default ranking (confidence,
// then seen count, then recency) is inferred product behavior, so it stays
// a replaceable policy rather than a fixed rule.
type PrimaryPolicy struct {
	// Outranks reports whether a should be primary over b.
	Outranks func(a, b *Attribute) bool
}

// DefaultPrimaryPolicy ranks by confidence, then seen count, then recency.
func DefaultPrimaryPolicy() PrimaryPolicy {
	return PrimaryPolicy{
		Outranks: func(a, b *Attribute) bool {
			if a.Confidence != b.Confidence {
				return a.Confidence > b.Confidence
			}
			if a.SeenCount != b.SeenCount {
				return a.SeenCount > b.SeenCount
			}
			return a.LastSeenAt.After(b.LastSeenAt)
		},
	}
}
