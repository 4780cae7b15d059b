// Package model defines the extraction field model consumed by the
// duplicate detectors and the supplier ingestion path.
package model

import (
	"strings"
	"time"
)

// Ingestion sources. Every file and extraction carries the channel it
// arrived through; (source, source_id) is part of the file dedup key.
const (
	SourceIntegration = "integration"
	SourceUserUpload  = "user_upload"
	SourceWhatsApp    = "whatsapp"
	SourceSlack       = "slack"
)

// ValidSource reports whether s is a known ingestion source.
func ValidSource(s string) bool {
	switch s {
	case SourceIntegration, SourceUserUpload, SourceWhatsApp, SourceSlack:
		return true
	}
	return false
}

// FieldValue is one extracted value with its extraction confidence and the
// source that produced it. Produced by the upstream extraction collaborator;
// read-only here.
type FieldValue struct {
	Value      any     `json:"value"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

// StringValue returns the value as a trimmed string, or "" when the value
// is absent or not a string.
func (fv FieldValue) StringValue() string {
	s, _ := fv.Value.(string)
	return strings.TrimSpace(s)
}

// FloatValue returns the value as a float64 and whether the conversion
// was meaningful.
func (fv FieldValue) FloatValue() (float64, bool) {
	switch n := fv.Value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// ExtractedFields is the structured output of document extraction for one
// financial document. Known fields are first-class; anything else the
// extractor emits lands in Extra keyed by logical field name.
type ExtractedFields struct {
	VendorName    FieldValue `json:"vendor_name"`
	InvoiceNumber FieldValue `json:"invoice_number"`
	DocumentDate  FieldValue `json:"document_date"`
	TotalAmount   FieldValue `json:"total_amount"`
	Currency      FieldValue `json:"currency"`

	CompanyNumber FieldValue `json:"company_number"`
	VATNumber     FieldValue `json:"vat_number"`

	Addresses    []AddressFields     `json:"addresses,omitempty"`
	Contacts     []ContactFields     `json:"contacts,omitempty"`
	BankAccounts []BankAccountFields `json:"bank_accounts,omitempty"`

	Extra map[string]FieldValue `json:"extra,omitempty"`
}

// AddressFields is one observed postal address.
type AddressFields struct {
	Line1      string  `json:"line1,omitempty"`
	Line2      string  `json:"line2,omitempty"`
	City       string  `json:"city,omitempty"`
	Region     string  `json:"region,omitempty"`
	PostalCode string  `json:"postal_code,omitempty"`
	Country    string  `json:"country,omitempty"`
	Confidence float64 `json:"confidence"`
}

// ContactFields is one observed contact point (email, phone or website).
type ContactFields struct {
	Kind       string  `json:"kind"` // email | phone | website
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// BankAccountFields is one observed bank account.
type BankAccountFields struct {
	AccountName   string  `json:"account_name,omitempty"`
	SortCode      string  `json:"sort_code,omitempty"`
	AccountNumber string  `json:"account_number,omitempty"`
	IBAN          string  `json:"iban,omitempty"`
	Confidence    float64 `json:"confidence"`
}

// Extraction is a persisted extraction record used for invoice dedup.
type Extraction struct {
	ID          string          `json:"id" db:"id"`
	TenantID    string          `json:"tenant_id" db:"tenant_id"`
	FileID      string          `json:"file_id,omitempty" db:"file_id"`
	Fingerprint string          `json:"fingerprint" db:"fingerprint"`
	Fields      ExtractedFields `json:"fields" db:"fields"`
	DuplicateOf *string         `json:"duplicate_of,omitempty" db:"duplicate_of"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// File is a tenant-scoped binary artifact tracked for exact dedup.
type File struct {
	ID          string    `json:"id" db:"id"`
	TenantID    string    `json:"tenant_id" db:"tenant_id"`
	ContentHash string    `json:"content_hash" db:"content_hash"`
	FileSize    int64     `json:"file_size" db:"file_size"`
	Source      string    `json:"source" db:"source"`
	SourceID    *string   `json:"source_id,omitempty" db:"source_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
