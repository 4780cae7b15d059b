// Package dedup implements exact file deduplication and multi-factor
// invoice duplicate classification, both tenant-scoped.
package dedup

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"

	"github.com/apflow/resolve/internal/model"
)

// Duplicate classifications, strongest first.
const (
	DuplicateExact    = "exact"
	DuplicateLikely   = "likely"
	DuplicatePossible = "possible"
	DuplicateUnique   = "unique"
)

// ErrValidation marks rejected detector input.
var ErrValidation = eris.New("dedup: validation failed")

// FileIngestionRequest describes a newly arrived file. Either the raw
// content or a precomputed content hash must be present.
type FileIngestionRequest struct {
	TenantID    string
	Content     []byte
	ContentHash string
	FileSize    int64
	Source      string
	SourceID    string
}

// FileVerdict is the exact-dedup decision for a file. When the file is
// new, FileID carries the registered row so later extractions can
// reference it.
type FileVerdict struct {
	IsDuplicate     bool    `json:"is_duplicate"`
	DuplicateFileID string  `json:"duplicate_file_id,omitempty"`
	FileID          string  `json:"file_id,omitempty"`
	ContentHash     string  `json:"content_hash"`
	Confidence      float64 `json:"confidence"`
}

// ScoreBreakdown reports each similarity factor of the best candidate.
type ScoreBreakdown struct {
	VendorMatch        float64 `json:"vendor_match"`
	InvoiceNumberMatch float64 `json:"invoice_number_match"`
	DateProximity      float64 `json:"date_proximity"`
	AmountMatch        float64 `json:"amount_match"`
	OverallScore       float64 `json:"overall_score"`
}

// InvoiceVerdict is the duplicate classification for one extraction.
type InvoiceVerdict struct {
	IsDuplicate           bool           `json:"is_duplicate"`
	DuplicateExtractionID string         `json:"duplicate_extraction_id,omitempty"`
	Fingerprint           string         `json:"fingerprint"`
	DuplicateType         string         `json:"duplicate_type"`
	Confidence            float64        `json:"confidence"`
	Breakdown             ScoreBreakdown `json:"score_breakdown"`
}

// Querier is the database surface the stores need. Satisfied by db.Pool
// and pgx.Tx, so detectors run standalone or inside a caller's
// transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// FileStore persists file rows for exact dedup.
type FileStore interface {
	// FindByDedupKey returns the file matching the full dedup tuple, or
	// nil when none exists.
	FindByDedupKey(ctx context.Context, tenantID, contentHash string, fileSize int64, source, sourceID string) (*model.File, error)
	// CreateFile inserts f. created=false without error means a
	// concurrent insert won the dedup-key race.
	CreateFile(ctx context.Context, f *model.File) (created bool, err error)
}

// ExtractionStore persists extraction rows and serves candidate queries.
type ExtractionStore interface {
	FindByFingerprint(ctx context.Context, tenantID, fingerprint string) (*model.Extraction, error)
	// FindCandidates returns recent in-tenant extractions, amount-banded
	// when amount is known, newest first.
	FindCandidates(ctx context.Context, tenantID string, amount *float64) ([]model.Extraction, error)
	CreateExtraction(ctx context.Context, e *model.Extraction) error
}
