package dedup

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/apflow/resolve/internal/config"
	"github.com/apflow/resolve/internal/hashing"
	"github.com/apflow/resolve/internal/model"
)

// PostgresStore implements FileStore and ExtractionStore using pgx
// against a pool or an open transaction.
type PostgresStore struct {
	q   Querier
	cfg config.MatchingConfig
}

// NewPostgresStore creates a PostgresStore over q. The matching config
// bounds the candidate window query.
func NewPostgresStore(q Querier, cfg config.MatchingConfig) *PostgresStore {
	return &PostgresStore{q: q, cfg: cfg}
}

var (
	_ FileStore       = (*PostgresStore)(nil)
	_ ExtractionStore = (*PostgresStore)(nil)
)

// FindByDedupKey returns the file matching the full dedup tuple, or nil.
func (s *PostgresStore) FindByDedupKey(ctx context.Context, tenantID, contentHash string, fileSize int64, source, sourceID string) (*model.File, error) {
	f := &model.File{}
	err := s.q.QueryRow(ctx, `
		SELECT id, tenant_id, content_hash, file_size, source, source_id, created_at
		FROM files
		WHERE tenant_id=$1 AND content_hash=$2 AND file_size=$3 AND source=$4
			AND COALESCE(source_id, '')=$5`,
		tenantID, contentHash, fileSize, source, sourceID).
		Scan(&f.ID, &f.TenantID, &f.ContentHash, &f.FileSize, &f.Source, &f.SourceID, &f.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrap(err, "dedup: find file")
	}
	return f, nil
}

// CreateFile inserts f. Conflict-tolerant like supplier creation: a
// dedup-key collision returns created=false without aborting the
// enclosing transaction.
func (s *PostgresStore) CreateFile(ctx context.Context, f *model.File) (bool, error) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	err := s.q.QueryRow(ctx, `
		INSERT INTO files (id, tenant_id, content_hash, file_size, source, source_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT DO NOTHING
		RETURNING created_at`,
		f.ID, f.TenantID, f.ContentHash, f.FileSize, f.Source, f.SourceID,
	).Scan(&f.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, eris.Wrap(err, "dedup: create file")
	}
	return true, nil
}

const extractionColumns = `id, tenant_id, file_id, fingerprint, fields, duplicate_of, created_at`

func scanExtraction(row pgx.Row) (*model.Extraction, error) {
	e := &model.Extraction{}
	var fileID *string
	err := row.Scan(&e.ID, &e.TenantID, &fileID, &e.Fingerprint, &e.Fields, &e.DuplicateOf, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if fileID != nil {
		e.FileID = *fileID
	}
	return e, nil
}

// FindByFingerprint returns the oldest in-tenant extraction with this
// fingerprint, or nil. Oldest wins so duplicate_of chains always point at
// the first sighting.
func (s *PostgresStore) FindByFingerprint(ctx context.Context, tenantID, fingerprint string) (*model.Extraction, error) {
	e, err := scanExtraction(s.q.QueryRow(ctx, `
		SELECT `+extractionColumns+`
		FROM extractions
		WHERE tenant_id=$1 AND fingerprint=$2
		ORDER BY created_at
		LIMIT 1`, tenantID, fingerprint))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrap(err, "dedup: find by fingerprint")
	}
	return e, nil
}

// FindCandidates returns recent extractions in the tenant, newest first.
// When amount is known the scan is banded around it; rows with no amount
// stay in so a missing factor degrades the score instead of hiding the
// candidate.
func (s *PostgresStore) FindCandidates(ctx context.Context, tenantID string, amount *float64) ([]model.Extraction, error) {
	limit := s.cfg.CandidateLimit
	if limit <= 0 {
		limit = 50
	}
	windowDays := s.cfg.CandidateWindowDays
	if windowDays <= 0 {
		windowDays = 365
	}

	rows, err := s.q.Query(ctx, `
		SELECT `+extractionColumns+`
		FROM extractions
		WHERE tenant_id=$1
			AND created_at >= now() - make_interval(days => $2)
			AND ($3::numeric IS NULL
				OR total_amount IS NULL
				OR total_amount BETWEEN $3 * (1 - $4::numeric) AND $3 * (1 + $4::numeric))
		ORDER BY created_at DESC
		LIMIT $5`,
		tenantID, windowDays, amount, s.cfg.CandidateAmountBand, limit)
	if err != nil {
		return nil, eris.Wrap(err, "dedup: find candidates")
	}
	defer rows.Close()

	var out []model.Extraction
	for rows.Next() {
		e, err := scanExtraction(rows)
		if err != nil {
			return nil, eris.Wrap(err, "dedup: scan extraction")
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// CreateExtraction inserts e. The scored fields are denormalized into
// their own columns so the candidate window query can filter without
// unpacking JSONB.
func (s *PostgresStore) CreateExtraction(ctx context.Context, e *model.Extraction) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	var fileID *string
	if e.FileID != "" {
		fileID = &e.FileID
	}
	var docDate *time.Time
	if d := hashing.NormalizeDate(e.Fields.DocumentDate.StringValue()); d != "" {
		if t, err := time.Parse("2006-01-02", d); err == nil {
			docDate = &t
		}
	}
	var amount *float64
	if v, ok := e.Fields.TotalAmount.FloatValue(); ok {
		amount = &v
	}

	err := s.q.QueryRow(ctx, `
		INSERT INTO extractions
			(id, tenant_id, file_id, fingerprint, vendor_name, invoice_number,
			 document_date, total_amount, currency, fields, duplicate_of)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at`,
		e.ID, e.TenantID, fileID, e.Fingerprint,
		hashing.NormalizeVendorName(e.Fields.VendorName.StringValue()),
		hashing.NormalizeInvoiceNumber(e.Fields.InvoiceNumber.StringValue()),
		docDate, amount,
		hashing.NormalizeCurrency(e.Fields.Currency.StringValue()),
		e.Fields, e.DuplicateOf,
	).Scan(&e.CreatedAt)
	if err != nil {
		return eris.Wrap(err, "dedup: create extraction")
	}
	return nil
}
